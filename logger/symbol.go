package logger

import (
	"github.com/teranos/cadence/sym"
	"go.uber.org/zap"
)

// Symbol-aware logging helpers.
// These functions attach the symbol as a structured field, not in the message,
// so logs stay queryable by symbol and messages stay clean.
//
// Usage:
//
//	// At initialization:
//	type Scheduler struct {
//	    log *zap.SugaredLogger
//	}
//	s.log = logger.AddRepeatSymbol(baseLogger)
//
//	// Or inline:
//	logger.AddGateSymbol(s.log).Debugw("Waiting for focus", "sequence", name)

// WithSymbol returns the global logger with the given symbol as a field.
func WithSymbol(symbol string) *zap.SugaredLogger {
	return Base().With(FieldSymbol, symbol)
}

// AddRunSymbol wraps a logger with the Run symbol (▸)
func AddRunSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.Run)
}

// AddRepeatSymbol wraps a logger with the Repeat symbol (↻)
func AddRepeatSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.Repeat)
}

// AddGateSymbol wraps a logger with the Gate symbol (⌖)
func AddGateSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.Gate)
}

// AddInputSymbol wraps a logger with the Input symbol (⌨)
func AddInputSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.Input)
}

// AddDBSymbol wraps a logger with the DB symbol (⊔)
func AddDBSymbol(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.With(FieldSymbol, sym.DB)
}
