package logger

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

// ANSI color constants (gruvbox-ish palette: warm, muted, easy on eyes)
const (
	colorReset  = "\x1b[0m"
	colorBold   = "\x1b[1m"
	colorDim    = "\x1b[2m"
	colorTime   = "\x1b[38;5;108m" // muted cyan-green
	colorField  = "\x1b[38;5;245m" // grey for k=v pairs
	colorInfo   = "\x1b[38;5;223m" // soft cream
	colorDebug  = "\x1b[38;5;109m" // soft blue
	colorWarn   = "\x1b[38;5;214m" // soft yellow
	colorError  = "\x1b[38;5;167m" // warm red
	colorErrBg  = "\x1b[48;5;88m"  // dark red background
	colorWarnBg = "\x1b[48;5;58m"  // dark yellow background
)

// consoleEncoder renders calm single-line log output for humans:
//
//	15:04:05  message text  key=value key=value
//
// Levels other than INFO get a colored tag; structured fields are dimmed
// so the message stays the focus.
type consoleEncoder struct {
	zapcore.Encoder // base JSON encoder, used for field serialization
}

func newConsoleEncoder() *consoleEncoder {
	return &consoleEncoder{
		Encoder: zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
	}
}

func (enc *consoleEncoder) Clone() zapcore.Encoder {
	return &consoleEncoder{Encoder: enc.Encoder.Clone()}
}

func (enc *consoleEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	final := buffer.NewPool().Get()

	final.AppendString(colorTime)
	final.AppendString(ent.Time.Format("15:04:05"))
	final.AppendString(colorReset)

	// Level tag only for non-INFO so routine output stays quiet
	if ent.Level != zapcore.InfoLevel {
		final.AppendString("  ")
		final.AppendString(levelTag(ent.Level))
	}

	final.AppendString("  ")
	final.AppendString(messageColor(ent.Level))
	final.AppendString(ent.Message)
	final.AppendString(colorReset)

	if len(fields) > 0 {
		m := zapcore.NewMapObjectEncoder()
		for _, f := range fields {
			f.AddTo(m)
		}
		keys := make([]string, 0, len(m.Fields))
		for k := range m.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			final.AppendString("  ")
			final.AppendString(colorField)
			final.AppendString(k)
			final.AppendString("=")
			final.AppendString(fmt.Sprintf("%v", m.Fields[k]))
			final.AppendString(colorReset)
		}
	}

	final.AppendString("\n")
	return final, nil
}

func levelTag(level zapcore.Level) string {
	switch level {
	case zapcore.DebugLevel:
		return colorDebug + "DEBUG" + colorReset
	case zapcore.WarnLevel:
		return colorBold + colorWarnBg + " WARN " + colorReset
	case zapcore.ErrorLevel, zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		return colorBold + colorErrBg + " ERROR " + colorReset
	default:
		return ""
	}
}

func messageColor(level zapcore.Level) string {
	switch level {
	case zapcore.DebugLevel:
		return colorDim + colorDebug
	case zapcore.WarnLevel:
		return colorWarn
	case zapcore.ErrorLevel, zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		return colorError
	default:
		return colorInfo
	}
}
