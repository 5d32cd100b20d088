// Package sym defines canonical symbols for cadence run-state and system markers.
// These symbols are stable across CLI output, logs, and the control API.
package sym

// Run-state markers used in logs and status output.
const (
	Run    = "▸" // one-shot sequence run
	Repeat = "↻" // periodic task
	Stop   = "■" // cancellation / stop request
	Gate   = "⌖" // focus-window gating
)

// System infrastructure symbols.
const (
	Input = "⌨" // emitted input events
	Store = "☰" // sequence store / documents
	DB    = "⊔" // database/storage layer
	Open  = "✿" // graceful startup
	Close = "❀" // graceful shutdown
)

// entry binds a glyph to its name and description.
type entry struct {
	glyph       string
	name        string
	description string
}

// registry is the canonical mapping between glyphs and symbol metadata.
var registry = []entry{
	{Run, "run", "One-shot sequence run"},
	{Repeat, "repeat", "Periodic task"},
	{Stop, "stop", "Cancellation / stop request"},
	{Gate, "gate", "Focus-window gating"},
	{Input, "input", "Emitted input events"},
	{Store, "store", "Sequence store / documents"},
	{DB, "db", "Database/storage layer"},
	{Open, "open", "Graceful startup"},
	{Close, "close", "Graceful shutdown"},
}

// Lookup tables built from the registry at init time.
var (
	// SymbolToName maps glyph strings to their text name equivalents.
	SymbolToName map[string]string
	// NameToSymbol maps text names to their canonical glyph strings.
	NameToSymbol map[string]string
)

func init() {
	SymbolToName = make(map[string]string, len(registry))
	NameToSymbol = make(map[string]string, len(registry))
	for _, e := range registry {
		SymbolToName[e.glyph] = e.name
		NameToSymbol[e.name] = e.glyph
	}
}

// Name returns the text name for a glyph, or "" if unknown.
func Name(glyph string) string {
	return SymbolToName[glyph]
}

// Describe returns the human description for a glyph, or "" if unknown.
func Describe(glyph string) string {
	for _, e := range registry {
		if e.glyph == glyph {
			return e.description
		}
	}
	return ""
}

// ForRunStatus returns the marker glyph for a run-history status value.
func ForRunStatus(status string) string {
	switch status {
	case "running":
		return Repeat
	case "completed":
		return Run
	case "cancelled":
		return Stop
	case "failed":
		return "✗"
	default:
		return ""
	}
}
