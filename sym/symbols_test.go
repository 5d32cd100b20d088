package sym

import (
	"testing"
	"unicode/utf8"
)

func TestSymbolToNameAndNameToSymbolAreBidirectional(t *testing.T) {
	for symbol, name := range SymbolToName {
		got, ok := NameToSymbol[name]
		if !ok {
			t.Errorf("SymbolToName has %q → %q, but NameToSymbol has no entry for %q", symbol, name, name)
			continue
		}
		if got != symbol {
			t.Errorf("bidirectional mismatch: SymbolToName[%q] = %q, but NameToSymbol[%q] = %q", symbol, name, name, got)
		}
	}

	for name, symbol := range NameToSymbol {
		got, ok := SymbolToName[symbol]
		if !ok {
			t.Errorf("NameToSymbol has %q → %q, but SymbolToName has no entry for %q", name, symbol, symbol)
			continue
		}
		if got != name {
			t.Errorf("bidirectional mismatch: NameToSymbol[%q] = %q, but SymbolToName[%q] = %q", name, symbol, symbol, got)
		}
	}
}

func TestMapsHaveSameSize(t *testing.T) {
	if len(SymbolToName) != len(NameToSymbol) {
		t.Errorf("map size mismatch: SymbolToName has %d entries, NameToSymbol has %d",
			len(SymbolToName), len(NameToSymbol))
	}
}

func TestRegistryEntriesHaveDescriptions(t *testing.T) {
	for _, e := range registry {
		if e.description == "" {
			t.Errorf("registry entry %q (%q) has no description", e.name, e.glyph)
		}
	}
}

func TestSymbolsAreValidUnicode(t *testing.T) {
	for symbol := range SymbolToName {
		if !utf8.ValidString(symbol) {
			t.Errorf("symbol %q is not valid UTF-8", symbol)
		}
		if utf8.RuneCountInString(symbol) == 0 {
			t.Errorf("symbol for name %q is empty", SymbolToName[symbol])
		}
	}
}

func TestNoDuplicateSymbolValues(t *testing.T) {
	seen := make(map[string]string, len(registry))
	for _, e := range registry {
		if prevName, ok := seen[e.glyph]; ok {
			t.Errorf("duplicate symbol %q: used by both %q and %q", e.glyph, prevName, e.name)
		}
		seen[e.glyph] = e.name
	}
}

func TestForRunStatusCoversTerminalStates(t *testing.T) {
	for _, status := range []string{"running", "completed", "failed", "cancelled"} {
		if ForRunStatus(status) == "" {
			t.Errorf("ForRunStatus(%q) returned empty glyph", status)
		}
	}
	if ForRunStatus("nonsense") != "" {
		t.Errorf("ForRunStatus should return empty for unknown status")
	}
}
