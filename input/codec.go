// Package input translates sequence actions into OS input events.
//
// The executor applies the humanizing randomization each action
// describes (jittered waits, reaction pre-delays, curved cursor moves,
// probabilistic gating) and dispatches through a Driver, which is
// either the real robotgo backend or a recorder.
package input

import (
	"strconv"
	"strings"
)

// Key is a parsed key identifier in canonical driver form. Unresolved
// identifiers pass through with Known false and are attempted as-is;
// the driver reports them if they are genuinely invalid.
type Key struct {
	Name  string
	Known bool
}

// Mouse button names.
const (
	ButtonLeft   = "left"
	ButtonRight  = "right"
	ButtonMiddle = "middle"
)

// keyAliases folds accepted alternate spellings onto canonical driver
// names.
var keyAliases = map[string]string{
	"control": "ctrl",
	"return":  "enter",
	"escape":  "esc",

	"leftarrow":   "left",
	"left_arrow":  "left",
	"arrow_left":  "left",
	"rightarrow":  "right",
	"right_arrow": "right",
	"arrow_right": "right",
	"uparrow":     "up",
	"up_arrow":    "up",
	"arrow_up":    "up",
	"downarrow":   "down",
	"down_arrow":  "down",
	"arrow_down":  "down",

	"page_up":   "pageup",
	"pgup":      "pageup",
	"page_down": "pagedown",
	"pgdn":      "pagedown",

	"ins":          "insert",
	"print_screen": "printscreen",
	"prtsc":        "printscreen",

	"numlock": "num_lock",
}

// keyNames are canonical names accepted directly. Populated with the
// function keys and numpad digits in init.
var keyNames = map[string]struct{}{
	"ctrl":        {},
	"shift":       {},
	"alt":         {},
	"cmd":         {},
	"enter":       {},
	"space":       {},
	"tab":         {},
	"esc":         {},
	"backspace":   {},
	"delete":      {},
	"up":          {},
	"down":        {},
	"left":        {},
	"right":       {},
	"home":        {},
	"end":         {},
	"pageup":      {},
	"pagedown":    {},
	"insert":      {},
	"printscreen": {},
	"capslock":    {},
	"num_lock":    {},
}

func init() {
	for i := 1; i <= 24; i++ {
		keyNames["f"+strconv.Itoa(i)] = struct{}{}
	}
	// num0..num9 and numpad0..numpad9 are the numpad digits, distinct
	// from num_lock.
	for i := 0; i <= 9; i++ {
		digit := "num" + strconv.Itoa(i)
		keyNames[digit] = struct{}{}
		keyAliases["numpad"+strconv.Itoa(i)] = digit
	}
}

// ParseKey maps a document key identifier (w, ctrl, left_arrow,
// numpad5, ...) to canonical form. Matching is case-insensitive and
// single characters map to themselves lowercased.
func ParseKey(raw string) Key {
	s := strings.ToLower(raw)
	if name, ok := keyAliases[s]; ok {
		return Key{Name: name, Known: true}
	}
	if _, ok := keyNames[s]; ok {
		return Key{Name: s, Known: true}
	}
	if len([]rune(s)) == 1 {
		return Key{Name: s, Known: true}
	}
	return Key{Name: raw, Known: false}
}

// ParseButton maps a document button identifier to a driver button
// name. Unrecognized or empty values fall back to the left button.
func ParseButton(raw string) string {
	switch strings.ToLower(raw) {
	case ButtonRight:
		return ButtonRight
	case ButtonMiddle:
		return ButtonMiddle
	default:
		return ButtonLeft
	}
}
