// Package sequence defines named input-automation sequences and the
// store that holds them.
//
// A sequence is an ordered action list in one of two document forms: a
// bare list (one-shot only) or an object carrying an `every` interval
// in seconds, which makes it eligible for periodic scheduling.
// Documents are YAML; JSON documents parse unchanged since YAML is a
// superset.
package sequence

import "strings"

// Action kinds.
const (
	KindKey       = "key"
	KindMouse     = "mouse"
	KindWait      = "wait"
	KindSuperWait = "superwait"
	KindRepeat    = "repeat"
)

// Sub-action verbs. Key actions accept press/down/up/hold, mouse
// actions accept click/down/up/hold.
const (
	VerbPress = "press"
	VerbClick = "click"
	VerbDown  = "down"
	VerbUp    = "up"
	VerbHold  = "hold"
)

// Action is a single instruction inside a sequence. The fields are a
// union across the action kinds; which ones apply depends on Type.
// Pointer fields distinguish absent from zero, because absence selects
// a randomized default at execution time while an explicit value is
// honored exactly.
type Action struct {
	Type     string   `json:"type,omitempty" yaml:"type,omitempty"`
	Verb     string   `json:"action,omitempty" yaml:"action,omitempty"`
	Key      string   `json:"key,omitempty" yaml:"key,omitempty"`
	Button   string   `json:"button,omitempty" yaml:"button,omitempty"`
	X        *int     `json:"x,omitempty" yaml:"x,omitempty"`
	Y        *int     `json:"y,omitempty" yaml:"y,omitempty"`
	Clicks   *int     `json:"clicks,omitempty" yaml:"clicks,omitempty"`
	Interval float64  `json:"interval,omitempty" yaml:"interval,omitempty"`
	Duration *float64 `json:"duration,omitempty" yaml:"duration,omitempty"`
	Seconds  float64  `json:"seconds,omitempty" yaml:"seconds,omitempty"`
	Every    float64  `json:"every,omitempty" yaml:"every,omitempty"`
	Count    *int     `json:"count,omitempty" yaml:"count,omitempty"`
	Actions  []Action `json:"actions,omitempty" yaml:"actions,omitempty"`
	Chance   *int     `json:"chance,omitempty" yaml:"chance,omitempty"`
	Delay    float64  `json:"delay,omitempty" yaml:"delay,omitempty"`
}

// Kind returns the normalized action type. An absent type means a key
// action.
func (a Action) Kind() string {
	if a.Type == "" {
		return KindKey
	}
	return strings.ToLower(a.Type)
}

// SubAction returns the verb with the per-kind default applied: press
// for key actions, click for mouse actions. The verb itself is taken
// as written; verbs are lowercase in the document format.
func (a Action) SubAction() string {
	if a.Verb != "" {
		return a.Verb
	}
	if a.Kind() == KindMouse {
		return VerbClick
	}
	return VerbPress
}

// ClickCount returns the number of click iterations. Absent means a
// single click; an explicit 0 clicks zero times.
func (a Action) ClickCount() int {
	if a.Clicks == nil {
		return 1
	}
	return *a.Clicks
}

// HasTarget reports whether the action carries both mouse coordinates.
// The movement phase of a mouse action only runs when both are set.
func (a Action) HasTarget() bool {
	return a.X != nil && a.Y != nil
}

// Sequence is a named, ordered action list. Object-form sequences may
// carry an Every interval making them eligible for periodic runs;
// bare-list sequences are one-shot only.
type Sequence struct {
	Name    string
	Every   float64
	Actions []Action

	bare bool
}

// Bare reports whether the sequence was defined as a bare action list
// rather than an object with every/actions fields.
func (s Sequence) Bare() bool { return s.bare }

// Periodic reports whether the sequence can be scheduled repeatedly.
func (s Sequence) Periodic() bool { return !s.bare && s.Every > 0 }
