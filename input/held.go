package input

// HeldSet tracks keys and buttons pressed without a matching release,
// so a cancelled run can restore input state instead of leaving the OS
// with something stuck down. One HeldSet belongs to one run; access is
// single-goroutine by construction, no locking.
type HeldSet struct {
	keys    map[string]Key
	buttons map[string]struct{}
}

// NewHeldSet creates an empty held-input tracker.
func NewHeldSet() *HeldSet {
	return &HeldSet{
		keys:    make(map[string]Key),
		buttons: make(map[string]struct{}),
	}
}

func (h *HeldSet) keyDown(k Key) {
	h.keys[k.Name] = k
}

func (h *HeldSet) keyUp(k Key) {
	delete(h.keys, k.Name)
}

func (h *HeldSet) buttonDown(b string) {
	h.buttons[b] = struct{}{}
}

func (h *HeldSet) buttonUp(b string) {
	delete(h.buttons, b)
}

// Empty reports whether nothing is currently held.
func (h *HeldSet) Empty() bool {
	return len(h.keys) == 0 && len(h.buttons) == 0
}
