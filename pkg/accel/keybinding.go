package accel

// Keybinding is one parsed trigger accelerator.
type Keybinding struct {
	Accelerator string
	Key         string
	Keysym      uint32
	Modifiers   uint32
	IsBackward  bool
}

func NewKeybinding(accelerator string, backward bool) Keybinding {
	key, keysym, modifiers := parse(accelerator)
	return Keybinding{
		Accelerator: accelerator,
		Key:         key,
		Keysym:      keysym,
		Modifiers:   modifiers,
		IsBackward:  backward,
	}
}

// Valid reports whether the binding can ever match a key event.
func (k Keybinding) Valid() bool {
	return k.Keysym != 0
}

// Matches compares a key event against the binding. state must already have
// the ignored and shift bits removed, shift is handled as direction.
func (k Keybinding) Matches(keysym, state uint32) bool {
	if !k.Valid() {
		return false
	}
	return k.Keysym == keysym && k.Modifiers&^ShiftMask == state&^ShiftMask
}

func NewKeybindings(accelerators []string, backward bool) []Keybinding {
	out := make([]Keybinding, 0, len(accelerators))
	for _, a := range accelerators {
		out = append(out, NewKeybinding(a, backward))
	}
	return out
}

// Grab names of the trigger key grabs.
const (
	GrabTrigger         = "trigger-accel"
	GrabTriggerBackward = "trigger-accel-backward"
	GrabTriggerKo       = "trigger-ko"
)

// Grab is one named set of bindings registered with the compositor.
type Grab struct {
	Name     string
	Bindings []Keybinding
}

// Backward reports whether the grab cycles in reverse.
func (g Grab) Backward() bool {
	return g.Name == GrabTriggerBackward
}

// Flatten returns the bindings of all grabs in order.
func Flatten(grabs []Grab) []Keybinding {
	var out []Keybinding
	for _, g := range grabs {
		out = append(out, g.Bindings...)
	}
	return out
}

// IgnoredMask holds the locking modifiers that never take part in matching.
const IgnoredMask = LockMask | Mod2Mask | ReleaseMask

// Clean drops the non-modifier bits and the ignored modifiers from state.
func Clean(state uint32) uint32 {
	return state & ModifierMask &^ IgnoredMask
}

// Match returns the first binding matching the event and whether it was
// found.
func Match(bindings []Keybinding, keysym, state uint32) (Keybinding, bool) {
	state = Clean(state)
	for _, b := range bindings {
		if b.Matches(keysym, state) {
			return b, true
		}
	}
	return Keybinding{}, false
}
