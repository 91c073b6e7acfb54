package imswitch

import (
	"codeberg.org/miketth/imswitch/pkg/accel"
	"codeberg.org/miketth/imswitch/pkg/engines"
)

// CyclingSession lives while a trigger is held. It keeps the engine list and
// bindings it was opened with, later changes do not affect it.
type CyclingSession struct {
	list     engines.OrderedList
	bindings []accel.Keybinding
	picker   Picker
}

func newCyclingSession(list engines.OrderedList, bindings []accel.Keybinding, picker Picker) *CyclingSession {
	return &CyclingSession{list: list, bindings: bindings, picker: picker}
}

func (s *CyclingSession) show(mask uint32, onSelect func(name string)) bool {
	return s.picker.Show(s.list, s.bindings, mask, onSelect)
}

// route hands ev to the picker. It reports whether the key still belongs to
// the session.
func (s *CyclingSession) route(ev KeyEvent) bool {
	if ev.Type == KeyRelease {
		return s.picker.KeyRelease(ev)
	}
	return s.picker.KeyPress(ev)
}

func (s *CyclingSession) close() {
	s.picker.Close()
}
