package imswitch

import (
	"codeberg.org/miketth/imswitch/pkg/accel"
	"codeberg.org/miketth/imswitch/pkg/engines"
	"go.uber.org/zap"
)

// CyclePicker is a headless switcher. Each trigger press moves the
// highlight; releasing the held modifiers selects the highlighted engine.
// With immediate set, or when the trigger has no modifier to hold, every
// press selects right away.
type CyclePicker struct {
	immediate bool
	log       *zap.SugaredLogger

	open      bool
	list      engines.OrderedList
	bindings  []accel.Keybinding
	mask      uint32
	highlight int
	onSelect  func(name string)
}

func NewCyclePicker(immediate bool, log *zap.SugaredLogger) *CyclePicker {
	return &CyclePicker{immediate: immediate, log: log}
}

func (p *CyclePicker) Show(list engines.OrderedList, bindings []accel.Keybinding, mask uint32, onSelect func(name string)) bool {
	if len(list) == 0 {
		return false
	}

	p.open = true
	p.list = list
	p.bindings = bindings
	p.mask = accel.Clean(mask) &^ accel.ShiftMask
	p.highlight = 0
	p.onSelect = onSelect
	return true
}

func (p *CyclePicker) KeyPress(ev KeyEvent) bool {
	if !p.open {
		return false
	}

	binding, ok := accel.Match(p.bindings, ev.Keysym, ev.State)
	if !ok {
		return false
	}

	step := 1
	if binding.IsBackward || ev.State&accel.ShiftMask != 0 {
		step = -1
	}
	n := len(p.list)
	p.highlight = ((p.highlight+step)%n + n) % n
	p.log.Debugw("switcher highlight", "engine", p.list[p.highlight].Name)

	if p.immediate || p.mask == 0 {
		p.selectHighlighted()
	}
	return true
}

func (p *CyclePicker) KeyRelease(ev KeyEvent) bool {
	if !p.open {
		return false
	}

	released := accel.ModifierForKeysym(ev.Keysym)
	if released == 0 || p.mask&released == 0 {
		return true
	}

	if accel.Clean(ev.State)&^released&p.mask == 0 {
		p.selectHighlighted()
	}
	return true
}

func (p *CyclePicker) Close() {
	p.open = false
	p.list = nil
	p.bindings = nil
	p.onSelect = nil
}

func (p *CyclePicker) selectHighlighted() {
	onSelect := p.onSelect
	name := p.list[p.highlight].Name
	p.onSelect = nil
	if onSelect != nil {
		onSelect(name)
	}
}
