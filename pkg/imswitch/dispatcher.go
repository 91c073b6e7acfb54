package imswitch

import (
	"codeberg.org/miketth/imswitch/pkg/accel"
	"codeberg.org/miketth/imswitch/pkg/engines"
	"errors"
	"fmt"
	"go.uber.org/zap"
	"strings"
)

var ErrUnknownGrab = errors.New("unknown grab")

// Switcher is the part of the Controller the dispatcher drives.
type Switcher interface {
	Engines() engines.OrderedList
	ActivateByName(name string, force bool) error
}

// Dispatcher turns trigger key presses, from the filtered key stream or from
// compositor keybindings, into cycling sessions. At most one session is open.
type Dispatcher struct {
	switcher  Switcher
	registrar Registrar
	newPicker PickerFactory
	log       *zap.SugaredLogger

	grabs   []accel.Grab
	handles []BindingHandle
	session *CyclingSession
}

func NewDispatcher(
	switcher Switcher,
	registrar Registrar,
	newPicker PickerFactory,
	log *zap.SugaredLogger,
) *Dispatcher {
	return &Dispatcher{
		switcher:  switcher,
		registrar: registrar,
		newPicker: newPicker,
		log:       log,
	}
}

// SetGrabs replaces the trigger grabs. The old grabs are unregistered before
// the new ones are registered.
func (d *Dispatcher) SetGrabs(grabs []accel.Grab) error {
	var errs []error
	if err := d.unregister(); err != nil {
		errs = append(errs, err)
	}

	d.grabs = grabs
	if d.registrar == nil {
		return errors.Join(errs...)
	}

	for _, grab := range grabs {
		handle, err := d.registrar.AddBinding(grab, d.HandleTrigger)
		if err != nil {
			errs = append(errs, fmt.Errorf("add binding %s: %w", grab.Name, err))
			continue
		}
		d.handles = append(d.handles, handle)
	}

	return errors.Join(errs...)
}

func (d *Dispatcher) unregister() error {
	var errs []error
	for _, handle := range d.handles {
		if err := d.registrar.RemoveBinding(handle); err != nil {
			errs = append(errs, fmt.Errorf("remove binding: %w", err))
		}
	}
	d.handles = nil
	return errors.Join(errs...)
}

func (d *Dispatcher) Grabs() []accel.Grab {
	return d.grabs
}

// Active reports whether a cycling session is open.
func (d *Dispatcher) Active() bool {
	return d.session != nil
}

// FilterEvent sees every key event. It reports whether the event was
// consumed.
func (d *Dispatcher) FilterEvent(ev KeyEvent) bool {
	if ev.State&(accel.HandledMask|accel.ForwardMask) != 0 {
		return false
	}

	if d.session != nil {
		return d.route(ev)
	}

	if ev.Type != KeyPress {
		return false
	}

	binding, ok := accel.Match(accel.Flatten(d.grabs), ev.Keysym, ev.State)
	if !ok {
		return false
	}

	return d.open(binding.Modifiers, ev)
}

// HandleTrigger is the keybinding callback for the trigger grabs.
func (d *Dispatcher) HandleTrigger(grab string, modifiers, mask uint32) {
	if !strings.HasPrefix(grab, "trigger") {
		d.log.Debugw("ignoring keybinding", "grab", grab)
		return
	}

	binding, err := d.bindingFor(grab, modifiers)
	if err != nil {
		d.log.Warnw("trigger failed", "grab", grab, "error", err)
		return
	}

	ev := KeyEvent{Type: KeyPress, Keysym: binding.Keysym, State: modifiers}
	if binding.IsBackward {
		ev.State |= accel.ShiftMask
	}

	if d.session != nil {
		d.route(ev)
		return
	}
	d.open(mask, ev)
}

// Trigger fires the named grab as if its first binding was pressed.
func (d *Dispatcher) Trigger(grab string) error {
	binding, err := d.bindingFor(grab, 0)
	if err != nil {
		return err
	}
	d.HandleTrigger(grab, binding.Modifiers, binding.Modifiers)
	return nil
}

func (d *Dispatcher) bindingFor(name string, modifiers uint32) (accel.Keybinding, error) {
	for _, grab := range d.grabs {
		if grab.Name != name {
			continue
		}

		var first *accel.Keybinding
		for i, b := range grab.Bindings {
			if !b.Valid() {
				continue
			}
			if first == nil {
				first = &grab.Bindings[i]
			}
			if accel.Clean(b.Modifiers)&^accel.ShiftMask == accel.Clean(modifiers)&^accel.ShiftMask {
				return b, nil
			}
		}
		if first != nil {
			return *first, nil
		}
		return accel.Keybinding{}, fmt.Errorf("%s has no valid binding: %w", name, ErrUnknownGrab)
	}
	return accel.Keybinding{}, fmt.Errorf("%s: %w", name, ErrUnknownGrab)
}

func (d *Dispatcher) open(mask uint32, ev KeyEvent) bool {
	d.teardown()

	list := d.switcher.Engines()
	session := newCyclingSession(list, accel.Flatten(d.grabs), d.newPicker())
	d.session = session

	if !session.show(mask, func(name string) { d.onSelect(session, name) }) {
		d.log.Warnw("could not show switcher", "engines", len(list))
		d.teardown()
		return false
	}

	d.log.Debugw("cycling session opened", "engines", list.Names())
	if !session.route(ev) && d.session == session {
		d.teardown()
	}
	return true
}

func (d *Dispatcher) route(ev KeyEvent) bool {
	session := d.session
	if session.route(ev) {
		return true
	}
	if d.session == session {
		d.teardown()
	}
	return ev.Type == KeyRelease
}

func (d *Dispatcher) onSelect(session *CyclingSession, name string) {
	if d.session != session {
		d.log.Debugw("selection from stale session", "engine", name)
		return
	}

	defer d.teardown()
	if err := d.switcher.ActivateByName(name, true); err != nil {
		d.log.Errorw("activate engine", "engine", name, "error", err)
	}
}

func (d *Dispatcher) teardown() {
	if d.session == nil {
		return
	}
	session := d.session
	d.session = nil
	session.close()
	d.log.Debug("cycling session closed")
}

// Close drops the session and all registered grabs.
func (d *Dispatcher) Close() error {
	d.teardown()
	if d.registrar == nil {
		return nil
	}
	return d.unregister()
}
