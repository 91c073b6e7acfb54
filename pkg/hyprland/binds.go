package hyprland

import (
	"codeberg.org/miketth/imswitch/pkg/accel"
	"codeberg.org/miketth/imswitch/pkg/imswitch"
	"errors"
	"fmt"
	"go.uber.org/zap"
	"strconv"
	"strings"
)

var ErrNotBound = errors.New("grab is not bound")

type boundGrab struct {
	grab    accel.Grab
	keys    []string
	handler imswitch.TriggerHandler
}

// Binder registers trigger grabs as Hyprland binds that run command with
// the grab name appended. Trigger is what that command ends up calling.
type Binder struct {
	ctl     *Hyprctl
	command []string
	log     *zap.SugaredLogger

	next  imswitch.BindingHandle
	grabs map[imswitch.BindingHandle]*boundGrab
}

func NewBinder(ctl *Hyprctl, command []string, log *zap.SugaredLogger) *Binder {
	return &Binder{
		ctl:     ctl,
		command: command,
		log:     log,
		grabs:   make(map[imswitch.BindingHandle]*boundGrab),
	}
}

func (b *Binder) AddBinding(grab accel.Grab, handler imswitch.TriggerHandler) (imswitch.BindingHandle, error) {
	bound := &boundGrab{grab: grab, handler: handler}

	exec := b.execLine(grab.Name)
	var cmds []string
	for _, kb := range grab.Bindings {
		if !kb.Valid() {
			b.log.Debugw("skipping invalid binding", "grab", grab.Name, "accelerator", kb.Accelerator)
			continue
		}
		key := bindKey(kb)
		bound.keys = append(bound.keys, key)
		cmds = append(cmds, fmt.Sprintf("keyword bind %s,exec,%s", key, exec))
	}

	if err := b.ctl.batch(cmds...); err != nil {
		_ = b.unbind(bound.keys)
		return 0, fmt.Errorf("bind %s: %w", grab.Name, err)
	}

	b.next++
	b.grabs[b.next] = bound
	b.log.Debugw("bound grab", "grab", grab.Name, "keys", bound.keys)
	return b.next, nil
}

func (b *Binder) RemoveBinding(handle imswitch.BindingHandle) error {
	bound, ok := b.grabs[handle]
	if !ok {
		return nil
	}
	delete(b.grabs, handle)

	if err := b.unbind(bound.keys); err != nil {
		return fmt.Errorf("unbind %s: %w", bound.grab.Name, err)
	}
	return nil
}

func (b *Binder) unbind(keys []string) error {
	cmds := make([]string, 0, len(keys))
	for _, key := range keys {
		cmds = append(cmds, "keyword unbind "+key)
	}
	return b.ctl.batch(cmds...)
}

// Trigger runs the handler of the named grab with the modifiers of its
// first valid binding.
func (b *Binder) Trigger(name string) error {
	for _, bound := range b.grabs {
		if bound.grab.Name != name {
			continue
		}
		for _, kb := range bound.grab.Bindings {
			if kb.Valid() {
				bound.handler(name, kb.Modifiers, kb.Modifiers)
				return nil
			}
		}
	}
	return fmt.Errorf("%s: %w", name, ErrNotBound)
}

func (b *Binder) execLine(grab string) string {
	parts := make([]string, 0, len(b.command)+1)
	for _, arg := range append(append([]string(nil), b.command...), grab) {
		if strings.ContainsAny(arg, " \t'\"") {
			arg = strconv.Quote(arg)
		}
		parts = append(parts, arg)
	}
	return strings.Join(parts, " ")
}

var hyprModifiers = []struct {
	mask uint32
	name string
}{
	{accel.ShiftMask, "SHIFT"},
	{accel.LockMask, "CAPS"},
	{accel.ControlMask, "CTRL"},
	{accel.Mod1Mask | accel.MetaMask, "ALT"},
	{accel.Mod2Mask, "MOD2"},
	{accel.Mod3Mask, "MOD3"},
	{accel.Mod4Mask | accel.SuperMask | accel.HyperMask, "SUPER"},
	{accel.Mod5Mask, "MOD5"},
}

// bindKey renders a binding as the "MODS,key" pair of a Hyprland bind.
func bindKey(kb accel.Keybinding) string {
	var mods []string
	for _, m := range hyprModifiers {
		if kb.Modifiers&m.mask != 0 {
			mods = append(mods, m.name)
		}
	}
	return strings.Join(mods, " ") + "," + kb.Key
}
