package imswitch

import (
	"codeberg.org/miketth/imswitch/pkg/accel"
	"codeberg.org/miketth/imswitch/pkg/engines"
	"codeberg.org/miketth/imswitch/pkg/layout"
	"errors"
)

var errRefused = errors.New("refused")

type fakeDirectory struct {
	known  map[string]*engines.Engine
	global string
	refuse map[string]bool
	sets   []string
}

func newFakeDirectory(list ...*engines.Engine) *fakeDirectory {
	d := &fakeDirectory{known: make(map[string]*engines.Engine), refuse: make(map[string]bool)}
	for _, e := range list {
		d.known[e.Name] = e
	}
	return d
}

func (d *fakeDirectory) GetEnginesByNames(names []string) []*engines.Engine {
	var out []*engines.Engine
	for _, name := range names {
		if e, ok := d.known[name]; ok {
			c := *e
			out = append(out, &c)
		}
	}
	return out
}

func (d *fakeDirectory) SetGlobalEngine(name string) error {
	if d.refuse[name] {
		return errRefused
	}
	d.global = name
	d.sets = append(d.sets, name)
	return nil
}

func (d *fakeDirectory) GetGlobalEngine() (*engines.Engine, error) {
	e, ok := d.known[d.global]
	if !ok {
		return nil, errRefused
	}
	c := *e
	return &c, nil
}

type fakeApplier struct {
	system   string
	applied  []string
	signal   layout.Signal
	refreshs int
}

func (a *fakeApplier) Refresh() error       { a.refreshs++; return nil }
func (a *fakeApplier) SystemLayout() string { return a.system }
func (a *fakeApplier) Apply(l string) (bool, error) {
	a.applied = append(a.applied, l)
	return true, nil
}
func (a *fakeApplier) OnLayoutChanged() (layout.Signal, error) { return a.signal, nil }

type fakeIndicator struct {
	statuses []Status
}

func (i *fakeIndicator) Update(s Status) error {
	i.statuses = append(i.statuses, s)
	return nil
}

func (i *fakeIndicator) last() Status {
	if len(i.statuses) == 0 {
		return Status{}
	}
	return i.statuses[len(i.statuses)-1]
}

type fakeConfig struct {
	orders     [][]string
	xkbUpdates int
}

func (c *fakeConfig) PersistOrder(names []string) error {
	c.orders = append(c.orders, names)
	return nil
}

func (c *fakeConfig) UpdateXkbEngines() error {
	c.xkbUpdates++
	return nil
}

type fakeRegistrar struct {
	next     BindingHandle
	active   map[BindingHandle]string
	log      []string
	handlers map[string]TriggerHandler
}

func newFakeRegistrar() *fakeRegistrar {
	return &fakeRegistrar{active: make(map[BindingHandle]string), handlers: make(map[string]TriggerHandler)}
}

func (r *fakeRegistrar) AddBinding(grab accel.Grab, handler TriggerHandler) (BindingHandle, error) {
	r.next++
	r.active[r.next] = grab.Name
	r.handlers[grab.Name] = handler
	r.log = append(r.log, "add "+grab.Name)
	return r.next, nil
}

func (r *fakeRegistrar) RemoveBinding(h BindingHandle) error {
	r.log = append(r.log, "remove "+r.active[h])
	delete(r.active, h)
	return nil
}

type failingPicker struct {
	closed bool
}

func (p *failingPicker) Show(engines.OrderedList, []accel.Keybinding, uint32, func(string)) bool {
	return false
}
func (p *failingPicker) KeyPress(KeyEvent) bool   { return false }
func (p *failingPicker) KeyRelease(KeyEvent) bool { return false }
func (p *failingPicker) Close()                   { p.closed = true }
