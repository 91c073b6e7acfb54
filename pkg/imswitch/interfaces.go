package imswitch

import (
	"codeberg.org/miketth/imswitch/pkg/accel"
	"codeberg.org/miketth/imswitch/pkg/engines"
	"codeberg.org/miketth/imswitch/pkg/layout"
)

type EngineDirectory interface {
	GetEnginesByNames(names []string) []*engines.Engine
	SetGlobalEngine(name string) error
	GetGlobalEngine() (*engines.Engine, error)
}

type LayoutApplier interface {
	Refresh() error
	SystemLayout() string
	Apply(layout string) (bool, error)
	OnLayoutChanged() (layout.Signal, error)
}

// ConfigWriter is the persistence side the controller needs.
type ConfigWriter interface {
	PersistOrder(names []string) error
	UpdateXkbEngines() error
}

// Status is what the status area shows for the active engine.
type Status struct {
	Engine  string `json:"engine"`
	Label   string `json:"text"`
	Icon    string `json:"icon"`
	Tooltip string `json:"tooltip"`
}

type Indicator interface {
	Update(status Status) error
}

type KeyEventType int

const (
	KeyPress KeyEventType = iota
	KeyRelease
)

type KeyEvent struct {
	Type   KeyEventType
	Keysym uint32
	State  uint32
}

// TriggerHandler is called when a registered grab fires.
type TriggerHandler func(grab string, modifiers, mask uint32)

type BindingHandle int

// Registrar installs compositor wide key grabs.
type Registrar interface {
	AddBinding(grab accel.Grab, handler TriggerHandler) (BindingHandle, error)
	RemoveBinding(handle BindingHandle) error
}

// Picker is the engine switcher shown while a trigger is held. onSelect
// must be called at most once.
type Picker interface {
	Show(list engines.OrderedList, bindings []accel.Keybinding, mask uint32, onSelect func(name string)) bool
	KeyPress(ev KeyEvent) bool
	KeyRelease(ev KeyEvent) bool
	Close()
}

type PickerFactory func() Picker
