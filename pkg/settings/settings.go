package settings

import (
	"errors"
	"fmt"
	"fortio.org/safecast"
	"slices"
	"strconv"
	"strings"
	"sync"
)

var ErrNotFound = errors.New("setting not found")

const (
	SectionGeneral = "general"
	SectionHotkey  = "general/hotkey"
	SectionPanel   = "panel"

	KeyPreloadEngines       = "preload_engines"
	KeyEnginesOrder         = "engines_order"
	KeyPreloadEngineMode    = "preload_engine_mode"
	KeyPreloadEnginesInited = "preload_engines_inited"
	KeyTriggerAccel         = "trigger_accel"
	KeyTriggerAccelBackward = "trigger_accel_backward"
	KeyLookupTableOrient    = "lookup_table_orientation"
)

// PreloadEngineMode values stored under general/preload_engine_mode.
const (
	PreloadModeUser         int32 = 0
	PreloadModeLangRelative int32 = 1
)

// Lookup table orientations stored under panel/lookup_table_orientation.
const (
	OrientationHorizontal int32 = 0
	OrientationVertical   int32 = 1
	OrientationSystem     int32 = 2
)

type Kind int

const (
	KindInvalid Kind = iota
	KindStrv
	KindInt
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindStrv:
		return "strv"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	}
	return "invalid"
}

func ParseKind(s string) (Kind, error) {
	switch s {
	case "strv":
		return KindStrv, nil
	case "int":
		return KindInt, nil
	case "bool":
		return KindBool, nil
	}
	return KindInvalid, fmt.Errorf("unknown kind %q", s)
}

// Value is a typed setting value.
type Value struct {
	Kind Kind     `json:"kind"`
	Strv []string `json:"strv,omitempty"`
	Int  int32    `json:"int,omitempty"`
	Bool bool     `json:"bool,omitempty"`
}

func Strv(s ...string) Value {
	return Value{Kind: KindStrv, Strv: s}
}

func Int(i int32) Value {
	return Value{Kind: KindInt, Int: i}
}

func Bool(b bool) Value {
	return Value{Kind: KindBool, Bool: b}
}

func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindStrv:
		return slices.Equal(v.Strv, o.Strv)
	case KindInt:
		return v.Int == o.Int
	case KindBool:
		return v.Bool == o.Bool
	}
	return true
}

func (v Value) String() string {
	switch v.Kind {
	case KindStrv:
		return "[" + strings.Join(v.Strv, ",") + "]"
	case KindInt:
		return strconv.Itoa(int(v.Int))
	case KindBool:
		return strconv.FormatBool(v.Bool)
	}
	return "<invalid>"
}

// ParseValue reads a value from its command line form.
func ParseValue(kind Kind, args []string) (Value, error) {
	switch kind {
	case KindStrv:
		return Strv(args...), nil
	case KindInt:
		if len(args) != 1 {
			return Value{}, fmt.Errorf("int takes exactly one argument, got %d", len(args))
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return Value{}, fmt.Errorf("parse int: %w", err)
		}
		i, err := safecast.Conv[int32](n)
		if err != nil {
			return Value{}, fmt.Errorf("parse int: %w", err)
		}
		return Int(i), nil
	case KindBool:
		if len(args) != 1 {
			return Value{}, fmt.Errorf("bool takes exactly one argument, got %d", len(args))
		}
		b, err := strconv.ParseBool(args[0])
		if err != nil {
			return Value{}, fmt.Errorf("parse bool: %w", err)
		}
		return Bool(b), nil
	}
	return Value{}, fmt.Errorf("unsupported kind %s", kind)
}

// Change is a value changed notification.
type Change struct {
	Section string
	Key     string
	Value   Value
}

// Store is a persisted settings store. Set notifies subscribers whenever the
// stored value actually changes.
type Store interface {
	Get(section, key string) (Value, error)
	Set(section, key string, value Value) error
	Subscribe(fn func(Change)) (unsubscribe func())
}

// Notifier keeps the subscriber list for store implementations.
type Notifier struct {
	lock   sync.Mutex
	nextID int
	subs   map[int]func(Change)
}

func (n *Notifier) Subscribe(fn func(Change)) func() {
	n.lock.Lock()
	defer n.lock.Unlock()

	if n.subs == nil {
		n.subs = make(map[int]func(Change))
	}
	id := n.nextID
	n.nextID++
	n.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			n.lock.Lock()
			defer n.lock.Unlock()
			delete(n.subs, id)
		})
	}
}

func (n *Notifier) Publish(c Change) {
	n.lock.Lock()
	ids := make([]int, 0, len(n.subs))
	for id := range n.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(Change), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, n.subs[id])
	}
	n.lock.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}

// GetStrv reads a string list, a missing value reads as nil.
func GetStrv(s Store, section, key string) ([]string, error) {
	v, err := s.Get(section, key)
	switch {
	case errors.Is(err, ErrNotFound):
		return nil, nil
	case err != nil:
		return nil, err
	case v.Kind != KindStrv:
		return nil, fmt.Errorf("%s/%s: want strv, got %s", section, key, v.Kind)
	}
	return v.Strv, nil
}

// GetInt reads an int, a missing value reads as def.
func GetInt(s Store, section, key string, def int32) (int32, error) {
	v, err := s.Get(section, key)
	switch {
	case errors.Is(err, ErrNotFound):
		return def, nil
	case err != nil:
		return def, err
	case v.Kind != KindInt:
		return def, fmt.Errorf("%s/%s: want int, got %s", section, key, v.Kind)
	}
	return v.Int, nil
}

// GetBool reads a bool, a missing value reads as false.
func GetBool(s Store, section, key string) (bool, error) {
	v, err := s.Get(section, key)
	switch {
	case errors.Is(err, ErrNotFound):
		return false, nil
	case err != nil:
		return false, err
	case v.Kind != KindBool:
		return false, fmt.Errorf("%s/%s: want bool, got %s", section, key, v.Kind)
	}
	return v.Bool, nil
}
