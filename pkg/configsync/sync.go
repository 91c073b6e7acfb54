package configsync

import (
	"codeberg.org/miketth/imswitch/pkg/accel"
	"codeberg.org/miketth/imswitch/pkg/engines"
	"codeberg.org/miketth/imswitch/pkg/layout"
	"codeberg.org/miketth/imswitch/pkg/settings"
	"errors"
	"fmt"
	"go.uber.org/zap"
	"os"
	"slices"
	"strings"
)

const defaultTrigger = "<Control>space"

var (
	DefaultTriggers         = []string{defaultTrigger}
	DefaultTriggersBackward = []string{"<Control><Shift>space"}

	koTriggers = []string{"Hangul", "Alt_R"}
)

type EngineDirectory interface {
	ListEngines() []*engines.Engine
	XkbEngineName(layout, variant string) string
}

type LayoutSource interface {
	State() layout.State
	CurrentGroup() (int, error)
}

// EngineSink rebuilds the active engine list.
type EngineSink interface {
	UpdateEngines(preload, order []string) error
}

// HotkeySink replaces the trigger grabs.
type HotkeySink interface {
	SetGrabs(grabs []accel.Grab) error
}

// OrientationSink is the candidate window.
type OrientationSink interface {
	SetOrientation(orientation int32)
}

// Sync keeps the engine list, the trigger grabs and the candidate window in
// line with the settings store. A nil store runs it without persistence.
type Sync struct {
	store   settings.Store
	dir     EngineDirectory
	layouts LayoutSource
	engines EngineSink
	hotkeys HotkeySink
	panel   OrientationSink
	getenv  func(string) string
	log     *zap.SugaredLogger

	unsubscribe func()
}

type Option func(*Sync)

func WithGetenv(getenv func(string) string) Option {
	return func(s *Sync) { s.getenv = getenv }
}

func WithOrientationSink(panel OrientationSink) Option {
	return func(s *Sync) { s.panel = panel }
}

func New(
	store settings.Store,
	dir EngineDirectory,
	layouts LayoutSource,
	engineSink EngineSink,
	hotkeys HotkeySink,
	log *zap.SugaredLogger,
	opts ...Option,
) *Sync {
	s := &Sync{
		store:   store,
		dir:     dir,
		layouts: layouts,
		engines: engineSink,
		hotkeys: hotkeys,
		getenv:  os.Getenv,
		log:     log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Persistent reports whether a settings store is attached.
func (s *Sync) Persistent() bool {
	return s.store != nil
}

// Start loads everything from the store, runs the first-run migration and
// subscribes to change notifications.
func (s *Sync) Start() error {
	if s.store == nil {
		s.log.Warn("no settings store, running without persistence")
		if err := s.UpdateXkbEngines(); err != nil {
			return fmt.Errorf("update xkb engines: %w", err)
		}
		return s.loadHotkeys()
	}

	s.unsubscribe = s.store.Subscribe(s.OnChange)

	if err := s.initEnginesOrder(); err != nil {
		return fmt.Errorf("init engines order: %w", err)
	}
	if err := s.loadHotkeys(); err != nil {
		return fmt.Errorf("load hotkeys: %w", err)
	}
	s.loadOrientation()

	if err := s.rebuildEngines(); err != nil {
		return fmt.Errorf("update engines: %w", err)
	}
	return nil
}

// Close drops the store subscription.
func (s *Sync) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

// Reload rebuilds the engine list, used when the set of installed engines
// changed.
func (s *Sync) Reload() error {
	if s.store == nil {
		return s.UpdateXkbEngines()
	}
	return s.rebuildEngines()
}

func (s *Sync) initEnginesOrder() error {
	preload, err := settings.GetStrv(s.store, settings.SectionGeneral, settings.KeyPreloadEngines)
	if err != nil {
		return err
	}
	inited, err := settings.GetBool(s.store, settings.SectionGeneral, settings.KeyPreloadEnginesInited)
	if err != nil {
		return err
	}

	// stores that predate the guard already carry a user preload list
	if len(preload) != 0 && !inited {
		inited = true
		if err := s.write(settings.SectionGeneral, settings.KeyPreloadEnginesInited, settings.Bool(true)); err != nil {
			return err
		}
	}

	if err := s.UpdateXkbEngines(); err != nil {
		return err
	}

	// xkb engines go in first, the mode change below triggers the
	// locale relative preload through the change notification
	if !inited {
		if err := s.write(settings.SectionGeneral, settings.KeyPreloadEngineMode, settings.Int(settings.PreloadModeLangRelative)); err != nil {
			return err
		}
	}

	if _, err := s.updateIMEngines(); err != nil {
		return err
	}

	if !inited {
		return s.write(settings.SectionGeneral, settings.KeyPreloadEnginesInited, settings.Bool(true))
	}
	return nil
}

// OnChange handles a value changed notification from the store.
func (s *Sync) OnChange(c settings.Change) {
	s.log.Debugw("config changed", "section", c.Section, "key", c.Key, "value", c.Value)

	var err error
	switch {
	case c.Section == settings.SectionGeneral && c.Key == settings.KeyPreloadEngineMode:
		var written bool
		written, err = s.updateIMEngines()
		if err == nil && !written {
			err = s.rebuildEngines()
		}
	case c.Section == settings.SectionGeneral && c.Key == settings.KeyPreloadEngines:
		err = s.rebuildWithPreload(c.Value.Strv)
	case c.Section == settings.SectionHotkey && strings.HasPrefix(c.Key, settings.KeyTriggerAccel):
		err = s.loadHotkeys()
	case c.Section == settings.SectionPanel && c.Key == settings.KeyLookupTableOrient:
		s.loadOrientation()
	}

	if err != nil {
		s.log.Errorw("handle config change", "section", c.Section, "key", c.Key, "error", err)
	}
}

// updateIMEngines runs the locale relative preload if the mode asks for it.
func (s *Sync) updateIMEngines() (bool, error) {
	mode, err := settings.GetInt(s.store, settings.SectionGeneral, settings.KeyPreloadEngineMode, settings.PreloadModeUser)
	if err != nil {
		return false, err
	}
	if mode != settings.PreloadModeLangRelative {
		return false, nil
	}

	stored, err := settings.GetStrv(s.store, settings.SectionGeneral, settings.KeyPreloadEngines)
	if err != nil {
		return false, err
	}

	locale := DetectLocale(s.getenv)
	preload, err := SelectLocaleRelativePreload(s.dir.ListEngines(), stored, locale)
	switch {
	case errors.Is(err, ErrNoCandidates):
		s.log.Infow("no input methods for locale", "locale", locale)
		return false, nil
	case err != nil:
		return false, err
	case preload == nil:
		return false, nil
	}

	if err := s.store.Set(settings.SectionGeneral, settings.KeyPreloadEngines, settings.Strv(preload...)); err != nil {
		return false, fmt.Errorf("write preload engines: %w", err)
	}
	return true, nil
}

// UpdateXkbEngines makes sure every live keyboard group has its engine in
// the preload and order lists. Without a store the engine list is built
// from the groups directly.
func (s *Sync) UpdateXkbEngines() error {
	st := s.layouts.State()
	if len(st.Layouts) == 0 {
		if s.store == nil {
			return s.engines.UpdateEngines(nil, nil)
		}
		return nil
	}

	names := make([]string, 0, len(st.Layouts))
	for i, l := range st.Layouts {
		names = append(names, s.dir.XkbEngineName(l, st.Variant(i)))
	}

	if s.store == nil {
		current, err := s.layouts.CurrentGroup()
		if err != nil || current < 0 || current >= len(names) {
			current = 0
		}
		engines.MoveToFront(names, current)
		return s.engines.UpdateEngines(names, nil)
	}

	if err := s.appendMissing(settings.SectionGeneral, settings.KeyPreloadEngines, names); err != nil {
		return err
	}
	return s.appendMissing(settings.SectionGeneral, settings.KeyEnginesOrder, names)
}

func (s *Sync) appendMissing(section, key string, names []string) error {
	stored, err := settings.GetStrv(s.store, section, key)
	if err != nil {
		return err
	}

	updated := slices.Clone(stored)
	for _, name := range names {
		if !slices.Contains(updated, name) {
			updated = append(updated, name)
		}
	}

	return s.write(section, key, settings.Strv(updated...))
}

func (s *Sync) rebuildEngines() error {
	preload, err := settings.GetStrv(s.store, settings.SectionGeneral, settings.KeyPreloadEngines)
	if err != nil {
		return err
	}
	return s.rebuildWithPreload(preload)
}

func (s *Sync) rebuildWithPreload(preload []string) error {
	order, err := settings.GetStrv(s.store, settings.SectionGeneral, settings.KeyEnginesOrder)
	if err != nil {
		return err
	}
	return s.engines.UpdateEngines(preload, order)
}

// PersistOrder stores the engine order, skipping the write if unchanged.
func (s *Sync) PersistOrder(names []string) error {
	if s.store == nil {
		return nil
	}
	return s.write(settings.SectionGeneral, settings.KeyEnginesOrder, settings.Strv(names...))
}

// write sets a value unless the store already holds it.
func (s *Sync) write(section, key string, value settings.Value) error {
	old, err := s.store.Get(section, key)
	switch {
	case err == nil && old.Equal(value):
		return nil
	case err != nil && !errors.Is(err, settings.ErrNotFound):
		return fmt.Errorf("read %s/%s: %w", section, key, err)
	}

	if err := s.store.Set(section, key, value); err != nil {
		return fmt.Errorf("write %s/%s: %w", section, key, err)
	}
	return nil
}

func (s *Sync) loadHotkeys() error {
	triggers := DefaultTriggers
	backward := DefaultTriggersBackward

	if s.store != nil {
		var err error
		triggers, err = s.strvOr(settings.SectionHotkey, settings.KeyTriggerAccel, DefaultTriggers)
		if err != nil {
			return err
		}
		backward, err = s.strvOr(settings.SectionHotkey, settings.KeyTriggerAccelBackward, DefaultTriggersBackward)
		if err != nil {
			return err
		}
	}

	grabs := []accel.Grab{
		{Name: accel.GrabTrigger, Bindings: accel.NewKeybindings(triggers, false)},
		{Name: accel.GrabTriggerBackward, Bindings: accel.NewKeybindings(backward, true)},
	}

	// Korean keyboards get the Hangul key as an extra trigger as long as
	// the user kept the stock accelerator
	if len(triggers) == 1 && triggers[0] == defaultTrigger && strings.HasPrefix(DetectLocale(s.getenv), "ko") {
		grabs = append(grabs, accel.Grab{Name: accel.GrabTriggerKo, Bindings: accel.NewKeybindings(koTriggers, false)})
	}

	return s.hotkeys.SetGrabs(grabs)
}

func (s *Sync) strvOr(section, key string, def []string) ([]string, error) {
	v, err := s.store.Get(section, key)
	switch {
	case errors.Is(err, settings.ErrNotFound):
		return def, nil
	case err != nil:
		return nil, fmt.Errorf("read %s/%s: %w", section, key, err)
	case v.Kind != settings.KindStrv:
		return nil, fmt.Errorf("%s/%s: want strv, got %s", section, key, v.Kind)
	}
	return v.Strv, nil
}

func (s *Sync) loadOrientation() {
	if s.panel == nil {
		return
	}

	value, err := settings.GetInt(s.store, settings.SectionPanel, settings.KeyLookupTableOrient, settings.OrientationHorizontal)
	if err != nil {
		s.log.Warnw("read lookup table orientation", "error", err)
	}

	orientation := settings.OrientationVertical
	if value == settings.OrientationHorizontal || value == settings.OrientationVertical {
		orientation = value
	}
	s.panel.SetOrientation(orientation)
}
