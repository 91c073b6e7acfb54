package ibus

import (
	"codeberg.org/miketth/imswitch/pkg/engines"
	"codeberg.org/miketth/imswitch/pkg/xkblayouts"
	"errors"
	"fmt"
	"go.uber.org/zap"
)

var ErrEngineNotFound = errors.New("engine not found")

// GlobalEngineSetter switches the engine IBus uses for all clients.
type GlobalEngineSetter interface {
	SetGlobalEngine(name string) error
	GlobalEngine() (string, error)
}

// Directory is the set of engines known to IBus, plus keyboard layout
// engines synthesized from the XKB registry for layouts no component
// describes.
type Directory struct {
	known    []*engines.Engine
	byName   map[string]*engines.Engine
	registry *xkblayouts.XkbConfigRegistry
	setter   GlobalEngineSetter
	log      *zap.SugaredLogger
}

// NewDirectory builds a directory from already loaded engines. setter may
// be nil when there is no IBus daemon, then only keyboard layout engines
// can be activated.
func NewDirectory(
	known []*engines.Engine,
	registry *xkblayouts.XkbConfigRegistry,
	setter GlobalEngineSetter,
	log *zap.SugaredLogger,
) *Directory {
	d := &Directory{
		registry: registry,
		setter:   setter,
		log:      log,
	}
	d.Reload(known)
	return d
}

// Reload replaces the component engines, e.g. after an engine was
// installed.
func (d *Directory) Reload(known []*engines.Engine) {
	d.known = nil
	d.byName = make(map[string]*engines.Engine, len(known))
	for _, e := range known {
		if _, dup := d.byName[e.Name]; dup {
			continue
		}
		d.known = append(d.known, e)
		d.byName[e.Name] = e
	}
	d.log.Debugw("engine directory loaded", "engines", len(d.known), "ibus", d.setter != nil)
}

// ListEngines returns copies of every engine a component describes.
func (d *Directory) ListEngines() []*engines.Engine {
	out := make([]*engines.Engine, 0, len(d.known))
	for _, e := range d.known {
		out = append(out, clone(e))
	}
	return out
}

// GetEnginesByNames resolves names in order, dropping unknown ones.
func (d *Directory) GetEnginesByNames(names []string) []*engines.Engine {
	out := make([]*engines.Engine, 0, len(names))
	for _, name := range names {
		if e := d.Lookup(name); e != nil {
			out = append(out, e)
		}
	}
	return out
}

// Lookup returns a fresh copy of the named engine or nil.
func (d *Directory) Lookup(name string) *engines.Engine {
	if e, ok := d.byName[name]; ok {
		return clone(e)
	}

	layout, variant, iso639, ok := engines.ParseXkbName(name)
	if !ok {
		return nil
	}
	if d.registry != nil && d.registry.GetLayoutPrettyName(layout, variant) == "" {
		return nil
	}

	language := ""
	if iso639 != "" {
		language = xkblayouts.BaseLanguage(iso639)
	}
	var description string
	if d.registry != nil {
		description = d.registry.GetLayoutPrettyName(layout, variant)
	}
	return engines.NewXkbEngine(layout, variant, iso639, language, description)
}

// XkbEngineName names the engine of an XKB group the way IBus does.
func (d *Directory) XkbEngineName(layout, variant string) string {
	var langs []string
	if d.registry != nil {
		langs = d.registry.LayoutLanguages(layout, variant)
	}
	lang := ""
	if len(langs) > 0 {
		lang = langs[0]
	}
	return engines.XkbName(layout, variant, lang)
}

func (d *Directory) SetGlobalEngine(name string) error {
	if d.setter == nil {
		if _, _, _, ok := engines.ParseXkbName(name); ok {
			return nil
		}
		return fmt.Errorf("set engine %s: %w", name, ErrNoDaemon)
	}

	if err := d.setter.SetGlobalEngine(name); err != nil {
		return fmt.Errorf("set engine %s: %w", name, err)
	}
	return nil
}

// GetGlobalEngine returns the engine IBus currently uses.
func (d *Directory) GetGlobalEngine() (*engines.Engine, error) {
	if d.setter == nil {
		return nil, ErrNoDaemon
	}

	name, err := d.setter.GlobalEngine()
	if err != nil {
		return nil, fmt.Errorf("get global engine: %w", err)
	}

	e := d.Lookup(name)
	if e == nil {
		return nil, fmt.Errorf("%q: %w", name, ErrEngineNotFound)
	}
	return e, nil
}

func clone(e *engines.Engine) *engines.Engine {
	c := *e
	c.HasDuplicatedLanguage = false
	c.Suffix = ""
	return &c
}
