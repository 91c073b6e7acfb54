package imswitch

import (
	"codeberg.org/miketth/imswitch/pkg/engines"
	"codeberg.org/miketth/imswitch/pkg/layout"
	"errors"
	"fmt"
	"go.uber.org/zap"
	"path/filepath"
	"strings"
)

const defaultIcon = "ibus-engine"

var ErrUnknownEngine = errors.New("engine is not in the active list")

// Controller owns the ordered engine list. The first engine is the active
// one; every switch moves the new engine to the front, applies its layout
// and persists the new order.
type Controller struct {
	dir       EngineDirectory
	applier   LayoutApplier
	indicator Indicator
	config    ConfigWriter
	log       *zap.SugaredLogger

	catalog *engines.Catalog
	list    engines.OrderedList
}

func NewController(
	dir EngineDirectory,
	applier LayoutApplier,
	indicator Indicator,
	log *zap.SugaredLogger,
) *Controller {
	return &Controller{
		dir:       dir,
		applier:   applier,
		indicator: indicator,
		log:       log,
		catalog:   engines.NewCatalog(),
	}
}

// SetConfig attaches the settings side. Without it nothing is persisted.
func (c *Controller) SetConfig(config ConfigWriter) {
	c.config = config
}

// Engines returns a copy of the active list.
func (c *Controller) Engines() engines.OrderedList {
	out := make(engines.OrderedList, len(c.list))
	copy(out, c.list)
	return out
}

func (c *Controller) Current() *engines.Engine {
	return c.list.Current()
}

// UpdateEngines rebuilds the list from the preload and order lists. The
// active engine stays active if it is still enabled. Otherwise the first
// engine that IBus accepts becomes active; if it accepts none the previous
// list is kept.
func (c *Controller) UpdateEngines(preload, order []string) error {
	names := engines.MergeNames(preload, order)
	byName := make(map[string]*engines.Engine, len(names))
	for _, e := range c.dir.GetEnginesByNames(names) {
		byName[e.Name] = e
	}

	list := engines.BuildOrderedList(preload, order, func(name string) *engines.Engine {
		return byName[name]
	})
	c.catalog.Reset(list)
	c.catalog.Disambiguate(list)

	if err := c.applier.Refresh(); err != nil {
		c.log.Warnw("refresh keyboard layouts", "error", err)
	}

	previous := c.list
	c.list = list

	var refused []error
	kept := -1
	if current := previous.Current(); current != nil {
		kept = list.Index(current.Name)
	}
	if kept >= 0 {
		switched, err := c.activate(kept, false)
		if switched {
			return err
		}
		refused = append(refused, err)
	}

	for i := range list {
		if i == kept {
			continue
		}
		switched, err := c.activate(i, true)
		if switched {
			return err
		}
		refused = append(refused, err)
	}

	c.list = previous
	c.catalog.Reset(previous)
	c.catalog.Disambiguate(previous)
	c.log.Warnw("no engine could be activated, keeping the engine list",
		"engines", list.Names(), "kept", previous.Names())
	return fmt.Errorf("activate %v: %w", list.Names(), errors.Join(refused...))
}

// Activate switches to the engine at index i. It is a no-op for the
// already active engine unless force is set. If the engine cannot be
// activated the list is left as it was.
func (c *Controller) Activate(i int, force bool) error {
	_, err := c.activate(i, force)
	return err
}

// activate reports whether the engine at i is active afterwards. Errors
// after the switch went through do not undo it.
func (c *Controller) activate(i int, force bool) (bool, error) {
	if i < 0 || i >= len(c.list) {
		panic(fmt.Sprintf("imswitch: activate index %d out of range [0,%d)", i, len(c.list)))
	}
	if i == 0 && !force {
		return true, nil
	}

	engine := c.list[i]
	if err := c.dir.SetGlobalEngine(engine.Name); err != nil {
		c.log.Warnw("switch engine failed", "engine", engine.Name, "error", err)
		return false, fmt.Errorf("switch to %s: %w", engine.Name, err)
	}

	c.list.MoveToFront(i)
	c.log.Infow("switched engine", "engine", engine.Name, "order", c.list.Names())

	var errs []error
	if err := c.indicator.Update(c.statusFor(engine)); err != nil {
		errs = append(errs, fmt.Errorf("update indicator: %w", err))
	}

	if target := c.engineLayout(engine); target != "" {
		native, err := c.applier.Apply(target)
		if err != nil {
			errs = append(errs, fmt.Errorf("apply layout: %w", err))
		} else {
			c.log.Debugw("applied layout", "layout", target, "native", native)
		}
	}

	if c.config != nil {
		if err := c.config.PersistOrder(c.list.Names()); err != nil {
			errs = append(errs, fmt.Errorf("persist order: %w", err))
		}
	}

	return true, errors.Join(errs...)
}

// ActivateByName activates the named engine of the current list.
func (c *Controller) ActivateByName(name string, force bool) error {
	i := c.list.Index(name)
	if i < 0 {
		return fmt.Errorf("%s: %w", name, ErrUnknownEngine)
	}
	return c.Activate(i, force)
}

// OnLayoutChanged handles the keyboard layout changed signal.
func (c *Controller) OnLayoutChanged() error {
	signal, err := c.applier.OnLayoutChanged()
	if err != nil {
		return fmt.Errorf("layout changed: %w", err)
	}
	if signal == layout.SignalIgnored {
		return nil
	}

	if c.config == nil {
		return nil
	}
	if err := c.config.UpdateXkbEngines(); err != nil {
		return fmt.Errorf("update xkb engines: %w", err)
	}
	return nil
}

// SyncStatus shows the engine IBus reports as active, or the head of the
// list when there is no IBus.
func (c *Controller) SyncStatus() error {
	engine, err := c.dir.GetGlobalEngine()
	if err != nil {
		c.log.Debugw("no global engine", "error", err)
		engine = c.list.Current()
	}
	if engine == nil {
		return nil
	}
	return c.indicator.Update(c.statusFor(engine))
}

// Status is the projection of the active engine.
func (c *Controller) Status() Status {
	if e := c.list.Current(); e != nil {
		return c.statusFor(e)
	}
	return Status{}
}

func (c *Controller) statusFor(e *engines.Engine) Status {
	labelled := *e
	if suffix, ok := c.catalog.Suffix(e.Name); ok {
		labelled.Suffix = suffix
	}

	tooltip := e.LongName
	if tooltip == "" {
		tooltip = e.Name
	}

	return Status{
		Engine:  e.Name,
		Label:   labelled.IconText(),
		Icon:    iconName(e.Icon),
		Tooltip: tooltip,
	}
}

func iconName(icon string) string {
	if icon == "" {
		return defaultIcon
	}
	if strings.HasPrefix(icon, "/") {
		icon = filepath.Base(icon)
		icon = strings.TrimSuffix(icon, filepath.Ext(icon))
	}
	return icon
}

// engineLayout picks the layout to apply for e. Keyboard layout engines
// bring their own; input methods with "default[options]" get the options
// merged into the system layout; plain "default" leaves the keyboard alone.
func (c *Controller) engineLayout(e *engines.Engine) string {
	if e.IsXkb() {
		return e.Layout
	}
	if e.Layout == "" || e.Layout == layout.Default {
		return ""
	}
	if strings.HasPrefix(e.Layout, layout.Default) {
		return layout.Compose(c.applier.SystemLayout(), e.Layout)
	}
	return e.Layout
}
