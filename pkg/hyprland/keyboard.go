package hyprland

import (
	"codeberg.org/miketth/imswitch/pkg/layout"
	"codeberg.org/miketth/imswitch/pkg/xkblayouts"
	"fmt"
	"go.uber.org/zap"
	"strings"
)

// maxGroups is the number of groups an XKB keymap can hold.
const maxGroups = 4

// KeyboardBackend drives the XKB groups of one Hyprland keyboard. An empty
// device name selects the main keyboard.
type KeyboardBackend struct {
	ctl      *Hyprctl
	device   string
	registry *xkblayouts.XkbConfigRegistry
	log      *zap.SugaredLogger

	defaults    layout.Config
	hasDefaults bool

	layoutIdxCache map[string]int
	cachedConfig   layout.Config
}

func NewKeyboardBackend(
	ctl *Hyprctl,
	device string,
	registry *xkblayouts.XkbConfigRegistry,
	log *zap.SugaredLogger,
) *KeyboardBackend {
	return &KeyboardBackend{
		ctl:            ctl,
		device:         device,
		registry:       registry,
		log:            log,
		layoutIdxCache: make(map[string]int),
	}
}

func (b *KeyboardBackend) keyboard() (Keyboard, error) {
	keyboards, err := b.ctl.GetKeyboards()
	if err != nil {
		return Keyboard{}, fmt.Errorf("get keyboards: %w", err)
	}
	if len(keyboards) == 0 {
		return Keyboard{}, fmt.Errorf("no keyboards: %w", ErrDeviceNotFound)
	}

	if b.device != "" {
		for _, k := range keyboards {
			if k.Name == b.device {
				return k, nil
			}
		}
		return Keyboard{}, fmt.Errorf("keyboard %q: %w", b.device, ErrDeviceNotFound)
	}

	for _, k := range keyboards {
		if k.Main {
			return k, nil
		}
	}
	return keyboards[0], nil
}

// LiveConfig reads the keymap configuration without touching any state, it
// is safe to call from the event watcher.
func (b *KeyboardBackend) LiveConfig() (layout.Config, error) {
	kb, err := b.keyboard()
	if err != nil {
		return layout.Config{}, err
	}
	return kb.Config, nil
}

// Config returns the live configuration. The first one seen becomes the
// default layout restored by SetLayout.
func (b *KeyboardBackend) Config() (layout.Config, error) {
	cfg, err := b.LiveConfig()
	if err != nil {
		return layout.Config{}, err
	}
	if !b.hasDefaults {
		b.defaults = cfg
		b.hasDefaults = true
	}
	return cfg, nil
}

func (b *KeyboardBackend) GroupNames() ([]string, error) {
	cfg, err := b.LiveConfig()
	if err != nil {
		return nil, err
	}

	state := layout.ParseState(cfg)
	names := make([]string, 0, len(state.Layouts))
	for i, l := range state.Layouts {
		names = append(names, b.registry.ShortName(l, state.Variant(i)))
	}
	return names, nil
}

func (b *KeyboardBackend) CurrentGroup() (int, error) {
	kb, err := b.keyboard()
	if err != nil {
		return -1, err
	}
	if kb.ActiveIndex >= 0 {
		return kb.ActiveIndex, nil
	}
	return b.getLayoutIndex(kb)
}

// getLayoutIndex maps the active keymap's description back to a group for
// Hyprland versions that only report the description.
func (b *KeyboardBackend) getLayoutIndex(kb Keyboard) (int, error) {
	if kb.Config != b.cachedConfig {
		b.layoutIdxCache = make(map[string]int)
		b.cachedConfig = kb.Config
	}
	if idx, ok := b.layoutIdxCache[kb.ActiveKeymap]; ok {
		return idx, nil
	}

	layoutCode, variantCode := b.registry.GetLayoutAndVariantFromPrettyName(kb.ActiveKeymap)
	if layoutCode == "" {
		return -1, fmt.Errorf("layout %q not found", kb.ActiveKeymap)
	}

	state := layout.ParseState(kb.Config)
	for i, l := range state.Layouts {
		if l == layoutCode && state.Variant(i) == variantCode {
			b.layoutIdxCache[kb.ActiveKeymap] = i
			return i, nil
		}
	}

	return -1, fmt.Errorf("layout %q not found for keyboard %q", kb.ActiveKeymap, kb.Name)
}

func (b *KeyboardBackend) LockGroup(idx int) error {
	kb, err := b.keyboard()
	if err != nil {
		return err
	}
	if err := b.ctl.SwitchLayout(kb.Name, idx); err != nil {
		return fmt.Errorf("switch %s to group %d: %w", kb.Name, idx, err)
	}
	return nil
}

// SetLayout makes target one of the keyboard's groups, appending it to the
// default groups (replacing the last one if all four are taken), and sets
// its options. The keymap reload is reported by the event watcher.
func (b *KeyboardBackend) SetLayout(target string) (int, bool, error) {
	live, err := b.Config()
	if err != nil {
		return -1, false, err
	}

	base, variant, options := layout.Split(target)
	if base == "" || base == layout.Default {
		return -1, false, fmt.Errorf("no layout in %q", target)
	}

	state := layout.ParseState(b.defaults)
	layouts := append([]string(nil), state.Layouts...)
	variants := make([]string, len(layouts))
	for i := range layouts {
		variants[i] = state.Variant(i)
	}

	lockID := -1
	for i := range layouts {
		if layouts[i] == base && variants[i] == variant {
			lockID = i
			break
		}
	}
	if lockID < 0 {
		if len(layouts) >= maxGroups {
			layouts = layouts[:maxGroups-1]
			variants = variants[:maxGroups-1]
		}
		layouts = append(layouts, base)
		variants = append(variants, variant)
		lockID = len(layouts) - 1
	}

	if options == "" || options == layout.Default {
		options = b.defaults.Options
	}
	cfg := layout.Config{
		Layout:  strings.Join(layouts, ","),
		Variant: strings.Join(variants, ","),
		Options: options,
	}
	changedOption := cfg.Options != b.defaults.Options

	if cfg == live {
		// nothing to reload, no signal will come
		return -1, changedOption, b.LockGroup(lockID)
	}

	b.log.Debugw("setting keymap", "layout", cfg.Layout, "variant", cfg.Variant, "options", cfg.Options)
	err = b.ctl.Keywords(
		[2]string{"input:kb_variant", cfg.Variant},
		[2]string{"input:kb_layout", cfg.Layout},
		[2]string{"input:kb_options", cfg.Options},
	)
	if err != nil {
		return -1, false, fmt.Errorf("set keymap: %w", err)
	}

	return lockID, changedOption, nil
}

// ResetLayout takes the live configuration as the new default, used after
// the configuration was changed from outside.
func (b *KeyboardBackend) ResetLayout() error {
	cfg, err := b.LiveConfig()
	if err != nil {
		return err
	}
	b.defaults = cfg
	b.hasDefaults = true
	return nil
}
