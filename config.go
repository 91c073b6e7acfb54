package main

import (
	"errors"
	"fmt"
	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
	"github.com/spf13/pflag"
	"os"
	"path/filepath"
	"time"
)

const appName = "imswitch"

const (
	storeSqlite = "sqlite"
	storeJSON   = "json"
	storeMemory = "memory"
	storeNone   = "none"

	ibusDBus = "dbus"
	ibusCLI  = "cli"
	ibusNone = "none"
)

type Config struct {
	Store           string        `toml:"store"`
	StorePath       string        `toml:"store_path"`
	EvdevXML        string        `toml:"evdev_xml"`
	ComponentDir    string        `toml:"component_dir"`
	IBus            string        `toml:"ibus"`
	IBusPath        string        `toml:"ibus_path"`
	Device          string        `toml:"device"`
	Socket          string        `toml:"socket"`
	StatusFile      string        `toml:"status_file"`
	ImmediateSwitch bool          `toml:"immediate_switch"`
	Debounce        time.Duration `toml:"debounce"`
	Debug           bool          `toml:"debug"`
}

func defaultConfig() Config {
	return Config{
		Store:           storeSqlite,
		EvdevXML:        "/usr/share/X11/xkb/rules/evdev.xml",
		ComponentDir:    "/usr/share/ibus/component",
		IBus:            ibusDBus,
		Socket:          filepath.Join(xdg.RuntimeDir, appName+".sock"),
		StatusFile:      filepath.Join(xdg.RuntimeDir, appName, "status.json"),
		ImmediateSwitch: true,
		Debounce:        time.Second,
	}
}

// loadConfig layers the config file and the flags that were set on top of
// the defaults. An empty path looks for imswitch/config.toml in the XDG
// config dirs and is fine to be missing.
func loadConfig(path string, flags *pflag.FlagSet) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		found, err := xdg.SearchConfigFile(filepath.Join(appName, "config.toml"))
		if err == nil {
			path = found
		}
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("%s: parse config: %w", path, err)
		}
	}

	if flags != nil {
		if err := applyFlags(&cfg, flags); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	if cfg.StorePath == "" {
		var err error
		cfg.StorePath, err = defaultStorePath(cfg.Store)
		if err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

func applyFlags(cfg *Config, flags *pflag.FlagSet) error {
	var errs []error
	str := func(name string, dst *string) {
		if flags.Changed(name) {
			v, err := flags.GetString(name)
			errs = append(errs, err)
			*dst = v
		}
	}
	boolean := func(name string, dst *bool) {
		if flags.Changed(name) {
			v, err := flags.GetBool(name)
			errs = append(errs, err)
			*dst = v
		}
	}

	str("socket", &cfg.Socket)
	str("store", &cfg.Store)
	str("store-path", &cfg.StorePath)
	str("evdev-xml", &cfg.EvdevXML)
	str("component-dir", &cfg.ComponentDir)
	str("ibus", &cfg.IBus)
	str("device", &cfg.Device)
	str("status-file", &cfg.StatusFile)
	boolean("immediate", &cfg.ImmediateSwitch)
	boolean("debug", &cfg.Debug)

	if flags.Changed("debounce") {
		v, err := flags.GetDuration("debounce")
		errs = append(errs, err)
		cfg.Debounce = v
	}

	return errors.Join(errs...)
}

func defaultStorePath(store string) (string, error) {
	var name string
	switch store {
	case storeSqlite:
		name = "settings.db"
	case storeJSON:
		name = "settings.json"
	default:
		return "", nil
	}

	path, err := xdg.ConfigFile(filepath.Join(appName, name))
	if err != nil {
		return "", fmt.Errorf("get config dir: %w", err)
	}
	return path, nil
}

func (c Config) validate() error {
	switch c.Store {
	case storeSqlite, storeJSON, storeMemory, storeNone:
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}
	switch c.IBus {
	case ibusDBus, ibusCLI, ibusNone:
	default:
		return fmt.Errorf("unknown ibus backend %q", c.IBus)
	}
	if !fileExists(c.EvdevXML) {
		return fmt.Errorf("xkb registry %s not found", c.EvdevXML)
	}
	if c.Debounce < 0 {
		return fmt.Errorf("negative debounce %s", c.Debounce)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
