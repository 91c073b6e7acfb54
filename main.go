package main

import (
	"codeberg.org/miketth/imswitch/pkg/configsync"
	"codeberg.org/miketth/imswitch/pkg/control"
	"codeberg.org/miketth/imswitch/pkg/engines"
	"codeberg.org/miketth/imswitch/pkg/hyprland"
	"codeberg.org/miketth/imswitch/pkg/ibus"
	"codeberg.org/miketth/imswitch/pkg/imswitch"
	"codeberg.org/miketth/imswitch/pkg/layout"
	"codeberg.org/miketth/imswitch/pkg/settings"
	"codeberg.org/miketth/imswitch/pkg/settings/json"
	"codeberg.org/miketth/imswitch/pkg/settings/memory"
	"codeberg.org/miketth/imswitch/pkg/settings/sqlite"
	"codeberg.org/miketth/imswitch/pkg/status"
	"codeberg.org/miketth/imswitch/pkg/xkblayouts"
	"context"
	"errors"
	"fmt"
	"github.com/coreos/go-systemd/v22/daemon"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

const jsonSaveInterval = 5 * time.Second

func main() {
	err := newRootCmd().Execute()
	if err != nil {
		log.Fatalf("error: %+v", err)
	}
}

func runDaemon(cfg Config) error {
	log, err := newLogger(cfg.Debug)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer log.Sync()

	ctx := context.Background()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry, err := xkblayouts.ParseLayouts(cfg.EvdevXML)
	if err != nil {
		return fmt.Errorf("parse layouts: %w", err)
	}

	loader := ibus.ComponentLoader{RunExec: true}
	known := loadComponents(loader, cfg.ComponentDir, log)

	setter, bus := openIBus(cfg, log)
	if bus != nil {
		defer bus.Close()
	}
	dir := ibus.NewDirectory(known, registry, setter, log)

	hyprctl, err := hyprland.NewHyprctl()
	if err != nil {
		return fmt.Errorf("connect hyprctl: %w", err)
	}
	client, err := hyprland.Connect()
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer client.Close()

	backend := hyprland.NewKeyboardBackend(hyprctl, cfg.Device, registry, log)
	applier := layout.NewApplier(backend, cfg.Debounce, log)
	if err := applier.Refresh(); err != nil {
		return fmt.Errorf("read keyboard layouts: %w", err)
	}

	indicator, err := newIndicator(cfg, log)
	if err != nil {
		return fmt.Errorf("create indicator: %w", err)
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("find executable: %w", err)
	}
	binder := hyprland.NewBinder(hyprctl, []string{exe, "--socket", cfg.Socket, "trigger"}, log)

	store, closeStore, err := openStore(cfg, log)
	if err != nil {
		return fmt.Errorf("open settings store: %w", err)
	}
	defer closeStore()

	controller := imswitch.NewController(dir, applier, indicator, log)
	dispatcher := imswitch.NewDispatcher(controller, binder, func() imswitch.Picker {
		return imswitch.NewCyclePicker(cfg.ImmediateSwitch, log)
	}, log)
	syncer := configsync.New(store, dir, applier, controller, dispatcher, log,
		configsync.WithOrientationSink(status.NewPanel(log)))
	controller.SetConfig(syncer)

	loop := imswitch.NewLoop(log)
	loop.Post("start", func() error {
		if err := syncer.Start(); err != nil {
			return fmt.Errorf("start config sync: %w", err)
		}
		return controller.SyncStatus()
	})

	watcher := hyprland.NewWatcher(client, backend, cfg.Device, func() {
		loop.Post("layout changed", controller.OnLayoutChanged)
	}, log)
	if err := watcher.Prime(); err != nil {
		return fmt.Errorf("prime layout watcher: %w", err)
	}

	server, err := control.Listen(cfg.Socket, &control.Daemon{
		Loop:       loop,
		Triggerer:  binder,
		Store:      store,
		Controller: controller,
		Dispatcher: dispatcher,
	}, log)
	if err != nil {
		return fmt.Errorf("listen on control socket: %w", err)
	}

	log.Info("started imswitch")

	errChan := make(chan error, 6)
	var wg sync.WaitGroup

	goFatal := func(name string, fn func(ctx context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				errChan <- fmt.Errorf("%s: %w", name, err)
			}
		}()
	}
	goLogged := func(name string, fn func(ctx context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Warnw("background task stopped", "task", name, "error", err)
			}
		}()
	}

	goFatal("event loop", loop.Run)
	goFatal("process lines", watcher.ProcessLines)
	goFatal("control server", server.Serve)
	goFatal("systemd notify", systemdNotifyLoop)

	if js, ok := store.(*json.Store); ok {
		goFatal("save settings", func(ctx context.Context) error {
			return js.SaveLooper(ctx, jsonSaveInterval)
		})
	}
	if bus != nil {
		goLogged("watch global engine", func(ctx context.Context) error {
			return bus.WatchGlobalEngine(ctx, func(name string) {
				log.Debugw("global engine changed", "engine", name)
				loop.Post("sync status", controller.SyncStatus)
			})
		})
	}
	goLogged("watch components", func(ctx context.Context) error {
		return ibus.WatchComponents(ctx, cfg.ComponentDir, cfg.Debounce, func() {
			loop.Post("reload components", func() error {
				dir.Reload(loadComponents(loader, cfg.ComponentDir, log))
				return syncer.Reload()
			})
		}, log)
	})

	err = <-errChan
	stop()
	wg.Wait()

	syncer.Close()
	if closeErr := dispatcher.Close(); closeErr != nil {
		log.Warnw("remove binds", "error", closeErr)
	}

	switch {
	case errors.Is(err, context.Canceled):
		log.Info("shutting down")
		return nil
	case err != nil:
		return err
	}

	return nil
}

func loadComponents(loader ibus.ComponentLoader, dir string, log *zap.SugaredLogger) []*engines.Engine {
	known, errs := loader.LoadDir(dir)
	for _, err := range errs {
		log.Warnw("skipping component", "error", err)
	}
	return known
}

// openIBus picks the engine setter. Without a reachable daemon only
// keyboard layout engines can be switched.
func openIBus(cfg Config, log *zap.SugaredLogger) (ibus.GlobalEngineSetter, *ibus.Bus) {
	cli := ibus.CLI{Path: cfg.IBusPath}

	switch cfg.IBus {
	case ibusNone:
		return nil, nil
	case ibusDBus:
		bus, err := dialBus(cli, log)
		if err == nil {
			return bus, bus
		}
		log.Warnw("ibus bus unavailable, falling back to the ibus tool", "error", err)
	}

	if !cli.Available() {
		log.Warn("ibus not found, only keyboard layouts can be switched")
		return nil, nil
	}
	return cli, nil
}

func dialBus(cli ibus.CLI, log *zap.SugaredLogger) (*ibus.Bus, error) {
	address, err := cli.Address()
	if err != nil {
		return nil, fmt.Errorf("get bus address: %w", err)
	}
	return ibus.DialBus(address, log)
}

func newIndicator(cfg Config, log *zap.SugaredLogger) (imswitch.Indicator, error) {
	if cfg.StatusFile == "" {
		return status.LogIndicator{Log: log}, nil
	}
	return status.NewFileIndicator(cfg.StatusFile, log)
}

// openStore returns a nil store for the no-persistence mode.
func openStore(cfg Config, log *zap.SugaredLogger) (settings.Store, func(), error) {
	noop := func() {}

	switch cfg.Store {
	case storeSqlite:
		store, err := sqlite.NewStore(cfg.StorePath, log)
		if err != nil {
			return nil, noop, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				log.Warnw("close settings store", "error", err)
			}
		}, nil
	case storeJSON:
		store, err := json.NewStore(cfg.StorePath)
		if err != nil {
			return nil, noop, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				log.Warnw("close settings store", "error", err)
			}
		}, nil
	case storeMemory:
		return memory.NewStore(), noop, nil
	}

	return nil, noop, nil
}

func systemdNotifyLoop(ctx context.Context) error {
	// tell systemd that we're ready
	supported, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	if err != nil {
		return fmt.Errorf("notify systemd: %w", err)
	}
	if !supported {
		return nil
	}

	_, _ = daemon.SdNotify(false, "STATUS=Switching input methods")

	// notify watchdog
	t, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		return fmt.Errorf("check watchdog: %w", err)
	}
	// if watchdog is not enabled, we don't need to notify it
	if t == 0 {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-time.After(t / 2):
			_, err := daemon.SdNotify(false, daemon.SdNotifyWatchdog)
			if err != nil {
				return fmt.Errorf("notify watchdog: %w", err)
			}
		}
	}
}

func newLogger(debug bool) (*zap.SugaredLogger, error) {
	loggerConfig := zap.NewDevelopmentConfig()

	loggerConfig.OutputPaths = []string{"stdout"}
	loggerConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if !debug {
		loggerConfig.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	logger, err := loggerConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	return logger.Sugar(), nil
}
