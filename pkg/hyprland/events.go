package hyprland

import (
	"codeberg.org/miketth/imswitch/pkg/layout"
	"context"
	"fmt"
	"go.uber.org/zap"
	"strings"
)

type EventListener interface {
	ReadLine() (string, error)
}

type ConfigSource interface {
	LiveConfig() (layout.Config, error)
}

// Watcher turns socket2 events into layout changed notifications. Plain
// group switches are not reported, only changes of the keymap
// configuration and config reloads.
type Watcher struct {
	listener EventListener
	source   ConfigSource
	device   string
	onChange func()
	log      *zap.SugaredLogger

	last    layout.Config
	hasLast bool
}

func NewWatcher(
	listener EventListener,
	source ConfigSource,
	device string,
	onChange func(),
	log *zap.SugaredLogger,
) *Watcher {
	return &Watcher{
		listener: listener,
		source:   source,
		device:   device,
		onChange: onChange,
		log:      log,
	}
}

// Prime records the current configuration so the first event is compared
// against it.
func (w *Watcher) Prime() error {
	cfg, err := w.source.LiveConfig()
	if err != nil {
		return fmt.Errorf("get keymap config: %w", err)
	}
	w.last = cfg
	w.hasLast = true
	return nil
}

func (w *Watcher) ProcessLines(ctx context.Context) error {
	for {
		resultCh := make(chan string, 1)
		errCh := make(chan error, 1)
		go func() {
			line, err := w.listener.ReadLine()
			if err != nil {
				errCh <- err
				return
			}
			resultCh <- line
		}()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case line := <-resultCh:
			err := w.processLine(line)
			if err != nil {
				w.log.Warnw("process event", "line", line, "error", err)
			}
		case err := <-errCh:
			return fmt.Errorf("get line: %w", err)
		}
	}
}

func (w *Watcher) processLine(line string) error {
	evType, evData, found := strings.Cut(line, ">>")
	if !found {
		return fmt.Errorf("invalid line: %q", line)
	}

	switch evType {
	case "activelayout":
		return w.processLayoutChange(evData)
	case "configreloaded":
		return w.checkConfig(true)
	}

	return nil
}

func (w *Watcher) processLayoutChange(data string) error {
	keyboardName, _, found := strings.Cut(data, ",")
	if !found {
		return fmt.Errorf("invalid layout change data: %q", data)
	}
	if w.device != "" && keyboardName != w.device {
		return nil
	}
	return w.checkConfig(false)
}

func (w *Watcher) checkConfig(force bool) error {
	cfg, err := w.source.LiveConfig()
	if err != nil {
		return fmt.Errorf("get keymap config: %w", err)
	}

	changed := !w.hasLast || cfg != w.last
	w.last = cfg
	w.hasLast = true

	if changed || force {
		w.log.Debugw("keymap changed", "layout", cfg.Layout, "variant", cfg.Variant, "options", cfg.Options)
		w.onChange()
	}
	return nil
}
