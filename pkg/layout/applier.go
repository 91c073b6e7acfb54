package layout

import (
	"fmt"
	"go.uber.org/zap"
	"time"
)

// Config is the raw keymap configuration of the keyboard.
type Config struct {
	Layout  string
	Variant string
	Options string
}

// Backend is the system keyboard layout subsystem.
type Backend interface {
	Config() (Config, error)
	GroupNames() ([]string, error)
	CurrentGroup() (int, error)
	LockGroup(idx int) error
	// SetLayout asks the backend to make layout available as a group. The
	// backend signals a layout change once it is done; lockID is the group
	// that should then be locked, or -1.
	SetLayout(layout string) (lockID int, changedOption bool, err error)
	ResetLayout() error
}

// Signal tells what a layout changed notification turned out to be.
type Signal int

const (
	SignalIgnored Signal = iota
	SignalLocked
	SignalExternal
)

func (s Signal) String() string {
	switch s {
	case SignalIgnored:
		return "ignored"
	case SignalLocked:
		return "locked"
	case SignalExternal:
		return "external"
	}
	return fmt.Sprintf("Signal(%d)", int(s))
}

// Applier applies engine layouts to the keyboard and tracks the pending
// group lock between a fallback SetLayout and the resulting signal.
type Applier struct {
	backend Backend
	log     *zap.SugaredLogger

	state         State
	groupNames    []string
	pendingLock   int
	changedOption bool

	debounce   time.Duration
	lastSignal time.Time
	now        func() time.Time
}

func NewApplier(backend Backend, debounce time.Duration, log *zap.SugaredLogger) *Applier {
	return &Applier{
		backend:     backend,
		log:         log,
		pendingLock: -1,
		debounce:    debounce,
		now:         time.Now,
	}
}

// Refresh rereads layouts, variants and group names from the backend.
func (a *Applier) Refresh() error {
	cfg, err := a.backend.Config()
	if err != nil {
		return fmt.Errorf("get keyboard config: %w", err)
	}
	names, err := a.backend.GroupNames()
	if err != nil {
		return fmt.Errorf("get group names: %w", err)
	}

	a.state = ParseState(cfg)
	a.groupNames = names
	return nil
}

func (a *Applier) State() State {
	return a.state
}

func (a *Applier) GroupNames() []string {
	return a.groupNames
}

func (a *Applier) CurrentGroup() (int, error) {
	return a.backend.CurrentGroup()
}

// Pending reports whether a fallback application waits for its signal.
func (a *Applier) Pending() bool {
	return a.pendingLock >= 0
}

// SystemLayout is the current group in "base(variant)[options]" form.
func (a *Applier) SystemLayout() string {
	if len(a.state.Layouts) == 0 {
		return ""
	}
	idx, err := a.backend.CurrentGroup()
	if err != nil || idx < 0 || idx >= len(a.state.Layouts) {
		idx = 0
	}
	return Join(a.state.Layouts[idx], a.state.Variant(idx), a.state.Options)
}

// Apply switches the keyboard to layout. It returns true if an existing
// group matched and was locked directly; otherwise the backend was asked to
// build the layout and the lock happens in OnLayoutChanged.
func (a *Applier) Apply(layout string) (bool, error) {
	if !isSet(layout) {
		return false, nil
	}

	if a.changedOption {
		// the previous engine changed XKB options, go the slow way once
		// to get the default options back
		a.changedOption = false
	} else {
		for i := 0; i < len(a.state.Layouts) && i < len(a.groupNames); i++ {
			if a.state.Group(i) != layout {
				continue
			}
			if err := a.backend.LockGroup(i); err != nil {
				return false, fmt.Errorf("lock group %d: %w", i, err)
			}
			return true, nil
		}
	}

	lockID, changedOption, err := a.backend.SetLayout(layout)
	if err != nil {
		return false, fmt.Errorf("set layout %q: %w", layout, err)
	}
	if lockID >= 0 {
		a.pendingLock = lockID
		a.changedOption = changedOption
	}

	return false, nil
}

// OnLayoutChanged consumes a layout changed notification. A pending lock
// is applied; with nothing pending the change came from outside and the
// backend's default layout is reset. Signals within the debounce window of
// a handled one are ignored unless a lock is pending.
func (a *Applier) OnLayoutChanged() (Signal, error) {
	// a pending lock always takes the next signal, debounced or not
	now := a.now()
	if a.pendingLock < 0 && !a.lastSignal.IsZero() && now.Sub(a.lastSignal) < a.debounce {
		return SignalIgnored, nil
	}
	a.lastSignal = now

	signal := SignalExternal
	if a.pendingLock >= 0 {
		lockID := a.pendingLock
		a.pendingLock = -1
		signal = SignalLocked
		if err := a.backend.LockGroup(lockID); err != nil {
			return signal, fmt.Errorf("lock group %d: %w", lockID, err)
		}
	} else if err := a.backend.ResetLayout(); err != nil {
		return signal, fmt.Errorf("reset layout: %w", err)
	}

	if err := a.Refresh(); err != nil {
		return signal, err
	}

	a.log.Debugw("layout changed", "signal", signal, "layouts", a.state.Layouts, "variants", a.state.Variants)
	return signal, nil
}
