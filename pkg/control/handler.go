package control

import (
	"codeberg.org/miketth/imswitch/pkg/accel"
	"codeberg.org/miketth/imswitch/pkg/imswitch"
	"codeberg.org/miketth/imswitch/pkg/settings"
	"context"
	"fmt"
	"strconv"
)

type Runner interface {
	Do(ctx context.Context, name string, fn func() error) error
}

type Triggerer interface {
	Trigger(grab string) error
}

// Daemon executes control requests on the event loop. Store is nil in the
// no-persistence mode.
type Daemon struct {
	Loop       Runner
	Triggerer  Triggerer
	Store      settings.Store
	Controller *imswitch.Controller
	Dispatcher *imswitch.Dispatcher
}

func (d *Daemon) Handle(ctx context.Context, req Request) Response {
	var resp Response
	err := d.Loop.Do(ctx, "control "+req.Command, func() error {
		var err error
		resp, err = d.handle(req)
		return err
	})
	if err != nil {
		return errorResponse(err)
	}
	return resp
}

func (d *Daemon) handle(req Request) (Response, error) {
	args := req.Args
	switch req.Command {
	case CmdTrigger:
		if len(args) != 1 {
			return Response{}, fmt.Errorf("trigger <grab>: %w", ErrUsage)
		}
		return Response{}, d.Triggerer.Trigger(args[0])

	case CmdGet:
		if len(args) != 2 {
			return Response{}, fmt.Errorf("get <section> <key>: %w", ErrUsage)
		}
		if d.Store == nil {
			return Response{}, settings.ErrNotFound
		}
		v, err := d.Store.Get(args[0], args[1])
		if err != nil {
			return Response{}, fmt.Errorf("get %s/%s: %w", args[0], args[1], err)
		}
		return Response{Value: &v}, nil

	case CmdSet:
		if len(args) < 3 {
			return Response{}, fmt.Errorf("set <section> <key> <kind> [values...]: %w", ErrUsage)
		}
		if d.Store == nil {
			return Response{}, fmt.Errorf("set: no settings store")
		}
		kind, err := settings.ParseKind(args[2])
		if err != nil {
			return Response{}, err
		}
		v, err := settings.ParseValue(kind, args[3:])
		if err != nil {
			return Response{}, err
		}
		if err := d.Store.Set(args[0], args[1], v); err != nil {
			return Response{}, fmt.Errorf("set %s/%s: %w", args[0], args[1], err)
		}
		return Response{Value: &v}, nil

	case CmdStatus:
		status := d.Controller.Status()
		return Response{Status: &status}, nil

	case CmdEngines:
		return Response{Engines: d.Controller.Engines().Names()}, nil

	case CmdActivate:
		if len(args) != 1 {
			return Response{}, fmt.Errorf("activate <engine>: %w", ErrUsage)
		}
		if err := d.Controller.ActivateByName(args[0], false); err != nil {
			return Response{}, err
		}
		status := d.Controller.Status()
		return Response{Status: &status}, nil

	case CmdKey:
		ev, err := parseKeyEvent(args)
		if err != nil {
			return Response{}, err
		}
		return Response{Handled: d.Dispatcher.FilterEvent(ev)}, nil
	}

	return Response{}, fmt.Errorf("%q: %w", req.Command, ErrUnknownCommand)
}

// parseKeyEvent reads "press|release <keysym> <state>". The keysym is a
// name as in accelerators, the state a number or an accelerator.
func parseKeyEvent(args []string) (imswitch.KeyEvent, error) {
	if len(args) != 3 {
		return imswitch.KeyEvent{}, fmt.Errorf("key press|release <keysym> <state>: %w", ErrUsage)
	}

	var ev imswitch.KeyEvent
	switch args[0] {
	case "press":
		ev.Type = imswitch.KeyPress
	case "release":
		ev.Type = imswitch.KeyRelease
		ev.State |= accel.ReleaseMask
	default:
		return ev, fmt.Errorf("key type %q: %w", args[0], ErrUsage)
	}

	ev.Keysym = accel.KeysymFromName(args[1])
	if ev.Keysym == 0 {
		return ev, fmt.Errorf("unknown keysym %q", args[1])
	}

	if state, err := strconv.ParseUint(args[2], 0, 32); err == nil {
		ev.State |= uint32(state)
	} else {
		_, modifiers := accel.Parse(args[2])
		ev.State |= modifiers
	}

	return ev, nil
}
