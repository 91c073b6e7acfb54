package ibus

import (
	"context"
	"errors"
	"fmt"
	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"
)

const (
	busName      = "org.freedesktop.IBus"
	busPath      = "/org/freedesktop/IBus"
	busInterface = "org.freedesktop.IBus"

	globalEngineChanged = "GlobalEngineChanged"
)

var ErrBadReply = errors.New("unexpected reply from ibus")

// Bus talks to ibus-daemon over its private D-Bus connection.
type Bus struct {
	conn *dbus.Conn
	obj  dbus.BusObject
	log  *zap.SugaredLogger
}

// DialBus connects to the IBus bus at address, as printed by
// "ibus address".
func DialBus(address string, log *zap.SugaredLogger) (*Bus, error) {
	if address == "" || address == "(null)" {
		return nil, ErrNoDaemon
	}

	conn, err := dbus.Connect(address)
	if err != nil {
		return nil, fmt.Errorf("connect ibus bus: %w", err)
	}

	return &Bus{
		conn: conn,
		obj:  conn.Object(busName, busPath),
		log:  log,
	}, nil
}

func (b *Bus) Close() error {
	return b.conn.Close()
}

func (b *Bus) SetGlobalEngine(name string) error {
	call := b.obj.Call(busInterface+".SetGlobalEngine", 0, name)
	if call.Err != nil {
		return fmt.Errorf("SetGlobalEngine: %w", call.Err)
	}
	return nil
}

func (b *Bus) GlobalEngine() (string, error) {
	var desc dbus.Variant
	if err := b.obj.Call(busInterface+".GetGlobalEngine", 0).Store(&desc); err != nil {
		return "", fmt.Errorf("GetGlobalEngine: %w", err)
	}
	return engineDescName(desc)
}

// engineDescName pulls the engine name out of a serialized IBusEngineDesc:
// (type name, attachments, name, longname, ...).
func engineDescName(desc dbus.Variant) (string, error) {
	fields, ok := desc.Value().([]interface{})
	if !ok || len(fields) < 3 {
		return "", fmt.Errorf("engine desc %s: %w", desc.Signature(), ErrBadReply)
	}
	name, ok := fields[2].(string)
	if !ok {
		return "", fmt.Errorf("engine desc name %T: %w", fields[2], ErrBadReply)
	}
	return name, nil
}

// WatchGlobalEngine calls fn with the new engine name whenever some IBus
// client switches the global engine. It returns when ctx is done.
func (b *Bus) WatchGlobalEngine(ctx context.Context, fn func(name string)) error {
	err := b.conn.AddMatchSignal(
		dbus.WithMatchObjectPath(busPath),
		dbus.WithMatchInterface(busInterface),
		dbus.WithMatchMember(globalEngineChanged),
	)
	if err != nil {
		return fmt.Errorf("add match: %w", err)
	}

	signals := make(chan *dbus.Signal, 16)
	b.conn.Signal(signals)
	defer b.conn.RemoveSignal(signals)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sig, ok := <-signals:
			if !ok {
				return fmt.Errorf("ibus bus closed: %w", ErrNoDaemon)
			}
			if sig.Name != busInterface+"."+globalEngineChanged || len(sig.Body) == 0 {
				continue
			}
			name, ok := sig.Body[0].(string)
			if !ok {
				b.log.Debugw("bad GlobalEngineChanged body", "body", sig.Body)
				continue
			}
			fn(name)
		}
	}
}
