package control

import (
	"codeberg.org/miketth/imswitch/pkg/imswitch"
	"codeberg.org/miketth/imswitch/pkg/settings"
	"errors"
)

// Commands understood by the daemon.
const (
	CmdTrigger  = "trigger"
	CmdGet      = "get"
	CmdSet      = "set"
	CmdStatus   = "status"
	CmdEngines  = "engines"
	CmdActivate = "activate"
	CmdKey      = "key"
)

var (
	ErrRemote         = errors.New("daemon returned an error")
	ErrUnknownCommand = errors.New("unknown command")
	ErrUsage          = errors.New("wrong number of arguments")
)

// Request is one msgpack encoded call, a connection carries exactly one.
type Request struct {
	Command string   `msgpack:"command"`
	Args    []string `msgpack:"args"`
}

type Response struct {
	Error   string           `msgpack:"error,omitempty"`
	Value   *settings.Value  `msgpack:"value,omitempty"`
	Status  *imswitch.Status `msgpack:"status,omitempty"`
	Engines []string         `msgpack:"engines,omitempty"`
	Handled bool             `msgpack:"handled,omitempty"`
}

func errorResponse(err error) Response {
	return Response{Error: err.Error()}
}
