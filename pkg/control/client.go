package control

import (
	"context"
	"fmt"
	"github.com/vmihailenco/msgpack/v5"
	"net"
)

type Client struct {
	Path string
}

// Call sends req to the daemon and waits for the response. An error
// reported by the daemon is wrapped in ErrRemote.
func (c Client) Call(ctx context.Context, req Request) (Response, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "unix", c.Path)
	if err != nil {
		return Response{}, fmt.Errorf("connect to daemon: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if err := msgpack.NewEncoder(conn).Encode(req); err != nil {
		return Response{}, fmt.Errorf("send request: %w", err)
	}

	var resp Response
	if err := msgpack.NewDecoder(conn).Decode(&resp); err != nil {
		return Response{}, fmt.Errorf("read response: %w", err)
	}

	if resp.Error != "" {
		return resp, fmt.Errorf("%s: %w", resp.Error, ErrRemote)
	}
	return resp, nil
}
