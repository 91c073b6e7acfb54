package hyprland

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"regexp"
	"strings"
)

var (
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrDeviceNotFound  = errors.New("device not found")
)

var errorMapper = []struct {
	re  *regexp.Regexp
	err error
}{
	{regexp.MustCompile(`^ok$`), nil},
	{regexp.MustCompile(`layout idx out of range`), ErrIndexOutOfRange},
	{regexp.MustCompile(`[Dd]evice not found`), ErrDeviceNotFound},
}

// Hyprctl talks to the request socket the way hyprctl does.
type Hyprctl struct {
	dial func() (net.Conn, error)
}

func NewHyprctl() (*Hyprctl, error) {
	if _, err := getSocketPath(Hyperctl); err != nil {
		return nil, err
	}
	return &Hyprctl{dial: func() (net.Conn, error) { return connect(Hyperctl) }}, nil
}

func (c *Hyprctl) SwitchLayout(device string, idx int) error {
	return c.command(fmt.Sprintf("switchxkblayout %s %d", device, idx))
}

// Keywords sets config values in one batch request.
func (c *Hyprctl) Keywords(keywords ...[2]string) error {
	cmds := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		cmds = append(cmds, fmt.Sprintf("keyword %s %s", kw[0], kw[1]))
	}
	return c.batch(cmds...)
}

func (c *Hyprctl) GetKeyboards() ([]Keyboard, error) {
	resp, err := c.request("devices", "j")
	if err != nil {
		return nil, err
	}

	var devs devices
	if err := json.Unmarshal([]byte(resp), &devs); err != nil {
		return nil, fmt.Errorf("unmarshal devices: %w, (hyprctl: %s)", err, resp)
	}

	out := make([]Keyboard, 0, len(devs.Keyboards))
	for _, k := range devs.Keyboards {
		out = append(out, k.ToKeyboard())
	}

	return out, nil
}

func (c *Hyprctl) command(cmd string) error {
	resp, err := c.request(cmd, "")
	if err != nil {
		return err
	}
	return mapResponse(resp)
}

func (c *Hyprctl) batch(cmds ...string) error {
	if len(cmds) == 0 {
		return nil
	}

	resp, err := c.request("[[BATCH]]"+strings.Join(cmds, ";"), "")
	if err != nil {
		return err
	}

	var errs []error
	for _, part := range strings.Split(resp, "\n\n") {
		if err := mapResponse(part); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Hyprctl) request(request string, args string) (string, error) {
	conn, err := c.dial()
	if err != nil {
		return "", fmt.Errorf("connect hyprctl socket: %w", err)
	}
	defer conn.Close()

	_, err = conn.Write([]byte(fmt.Sprintf("%s/%s", args, request)))
	if err != nil {
		return "", fmt.Errorf("write to hyprctl socket: %w", err)
	}

	resp, err := io.ReadAll(conn)
	if err != nil {
		return "", fmt.Errorf("read response from hyprctl socket: %w", err)
	}

	return strings.TrimSpace(string(resp)), nil
}

func mapResponse(resp string) error {
	resp = strings.TrimSpace(resp)
	for _, m := range errorMapper {
		if m.re.MatchString(resp) {
			return m.err
		}
	}
	return fmt.Errorf("hyprctl: %s", resp)
}
