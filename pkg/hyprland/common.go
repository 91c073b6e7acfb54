package hyprland

import (
	"errors"
	"fmt"
	"github.com/adrg/xdg"
	"net"
	"os"
	"path/filepath"
)

var ErrNotRunning = errors.New("hyprland might not be running")

type socketType int

const (
	Hyperctl socketType = iota
	Socket2
)

func (s socketType) fileName() string {
	if s == Socket2 {
		return ".socket2.sock"
	}
	return ".socket.sock"
}

func connect(sock socketType) (net.Conn, error) {
	socketPath, err := getSocketPath(sock)
	if err != nil {
		return nil, fmt.Errorf("get socket path: %w", err)
	}

	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	return conn, nil
}

// getSocketPath looks for the instance sockets in $XDG_RUNTIME_DIR/hypr
// first and in /tmp/hypr, where Hyprland before 0.40 put them.
func getSocketPath(sock socketType) (string, error) {
	signature := os.Getenv("HYPRLAND_INSTANCE_SIGNATURE")
	if signature == "" {
		return "", fmt.Errorf("HYPRLAND_INSTANCE_SIGNATURE is not set, %w", ErrNotRunning)
	}

	candidates := []string{
		filepath.Join(xdg.RuntimeDir, "hypr", signature, sock.fileName()),
		filepath.Join("/tmp/hypr", signature, sock.fileName()),
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("no %s for instance %s, %w", sock.fileName(), signature, ErrNotRunning)
}
