package ibus

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

var ErrNoDaemon = errors.New("ibus-daemon is not running")

// CLI drives the ibus command line tool.
type CLI struct {
	Path string
}

func (c CLI) runCommand(args ...string) (string, error) {
	var stdout bytes.Buffer
	var stderr bytes.Buffer

	path := c.Path
	if path == "" {
		path = "ibus"
	}

	cmd := exec.Command(path, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	outStr := strings.TrimSpace(stdout.String())
	if err != nil {
		errStr := strings.TrimSpace(stderr.String())
		if strings.Contains(errStr, "Can't connect to IBus") {
			return "", ErrNoDaemon
		}
		return "", fmt.Errorf("ibus: %w, stderr: %s", err, errStr)
	}

	return outStr, nil
}

func (c CLI) SetGlobalEngine(name string) error {
	_, err := c.runCommand("engine", name)
	return err
}

func (c CLI) GlobalEngine() (string, error) {
	return c.runCommand("engine")
}

// Available reports whether the ibus tool can be found at all.
func (c CLI) Available() bool {
	path := c.Path
	if path == "" {
		path = "ibus"
	}
	_, err := exec.LookPath(path)
	return err == nil
}

// Address returns the address of the IBus bus.
func (c CLI) Address() (string, error) {
	return c.runCommand("address")
}
