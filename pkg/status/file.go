package status

import (
	"codeberg.org/miketth/imswitch/pkg/imswitch"
	"encoding/json"
	"fmt"
	"go.uber.org/zap"
	"os"
	"path/filepath"
)

// waybarStatus is the return-type=json format of waybar custom modules.
type waybarStatus struct {
	Text    string `json:"text"`
	Alt     string `json:"alt"`
	Tooltip string `json:"tooltip"`
	Class   string `json:"class"`
	Icon    string `json:"icon"`
}

// FileIndicator writes the active engine to a JSON status file. The file is
// replaced atomically so readers never see a partial write.
type FileIndicator struct {
	path string
	log  *zap.SugaredLogger
	last imswitch.Status
}

func NewFileIndicator(path string, log *zap.SugaredLogger) (*FileIndicator, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create status dir: %w", err)
	}
	return &FileIndicator{path: path, log: log}, nil
}

func (f *FileIndicator) Update(status imswitch.Status) error {
	if status == f.last {
		return nil
	}

	data, err := json.Marshal(waybarStatus{
		Text:    status.Label,
		Alt:     status.Engine,
		Tooltip: status.Tooltip,
		Class:   status.Engine,
		Icon:    status.Icon,
	})
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".status-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("write status: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close status: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("rename status: %w", err)
	}

	f.last = status
	f.log.Debugw("status updated", "engine", status.Engine, "label", status.Label)
	return nil
}

// LogIndicator only logs, used when no status file is configured.
type LogIndicator struct {
	Log *zap.SugaredLogger
}

func (l LogIndicator) Update(status imswitch.Status) error {
	l.Log.Infow("engine", "engine", status.Engine, "label", status.Label)
	return nil
}
