package ibus

import (
	"bytes"
	"codeberg.org/miketth/imswitch/pkg/engines"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

type component struct {
	XMLName xml.Name   `xml:"component"`
	Name    string     `xml:"name"`
	Engines engineList `xml:"engines"`
}

type engineList struct {
	Exec    string       `xml:"exec,attr"`
	Engines []engineDesc `xml:"engine"`
}

type engineDesc struct {
	Name     string `xml:"name"`
	Language string `xml:"language"`
	Icon     string `xml:"icon"`
	Layout   string `xml:"layout"`
	LongName string `xml:"longname"`
	Rank     int    `xml:"rank"`
	Symbol   string `xml:"symbol"`
}

func (d engineDesc) toEngine() *engines.Engine {
	layout := d.Layout
	if layout == "" {
		layout = engines.DefaultLayout
	}
	language := d.Language
	if language == "" {
		language = engines.OtherLanguage
	}
	return &engines.Engine{
		Name:     d.Name,
		Language: language,
		Symbol:   d.Symbol,
		LongName: d.LongName,
		Icon:     d.Icon,
		Layout:   layout,
		Rank:     d.Rank,
	}
}

// ComponentLoader reads IBus component descriptions.
type ComponentLoader struct {
	// RunExec runs the command of components that list their engines
	// dynamically, e.g. ibus-engine-simple --xml.
	RunExec     bool
	ExecTimeout time.Duration
}

// LoadDir reads every *.xml component in dir. Broken files are skipped
// and reported through the returned slice of errors.
func (l ComponentLoader) LoadDir(dir string) ([]*engines.Engine, []error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.xml"))
	if err != nil {
		return nil, []error{fmt.Errorf("glob components: %w", err)}
	}

	var out []*engines.Engine
	var errs []error
	for _, path := range paths {
		list, err := l.loadFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("component %s: %w", filepath.Base(path), err))
			continue
		}
		out = append(out, list...)
	}

	return out, errs
}

func (l ComponentLoader) loadFile(path string) ([]*engines.Engine, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	return l.Decode(file)
}

func (l ComponentLoader) Decode(r io.Reader) ([]*engines.Engine, error) {
	var c component
	if err := xml.NewDecoder(r).Decode(&c); err != nil {
		return nil, fmt.Errorf("decode xml: %w", err)
	}

	descs := c.Engines.Engines
	if c.Engines.Exec != "" && l.RunExec {
		dynamic, err := l.runExec(c.Engines.Exec)
		if err != nil {
			return nil, err
		}
		descs = append(descs, dynamic...)
	}

	out := make([]*engines.Engine, 0, len(descs))
	for _, d := range descs {
		if d.Name == "" {
			continue
		}
		out = append(out, d.toEngine())
	}
	return out, nil
}

func (l ComponentLoader) runExec(command string) ([]engineDesc, error) {
	args := strings.Fields(command)
	if len(args) == 0 {
		return nil, nil
	}

	timeout := l.ExecTimeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("run %q: %w", command, err)
	}

	var list engineList
	if err := xml.NewDecoder(&stdout).Decode(&list); err != nil {
		return nil, fmt.Errorf("decode output of %q: %w", command, err)
	}
	return list.Engines, nil
}
