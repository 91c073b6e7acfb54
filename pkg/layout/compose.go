package layout

import "strings"

const Default = "default"

// Split breaks "base(variant)[options]" into its parts. Missing parts
// come back empty.
func Split(layout string) (base, variant, options string) {
	base, variant = cut(layout, '(', ')')
	base, options = cut(base, '[', ']')
	return base, variant, options
}

func cut(s string, open, close byte) (rest, inner string) {
	l := strings.IndexByte(s, open)
	r := strings.IndexByte(s, close)
	if l >= 0 && r > l {
		return s[:l] + s[r+1:], s[l+1 : r]
	}
	return s, ""
}

// Join is the inverse of Split.
func Join(base, variant, options string) string {
	out := base
	if isSet(variant) {
		out += "(" + variant + ")"
	}
	if isSet(options) {
		out += "[" + options + "]"
	}
	return out
}

func isSet(s string) bool {
	return s != "" && s != Default
}

// Compose merges the layout an engine asks for into the system layout.
// Only XKB options are merged: an engine that brings options gets them
// appended to the system options, anything else leaves the system layout
// untouched. Variants are never merged across groups.
func Compose(systemLayout, engineLayout string) string {
	if !isSet(engineLayout) {
		return systemLayout
	}

	_, _, engineOptions := Split(engineLayout)
	if !isSet(engineOptions) {
		return systemLayout
	}

	base, variant, options := Split(systemLayout)
	if isSet(options) {
		options += "," + engineOptions
	} else {
		options = engineOptions
	}

	return Join(base, variant, options)
}

// State is the parsed form of the comma separated layout and variant
// strings the keyboard backend reports.
type State struct {
	Layouts  []string
	Variants []string
	Options  string
}

func ParseState(cfg Config) State {
	s := State{Options: cfg.Options}
	if cfg.Layout == "" {
		return s
	}
	s.Layouts = strings.Split(cfg.Layout, ",")
	s.Variants = strings.Split(cfg.Variant, ",")
	return s
}

// Group returns "base(variant)" for group i.
func (s State) Group(i int) string {
	if i < 0 || i >= len(s.Layouts) {
		return ""
	}
	out := s.Layouts[i]
	if v := s.Variant(i); v != "" {
		out += "(" + v + ")"
	}
	return out
}

func (s State) Variant(i int) string {
	if i < 0 || i >= len(s.Variants) {
		return ""
	}
	return s.Variants[i]
}
