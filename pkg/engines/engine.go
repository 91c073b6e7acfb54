package engines

import (
	"fmt"
	"strings"
)

const (
	XkbPrefix     = "xkb:"
	DefaultLayout = "default"
	OtherLanguage = "other"

	DefaultEngineName = "xkb:us::eng"
)

// Engine is an input method or a plain keyboard layout as known to IBus.
// Everything but HasDuplicatedLanguage and Suffix is fixed once built.
type Engine struct {
	Name     string
	Language string
	Symbol   string
	LongName string
	Icon     string
	Layout   string
	Rank     int

	HasDuplicatedLanguage bool
	Suffix                string
}

func (e *Engine) IsXkb() bool {
	return strings.HasPrefix(e.Name, XkbPrefix)
}

// LanguageKey is what two engines must share to be displayed identically.
func (e *Engine) LanguageKey() string {
	if e.Symbol != "" {
		return e.Symbol
	}
	return e.Language
}

// IconText is the short label shown for the engine in the status area.
func (e *Engine) IconText() string {
	text := e.Language
	if len(text) > 2 {
		text = text[:2]
	}
	if e.Language == OtherLanguage {
		text = "+@"
	}
	if e.Symbol != "" {
		text = e.Symbol
	}
	return text + e.Suffix
}

func (e *Engine) String() string {
	return fmt.Sprintf("%s (%s, %s)", e.Name, e.Language, e.Layout)
}

// XkbName builds the IBus name of a keyboard layout engine,
// e.g. "xkb:us::eng" or "xkb:us:dvorak:eng".
func XkbName(layout, variant, lang string) string {
	return XkbPrefix + layout + ":" + variant + ":" + lang
}

// ParseXkbName is the inverse of XkbName.
func ParseXkbName(name string) (layout, variant, lang string, ok bool) {
	if !strings.HasPrefix(name, XkbPrefix) {
		return "", "", "", false
	}

	parts := strings.SplitN(strings.TrimPrefix(name, XkbPrefix), ":", 3)
	if len(parts) != 3 || parts[0] == "" {
		return "", "", "", false
	}

	return parts[0], parts[1], parts[2], true
}

// NewXkbEngine synthesizes an engine for a keyboard layout that no IBus
// component describes. language is expected to be a base language subtag.
func NewXkbEngine(layout, variant, iso639, language, description string) *Engine {
	engineLayout := layout
	if variant != "" {
		engineLayout += "(" + variant + ")"
	}
	if language == "" {
		language = OtherLanguage
	}
	if description == "" {
		description = engineLayout
	}

	return &Engine{
		Name:     XkbName(layout, variant, iso639),
		Language: language,
		LongName: description,
		Layout:   engineLayout,
		Rank:     0,
	}
}

// DefaultEngine is what an empty engine list falls back to.
func DefaultEngine() *Engine {
	return &Engine{
		Name:     DefaultEngineName,
		Language: "en",
		LongName: "English (US)",
		Layout:   "us",
		Rank:     99,
	}
}
