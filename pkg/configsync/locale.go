package configsync

import (
	"codeberg.org/miketth/imswitch/pkg/engines"
	"errors"
	"slices"
	"strings"
)

var ErrNoCandidates = errors.New("no engines match the locale")

// DetectLocale returns $LANG, falling back to the first entry of the
// usual locale name list and finally to "C".
func DetectLocale(getenv func(string) string) string {
	if locale := getenv("LANG"); locale != "" {
		return locale
	}
	if names := LanguageNames(getenv); len(names) > 0 {
		return names[0]
	}
	return "C"
}

// LanguageNames mirrors the lookup order of g_get_language_names.
func LanguageNames(getenv func(string) string) []string {
	var out []string
	if language := getenv("LANGUAGE"); language != "" {
		for _, l := range strings.Split(language, ":") {
			if l != "" {
				out = append(out, l)
			}
		}
	}
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := getenv(key); v != "" {
			out = append(out, v)
			break
		}
	}
	return out
}

// LocaleLanguage strips the codeset and modifier: "ja_JP.UTF-8" → "ja_JP".
func LocaleLanguage(locale string) string {
	lang, _, _ := strings.Cut(locale, ".")
	lang, _, _ = strings.Cut(lang, "@")
	return lang
}

// SelectLocaleRelativePreload picks the input method engines matching the
// locale and merges them behind the keyboard layout engines of stored.
// It returns nil when the result equals stored and ErrNoCandidates when no
// engine matches; in both cases stored should be left as is.
func SelectLocaleRelativePreload(known []*engines.Engine, stored []string, locale string) ([]string, error) {
	lang := LocaleLanguage(locale)
	imEngines := matchLanguage(known, lang)
	if len(imEngines) == 0 {
		base, _, _ := strings.Cut(lang, "_")
		imEngines = matchLanguage(known, base)
	}
	if len(imEngines) == 0 {
		return nil, ErrNoCandidates
	}

	preload := make([]string, 0, len(stored)+len(imEngines))
	for _, name := range stored {
		if strings.HasPrefix(name, engines.XkbPrefix) {
			preload = append(preload, name)
		}
	}
	for _, name := range imEngines {
		if !slices.Contains(preload, name) {
			preload = append(preload, name)
		}
	}

	if slices.Equal(preload, stored) {
		return nil, nil
	}
	return preload, nil
}

func matchLanguage(known []*engines.Engine, lang string) []string {
	var out []string
	for _, e := range known {
		if e.Language == lang && e.Rank > 0 {
			out = append(out, e.Name)
		}
	}
	return out
}
