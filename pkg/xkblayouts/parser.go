package xkblayouts

import (
	"encoding/xml"
	"fmt"
	"golang.org/x/text/language"
	"io"
	"os"
)

func ParseLayouts(path string) (*XkbConfigRegistry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	return Decode(file)
}

func Decode(r io.Reader) (*XkbConfigRegistry, error) {
	registry := &XkbConfigRegistry{}
	err := xml.NewDecoder(r).Decode(registry)
	if err != nil {
		return nil, fmt.Errorf("decode xml: %w", err)
	}

	return registry, nil
}

func (r *XkbConfigRegistry) findLayout(layout string) *Layout {
	if r == nil {
		return nil
	}
	for i := range r.LayoutList.Layout {
		if r.LayoutList.Layout[i].ConfigItem.Name == layout {
			return &r.LayoutList.Layout[i]
		}
	}
	return nil
}

func (l *Layout) findVariant(variant string) *Variant {
	for i := range l.VariantList.Variant {
		if l.VariantList.Variant[i].ConfigItem.Name == variant {
			return &l.VariantList.Variant[i]
		}
	}
	return nil
}

func (r *XkbConfigRegistry) GetLayoutPrettyName(layout, variant string) string {
	l := r.findLayout(layout)
	if l == nil {
		return ""
	}
	if variant == "" {
		return l.ConfigItem.Description
	}
	if v := l.findVariant(variant); v != nil {
		return v.ConfigItem.Description
	}
	return ""
}

func (r *XkbConfigRegistry) GetLayoutAndVariantFromPrettyName(prettyName string) (string, string) {
	if r == nil {
		return "", ""
	}
	for _, l := range r.LayoutList.Layout {
		if l.ConfigItem.Description == prettyName {
			return l.ConfigItem.Name, ""
		}

		for _, v := range l.VariantList.Variant {
			if v.ConfigItem.Description == prettyName {
				return l.ConfigItem.Name, v.ConfigItem.Name
			}
		}
	}

	return "", ""
}

// LayoutLanguages returns the ISO 639 ids of a layout. A variant without
// its own language list inherits the layout's.
func (r *XkbConfigRegistry) LayoutLanguages(layout, variant string) []string {
	l := r.findLayout(layout)
	if l == nil {
		return nil
	}
	if variant != "" {
		if v := l.findVariant(variant); v != nil && len(v.ConfigItem.LanguageList.ISO639Id) > 0 {
			return v.ConfigItem.LanguageList.ISO639Id
		}
	}
	return l.ConfigItem.LanguageList.ISO639Id
}

// ShortName is the short description shown for a group, e.g. "en".
func (r *XkbConfigRegistry) ShortName(layout, variant string) string {
	l := r.findLayout(layout)
	if l == nil {
		return layout
	}
	if variant != "" {
		if v := l.findVariant(variant); v != nil && v.ConfigItem.ShortDescription != "" {
			return v.ConfigItem.ShortDescription
		}
	}
	if l.ConfigItem.ShortDescription != "" {
		return l.ConfigItem.ShortDescription
	}
	return layout
}

// BaseLanguage maps an ISO 639 id such as "eng" to its shortest base
// subtag ("en"). Unknown ids are returned unchanged.
func BaseLanguage(iso639 string) string {
	base, err := language.ParseBase(iso639)
	if err != nil {
		return iso639
	}
	return base.String()
}
