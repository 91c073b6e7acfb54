package engines

import (
	"fmt"
	"slices"
)

// subscriptOne is U+2081 SUBSCRIPT ONE, the first disambiguation suffix.
const subscriptOne = '₁'

// OrderedList holds the enabled engines, the active one always first.
type OrderedList []*Engine

func (l OrderedList) Names() []string {
	names := make([]string, 0, len(l))
	for _, e := range l {
		names = append(names, e.Name)
	}
	return names
}

func (l OrderedList) Index(name string) int {
	for i, e := range l {
		if e.Name == name {
			return i
		}
	}
	return -1
}

// Current returns the active engine, nil for an empty list.
func (l OrderedList) Current() *Engine {
	if len(l) == 0 {
		return nil
	}
	return l[0]
}

// MoveToFront moves the engine at i to index 0, shifting the engines
// before it down by one. It panics on an out of range index.
func (l OrderedList) MoveToFront(i int) {
	MoveToFront(l, i)
}

// MoveToFront moves s[i] to the front keeping the order of the rest.
func MoveToFront[T any](s []T, i int) {
	if i < 0 || i >= len(s) {
		panic(fmt.Sprintf("engines: index %d out of range [0,%d)", i, len(s)))
	}

	v := s[i]
	copy(s[1:i+1], s[:i])
	s[0] = v
}

// MergeNames reconciles the enabled set with the remembered order: names
// present in both come first in order-list order, the rest of the preload
// list follows in its own order. Duplicates are dropped.
func MergeNames(preload, order []string) []string {
	names := make([]string, 0, len(preload))
	for _, name := range order {
		if slices.Contains(preload, name) && !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	for _, name := range preload {
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	return names
}

// BuildOrderedList merges preload and order, resolves the names and falls
// back to DefaultEngine if nothing resolves.
func BuildOrderedList(preload, order []string, resolve func(name string) *Engine) OrderedList {
	names := MergeNames(preload, order)

	list := make(OrderedList, 0, len(names))
	for _, name := range names {
		if engine := resolve(name); engine != nil {
			list = append(list, engine)
		}
	}

	if len(list) == 0 {
		list = append(list, DefaultEngine())
	}

	return list
}

// Catalog remembers the disambiguation suffixes handed out for the
// current engine list so that lookups by name stay stable.
type Catalog struct {
	suffixes map[string]string
}

func NewCatalog() *Catalog {
	return &Catalog{suffixes: make(map[string]string)}
}

// Reset forgets all suffixes and clears the derived fields of engines.
// Call it when the engine list is rebuilt from scratch.
func (c *Catalog) Reset(engines []*Engine) {
	c.suffixes = make(map[string]string)
	for _, e := range engines {
		if e == nil {
			continue
		}
		e.HasDuplicatedLanguage = false
		e.Suffix = ""
	}
}

// Suffix returns the suffix assigned to the named engine, if any.
func (c *Catalog) Suffix(name string) (string, bool) {
	s, ok := c.suffixes[name]
	return s, ok
}

// Disambiguate marks engines sharing a language key and gives every later
// engine of a group a subscript suffix, in first-occurrence scan order.
// Engines that already hold a suffix keep it.
func (c *Catalog) Disambiguate(engines []*Engine) []*Engine {
	for i := 0; i < len(engines)-1; i++ {
		ei := engines[i]
		if ei == nil {
			continue
		}
		if _, ok := c.suffixes[ei.Name]; ok {
			continue
		}

		cnt := 0
		keyI := ei.LanguageKey()
		for j := i + 1; j < len(engines); j++ {
			ej := engines[j]
			if ej == nil || ej.LanguageKey() != keyI {
				continue
			}

			ei.HasDuplicatedLanguage = true
			ej.HasDuplicatedLanguage = true

			suffix := string(rune(subscriptOne + cnt))
			cnt++
			if existing, ok := c.suffixes[ej.Name]; ok {
				ej.Suffix = existing
				continue
			}
			c.suffixes[ej.Name] = suffix
			ej.Suffix = suffix
		}
	}

	return engines
}
