package engines

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func resolverFor(engines ...*Engine) func(string) *Engine {
	byName := make(map[string]*Engine, len(engines))
	for _, e := range engines {
		byName[e.Name] = e
	}
	return func(name string) *Engine {
		return byName[name]
	}
}

func TestMergeNames(t *testing.T) {
	assert.Equal(t, []string{"c", "a", "b"}, MergeNames([]string{"a", "b", "c"}, []string{"c", "a"}))
	assert.Equal(t, []string{"a", "b"}, MergeNames([]string{"a", "b"}, nil))
	assert.Equal(t, []string{"b", "a"}, MergeNames([]string{"a", "b"}, []string{"x", "b", "y", "b"}))
	assert.Empty(t, MergeNames(nil, []string{"a"}))
}

func TestBuildOrderedList(t *testing.T) {
	a := &Engine{Name: "a", Language: "en"}
	b := &Engine{Name: "b", Language: "ja"}
	c := &Engine{Name: "c", Language: "ko"}

	list := BuildOrderedList([]string{"a", "b", "c"}, []string{"c", "a"}, resolverFor(a, b, c))
	assert.Equal(t, []string{"c", "a", "b"}, list.Names())
	assert.Same(t, c, list.Current())

	list = BuildOrderedList([]string{"a", "missing", "b"}, nil, resolverFor(a, b, c))
	assert.Equal(t, []string{"a", "b"}, list.Names())
}

func TestBuildOrderedListFallsBackToDefault(t *testing.T) {
	list := BuildOrderedList(nil, nil, resolverFor())
	require.Len(t, list, 1)
	assert.Equal(t, DefaultEngineName, list[0].Name)

	list = BuildOrderedList([]string{"gone"}, []string{"gone"}, resolverFor())
	require.Len(t, list, 1)
	assert.Equal(t, DefaultEngineName, list[0].Name)
}

func TestMoveToFront(t *testing.T) {
	for n := 1; n <= 5; n++ {
		for i := 0; i < n; i++ {
			list := make(OrderedList, n)
			for k := range list {
				list[k] = &Engine{Name: string(rune('a' + k))}
			}
			before := list.Names()

			list.MoveToFront(i)

			after := list.Names()
			assert.Equal(t, before[i], after[0])

			rest := append(append([]string{}, before[:i]...), before[i+1:]...)
			assert.Equal(t, rest, after[1:])
		}
	}
}

func TestMoveToFrontPanicsOutOfRange(t *testing.T) {
	list := OrderedList{{Name: "a"}}
	assert.Panics(t, func() { list.MoveToFront(1) })
	assert.Panics(t, func() { list.MoveToFront(-1) })
}

func TestDisambiguate(t *testing.T) {
	engines := []*Engine{
		{Name: "anthy", Language: "ja"},
		{Name: "mozc", Language: "ja"},
		{Name: "xkb:us::eng", Language: "en"},
	}
	c := NewCatalog()

	c.Disambiguate(engines)

	assert.True(t, engines[0].HasDuplicatedLanguage)
	assert.Empty(t, engines[0].Suffix)
	assert.True(t, engines[1].HasDuplicatedLanguage)
	assert.Equal(t, "₁", engines[1].Suffix)
	assert.False(t, engines[2].HasDuplicatedLanguage)
	assert.Empty(t, engines[2].Suffix)

	suffix, ok := c.Suffix("mozc")
	require.True(t, ok)
	assert.Equal(t, "₁", suffix)

	c.Disambiguate(engines)
	assert.Equal(t, "₁", engines[1].Suffix)
	assert.Empty(t, engines[0].Suffix)
	assert.False(t, engines[2].HasDuplicatedLanguage)
}

func TestDisambiguateUsesSymbolAndScanOrder(t *testing.T) {
	engines := []*Engine{
		{Name: "a", Language: "zh", Symbol: "拼"},
		{Name: "b", Language: "zh"},
		{Name: "c", Language: "ja", Symbol: "拼"},
		{Name: "d", Language: "zh"},
		{Name: "e", Language: "zh"},
	}
	c := NewCatalog()
	c.Disambiguate(engines)

	assert.Equal(t, "₁", engines[2].Suffix)
	assert.Equal(t, "", engines[1].Suffix)
	assert.Equal(t, "₁", engines[3].Suffix)
	assert.Equal(t, "₂", engines[4].Suffix)
	assert.Equal(t, "拼₁", engines[2].IconText())
	assert.Equal(t, "zh₂", engines[4].IconText())

	c.Reset(engines)
	for _, e := range engines {
		assert.False(t, e.HasDuplicatedLanguage)
		assert.Empty(t, e.Suffix)
	}
	_, ok := c.Suffix("c")
	assert.False(t, ok)
}

func TestIconText(t *testing.T) {
	assert.Equal(t, "en", (&Engine{Language: "en_US"}).IconText())
	assert.Equal(t, "+@", (&Engine{Language: OtherLanguage}).IconText())
	assert.Equal(t, "あ", (&Engine{Language: "ja", Symbol: "あ"}).IconText())
}

func TestXkbNames(t *testing.T) {
	assert.Equal(t, "xkb:us:dvorak:eng", XkbName("us", "dvorak", "eng"))

	layout, variant, lang, ok := ParseXkbName("xkb:us::eng")
	require.True(t, ok)
	assert.Equal(t, "us", layout)
	assert.Empty(t, variant)
	assert.Equal(t, "eng", lang)

	_, _, _, ok = ParseXkbName("anthy")
	assert.False(t, ok)

	e := NewXkbEngine("us", "dvorak", "eng", "en", "")
	assert.Equal(t, "xkb:us:dvorak:eng", e.Name)
	assert.Equal(t, "us(dvorak)", e.Layout)
	assert.True(t, e.IsXkb())
}
