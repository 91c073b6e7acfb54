package ibus

import (
	"codeberg.org/miketth/imswitch/pkg/engines"
	"codeberg.org/miketth/imswitch/pkg/xkblayouts"
	"context"
	"errors"
	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const anthyComponent = `<?xml version="1.0" encoding="utf-8"?>
<component>
  <name>org.freedesktop.IBus.Anthy</name>
  <engines>
    <engine>
      <name>anthy</name>
      <language>ja</language>
      <icon>/usr/share/ibus-anthy/icons/ibus-anthy.png</icon>
      <layout>jp</layout>
      <longname>Anthy</longname>
      <rank>99</rank>
      <symbol>あ</symbol>
    </engine>
    <engine>
      <name>mozc-jp</name>
      <language>ja</language>
      <longname>Mozc</longname>
      <rank>80</rank>
    </engine>
  </engines>
</component>`

const registryXML = `<xkbConfigRegistry><layoutList>
  <layout><configItem><name>us</name><description>English (US)</description>
    <languageList><iso639Id>eng</iso639Id></languageList></configItem>
    <variantList><variant><configItem><name>dvorak</name><description>English (Dvorak)</description></configItem></variant></variantList>
  </layout>
</layoutList></xkbConfigRegistry>`

type fakeSetter struct {
	current string
	err     error
}

func (f *fakeSetter) SetGlobalEngine(name string) error {
	if f.err != nil {
		return f.err
	}
	f.current = name
	return nil
}

func (f *fakeSetter) GlobalEngine() (string, error) {
	return f.current, f.err
}

func newTestDirectory(t *testing.T, setter GlobalEngineSetter) *Directory {
	t.Helper()

	known, err := ComponentLoader{}.Decode(strings.NewReader(anthyComponent))
	require.NoError(t, err)
	registry, err := xkblayouts.Decode(strings.NewReader(registryXML))
	require.NoError(t, err)

	return NewDirectory(known, registry, setter, zap.NewNop().Sugar())
}

func TestComponentDecode(t *testing.T) {
	known, err := ComponentLoader{}.Decode(strings.NewReader(anthyComponent))
	require.NoError(t, err)
	require.Len(t, known, 2)

	assert.Equal(t, "anthy", known[0].Name)
	assert.Equal(t, "あ", known[0].Symbol)
	assert.Equal(t, 99, known[0].Rank)
	assert.Equal(t, "jp", known[0].Layout)
	assert.Equal(t, engines.DefaultLayout, known[1].Layout)
}

func TestLoadDirSkipsBrokenFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "anthy.xml"), []byte(anthyComponent), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.xml"), []byte("<component>"), 0644))

	known, errs := ComponentLoader{}.LoadDir(dir)
	assert.Len(t, known, 2)
	assert.Len(t, errs, 1)
}

func TestDirectoryLookup(t *testing.T) {
	d := newTestDirectory(t, &fakeSetter{})

	list := d.GetEnginesByNames([]string{"mozc-jp", "nope", "xkb:us:dvorak:eng", "xkb:zz::zzz"})
	require.Len(t, list, 2)
	assert.Equal(t, "mozc-jp", list[0].Name)
	assert.Equal(t, "xkb:us:dvorak:eng", list[1].Name)
	assert.Equal(t, "us(dvorak)", list[1].Layout)
	assert.Equal(t, "en", list[1].Language)
	assert.Equal(t, "English (Dvorak)", list[1].LongName)

	list[0].Suffix = "₁"
	again := d.Lookup("mozc-jp")
	assert.Empty(t, again.Suffix)

	assert.Equal(t, "xkb:us::eng", d.XkbEngineName("us", ""))
	assert.Len(t, d.ListEngines(), 2)
}

func TestDirectoryGlobalEngine(t *testing.T) {
	setter := &fakeSetter{}
	d := newTestDirectory(t, setter)

	require.NoError(t, d.SetGlobalEngine("anthy"))
	e, err := d.GetGlobalEngine()
	require.NoError(t, err)
	assert.Equal(t, "anthy", e.Name)

	setter.err = errors.New("refused")
	assert.Error(t, d.SetGlobalEngine("mozc-jp"))
}

func TestDirectoryWithoutDaemon(t *testing.T) {
	d := newTestDirectory(t, nil)

	assert.NoError(t, d.SetGlobalEngine("xkb:us::eng"))
	assert.ErrorIs(t, d.SetGlobalEngine("anthy"), ErrNoDaemon)

	_, err := d.GetGlobalEngine()
	assert.ErrorIs(t, err, ErrNoDaemon)
}

func TestDirectoryReload(t *testing.T) {
	d := newTestDirectory(t, nil)
	require.NotNil(t, d.Lookup("anthy"))

	d.Reload([]*engines.Engine{{Name: "hangul", Language: "ko"}, {Name: "hangul", Language: "ko"}})
	assert.Nil(t, d.Lookup("anthy"))
	assert.Len(t, d.ListEngines(), 1)
}

func TestEngineDescName(t *testing.T) {
	desc := dbus.MakeVariant([]interface{}{"IBusEngineDesc", map[string]dbus.Variant{}, "anthy", "Anthy"})
	name, err := engineDescName(desc)
	require.NoError(t, err)
	assert.Equal(t, "anthy", name)

	_, err = engineDescName(dbus.MakeVariant("anthy"))
	assert.ErrorIs(t, err, ErrBadReply)
}

func TestWatchComponents(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 4)
	done := make(chan error, 1)
	go func() {
		done <- WatchComponents(ctx, dir, 10*time.Millisecond, func() { changed <- struct{}{} }, zap.NewNop().Sugar())
	}()

	require.Eventually(t, func() bool {
		_ = os.WriteFile(filepath.Join(dir, "anthy.xml"), []byte(anthyComponent), 0644)
		select {
		case <-changed:
			return true
		default:
			return false
		}
	}, 2*time.Second, 50*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
