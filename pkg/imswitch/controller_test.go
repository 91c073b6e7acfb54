package imswitch

import (
	"codeberg.org/miketth/imswitch/pkg/engines"
	"codeberg.org/miketth/imswitch/pkg/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"testing"
)

func testEngines() []*engines.Engine {
	return []*engines.Engine{
		{Name: "xkb:us::eng", Language: "en", Layout: "us", LongName: "English (US)"},
		{Name: "anthy", Language: "ja", Layout: "default", Icon: "/usr/share/ibus-anthy/icons/ibus-anthy.png"},
		{Name: "mozc-jp", Language: "ja", Layout: "default[lv3:ralt_alt]"},
		{Name: "xkb:de:nodeadkeys:ger", Language: "de", Layout: "de(nodeadkeys)"},
		{Name: "hangul", Language: "ko", Layout: "kr"},
	}
}

type controllerFixture struct {
	dir       *fakeDirectory
	applier   *fakeApplier
	indicator *fakeIndicator
	config    *fakeConfig
	c         *Controller
}

func newControllerFixture(t *testing.T, preload, order []string) *controllerFixture {
	t.Helper()
	f := &controllerFixture{
		dir:       newFakeDirectory(testEngines()...),
		applier:   &fakeApplier{system: "us[grp:alt_shift_toggle]"},
		indicator: &fakeIndicator{},
		config:    &fakeConfig{},
	}
	f.c = NewController(f.dir, f.applier, f.indicator, zap.NewNop().Sugar())
	f.c.SetConfig(f.config)
	require.NoError(t, f.c.UpdateEngines(preload, order))
	return f
}

func TestUpdateEnginesActivatesFirst(t *testing.T) {
	f := newControllerFixture(t, []string{"xkb:us::eng", "anthy", "hangul"}, []string{"anthy"})

	assert.Equal(t, []string{"anthy", "xkb:us::eng", "hangul"}, f.c.Engines().Names())
	assert.Equal(t, []string{"anthy"}, f.dir.sets)
	assert.Equal(t, "anthy", f.indicator.last().Engine)
	assert.Equal(t, "ibus-anthy", f.indicator.last().Icon)
	assert.Empty(t, f.applier.applied)
	assert.Equal(t, [][]string{{"anthy", "xkb:us::eng", "hangul"}}, f.config.orders)
}

func TestUpdateEnginesFallsBackToDefault(t *testing.T) {
	f := newControllerFixture(t, []string{"nope"}, nil)

	assert.Equal(t, []string{engines.DefaultEngineName}, f.c.Engines().Names())
	assert.Equal(t, []string{"us"}, f.applier.applied)
}

func TestActivateRotates(t *testing.T) {
	f := newControllerFixture(t, []string{"xkb:us::eng", "anthy", "hangul", "xkb:de:nodeadkeys:ger"}, nil)

	require.NoError(t, f.c.Activate(2, false))
	assert.Equal(t, []string{"hangul", "xkb:us::eng", "anthy", "xkb:de:nodeadkeys:ger"}, f.c.Engines().Names())
	assert.Equal(t, "kr", f.applier.applied[len(f.applier.applied)-1])

	require.NoError(t, f.c.Activate(3, false))
	assert.Equal(t, []string{"xkb:de:nodeadkeys:ger", "hangul", "xkb:us::eng", "anthy"}, f.c.Engines().Names())
	assert.Equal(t, "de(nodeadkeys)", f.applier.applied[len(f.applier.applied)-1])

	assert.Equal(t, []string{"xkb:de:nodeadkeys:ger", "hangul", "xkb:us::eng", "anthy"}, f.config.orders[len(f.config.orders)-1])
}

func TestActivateCurrentIsNoop(t *testing.T) {
	f := newControllerFixture(t, []string{"xkb:us::eng", "anthy"}, nil)
	sets := len(f.dir.sets)

	require.NoError(t, f.c.Activate(0, false))
	assert.Len(t, f.dir.sets, sets)

	require.NoError(t, f.c.Activate(0, true))
	assert.Len(t, f.dir.sets, sets+1)
}

func TestActivateOutOfRangePanics(t *testing.T) {
	f := newControllerFixture(t, []string{"xkb:us::eng"}, nil)
	assert.Panics(t, func() { _ = f.c.Activate(1, false) })
	assert.Panics(t, func() { _ = f.c.Activate(-1, true) })
}

func TestActivateRefusedKeepsState(t *testing.T) {
	f := newControllerFixture(t, []string{"xkb:us::eng", "anthy", "hangul"}, nil)
	f.dir.refuse["hangul"] = true
	orders := len(f.config.orders)
	statuses := len(f.indicator.statuses)

	err := f.c.Activate(2, false)
	assert.ErrorIs(t, err, errRefused)
	assert.Equal(t, []string{"xkb:us::eng", "anthy", "hangul"}, f.c.Engines().Names())
	assert.Len(t, f.config.orders, orders)
	assert.Len(t, f.indicator.statuses, statuses)
}

func TestEngineLayoutComposesOptions(t *testing.T) {
	f := newControllerFixture(t, []string{"xkb:us::eng", "mozc-jp"}, nil)

	require.NoError(t, f.c.ActivateByName("mozc-jp", false))
	assert.Equal(t, "us[grp:alt_shift_toggle,lv3:ralt_alt]", f.applier.applied[len(f.applier.applied)-1])

	assert.ErrorIs(t, f.c.ActivateByName("nope", false), ErrUnknownEngine)
}

func TestRebuildKeepsCurrentEngine(t *testing.T) {
	f := newControllerFixture(t, []string{"xkb:us::eng", "anthy", "hangul"}, nil)
	require.NoError(t, f.c.ActivateByName("hangul", false))
	sets := len(f.dir.sets)

	require.NoError(t, f.c.UpdateEngines([]string{"anthy", "hangul"}, []string{"anthy"}))
	assert.Equal(t, []string{"hangul", "anthy"}, f.c.Engines().Names())
	assert.Len(t, f.dir.sets, sets+1)
	assert.Equal(t, "hangul", f.dir.global)

	require.NoError(t, f.c.UpdateEngines([]string{"anthy", "xkb:us::eng"}, nil))
	assert.Equal(t, "anthy", f.c.Current().Name)
	assert.Equal(t, "anthy", f.dir.global)
}

func TestRebuildSkipsRefusedHead(t *testing.T) {
	f := newControllerFixture(t, []string{"xkb:us::eng", "anthy"}, nil)
	f.dir.refuse["hangul"] = true

	require.NoError(t, f.c.UpdateEngines([]string{"hangul", "anthy"}, nil))
	assert.Equal(t, []string{"anthy", "hangul"}, f.c.Engines().Names())
	assert.Equal(t, "anthy", f.dir.global)
	assert.Equal(t, "anthy", f.c.Status().Engine)
	assert.Equal(t, "anthy", f.indicator.last().Engine)

	f.dir.refuse["mozc-jp"] = true
	err := f.c.UpdateEngines([]string{"hangul", "mozc-jp"}, nil)
	assert.ErrorIs(t, err, errRefused)
	assert.Equal(t, []string{"anthy", "hangul"}, f.c.Engines().Names())
	assert.Equal(t, "anthy", f.dir.global)
	assert.Equal(t, "anthy", f.c.Status().Engine)
}

func TestStatusDisambiguates(t *testing.T) {
	f := newControllerFixture(t, []string{"anthy", "mozc-jp"}, nil)

	assert.Equal(t, "ja", f.c.Status().Label)
	require.NoError(t, f.c.Activate(1, false))
	assert.Equal(t, "ja₁", f.indicator.last().Label)
	assert.Equal(t, defaultIcon, f.indicator.last().Icon)

	f.dir.global = "mozc-jp"
	require.NoError(t, f.c.SyncStatus())
	assert.Equal(t, "ja₁", f.indicator.last().Label)
}

func TestOnLayoutChanged(t *testing.T) {
	f := newControllerFixture(t, []string{"xkb:us::eng"}, nil)

	f.applier.signal = layout.SignalLocked
	require.NoError(t, f.c.OnLayoutChanged())
	f.applier.signal = layout.SignalIgnored
	require.NoError(t, f.c.OnLayoutChanged())
	assert.Equal(t, 1, f.config.xkbUpdates)

	f.applier.signal = layout.SignalExternal
	require.NoError(t, f.c.OnLayoutChanged())
	assert.Equal(t, 2, f.config.xkbUpdates)
}

func TestIconName(t *testing.T) {
	assert.Equal(t, "ibus-keyboard", iconName("ibus-keyboard"))
	assert.Equal(t, "hangul", iconName("/usr/share/icons/hangul.svg"))
	assert.Equal(t, defaultIcon, iconName(""))
}
