package layout

import (
	"errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"testing"
	"time"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		in                     string
		base, variant, options string
	}{
		{"us", "us", "", ""},
		{"us(dvorak)", "us", "dvorak", ""},
		{"us[ctrl:nocaps]", "us", "", "ctrl:nocaps"},
		{"us(dvorak)[ctrl:nocaps,grp:alt]", "us", "dvorak", "ctrl:nocaps,grp:alt"},
		{"default[lv3:ralt_alt]", "default", "", "lv3:ralt_alt"},
		{"us)(", "us)(", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			base, variant, options := Split(tt.in)
			assert.Equal(t, tt.base, base)
			assert.Equal(t, tt.variant, variant)
			assert.Equal(t, tt.options, options)
		})
	}
}

func TestCompose(t *testing.T) {
	tests := []struct {
		system, engine, want string
	}{
		{"us", "default", "us"},
		{"us", "", "us"},
		{"us(dvorak)", "jp", "us(dvorak)"},
		{"us", "jp(kana)", "us"},
		{"us", "default[ctrl:nocaps]", "us[ctrl:nocaps]"},
		{"us(dvorak)", "default[ctrl:nocaps]", "us(dvorak)[ctrl:nocaps]"},
		{"us(dvorak)[grp:alt]", "jp[ctrl:nocaps]", "us(dvorak)[grp:alt,ctrl:nocaps]"},
		{"us[default]", "default[ctrl:nocaps]", "us[ctrl:nocaps]"},
	}

	for _, tt := range tests {
		t.Run(tt.system+"+"+tt.engine, func(t *testing.T) {
			assert.Equal(t, tt.want, Compose(tt.system, tt.engine))
		})
	}
}

func TestParseState(t *testing.T) {
	s := ParseState(Config{Layout: "us,jp,fr", Variant: "dvorak,,"})
	assert.Equal(t, []string{"us", "jp", "fr"}, s.Layouts)
	assert.Equal(t, "us(dvorak)", s.Group(0))
	assert.Equal(t, "jp", s.Group(1))
	assert.Equal(t, "", s.Group(5))

	s = ParseState(Config{Layout: "us"})
	assert.Equal(t, "us", s.Group(0))

	assert.Empty(t, ParseState(Config{}).Layouts)
}

type fakeBackend struct {
	cfg       Config
	names     []string
	current   int
	locked    []int
	setCalls  []string
	resets    int
	setLockID int
	setOption bool
	lockErr   error
}

func (f *fakeBackend) Config() (Config, error)      { return f.cfg, nil }
func (f *fakeBackend) GroupNames() ([]string, error) { return f.names, nil }
func (f *fakeBackend) CurrentGroup() (int, error)    { return f.current, nil }
func (f *fakeBackend) ResetLayout() error            { f.resets++; return nil }

func (f *fakeBackend) LockGroup(idx int) error {
	if f.lockErr != nil {
		return f.lockErr
	}
	f.locked = append(f.locked, idx)
	f.current = idx
	return nil
}

func (f *fakeBackend) SetLayout(layout string) (int, bool, error) {
	f.setCalls = append(f.setCalls, layout)
	return f.setLockID, f.setOption, nil
}

func newTestApplier(t *testing.T, b *fakeBackend) *Applier {
	t.Helper()
	a := NewApplier(b, 0, zap.NewNop().Sugar())
	require.NoError(t, a.Refresh())
	return a
}

func TestApplyNativeGroup(t *testing.T) {
	b := &fakeBackend{
		cfg:   Config{Layout: "us,jp", Variant: "dvorak,"},
		names: []string{"us", "jp"},
	}
	a := newTestApplier(t, b)

	native, err := a.Apply("jp")
	require.NoError(t, err)
	assert.True(t, native)
	assert.Equal(t, []int{1}, b.locked)
	assert.Empty(t, b.setCalls)

	native, err = a.Apply("us(dvorak)")
	require.NoError(t, err)
	assert.True(t, native)
	assert.Equal(t, []int{1, 0}, b.locked)

	native, err = a.Apply("default")
	require.NoError(t, err)
	assert.False(t, native)
	assert.Empty(t, b.setCalls)
}

func TestApplyFallbackLocksOnSignal(t *testing.T) {
	b := &fakeBackend{
		cfg:       Config{Layout: "us"},
		names:     []string{"us"},
		setLockID: 1,
	}
	a := newTestApplier(t, b)

	native, err := a.Apply("fr(azerty)")
	require.NoError(t, err)
	assert.False(t, native)
	assert.True(t, a.Pending())
	assert.Equal(t, []string{"fr(azerty)"}, b.setCalls)
	assert.Empty(t, b.locked)

	b.cfg = Config{Layout: "us,fr", Variant: ",azerty"}
	b.names = []string{"us", "fr"}

	signal, err := a.OnLayoutChanged()
	require.NoError(t, err)
	assert.Equal(t, SignalLocked, signal)
	assert.False(t, a.Pending())
	assert.Equal(t, []int{1}, b.locked)
	assert.Equal(t, 0, b.resets)
	assert.Equal(t, "fr(azerty)", a.State().Group(1))

	signal, err = a.OnLayoutChanged()
	require.NoError(t, err)
	assert.Equal(t, SignalExternal, signal)
	assert.Equal(t, 1, b.resets)
	assert.Equal(t, []int{1}, b.locked)
}

func TestApplySkipsFastPathAfterOptionChange(t *testing.T) {
	b := &fakeBackend{
		cfg:       Config{Layout: "us"},
		names:     []string{"us"},
		setLockID: 0,
		setOption: true,
	}
	a := newTestApplier(t, b)

	_, err := a.Apply("us[ctrl:nocaps]")
	require.NoError(t, err)
	_, err = a.OnLayoutChanged()
	require.NoError(t, err)

	b.setOption = false
	native, err := a.Apply("us")
	require.NoError(t, err)
	assert.False(t, native)
	assert.Equal(t, []string{"us[ctrl:nocaps]", "us"}, b.setCalls)

	_, err = a.OnLayoutChanged()
	require.NoError(t, err)

	native, err = a.Apply("us")
	require.NoError(t, err)
	assert.True(t, native)
}

func TestOnLayoutChangedDebounce(t *testing.T) {
	b := &fakeBackend{cfg: Config{Layout: "us"}, names: []string{"us"}}
	a := NewApplier(b, time.Second, zap.NewNop().Sugar())
	now := time.Unix(1000, 0)
	a.now = func() time.Time { return now }

	signal, err := a.OnLayoutChanged()
	require.NoError(t, err)
	assert.Equal(t, SignalExternal, signal)

	now = now.Add(500 * time.Millisecond)
	signal, err = a.OnLayoutChanged()
	require.NoError(t, err)
	assert.Equal(t, SignalIgnored, signal)
	assert.Equal(t, 1, b.resets)

	now = now.Add(2 * time.Second)
	signal, err = a.OnLayoutChanged()
	require.NoError(t, err)
	assert.Equal(t, SignalExternal, signal)
	assert.Equal(t, 2, b.resets)
}

func TestPendingLockBypassesDebounce(t *testing.T) {
	b := &fakeBackend{cfg: Config{Layout: "us"}, names: []string{"us"}, setLockID: 1}
	a := NewApplier(b, time.Second, zap.NewNop().Sugar())
	require.NoError(t, a.Refresh())
	now := time.Unix(1000, 0)
	a.now = func() time.Time { return now }

	signal, err := a.OnLayoutChanged()
	require.NoError(t, err)
	assert.Equal(t, SignalExternal, signal)
	assert.Equal(t, 1, b.resets)

	_, err = a.Apply("fr")
	require.NoError(t, err)
	require.True(t, a.Pending())

	now = now.Add(300 * time.Millisecond)
	b.cfg = Config{Layout: "us,fr"}
	b.names = []string{"us", "fr"}
	signal, err = a.OnLayoutChanged()
	require.NoError(t, err)
	assert.Equal(t, SignalLocked, signal)
	assert.False(t, a.Pending())
	assert.Equal(t, []int{1}, b.locked)

	now = now.Add(5 * time.Second)
	signal, err = a.OnLayoutChanged()
	require.NoError(t, err)
	assert.Equal(t, SignalExternal, signal)
	assert.Equal(t, []int{1}, b.locked)
	assert.Equal(t, 2, b.resets)
}

func TestApplyLockError(t *testing.T) {
	b := &fakeBackend{
		cfg:     Config{Layout: "us"},
		names:   []string{"us"},
		lockErr: errors.New("boom"),
	}
	a := newTestApplier(t, b)

	_, err := a.Apply("us")
	assert.Error(t, err)
}

func TestSystemLayout(t *testing.T) {
	b := &fakeBackend{
		cfg:     Config{Layout: "us,de", Variant: ",nodeadkeys", Options: "grp:alt_shift_toggle"},
		names:   []string{"us", "de"},
		current: 1,
	}
	a := newTestApplier(t, b)
	assert.Equal(t, "de(nodeadkeys)[grp:alt_shift_toggle]", a.SystemLayout())

	empty := newTestApplier(t, &fakeBackend{})
	assert.Equal(t, "", empty.SystemLayout())
}
