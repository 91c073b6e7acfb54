package settings

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestParseValue(t *testing.T) {
	v, err := ParseValue(KindStrv, []string{"xkb:us::eng", "anthy"})
	require.NoError(t, err)
	assert.Equal(t, Strv("xkb:us::eng", "anthy"), v)
	assert.Equal(t, "[xkb:us::eng,anthy]", v.String())

	v, err = ParseValue(KindInt, []string{"1"})
	require.NoError(t, err)
	assert.Equal(t, Int(1), v)

	v, err = ParseValue(KindBool, []string{"true"})
	require.NoError(t, err)
	assert.True(t, v.Bool)

	_, err = ParseValue(KindInt, []string{"4294967296"})
	assert.Error(t, err)

	_, err = ParseValue(KindInt, []string{"1", "2"})
	assert.Error(t, err)

	_, err = ParseValue(KindInvalid, nil)
	assert.Error(t, err)
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{KindStrv, KindInt, KindBool} {
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}

	_, err := ParseKind("double")
	assert.Error(t, err)
}

func TestValueEqual(t *testing.T) {
	assert.True(t, Strv("a", "b").Equal(Strv("a", "b")))
	assert.False(t, Strv("a", "b").Equal(Strv("b", "a")))
	assert.False(t, Int(0).Equal(Bool(false)))
	assert.True(t, Int(2).Equal(Int(2)))
}
