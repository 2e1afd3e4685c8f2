package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoxSealOpen(t *testing.T) {
	b, err := NewBox("s3cret")
	require.NoError(t, err)
	require.True(t, b.Enabled())

	sealed, err := b.Seal([]byte("hello"))
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "hello")

	plain, err := b.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(plain))
}

func TestBoxWrongToken(t *testing.T) {
	a, err := NewBox("one")
	require.NoError(t, err)
	b, err := NewBox("two")
	require.NoError(t, err)

	sealed, err := a.Seal([]byte("payload"))
	require.NoError(t, err)
	_, err = b.Open(sealed)
	assert.ErrorIs(t, err, ErrOpen)

	_, err = a.Open([]byte("short"))
	assert.ErrorIs(t, err, ErrOpen)
}

func TestNilBoxPassesThrough(t *testing.T) {
	b, err := NewBox("")
	require.NoError(t, err)
	assert.False(t, b.Enabled())

	out, err := b.Seal([]byte("plain"))
	require.NoError(t, err)
	assert.Equal(t, "plain", string(out))

	out, err = b.Open(out)
	require.NoError(t, err)
	assert.Equal(t, "plain", string(out))
}
