package clip

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortNewestFirst(t *testing.T) {
	base := time.Unix(1700000000, 0)
	entries := []Entry{
		{ID: 3, Timestamp: base},
		{ID: 1, Timestamp: base.Add(2 * time.Second)},
		{ID: 9, Timestamp: base.Add(time.Second)},
		{ID: 2, Timestamp: base},
	}
	Sort(entries)

	ids := make([]uint64, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	assert.Equal(t, []uint64{1, 9, 2, 3}, ids)
	assert.True(t, IsSorted(entries))
}

func TestCompareIsTotal(t *testing.T) {
	ts := time.Unix(42, 0)
	a := Entry{ID: 1, Timestamp: ts}
	b := Entry{ID: 2, Timestamp: ts}
	assert.Negative(t, Compare(a, b))
	assert.Positive(t, Compare(b, a))
	assert.Zero(t, Compare(a, a))
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"clipboard", ModeClipboard, false},
		{"", ModeClipboard, false},
		{"Selection", ModeSelection, false},
		{"primary", ModeSelection, false},
		{"both", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestModeText(t *testing.T) {
	b, err := ModeSelection.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "selection", string(b))

	var m Mode
	require.NoError(t, m.UnmarshalText([]byte("clipboard")))
	assert.Equal(t, ModeClipboard, m)

	_, err = Mode(7).MarshalText()
	assert.Error(t, err)
}

func TestCanonicalMime(t *testing.T) {
	assert.Equal(t, "text/plain", CanonicalMime("Text/Plain; charset=utf-8"))
	assert.Equal(t, "image/png", CanonicalMime(" image/png "))
	assert.Equal(t, MimeBinary, CanonicalMime(""))
	assert.Equal(t, "not a type", CanonicalMime("Not A Type"))
}

func TestPreview(t *testing.T) {
	e := Entry{Data: []byte("hello\nworld"), Mime: MimeText}
	assert.Equal(t, `hello\nworld`, e.Preview(0))
	assert.Equal(t, "hello…", e.Preview(5))

	img := Entry{Data: make([]byte, 12), Mime: "image/png"}
	assert.Equal(t, "<image/png, 12 bytes>", img.Preview(10))
}

func TestCloneDoesNotAlias(t *testing.T) {
	e := Entry{ID: 1, Data: []byte("abc")}
	c := e.Clone()
	c.Data[0] = 'x'
	assert.Equal(t, "abc", string(e.Data))
}
