package chunk

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitEmpty(t *testing.T) {
	m := Split(nil)
	require.Equal(t, 0, m.Len())
}

func TestSplitExactMultiple(t *testing.T) {
	data := bytes.Repeat([]byte("A"), Size*2)
	m := Split(data)
	require.Equal(t, 2, m.Len())
	require.Len(t, m[0], Size)
	require.Len(t, m[1], Size)
}

func TestSplitShortLastChunk(t *testing.T) {
	data := bytes.Repeat([]byte("ABCD"), 64) // 256 bytes
	m := Split(data)
	require.Equal(t, 2, m.Len())
	require.Len(t, m[0], Size)
	require.Len(t, m[1], 56)
}

func TestSplitReassembleRoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, Size - 1, Size, Size + 1, Size*5 + 17} {
		data := bytes.Repeat([]byte("x"), n)
		got, err := Reassemble(Split(data))
		require.NoError(t, err)
		require.Equal(t, data, got)
	}
}

func TestReassembleGapFails(t *testing.T) {
	m := Map{[]byte("a"), nil, []byte("c")}
	_, err := Reassemble(m)
	require.ErrorIs(t, err, ErrGap)
}

func TestSetIgnoresDuplicate(t *testing.T) {
	var m Map
	m.Set(0, []byte("first"))
	m.Set(0, []byte("second"))
	require.Equal(t, []byte("first"), []byte(m[0]))
}

func TestSetGrowsSparsely(t *testing.T) {
	var m Map
	m.Set(2, []byte("c"))
	require.Equal(t, 3, m.Len())
	require.False(t, m.Has(0))
	require.False(t, m.Has(1))
	require.True(t, m.Has(2))

	idx, gap := m.MinMissing()
	require.True(t, gap)
	require.Equal(t, 0, idx)
}

func TestMinMissingNoneWhenComplete(t *testing.T) {
	var m Map
	m.Set(0, []byte("a"))
	m.Set(1, []byte("b"))
	_, gap := m.MinMissing()
	require.False(t, gap)
}
