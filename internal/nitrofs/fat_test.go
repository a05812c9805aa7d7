package nitrofs

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeFAT(tb testing.TB, ranges ...AllocInfo) []byte {
	tb.Helper()
	b := make([]byte, 0, len(ranges)*allocRecordSize)
	for _, r := range ranges {
		b = binary.LittleEndian.AppendUint32(b, r.Start)
		b = binary.LittleEndian.AppendUint32(b, r.End)
	}
	return b
}

func TestDecodeAllocTable(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		ranges := []AllocInfo{
			{Start: 0x200, End: 0x210},
			{Start: 0x210, End: 0x210},
			{Start: 0x1000, End: 0x2345},
		}

		table, err := DecodeAllocTable(makeFAT(t, ranges...))
		require.NoError(t, err)
		require.Equal(t, len(ranges), table.Len())

		for id, want := range ranges {
			got, ok := table.Get(uint16(id))
			require.True(t, ok, "id %d", id)
			assert.Equal(t, want, got)
			assert.Equal(t, want.End-want.Start, got.Len())
		}
	})

	t.Run("ids past the end are absent, not an error", func(t *testing.T) {
		t.Parallel()

		table, err := DecodeAllocTable(makeFAT(t, AllocInfo{Start: 1, End: 2}))
		require.NoError(t, err)

		_, ok := table.Get(1)
		assert.False(t, ok)
		_, ok = table.Get(0xFFFF)
		assert.False(t, ok)
	})

	t.Run("empty table", func(t *testing.T) {
		t.Parallel()

		table, err := DecodeAllocTable(nil)
		require.NoError(t, err)
		assert.Equal(t, 0, table.Len())

		_, ok := table.Get(0)
		assert.False(t, ok)
	})

	t.Run("length not a multiple of the record size", func(t *testing.T) {
		t.Parallel()

		for _, n := range []int{1, 7, 9, 15} {
			_, err := DecodeAllocTable(make([]byte, n))
			assert.ErrorIs(t, err, ErrAllocTableSize, "%d bytes", n)
		}
	})
}
