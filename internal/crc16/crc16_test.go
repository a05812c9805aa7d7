package crc16

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChecksum(t *testing.T) {
	t.Parallel()

	t.Run("empty input returns the seed", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, uint16(0xFFFF), Checksum(nil))
	})

	t.Run("deterministic", func(t *testing.T) {
		t.Parallel()
		data := []byte("the same bytes every time")
		assert.Equal(t, Checksum(data), Checksum(data))
	})

	t.Run("any single bit flip changes the value", func(t *testing.T) {
		t.Parallel()

		data := make([]byte, 32)
		for i := range data {
			data[i] = byte(i * 7)
		}
		want := Checksum(data)

		for i := range data {
			for bit := range 8 {
				flipped := make([]byte, len(data))
				copy(flipped, data)
				flipped[i] ^= 1 << bit

				assert.NotEqual(t, want, Checksum(flipped),
					"flipping byte %d bit %d did not change the checksum", i, bit)
			}
		}
	})
}
