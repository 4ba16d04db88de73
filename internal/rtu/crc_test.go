// internal/rtu/crc_test.go
package rtu

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCRC16_KnownVector(t *testing.T) {
	// read holding, slave 1, addr 0, qty 10
	frame := []byte{0x01, 0x03, 0x00, 0x00, 0x00, 0x0A}
	require.Equal(t, uint16(0xCDC5), CRC16(frame))

	full := AppendCRC(frame)
	require.Equal(t, []byte{0x01, 0x03, 0x00, 0x00, 0x00, 0x0A, 0xC5, 0xCD}, full)
}

func TestCRC16_Deterministic(t *testing.T) {
	frame := []byte{0x11, 0x10, 0x10, 0x05, 0x00, 0x02, 0x04, 0x12, 0x34, 0xAB, 0xCD}
	require.Equal(t, CRC16(frame), CRC16(frame))
}

func TestCRC16_SingleBitFlipDetected(t *testing.T) {
	frame := []byte{0x11, 0x10, 0x10, 0x05, 0x00, 0x02, 0x04, 0x12, 0x34, 0xAB, 0xCD}
	base := CRC16(frame)

	for pos := range frame {
		for bit := 0; bit < 8; bit++ {
			flipped := append([]byte(nil), frame...)
			flipped[pos] ^= 1 << bit
			require.NotEqual(t, base, CRC16(flipped), "pos=%d bit=%d", pos, bit)
		}
	}
}

func TestCRC16_Empty(t *testing.T) {
	require.Equal(t, uint16(0xFFFF), CRC16(nil))
}
