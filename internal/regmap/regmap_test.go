// internal/regmap/regmap_test.go
package regmap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecode_Bijection(t *testing.T) {
	seen := make(map[uint16]bool)

	for slot := 0; slot < MaxSlots; slot++ {
		for id := 0; id <= MaxID; id++ {
			for idx := 0; idx < 256; idx++ {
				addr := Encode(uint8(slot), uint8(id), uint8(idx))
				require.False(t, seen[addr], "collision at 0x%04X", addr)
				seen[addr] = true

				s, i, x := Decode(addr)
				require.Equal(t, uint8(slot), s)
				require.Equal(t, uint8(id), i)
				require.Equal(t, uint8(idx), x)
			}
		}
	}
}

func TestEncode_Layout(t *testing.T) {
	require.Equal(t, uint16(0x2105), Encode(2, 1, 5))
	require.Equal(t, uint16(0x0FFF), Encode(0, 15, 0xFF))
}

func TestBank_AddRejectsDuplicate(t *testing.T) {
	b := NewBank(HoldingRegisters, 2)
	require.NoError(t, b.Add(0x1000, 1))
	require.ErrorIs(t, b.Add(0x1000, 2), ErrDuplicate)
	require.Equal(t, 1, b.Len())
}

func TestBank_GetSet(t *testing.T) {
	b := NewBank(InputRegisters, 1)
	require.NoError(t, b.Add(7, 42))

	v, ok := b.Get(7)
	require.True(t, ok)
	require.Equal(t, uint16(42), v)

	require.True(t, b.Set(7, 43))
	require.False(t, b.Set(8, 1))

	_, ok = b.Get(8)
	require.False(t, ok)
}

func TestBank_BitsNormalized(t *testing.T) {
	b := NewBank(Coils, 1)
	require.NoError(t, b.Add(0, 0))

	require.True(t, b.Set(0, 0xFF00))
	v, _ := b.Get(0)
	require.Equal(t, uint16(1), v)
}

func TestBank_Span(t *testing.T) {
	b := NewBank(HoldingRegisters, 4)
	for _, a := range []uint16{10, 11, 12, 20} {
		require.NoError(t, b.Add(a, a*2))
	}

	idx, ok := b.Span(10, 3)
	require.True(t, ok)
	require.Equal(t, []uint16{20, 22, 24}, b.Values(idx))

	// start and end present, hole inside
	_, ok = b.Span(12, 9)
	require.False(t, ok)

	_, ok = b.Span(11, 0)
	require.False(t, ok)

	_, ok = b.Span(0xFFFF, 2)
	require.False(t, ok)
}

func TestBank_Store(t *testing.T) {
	b := NewBank(HoldingRegisters, 2)
	require.NoError(t, b.Add(1, 0))
	require.NoError(t, b.Add(2, 0))

	idx, ok := b.Span(1, 2)
	require.True(t, ok)
	b.Store(idx, []uint16{0xAAAA, 0x5555})

	require.Equal(t, []Register{{1, 0xAAAA}, {2, 0x5555}}, b.Snapshot())
}

func TestMap_UnconfiguredBank(t *testing.T) {
	m := New(NewBank(InputRegisters, 0))

	require.NotNil(t, m.Bank(InputRegisters))
	require.Nil(t, m.Bank(Coils))
	require.False(t, m.Set(Coils, 0, 1))

	_, ok := m.Get(Contacts, 0)
	require.False(t, ok)
}
