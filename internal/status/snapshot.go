// internal/status/snapshot.go
package status

import "github.com/tamzrod/modbus-fleet/internal/board"

// Snapshot represents exactly what the status writer is allowed to deliver.
// It contains no logic and no memory of the past beyond current state.
type Snapshot struct {
	BoardCount  uint16
	Descriptors [InputDescriptorSlots]uint16

	// UpdateRate is the scheduler rate in Hz.
	UpdateRate float64
}

// FromBoards builds a snapshot for the recognized boards, in slot order.
func FromBoards(boards []board.Slot, rate float64) Snapshot {
	s := Snapshot{UpdateRate: rate}
	for i := range s.Descriptors {
		s.Descriptors[i] = DescriptorUnused
	}

	for _, b := range boards {
		if int(s.BoardCount) >= InputDescriptorSlots {
			break
		}
		s.Descriptors[s.BoardCount] = Descriptor(b.Type, b.Index)
		s.BoardCount++
	}
	return s
}

// Descriptor packs a board type with its slot: type | slot<<1.
func Descriptor(t board.Type, slot uint8) uint16 {
	return uint16(t) | uint16(slot)<<1
}

// ParseDescriptor is the inverse of Descriptor.
func ParseDescriptor(d uint16) (board.Type, uint8, bool) {
	if d == DescriptorUnused {
		return board.None, 0, false
	}
	return board.Type(d & 1), uint8(d>>1) & 0x03, true
}
