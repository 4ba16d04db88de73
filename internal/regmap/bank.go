// internal/regmap/bank.go
package regmap

import (
	"errors"
	"fmt"
)

// Kind identifies one of the four MODBUS data banks.
type Kind uint8

const (
	Coils Kind = iota
	Contacts
	InputRegisters
	HoldingRegisters
)

func (k Kind) String() string {
	switch k {
	case Coils:
		return "coils"
	case Contacts:
		return "contacts"
	case InputRegisters:
		return "input"
	case HoldingRegisters:
		return "holding"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Bits reports whether the bank holds single-bit values.
func (k Kind) Bits() bool {
	return k == Coils || k == Contacts
}

// Register is one addressable value.
// Bit banks store 0 or 1.
type Register struct {
	Address uint16
	Value   uint16
}

var ErrDuplicate = errors.New("regmap: duplicate address")

// Bank is an insertion-ordered register sequence.
//
// Lookup is a linear scan. Banks hold tens of entries, so a scan over a
// contiguous slice beats a map; an ordered map keyed by address can replace
// it without changing behavior if banks grow.
type Bank struct {
	kind Kind
	regs []Register
}

// NewBank allocates an empty bank with room for capacity registers.
func NewBank(kind Kind, capacity int) *Bank {
	return &Bank{
		kind: kind,
		regs: make([]Register, 0, capacity),
	}
}

func (b *Bank) Kind() Kind { return b.kind }

func (b *Bank) Len() int { return len(b.regs) }

// Add appends a register. Addresses are unique within a bank.
func (b *Bank) Add(addr, value uint16) error {
	if b.index(addr) >= 0 {
		return fmt.Errorf("%w: %s 0x%04X", ErrDuplicate, b.kind, addr)
	}
	b.regs = append(b.regs, Register{Address: addr, Value: value})
	return nil
}

func (b *Bank) index(addr uint16) int {
	for i := range b.regs {
		if b.regs[i].Address == addr {
			return i
		}
	}
	return -1
}

// Get returns the value at addr.
func (b *Bank) Get(addr uint16) (uint16, bool) {
	i := b.index(addr)
	if i < 0 {
		return 0, false
	}
	return b.regs[i].Value, true
}

// Set overwrites the value at addr. It never inserts.
func (b *Bank) Set(addr, value uint16) bool {
	i := b.index(addr)
	if i < 0 {
		return false
	}
	if b.kind.Bits() && value != 0 {
		value = 1
	}
	b.regs[i].Value = value
	return true
}

// Span resolves every address in [start, start+count-1] to its slot in the
// bank. ok is false if count is zero, the range wraps past 0xFFFF, or any
// address in it is missing.
func (b *Bank) Span(start, count uint16) (idx []int, ok bool) {
	if count == 0 {
		return nil, false
	}
	end := uint32(start) + uint32(count) - 1
	if end > 0xFFFF {
		return nil, false
	}

	idx = make([]int, 0, count)
	for a := uint32(start); a <= end; a++ {
		i := b.index(uint16(a))
		if i < 0 {
			return nil, false
		}
		idx = append(idx, i)
	}
	return idx, true
}

// Values reads the registers resolved by Span.
func (b *Bank) Values(idx []int) []uint16 {
	out := make([]uint16, len(idx))
	for n, i := range idx {
		out[n] = b.regs[i].Value
	}
	return out
}

// Store writes values into the registers resolved by Span.
func (b *Bank) Store(idx []int, values []uint16) {
	for n, i := range idx {
		v := values[n]
		if b.kind.Bits() && v != 0 {
			v = 1
		}
		b.regs[i].Value = v
	}
}

// Snapshot copies the bank contents.
func (b *Bank) Snapshot() []Register {
	return append([]Register(nil), b.regs...)
}
