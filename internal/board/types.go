// internal/board/types.go
package board

import (
	"errors"
	"fmt"

	"github.com/tamzrod/modbus-fleet/internal/bus"
)

// Type is the closed set of add-on board variants.
// The numeric values are visible to masters in the global descriptors.
type Type uint16

const (
	TypeA Type = 0      // 8-channel ADC board
	TypeB Type = 1      // 4-channel DAC board
	None  Type = 0xFFFF // empty or unrecognized slot
)

func (t Type) String() string {
	switch t {
	case TypeA:
		return "adc"
	case TypeB:
		return "dac"
	case None:
		return "none"
	default:
		return fmt.Sprintf("type(%d)", uint16(t))
	}
}

// ClockMode is the SPI mode each variant's converter needs.
func (t Type) ClockMode() bus.ClockMode {
	if t == TypeB {
		return bus.Mode1
	}
	return bus.Mode3
}

// SlotCount is the number of physical board positions.
const SlotCount = 4

// ErrTimeout is returned by a device whose ready wait expired.
var ErrTimeout = errors.New("board: device timeout")

// Slot is one discovered board position. It is written once by discovery.
type Slot struct {
	Index        uint8
	Type         Type
	StoreAddress uint8
	Device       Device
}

// Present reports whether the slot holds a recognized board.
func (s Slot) Present() bool {
	return s.Type != None && s.Device != nil
}

// BusSetting is the bus configuration that makes this slot active.
func (s Slot) BusSetting() bus.Setting {
	return bus.Setting{
		Slot:         s.Index,
		Mode:         s.Type.ClockMode(),
		StoreAddress: s.StoreAddress,
	}
}

// Recognized returns the present slots in slot order.
func Recognized(slots [SlotCount]Slot) []Slot {
	var out []Slot
	for _, s := range slots {
		if s.Present() {
			out = append(out, s)
		}
	}
	return out
}
