// internal/discovery/discovery.go
package discovery

import (
	"errors"
	"fmt"

	"github.com/golang/glog"

	"github.com/tamzrod/modbus-fleet/internal/board"
	"github.com/tamzrod/modbus-fleet/internal/bus"
)

// Probe constants.
const (
	// Sentinel is written to offset 0 of a candidate byte store.
	Sentinel byte = 0xBB

	// StoreAddresses is the number of strap-selectable store addresses.
	StoreAddresses = 8

	// TypeA converter identification register signature.
	IDMask  uint16 = 0xFFF0
	IDValue uint16 = 0x30D0

	// TypeB probe flips the watchdog timeout field of the main control
	// register to a known value.
	controlProbeMask  uint16 = 0x0018
	controlProbeValue uint16 = 0x0010
)

// Hardware is the backplane as discovery sees it.
type Hardware interface {
	bus.Bus

	// Store is the byte store answering at the current store address on
	// the selected slot.
	Store() board.ByteStore

	// ReadID reads the TypeA converter identification register.
	ReadID() (uint16, error)

	// ReadControl and WriteControl access the TypeB main control register.
	ReadControl() (uint16, error)
	WriteControl(v uint16) error

	// Attach returns the device handle of the board in slot.
	Attach(slot uint8, t board.Type) (board.Device, error)
}

// Discover probes every slot once. Empty, unreadable and unrecognized slots
// come back as board.None; nothing here is fatal.
func Discover(hw Hardware) [board.SlotCount]board.Slot {
	var out [board.SlotCount]board.Slot

	for i := range out {
		slot := uint8(i)
		out[i] = board.Slot{Index: slot, Type: board.None}

		s, err := probeSlot(hw, slot)
		if err != nil {
			glog.Warningf("discovery: slot %d: %v", slot, err)
			continue
		}
		out[i] = s

		if s.Type != board.None {
			glog.Infof("discovery: slot %d: %s (store 0x%X)", slot, s.Type, s.StoreAddress)
		} else {
			glog.V(1).Infof("discovery: slot %d: empty", slot)
		}
	}

	return out
}

var errUnrecognized = errors.New("store present but board not recognized")

func probeSlot(hw Hardware, slot uint8) (board.Slot, error) {
	s := board.Slot{Index: slot, Type: board.None}

	if err := hw.SelectSlot(slot); err != nil {
		return s, fmt.Errorf("select: %w", err)
	}

	addr, ok := findStore(hw)
	if !ok {
		return s, nil
	}
	s.StoreAddress = addr

	t, err := identify(hw)
	if err != nil {
		return s, err
	}

	dev, err := hw.Attach(slot, t)
	if err != nil {
		return s, fmt.Errorf("attach %s: %w", t, err)
	}

	s.Type = t
	s.Device = dev
	return s, nil
}

func findStore(hw Hardware) (uint8, bool) {
	for a := uint8(0); a < StoreAddresses; a++ {
		if err := hw.SetStoreAddress(a); err != nil {
			continue
		}
		if StorePresent(hw.Store()) {
			return a, true
		}
	}
	return 0, false
}

// StorePresent writes Sentinel to offset 0, reads it back and restores the
// original byte.
func StorePresent(s board.ByteStore) bool {
	orig, err := s.ReadByte(0)
	if err != nil {
		return false
	}
	if err := s.WriteByte(0, Sentinel); err != nil {
		return false
	}
	got, err := s.ReadByte(0)
	if rerr := s.WriteByte(0, orig); rerr != nil {
		glog.Warningf("discovery: store restore failed: %v", rerr)
	}
	return err == nil && got == Sentinel
}

// identify runs the read-only TypeA probe before the reversible TypeB one.
func identify(hw Hardware) (board.Type, error) {
	if err := hw.SetClockMode(board.TypeA.ClockMode()); err == nil {
		if id, err := hw.ReadID(); err == nil && id&IDMask == IDValue {
			return board.TypeA, nil
		}
	}

	if err := hw.SetClockMode(board.TypeB.ClockMode()); err != nil {
		return board.None, err
	}
	if probeControl(hw) {
		return board.TypeB, nil
	}

	return board.None, errUnrecognized
}

func probeControl(hw Hardware) bool {
	orig, err := hw.ReadControl()
	if err != nil {
		return false
	}

	test := orig&^controlProbeMask | controlProbeValue
	if test == orig {
		test = orig&^controlProbeMask | (controlProbeValue ^ controlProbeMask)
	}
	if err := hw.WriteControl(test); err != nil {
		return false
	}

	got, err := hw.ReadControl()
	if werr := hw.WriteControl(orig); werr != nil {
		glog.Warningf("discovery: control restore failed: %v", werr)
	}
	return err == nil && got == test
}
