// internal/master/fleet.go
package master

import (
	"fmt"

	"github.com/tamzrod/modbus-fleet/internal/board"
	"github.com/tamzrod/modbus-fleet/internal/regmap"
	"github.com/tamzrod/modbus-fleet/internal/status"
)

// BoardInfo is one decoded global descriptor.
type BoardInfo struct {
	Slot uint8
	Type board.Type
}

// Boards reads and decodes the global board table.
func (c *Client) Boards() ([]BoardInfo, error) {
	regs, err := c.ReadInputRegisters(status.InputBoardCount, status.GlobalInputCount)
	if err != nil {
		return nil, err
	}
	if len(regs) < status.GlobalInputCount {
		return nil, fmt.Errorf("master: short global block (%d regs)", len(regs))
	}

	n := int(regs[status.InputBoardCount])
	if n > status.InputDescriptorSlots {
		return nil, fmt.Errorf("master: board count %d out of range", n)
	}

	out := make([]BoardInfo, 0, n)
	for i := 0; i < n; i++ {
		t, slot, ok := status.ParseDescriptor(regs[status.InputDescriptorStart+i])
		if !ok {
			return nil, fmt.Errorf("master: descriptor %d unused but counted", i)
		}
		out = append(out, BoardInfo{Slot: slot, Type: t})
	}
	return out, nil
}

// UpdateRate reads the scheduler rate in Hz.
func (c *Client) UpdateRate() (float64, error) {
	regs, err := c.ReadHoldingRegisters(status.HoldingUpdateRateHi, 2)
	if err != nil {
		return 0, err
	}
	return status.DecodeRate(regs[0], regs[1]), nil
}

// SetUpdateRate writes the scheduler rate in Hz.
func (c *Client) SetUpdateRate(hz float64) error {
	hi, lo := status.EncodeRate(hz)
	return c.WriteRegisters(status.HoldingUpdateRateHi, []uint16{hi, lo})
}

// Sample reads the latest conversion of an ADC channel.
func (c *Client) Sample(slot uint8, ch int) (uint32, error) {
	if ch < 0 || ch >= board.ADCChannels {
		return 0, fmt.Errorf("master: channel %d out of range", ch)
	}
	addr := c.BoardAddress(slot, uint8(board.ADCSampleBase+2*ch))
	regs, err := c.ReadInputRegisters(addr, 2)
	if err != nil {
		return 0, err
	}
	return uint32(regs[0])<<16 | uint32(regs[1]), nil
}

// BoardAddress routes a board register index to its address on this slave.
func (c *Client) BoardAddress(slot, index uint8) uint16 {
	return regmap.Encode(slot, c.SlaveID(), index)
}
