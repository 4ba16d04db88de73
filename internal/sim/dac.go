// internal/sim/dac.go
package sim

import (
	"fmt"

	"github.com/tamzrod/modbus-fleet/internal/board"
)

// DAC simulates the 4-channel output board.
type DAC struct {
	bp   *Backplane
	slot uint8

	ctrl uint16

	Ranges  [board.DACChannels]uint16
	Outputs [board.DACChannels]uint16
	// Faulted channels refuse new codes and keep the previous one.
	Faulted [board.DACChannels]bool

	secondary
}

func newDAC(bp *Backplane, slot uint8) *DAC {
	d := &DAC{bp: bp, slot: slot, ctrl: 0x0100}
	d.secondary.check = d.active
	return d
}

func (d *DAC) active() error {
	return d.bp.requireActive(d.slot, board.TypeB.ClockMode())
}

// Control is the main control register.
func (d *DAC) Control() uint16 { return d.ctrl }

func (d *DAC) SetRange(ch int, r uint16) error {
	if err := d.active(); err != nil {
		return err
	}
	if ch < 0 || ch >= board.DACChannels {
		return fmt.Errorf("sim dac: channel %d out of range", ch)
	}
	d.Ranges[ch] = r
	return nil
}

func (d *DAC) SetOutput(ch int, code uint16) (uint16, error) {
	if err := d.active(); err != nil {
		return 0, err
	}
	if ch < 0 || ch >= board.DACChannels {
		return 0, fmt.Errorf("sim dac: channel %d out of range", ch)
	}
	if !d.Faulted[ch] {
		d.Outputs[ch] = code
	}
	return d.Outputs[ch], nil
}
