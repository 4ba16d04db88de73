// internal/sim/adc.go
package sim

import (
	"fmt"

	"github.com/tamzrod/modbus-fleet/internal/board"
)

// Limits of the simulated converter's option tables.
const (
	adcFilterOptions     = 3
	adcPostfilterOptions = 5 // the last one disables the postfilter
	adcODROptions        = 18
)

// ADC simulates the 8-channel converter board.
type ADC struct {
	bp   *Backplane
	slot uint8

	// Samples holds the next conversion of each channel.
	Samples [board.ADCChannels]uint32
	// Drift is added to a channel's sample after every read.
	Drift uint32
	// FailEvery makes every Nth conversion time out. 0 disables.
	FailEvery int

	failNext int
	reads    int
	Reads    [board.ADCChannels]int

	Bipolar    bool
	Filter     uint16
	Postfilter uint16
	ODR        uint16

	OpenWire bool
	Floating [board.ADCVoltageChannels]bool

	secondary
}

func newADC(bp *Backplane, slot uint8) *ADC {
	a := &ADC{bp: bp, slot: slot}
	for ch := range a.Samples {
		a.Samples[ch] = 0x00800000 | uint32(slot)<<16 | uint32(ch)<<8
	}
	a.secondary.check = a.active
	return a
}

func (a *ADC) active() error {
	return a.bp.requireActive(a.slot, board.TypeA.ClockMode())
}

// FailNext makes the next n conversions time out.
func (a *ADC) FailNext(n int) { a.failNext = n }

func (a *ADC) SampleChannel(ch int) (uint32, error) {
	if err := a.active(); err != nil {
		return 0, err
	}
	if ch < 0 || ch >= board.ADCChannels {
		return 0, fmt.Errorf("sim adc: channel %d out of range", ch)
	}

	a.reads++
	if a.failNext > 0 {
		a.failNext--
		return 0, board.ErrTimeout
	}
	if a.FailEvery > 0 && a.reads%a.FailEvery == 0 {
		return 0, board.ErrTimeout
	}

	v := a.Samples[ch]
	a.Samples[ch] += a.Drift
	a.Reads[ch]++
	return v, nil
}

func (a *ADC) WireStatus(ch int) uint16 {
	if !a.OpenWire || ch < 0 || ch >= board.ADCVoltageChannels {
		return 0
	}
	if a.Floating[ch] {
		return 1
	}
	return 0
}

func (a *ADC) SetOutputCoding(bipolar bool) error {
	if err := a.active(); err != nil {
		return err
	}
	a.Bipolar = bipolar
	return nil
}

func (a *ADC) SetFilter(opt uint16) error {
	if err := a.active(); err != nil {
		return err
	}
	if opt >= adcFilterOptions {
		return fmt.Errorf("sim adc: filter option %d out of range", opt)
	}
	a.Filter = opt
	return nil
}

func (a *ADC) SetPostfilter(opt uint16) error {
	if err := a.active(); err != nil {
		return err
	}
	if opt >= adcPostfilterOptions {
		return fmt.Errorf("sim adc: postfilter option %d out of range", opt)
	}
	a.Postfilter = opt
	return nil
}

func (a *ADC) SetOutputDataRate(opt uint16) error {
	if err := a.active(); err != nil {
		return err
	}
	if opt >= adcODROptions {
		return fmt.Errorf("sim adc: odr option %d out of range", opt)
	}
	a.ODR = opt
	return nil
}

func (a *ADC) SetOpenWireDetect(enabled bool) error {
	if err := a.active(); err != nil {
		return err
	}
	a.OpenWire = enabled
	return nil
}
