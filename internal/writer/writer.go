// internal/writer/writer.go
package writer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang/glog"

	"github.com/tamzrod/modbus-fleet/internal/board"
	"github.com/tamzrod/modbus-fleet/internal/regmap"
	"github.com/tamzrod/modbus-fleet/internal/slave"
	"github.com/tamzrod/modbus-fleet/internal/status"
)

type writerImpl struct {
	plan Plan
	regs registerStore
	sw   Switcher
	rate RateSetter
}

func New(plan Plan, regs registerStore, sw Switcher, rate RateSetter) Writer {
	return &writerImpl{
		plan: plan,
		regs: regs,
		sw:   sw,
		rate: rate,
	}
}

// Apply routes every written holding register to its board routine.
// Register i of the event is start + i. Coil writes have no side effects.
func (w *writerImpl) Apply(ev slave.WriteEvent) error {
	if ev.Bank != regmap.HoldingRegisters {
		return nil
	}

	var errs []string
	rateTouched := false

	for _, addr := range ev.Addresses() {
		if status.IsUpdateRate(addr) {
			rateTouched = true
			continue
		}

		slot, id, index := regmap.Decode(addr)
		if id != w.plan.SlaveID {
			continue
		}
		t, ok := w.plan.Boards[slot]
		if !ok {
			continue
		}

		err := w.sw.WithBoard(slot, func(b board.Slot) error {
			return w.route(b, t, addr, index)
		})
		if err != nil {
			errs = append(errs, fmt.Sprintf(
				"writer: slot=%d %s reg=%d addr=0x%04X err=%v",
				slot, t, index, addr, err,
			))
		}
	}

	// ------------------------------------------------------------
	// GLOBAL UPDATE RATE (pair is read back whole)
	// ------------------------------------------------------------

	if rateTouched {
		if err := w.applyRate(); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		for _, e := range errs {
			glog.Errorf("%s", e)
		}
		return errors.New(strings.Join(errs, " | "))
	}

	return nil
}

func (w *writerImpl) route(b board.Slot, t board.Type, addr uint16, index uint8) error {
	v, ok := w.regs.Get(regmap.HoldingRegisters, addr)
	if !ok {
		return fmt.Errorf("no holding register")
	}

	switch t {
	case board.TypeA:
		adc, ok := b.Device.(board.ADC)
		if !ok {
			return fmt.Errorf("device is not an adc")
		}
		return w.adcRoutine(adc, addr, index, v)
	case board.TypeB:
		dac, ok := b.Device.(board.DAC)
		if !ok {
			return fmt.Errorf("device is not a dac")
		}
		return w.dacRoutine(dac, addr, index, v)
	}
	return fmt.Errorf("unsupported board %s", t)
}

func (w *writerImpl) adcRoutine(adc board.ADC, addr uint16, index uint8, v uint16) error {
	switch index {
	case board.ADCOutputCoding:
		switch v {
		case 0:
			return adc.SetOutputCoding(false)
		case 1:
			return adc.SetOutputCoding(true)
		}
		return nil

	case board.ADCFilter:
		return adc.SetFilter(v)

	case board.ADCPostfilter:
		return adc.SetPostfilter(v)

	case board.ADCOutputDataRate:
		return adc.SetOutputDataRate(v)

	case board.ADCOpenWire:
		if v != 0 {
			return adc.SetOpenWireDetect(true)
		}
		if err := adc.SetOpenWireDetect(false); err != nil {
			return err
		}
		slot, id, _ := regmap.Decode(addr)
		for ch := 0; ch < board.ADCVoltageChannels; ch++ {
			w.regs.Set(regmap.InputRegisters, regmap.Encode(slot, id, uint8(board.ADCWireStatusBase+ch)), 0)
		}
		return nil

	case board.ADCCommandZero:
		return w.commandZero(adc, addr, v)

	case board.ADCSecondaryChannel:
		return w.secondaryChannel(adc, v)
	}
	return nil
}

func (w *writerImpl) dacRoutine(dac board.DAC, addr uint16, index uint8, v uint16) error {
	switch {
	case index >= board.DACRange1 && index <= board.DACRange4:
		if v >= board.DACRangeLimit {
			return nil
		}
		return dac.SetRange(int(index-board.DACRange1), v)

	case index >= board.DACOutput1 && index <= board.DACOutput4:
		got, err := dac.SetOutput(int(index-board.DACOutput1), v)
		if err != nil {
			return err
		}
		if got != v {
			// faulted channel kept its previous code
			w.regs.Set(regmap.HoldingRegisters, addr, got)
			glog.Warningf("writer: dac output 0x%04X reverted to %d", addr, got)
		}
		return nil

	case index == board.DACCommandZero:
		return w.commandZero(dac, addr, v)

	case index == board.DACSecondaryChannel:
		return w.secondaryChannel(dac, v)
	}
	return nil
}

// commandZero is a trigger register: 1 fires and clears it.
func (w *writerImpl) commandZero(d board.Device, addr uint16, v uint16) error {
	if v != 1 {
		return nil
	}
	err := d.SendCommandZero()
	w.regs.Set(regmap.HoldingRegisters, addr, 0)
	return err
}

func (w *writerImpl) secondaryChannel(d board.Device, v uint16) error {
	if v >= board.SecondaryChannels {
		return nil
	}
	return d.SelectSecondaryChannel(uint8(v))
}

func (w *writerImpl) applyRate() error {
	if w.rate == nil {
		return errors.New("writer: update rate not supported")
	}

	hi, _ := w.regs.Get(regmap.HoldingRegisters, status.HoldingUpdateRateHi)
	lo, _ := w.regs.Get(regmap.HoldingRegisters, status.HoldingUpdateRateLo)
	hz := status.DecodeRate(hi, lo)

	if err := w.rate.SetUpdateRate(hz); err != nil {
		// keep the registers truthful
		cur := w.rate.UpdateRate()
		chi, clo := status.EncodeRate(cur)
		w.regs.Set(regmap.HoldingRegisters, status.HoldingUpdateRateHi, chi)
		w.regs.Set(regmap.HoldingRegisters, status.HoldingUpdateRateLo, clo)
		return fmt.Errorf("writer: update rate %g Hz rejected: %w", hz, err)
	}

	glog.Infof("writer: update rate set to %g Hz", hz)
	return nil
}
