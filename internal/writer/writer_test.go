// internal/writer/writer_test.go
package writer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tamzrod/modbus-fleet/internal/board"
	"github.com/tamzrod/modbus-fleet/internal/regmap"
	"github.com/tamzrod/modbus-fleet/internal/slave"
	"github.com/tamzrod/modbus-fleet/internal/status"
)

const testID = 2

// ---- fake devices ----

type fakeSecondary struct {
	cmdZero int
	channel uint8
}

func (f *fakeSecondary) ReceivePoll() ([]byte, bool) { return nil, false }
func (f *fakeSecondary) SendCommandZero() error { f.cmdZero++; return nil }
func (f *fakeSecondary) SelectSecondaryChannel(ch uint8) error { f.channel = ch; return nil }

type fakeADC struct {
	fakeSecondary
	calls []string
	fail  error
}

func (f *fakeADC) SampleChannel(int) (uint32, error) { return 0, nil }
func (f *fakeADC) WireStatus(int) uint16 { return 0 }

func (f *fakeADC) record(name string) error {
	f.calls = append(f.calls, name)
	return f.fail
}

func (f *fakeADC) SetOutputCoding(bipolar bool) error {
	if bipolar {
		return f.record("bipolar")
	}
	return f.record("unipolar")
}
func (f *fakeADC) SetFilter(uint16) error { return f.record("filter") }
func (f *fakeADC) SetPostfilter(uint16) error { return f.record("postfilter") }
func (f *fakeADC) SetOutputDataRate(uint16) error { return f.record("odr") }
func (f *fakeADC) SetOpenWireDetect(on bool) error {
	if on {
		return f.record("owd-on")
	}
	return f.record("owd-off")
}

type fakeDAC struct {
	fakeSecondary
	ranges  [4]uint16
	outputs [4]uint16
	faulted [4]bool
}

func (f *fakeDAC) SetRange(ch int, r uint16) error { f.ranges[ch] = r; return nil }

func (f *fakeDAC) SetOutput(ch int, code uint16) (uint16, error) {
	if !f.faulted[ch] {
		f.outputs[ch] = code
	}
	return f.outputs[ch], nil
}

// ---- fake switcher / rate ----

type fakeSwitcher struct {
	boards   map[uint8]board.Slot
	switches []uint8
}

func (f *fakeSwitcher) WithBoard(slot uint8, fn func(board.Slot) error) error {
	b, ok := f.boards[slot]
	if !ok {
		return errors.New("not scheduled")
	}
	f.switches = append(f.switches, slot)
	return fn(b)
}

type fakeRate struct {
	hz   float64
	fail bool
}

func (f *fakeRate) UpdateRate() float64 { return f.hz }

func (f *fakeRate) SetUpdateRate(hz float64) error {
	if f.fail {
		return errors.New("out of range")
	}
	f.hz = hz
	return nil
}

// ---- rig ----

type rig struct {
	adc  *fakeADC
	dac  *fakeDAC
	regs *regmap.Map
	sw   *fakeSwitcher
	rate *fakeRate
	w    Writer
}

// adc in slot 1, dac in slot 3
func newRig(t *testing.T) *rig {
	t.Helper()

	adc, dac := &fakeADC{}, &fakeDAC{}
	slots := []board.Slot{
		{Index: 1, Type: board.TypeA, Device: adc},
		{Index: 3, Type: board.TypeB, Device: dac},
	}

	in := regmap.NewBank(regmap.InputRegisters, 0)
	holding := regmap.NewBank(regmap.HoldingRegisters, 0)
	require.NoError(t, holding.Add(status.HoldingUpdateRateHi, 0))
	require.NoError(t, holding.Add(status.HoldingUpdateRateLo, 0))
	for _, s := range slots {
		for i := 0; i < board.InputRegs(s.Type); i++ {
			require.NoError(t, in.Add(regmap.Encode(s.Index, testID, uint8(board.BoardInputBase+i)), 0))
		}
		for i := 0; i < board.HoldingRegs(s.Type); i++ {
			require.NoError(t, holding.Add(regmap.Encode(s.Index, testID, uint8(i)), 0))
		}
	}

	plan, err := BuildPlan(testID, slots)
	require.NoError(t, err)

	sw := &fakeSwitcher{boards: map[uint8]board.Slot{1: slots[0], 3: slots[1]}}
	rate := &fakeRate{hz: 10}
	regs := regmap.New(in, holding)

	return &rig{
		adc:  adc,
		dac:  dac,
		regs: regs,
		sw:   sw,
		rate: rate,
		w:    New(plan, regs, sw, rate),
	}
}

// write stores values like the dispatcher would, then applies the event.
func (r *rig) write(t *testing.T, start uint16, values ...uint16) error {
	t.Helper()
	for i, v := range values {
		require.True(t, r.regs.Set(regmap.HoldingRegisters, start+uint16(i), v))
	}
	return r.w.Apply(slave.WriteEvent{
		Bank:  regmap.HoldingRegisters,
		Start: start,
		Count: uint16(len(values)),
	})
}

func hold(slot, index uint8) uint16 { return regmap.Encode(slot, testID, index) }

// ---- tests ----

func TestBuildPlan_Rejects(t *testing.T) {
	_, err := BuildPlan(0, nil)
	require.Error(t, err)

	_, err = BuildPlan(1, []board.Slot{{Index: 0, Type: board.None}})
	require.Error(t, err)

	dev := &fakeDAC{}
	_, err = BuildPlan(1, []board.Slot{
		{Index: 0, Type: board.TypeB, Device: dev},
		{Index: 0, Type: board.TypeB, Device: dev},
	})
	require.Error(t, err)
}

func TestWriter_MultiRegisterUsesStartPlusI(t *testing.T) {
	r := newRig(t)

	// coding, filter, postfilter, odr in one request
	require.NoError(t, r.write(t, hold(1, board.ADCOutputCoding), 1, 2, 4, 17))

	require.Equal(t, []string{"bipolar", "filter", "postfilter", "odr"}, r.adc.calls)
	require.Equal(t, []uint8{1, 1, 1, 1}, r.sw.switches)
}

func TestWriter_OutputCodingIgnoresOtherValues(t *testing.T) {
	r := newRig(t)
	require.NoError(t, r.write(t, hold(1, board.ADCOutputCoding), 5))
	require.Empty(t, r.adc.calls)
}

func TestWriter_OpenWireDisableClearsStatus(t *testing.T) {
	r := newRig(t)
	for ch := 0; ch < board.ADCVoltageChannels; ch++ {
		r.regs.Set(regmap.InputRegisters, regmap.Encode(1, testID, uint8(board.ADCWireStatusBase+ch)), 1)
	}

	require.NoError(t, r.write(t, hold(1, board.ADCOpenWire), 0))
	require.Equal(t, []string{"owd-off"}, r.adc.calls)

	for ch := 0; ch < board.ADCVoltageChannels; ch++ {
		v, ok := r.regs.Get(regmap.InputRegisters, regmap.Encode(1, testID, uint8(board.ADCWireStatusBase+ch)))
		require.True(t, ok)
		require.Equal(t, uint16(0), v)
	}
}

func TestWriter_CommandZeroFiresAndClears(t *testing.T) {
	r := newRig(t)

	require.NoError(t, r.write(t, hold(3, board.DACCommandZero), 1))
	require.Equal(t, 1, r.dac.cmdZero)

	v, _ := r.regs.Get(regmap.HoldingRegisters, hold(3, board.DACCommandZero))
	require.Equal(t, uint16(0), v)

	require.NoError(t, r.write(t, hold(3, board.DACCommandZero), 2))
	require.Equal(t, 1, r.dac.cmdZero)
}

func TestWriter_SecondaryChannelOutOfRangeIgnored(t *testing.T) {
	r := newRig(t)

	require.NoError(t, r.write(t, hold(1, board.ADCSecondaryChannel), 3))
	require.Equal(t, uint8(3), r.adc.channel)

	require.NoError(t, r.write(t, hold(1, board.ADCSecondaryChannel), 4))
	require.Equal(t, uint8(3), r.adc.channel)
}

func TestWriter_DACRangeLimit(t *testing.T) {
	r := newRig(t)

	require.NoError(t, r.write(t, hold(3, board.DACRange1), 6, 7))
	require.Equal(t, uint16(6), r.dac.ranges[0])
	require.Equal(t, uint16(0), r.dac.ranges[1])
}

func TestWriter_FaultedOutputReverted(t *testing.T) {
	r := newRig(t)

	require.NoError(t, r.write(t, hold(3, board.DACOutput2), 1200))
	require.Equal(t, uint16(1200), r.dac.outputs[1])

	r.dac.faulted[1] = true
	require.NoError(t, r.write(t, hold(3, board.DACOutput2), 3000))

	v, _ := r.regs.Get(regmap.HoldingRegisters, hold(3, board.DACOutput2))
	require.Equal(t, uint16(1200), v)
}

func TestWriter_DeviceErrorsAggregated(t *testing.T) {
	r := newRig(t)
	r.adc.fail = errors.New("spi nack")

	err := r.write(t, hold(1, board.ADCFilter), 1, 1)
	require.Error(t, err)
	require.Contains(t, err.Error(), " | ")
}

func TestWriter_UpdateRate(t *testing.T) {
	r := newRig(t)

	hi, lo := status.EncodeRate(50)
	require.NoError(t, r.write(t, status.HoldingUpdateRateHi, hi, lo))
	require.Equal(t, 50.0, r.rate.hz)
	require.Empty(t, r.sw.switches)
}

func TestWriter_UpdateRateRejectedRestoresRegisters(t *testing.T) {
	r := newRig(t)
	r.rate.fail = true

	hi, lo := status.EncodeRate(5000)
	require.Error(t, r.write(t, status.HoldingUpdateRateHi, hi, lo))

	gotHi, _ := r.regs.Get(regmap.HoldingRegisters, status.HoldingUpdateRateHi)
	gotLo, _ := r.regs.Get(regmap.HoldingRegisters, status.HoldingUpdateRateLo)
	require.Equal(t, 10.0, status.DecodeRate(gotHi, gotLo))
}

func TestWriter_CoilWritesIgnored(t *testing.T) {
	r := newRig(t)
	require.NoError(t, r.w.Apply(slave.WriteEvent{Bank: regmap.Coils, Start: 0, Count: 8}))
	require.Empty(t, r.sw.switches)
}
