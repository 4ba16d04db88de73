// internal/sim/sim_test.go
package sim

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tamzrod/modbus-fleet/internal/board"
	"github.com/tamzrod/modbus-fleet/internal/bus"
)

func activate(t *testing.T, bp *Backplane, slot uint8, kind board.Type, store uint8) {
	t.Helper()
	s := board.Slot{Index: slot, Type: kind, StoreAddress: store}
	require.NoError(t, bus.Apply(bp, &bus.IRQ{}, s.BusSetting()))
}

func TestADC_RequiresActiveBus(t *testing.T) {
	bp := NewBackplane()
	bp.Insert(0, ADCBoard, 2)
	bp.Insert(1, DACBoard, 0)
	adc := bp.ADC(0)

	activate(t, bp, 1, board.TypeB, 0)
	_, err := adc.SampleChannel(0)
	require.ErrorIs(t, err, ErrNotActive)

	activate(t, bp, 0, board.TypeA, 2)
	v, err := adc.SampleChannel(0)
	require.NoError(t, err)
	require.Equal(t, uint32(0x00800000), v)
}

func TestADC_FailureInjection(t *testing.T) {
	bp := NewBackplane()
	bp.Insert(0, ADCBoard, 0)
	adc := bp.ADC(0)
	activate(t, bp, 0, board.TypeA, 0)

	adc.FailNext(1)
	_, err := adc.SampleChannel(3)
	require.ErrorIs(t, err, board.ErrTimeout)

	_, err = adc.SampleChannel(3)
	require.NoError(t, err)
	require.Equal(t, 1, adc.Reads[3])
}

func TestADC_OptionRanges(t *testing.T) {
	bp := NewBackplane()
	bp.Insert(0, ADCBoard, 0)
	adc := bp.ADC(0)
	activate(t, bp, 0, board.TypeA, 0)

	require.NoError(t, adc.SetFilter(2))
	require.Error(t, adc.SetFilter(3))
	require.NoError(t, adc.SetPostfilter(4))
	require.Error(t, adc.SetPostfilter(5))
	require.NoError(t, adc.SetOutputDataRate(17))
	require.Error(t, adc.SetOutputDataRate(18))
}

func TestDAC_FaultKeepsPreviousCode(t *testing.T) {
	bp := NewBackplane()
	bp.Insert(2, DACBoard, 1)
	dac := bp.DAC(2)
	activate(t, bp, 2, board.TypeB, 1)

	got, err := dac.SetOutput(1, 1000)
	require.NoError(t, err)
	require.Equal(t, uint16(1000), got)

	dac.Faulted[1] = true
	got, err = dac.SetOutput(1, 2000)
	require.NoError(t, err)
	require.Equal(t, uint16(1000), got)
}

func TestSecondary_CommandZeroQueuesReply(t *testing.T) {
	bp := NewBackplane()
	bp.Insert(0, DACBoard, 0)
	dac := bp.DAC(0)
	activate(t, bp, 0, board.TypeB, 0)

	_, ok := dac.ReceivePoll()
	require.False(t, ok)

	require.NoError(t, dac.SendCommandZero())
	f, ok := dac.ReceivePoll()
	require.True(t, ok)
	require.Equal(t, commandZeroReply, f)
	require.Equal(t, 1, dac.CommandZeros)

	require.Error(t, dac.SelectSecondaryChannel(board.SecondaryChannels))
}

func TestBackplane_CountsUnmaskedReconfig(t *testing.T) {
	irq := &bus.IRQ{}
	bp := NewBackplane()
	bp.IRQ = irq

	require.NoError(t, bp.SelectSlot(1))
	require.Equal(t, 1, bp.UnmaskedReconfig)

	require.NoError(t, bus.Apply(bp, irq, bus.Setting{Slot: 2}))
	require.Equal(t, 1, bp.UnmaskedReconfig)
	require.Equal(t, 4, bp.Reconfigs)
}
