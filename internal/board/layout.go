// internal/board/layout.go
package board

// Register layout per board variant. Indexes are the low byte of the routed
// address; inputs 0..4 are engine-global.

const (
	// BoardInputBase is the first board-specific input index.
	BoardInputBase = 5

	// SecondaryBufferRegs caps the secondary receive buffer copy.
	SecondaryBufferRegs = 30
)

// ---- TypeA (ADC) ----

const (
	ADCInputRegs   = 50
	ADCHoldingRegs = 7

	ADCChannels        = 8
	ADCVoltageChannels = 4

	// ADCSampleBase holds channel ch as hi/lo at base+2ch, base+2ch+1.
	ADCSampleBase = BoardInputBase
	// ADCWireStatusBase holds the open-wire flag of voltage channel ch.
	ADCWireStatusBase = BoardInputBase + 2*ADCChannels
	// ADCSecondaryBase is the first register of the secondary buffer.
	ADCSecondaryBase = ADCWireStatusBase + ADCVoltageChannels
)

// ADC holding register functions.
const (
	ADCOutputCoding uint8 = iota
	ADCFilter
	ADCPostfilter
	ADCOutputDataRate
	ADCOpenWire
	ADCCommandZero
	ADCSecondaryChannel
)

// ---- TypeB (DAC) ----

const (
	DACInputRegs   = 30
	DACHoldingRegs = 10

	DACChannels = 4

	DACSecondaryBase = BoardInputBase

	// DACRangeLimit is the first invalid range code.
	DACRangeLimit = 7
)

// DAC holding register functions.
const (
	DACRange1 uint8 = iota
	DACRange2
	DACRange3
	DACRange4
	DACOutput1
	DACOutput2
	DACOutput3
	DACOutput4
	DACCommandZero
	DACSecondaryChannel
)

// SecondaryChannels is the number of secondary link multiplexer positions.
const SecondaryChannels = 4

// InputRegs is the number of board-specific input registers of t.
func InputRegs(t Type) int {
	switch t {
	case TypeA:
		return ADCInputRegs
	case TypeB:
		return DACInputRegs
	}
	return 0
}

// HoldingRegs is the number of holding registers of t.
func HoldingRegs(t Type) int {
	switch t {
	case TypeA:
		return ADCHoldingRegs
	case TypeB:
		return DACHoldingRegs
	}
	return 0
}

// Units is the number of scheduler ticks one pass over a board takes.
func Units(t Type) int {
	switch t {
	case TypeA:
		return ADCChannels
	case TypeB:
		return 1
	}
	return 0
}

// SecondaryBase is where t's secondary buffer starts.
func SecondaryBase(t Type) int {
	if t == TypeA {
		return ADCSecondaryBase
	}
	return DACSecondaryBase
}
