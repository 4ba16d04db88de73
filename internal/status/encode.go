// internal/status/encode.go
package status

import "math"

// Encode converts a Snapshot into the global input block.
// Layout is protocol-locked.
// No IO. No side effects.
func Encode(s Snapshot) []uint16 {
	regs := make([]uint16, GlobalInputCount)

	regs[InputBoardCount] = s.BoardCount
	for i, d := range s.Descriptors {
		regs[InputDescriptorStart+i] = d
	}

	return regs
}

// EncodeRate converts a rate in Hz to the (hi, lo) holding pair.
func EncodeRate(hz float64) (hi, lo uint16) {
	v := uint32(math.Round(hz * UpdateRateScale))
	return uint16(v >> 16), uint16(v)
}

// DecodeRate converts the (hi, lo) holding pair to Hz.
func DecodeRate(hi, lo uint16) float64 {
	return float64(uint32(hi)<<16|uint32(lo)) / UpdateRateScale
}

// IsUpdateRate reports whether addr is one of the update-rate registers.
func IsUpdateRate(addr uint16) bool {
	return addr == HoldingUpdateRateHi || addr == HoldingUpdateRateLo
}
