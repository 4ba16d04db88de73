// internal/regmap/address.go
package regmap

// Board address layout. A register address is slot(4) | slave id(4) | index(8).
const (
	SlotShift = 12
	IDShift   = 8

	MaxSlots = 4
	MaxID    = 15
)

// Encode builds the routed address of a board register.
func Encode(slot, id, index uint8) uint16 {
	return uint16(slot&0x0F)<<SlotShift | uint16(id&0x0F)<<IDShift | uint16(index)
}

// Decode splits a routed address into its fields.
func Decode(addr uint16) (slot, id, index uint8) {
	return uint8(addr >> SlotShift), uint8(addr>>IDShift) & 0x0F, uint8(addr)
}
