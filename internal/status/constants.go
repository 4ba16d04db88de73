// internal/status/constants.go
package status

// Global register layout constants.
// These values define the protocol and MUST NOT be configurable.
// Global registers live at raw addresses; they never carry slot or id bits.

// ---- INPUT REGISTERS ----

// InputBoardCount holds the number of recognized boards.
const InputBoardCount = 0

// InputDescriptorStart is the first board descriptor.
// Descriptor i describes the i-th recognized board in slot order.
const InputDescriptorStart = 1

// InputDescriptorSlots is the number of descriptor registers.
const InputDescriptorSlots = 4

// GlobalInputCount is the number of global input registers.
const GlobalInputCount = InputDescriptorStart + InputDescriptorSlots

// ---- HOLDING REGISTERS ----

// HoldingUpdateRateHi and HoldingUpdateRateLo hold the scheduler update rate
// times UpdateRateScale as a big-endian u32.
const HoldingUpdateRateHi = 0xFE
const HoldingUpdateRateLo = 0xFF

// GlobalHoldingCount is the number of global holding registers.
const GlobalHoldingCount = 2

// UpdateRateScale is the fixed-point scale of the update rate.
const UpdateRateScale = 10000

// ---- DESCRIPTORS ----

// DescriptorUnused marks a descriptor with no board behind it.
const DescriptorUnused uint16 = 0xFFFF
