// internal/bus/bus.go
package bus

import "fmt"

// ClockMode is the SPI clock polarity/phase pair.
type ClockMode uint8

const (
	Mode0 ClockMode = iota // CPOL=0 CPHA=0
	Mode1                  // CPOL=0 CPHA=1
	Mode2                  // CPOL=1 CPHA=0
	Mode3                  // CPOL=1 CPHA=1
)

func (m ClockMode) String() string {
	return fmt.Sprintf("mode%d", uint8(m))
}

// Bus is the shared SPI/I2C bus with its chip-select and secondary
// addressing decoders.
type Bus interface {
	// SelectSlot drives the chip-select and secondary decoders from the
	// 2-bit slot index.
	SelectSlot(slot uint8) error
	SetClockMode(mode ClockMode) error
	// SetStoreAddress repoints the identification byte store.
	SetStoreAddress(addr uint8) error
}

// Setting is one complete bus configuration.
type Setting struct {
	Slot         uint8
	Mode         ClockMode
	StoreAddress uint8
}

// Apply reconfigures b to s as one masked step.
func Apply(b Bus, m Masker, s Setting) error {
	g := Enter(m)
	defer g.Release()

	if err := b.SelectSlot(s.Slot); err != nil {
		return fmt.Errorf("bus: select slot %d: %w", s.Slot, err)
	}
	if err := b.SetStoreAddress(s.StoreAddress); err != nil {
		return fmt.Errorf("bus: store address %d: %w", s.StoreAddress, err)
	}
	if err := b.SetClockMode(s.Mode); err != nil {
		return fmt.Errorf("bus: clock %s: %w", s.Mode, err)
	}
	return nil
}
