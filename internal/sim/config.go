// internal/sim/config.go
package sim

import (
	"fmt"

	"github.com/tamzrod/modbus-fleet/internal/config"
)

// FromConfig builds a backplane from the simulation section.
func FromConfig(c config.SimulationConfig) (*Backplane, error) {
	bp := NewBackplane()
	for i, sl := range c.Slots {
		if i >= len(bp.slots) {
			return nil, fmt.Errorf("sim: slot %d out of range", i)
		}
		k, err := ParseKind(sl.Type)
		if err != nil {
			return nil, err
		}
		bp.Insert(uint8(i), k, sl.StoreAddress)
		if a := bp.ADC(uint8(i)); a != nil {
			a.FailEvery = sl.FailEvery
		}
	}
	return bp, nil
}
