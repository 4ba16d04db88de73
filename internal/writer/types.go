// internal/writer/types.go
package writer

import (
	"github.com/tamzrod/modbus-fleet/internal/board"
	"github.com/tamzrod/modbus-fleet/internal/regmap"
	"github.com/tamzrod/modbus-fleet/internal/slave"
)

// Switcher makes one board temporarily active for fn and puts the
// scheduled board back afterwards.
type Switcher interface {
	WithBoard(slot uint8, fn func(board.Slot) error) error
}

// RateSetter retimes the scheduler tick.
type RateSetter interface {
	UpdateRate() float64
	SetUpdateRate(hz float64) error
}

// registerStore is the exact register contract the writers use.
// *regmap.Map satisfies it.
type registerStore interface {
	Get(k regmap.Kind, addr uint16) (uint16, bool)
	Set(k regmap.Kind, addr, value uint16) bool
}

// Plan is the fully-built routing plan: which board type sits in which slot.
type Plan struct {
	SlaveID uint8
	Boards  map[uint8]board.Type
}

// Writer runs the side effects of one accepted write.
type Writer interface {
	Apply(ev slave.WriteEvent) error
}
