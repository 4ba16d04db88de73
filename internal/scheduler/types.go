// internal/scheduler/types.go
package scheduler

import (
	"time"

	"github.com/tamzrod/modbus-fleet/internal/board"
)

// Config is the minimal runtime config the scheduler needs.
type Config struct {
	SlaveID uint8
}

// TickResult is what one unit of board work produced.
type TickResult struct {
	Slot    uint8
	Board   board.Type
	Channel int

	// Sample is valid when Sampled is set.
	Sample  uint32
	Sampled bool

	// Secondary is the number of registers refreshed from the secondary link.
	Secondary int

	// Switched is set when the tick ended with a board switch.
	Switched bool

	Idle bool  // no recognized boards
	Err  error // non-nil means the unit was not completed and will be retried
}

// MaxUpdateRate bounds the tick rate in Hz.
const MaxUpdateRate = 1000.0

// IntervalFor converts an update rate to a tick period.
func IntervalFor(hz float64) time.Duration {
	if hz <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / hz)
}
