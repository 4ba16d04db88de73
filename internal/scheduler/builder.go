// internal/scheduler/builder.go
package scheduler

import (
	"fmt"

	"github.com/tamzrod/modbus-fleet/internal/board"
	"github.com/tamzrod/modbus-fleet/internal/bus"
	cfg "github.com/tamzrod/modbus-fleet/internal/config"
	"github.com/tamzrod/modbus-fleet/internal/regmap"
)

// Build constructs a Scheduler and its Clock from normalized config.
// The clock raises line on irq; nothing runs until the caller starts it.
func Build(
	c cfg.Config,
	boards []board.Slot,
	inputs *regmap.Bank,
	b bus.Bus,
	irq *bus.IRQ,
	line uint32,
) (*Scheduler, *Clock, error) {
	s, err := New(Config{SlaveID: c.Slave.ID}, boards, inputs, b, irq)
	if err != nil {
		return nil, nil, err
	}

	rate := c.Scheduler.UpdateRateHz
	if rate <= 0 || rate > MaxUpdateRate {
		return nil, nil, fmt.Errorf("scheduler: update rate %g Hz out of range", rate)
	}

	clk, err := NewClock(IntervalFor(rate), func() { irq.Raise(line) })
	if err != nil {
		return nil, nil, err
	}
	return s, clk, nil
}
