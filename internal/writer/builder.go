// internal/writer/builder.go
package writer

import (
	"errors"
	"fmt"

	"github.com/tamzrod/modbus-fleet/internal/board"
	"github.com/tamzrod/modbus-fleet/internal/regmap"
)

// BuildPlan converts the recognized boards into a writer Plan.
// Assumes discovery has already excluded unrecognized slots.
func BuildPlan(slaveID uint8, boards []board.Slot) (Plan, error) {
	if slaveID == 0 || slaveID > regmap.MaxID {
		return Plan{}, errors.New("writer: slave id out of range")
	}

	plan := Plan{
		SlaveID: slaveID,
		Boards:  make(map[uint8]board.Type, len(boards)),
	}

	for _, b := range boards {
		if !b.Present() {
			return Plan{}, fmt.Errorf("writer: slot %d holds no recognized board", b.Index)
		}
		if _, dup := plan.Boards[b.Index]; dup {
			return Plan{}, fmt.Errorf("writer: slot %d listed twice", b.Index)
		}
		plan.Boards[b.Index] = b.Type
	}

	return plan, nil
}
