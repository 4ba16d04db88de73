// internal/manager/layout.go
package manager

import (
	"fmt"

	"github.com/tamzrod/modbus-fleet/internal/board"
	"github.com/tamzrod/modbus-fleet/internal/regmap"
	"github.com/tamzrod/modbus-fleet/internal/status"
)

// BuildMap lays out the input and holding banks for the recognized boards.
// Globals come first, then each board in order. Coils and contacts are not
// configured.
func BuildMap(id uint8, boards []board.Slot) (*regmap.Map, error) {
	nIn, nHold := status.GlobalInputCount, status.GlobalHoldingCount
	for _, b := range boards {
		nIn += board.InputRegs(b.Type)
		nHold += board.HoldingRegs(b.Type)
	}

	in := regmap.NewBank(regmap.InputRegisters, nIn)
	hold := regmap.NewBank(regmap.HoldingRegisters, nHold)

	for i := 0; i < status.GlobalInputCount; i++ {
		if err := in.Add(uint16(i), 0); err != nil {
			return nil, fmt.Errorf("manager: global input %d: %w", i, err)
		}
	}
	for _, a := range []uint16{status.HoldingUpdateRateHi, status.HoldingUpdateRateLo} {
		if err := hold.Add(a, 0); err != nil {
			return nil, fmt.Errorf("manager: global holding 0x%02X: %w", a, err)
		}
	}

	for _, b := range boards {
		for i := 0; i < board.InputRegs(b.Type); i++ {
			addr := regmap.Encode(b.Index, id, uint8(board.BoardInputBase+i))
			if err := in.Add(addr, 0); err != nil {
				return nil, fmt.Errorf("manager: slot %d input 0x%04X: %w", b.Index, addr, err)
			}
		}
		for i := 0; i < board.HoldingRegs(b.Type); i++ {
			addr := regmap.Encode(b.Index, id, uint8(i))
			if err := hold.Add(addr, 0); err != nil {
				return nil, fmt.Errorf("manager: slot %d holding 0x%04X: %w", b.Index, addr, err)
			}
		}
	}

	return regmap.New(in, hold), nil
}
