// internal/writer/status_writer.go
package writer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/modbus-fleet/internal/regmap"
	"github.com/tamzrod/modbus-fleet/internal/status"
)

// StatusWriter is the delivery-only contract for the global registers.
// It receives a snapshot and writes it verbatim.
// No logic, no interpretation.
type StatusWriter interface {
	WriteStatus(s status.Snapshot) error
}

// globalStatusWriter writes the global block into the local register map.
type globalStatusWriter struct {
	regs registerStore

	needFull bool
	last     status.Snapshot
}

// NewStatusWriter builds a status writer over regs.
func NewStatusWriter(regs registerStore) StatusWriter {
	return &globalStatusWriter{
		regs:     regs,
		needFull: true, // full re-assert on first write
	}
}

// WriteStatus delivers a snapshot into the global registers.
// On any write failure, the next call will re-assert the full block.
func (sw *globalStatusWriter) WriteStatus(s status.Snapshot) error {
	if sw == nil || sw.regs == nil {
		return errors.New("status writer: disabled")
	}

	// ------------------------------------------------------------
	// Full block write (identity re-assert)
	// ------------------------------------------------------------
	if sw.needFull {
		var errs []string

		for i, v := range status.Encode(s) {
			if !sw.regs.Set(regmap.InputRegisters, uint16(i), v) {
				errs = append(errs, fmt.Sprintf("input %d missing", i))
			}
		}
		if err := sw.writeRate(s.UpdateRate); err != nil {
			errs = append(errs, err.Error())
		}

		if len(errs) > 0 {
			sw.needFull = true
			return errors.New("status writer: full block write failed: " + strings.Join(errs, " | "))
		}

		sw.needFull = false
		sw.last = s
		return nil
	}

	var errs []string

	// Input 0: board count
	if sw.last.BoardCount != s.BoardCount {
		if !sw.regs.Set(regmap.InputRegisters, status.InputBoardCount, s.BoardCount) {
			errs = append(errs, "board count write failed")
		} else {
			sw.last.BoardCount = s.BoardCount
		}
	}

	// Inputs 1..4: descriptors
	for i, d := range s.Descriptors {
		if sw.last.Descriptors[i] == d {
			continue
		}
		if !sw.regs.Set(regmap.InputRegisters, uint16(status.InputDescriptorStart+i), d) {
			errs = append(errs, fmt.Sprintf("descriptor %d write failed", i))
		} else {
			sw.last.Descriptors[i] = d
		}
	}

	// Holding 0xFE/0xFF: update rate
	if sw.last.UpdateRate != s.UpdateRate {
		if err := sw.writeRate(s.UpdateRate); err != nil {
			errs = append(errs, err.Error())
		} else {
			sw.last.UpdateRate = s.UpdateRate
		}
	}

	if len(errs) > 0 {
		// Any partial failure introduces doubt; re-assert on next call.
		sw.needFull = true
		return errors.New("status writer: " + strings.Join(errs, " | "))
	}

	return nil
}

func (sw *globalStatusWriter) writeRate(hz float64) error {
	hi, lo := status.EncodeRate(hz)
	if !sw.regs.Set(regmap.HoldingRegisters, status.HoldingUpdateRateHi, hi) ||
		!sw.regs.Set(regmap.HoldingRegisters, status.HoldingUpdateRateLo, lo) {
		return errors.New("update rate registers missing")
	}
	return nil
}
