// internal/config/validate.go
package config

import (
	"fmt"
	"time"
)

// Limits shared with the runtime.
const (
	MaxSlaveID       = 15
	MaxSlots         = 4
	MaxStoreAddress  = 7
	MaxUpdateRateHz  = 1000.0
	DefaultBaudRate  = 19200
	DefaultDataBits  = 8
	DefaultStopBits  = 1
	DefaultParity    = "E"
	DefaultTimeoutMs = 10
	DefaultPollMs    = 1
	DefaultRateHz    = 10.0
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	// ------------------------------------------------------------
	// SLAVE
	// ------------------------------------------------------------

	// the id shares the routed address with slot and index
	if cfg.Slave.ID == 0 || cfg.Slave.ID > MaxSlaveID {
		return fmt.Errorf("slave.id must be 1..%d, got %d", MaxSlaveID, cfg.Slave.ID)
	}
	if cfg.Slave.SilenceUs < 0 {
		return fmt.Errorf("slave.silence_us must be >= 0, got %d", cfg.Slave.SilenceUs)
	}

	// ------------------------------------------------------------
	// SERIAL (zero values are defaulted by Normalize)
	// ------------------------------------------------------------

	s := cfg.Serial
	if s.BaudRate < 0 {
		return fmt.Errorf("serial.baud_rate must be > 0, got %d", s.BaudRate)
	}
	if s.DataBits != 0 && (s.DataBits < 5 || s.DataBits > 8) {
		return fmt.Errorf("serial.data_bits must be 5..8, got %d", s.DataBits)
	}
	if s.StopBits != 0 && s.StopBits != 1 && s.StopBits != 2 {
		return fmt.Errorf("serial.stop_bits must be 1 or 2, got %d", s.StopBits)
	}
	switch s.Parity {
	case "", "N", "E", "O":
	default:
		return fmt.Errorf("serial.parity must be N, E or O, got %q", s.Parity)
	}
	if s.TimeoutMs < 0 {
		return fmt.Errorf("serial.timeout_ms must be >= 0, got %d", s.TimeoutMs)
	}

	// ------------------------------------------------------------
	// SCHEDULER
	// ------------------------------------------------------------

	r := cfg.Scheduler.UpdateRateHz
	if r < 0 || r > MaxUpdateRateHz {
		return fmt.Errorf("scheduler.update_rate_hz must be 0..%g (0 = default), got %g", MaxUpdateRateHz, r)
	}
	if cfg.Scheduler.PollIntervalMs < 0 {
		return fmt.Errorf("scheduler.poll_interval_ms must be >= 0, got %d", cfg.Scheduler.PollIntervalMs)
	}

	// frames are delimited at poll time; a slower poll splits them
	poll := time.Duration(cfg.Scheduler.PollIntervalMs) * time.Millisecond
	if poll == 0 {
		poll = DefaultPollMs * time.Millisecond
	}
	if gap := silenceOf(cfg); poll > gap {
		return fmt.Errorf("scheduler.poll_interval_ms %v exceeds the inter-frame silence %v", poll, gap)
	}

	// ------------------------------------------------------------
	// SIMULATION
	// ------------------------------------------------------------

	if len(cfg.Simulation.Slots) > MaxSlots {
		return fmt.Errorf("simulation.slots: at most %d slots, got %d", MaxSlots, len(cfg.Simulation.Slots))
	}

	for i, sl := range cfg.Simulation.Slots {
		switch sl.Type {
		case "", "none", "adc", "dac", "unknown":
		default:
			return fmt.Errorf("simulation.slots[%d]: unknown type %q", i, sl.Type)
		}
		if sl.StoreAddress > MaxStoreAddress {
			return fmt.Errorf(
				"simulation.slots[%d]: store_address must be 0..%d, got %d",
				i,
				MaxStoreAddress,
				sl.StoreAddress,
			)
		}
		if sl.FailEvery < 0 {
			return fmt.Errorf("simulation.slots[%d]: fail_every must be >= 0, got %d", i, sl.FailEvery)
		}
		if sl.FailEvery > 0 && sl.Type != "adc" {
			return fmt.Errorf("simulation.slots[%d]: fail_every applies to adc slots only", i)
		}
	}

	return nil
}

// silenceOf is the inter-frame silence cfg runs with once normalized.
func silenceOf(cfg *Config) time.Duration {
	if cfg.Slave.SilenceUs > 0 {
		return time.Duration(cfg.Slave.SilenceUs) * time.Microsecond
	}

	s := cfg.Serial
	if s.BaudRate == 0 {
		s.BaudRate = DefaultBaudRate
	}
	if s.DataBits == 0 {
		s.DataBits = DefaultDataBits
	}
	if s.StopBits == 0 {
		s.StopBits = DefaultStopBits
	}
	if s.Parity == "" {
		s.Parity = DefaultParity
	}
	return Silence(s.BaudRate, s.DataBits, s.StopBits, s.Parity)
}
