// internal/config/normalize.go
package config

import "time"

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	// ------------------------------------------------------------
	// SERIAL DEFAULTS
	// ------------------------------------------------------------

	s := &cfg.Serial
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
	if s.TimeoutMs == 0 {
		s.TimeoutMs = DefaultTimeoutMs
	}

	// ------------------------------------------------------------
	// SLAVE SILENCE (3.5 character times, fixed above 19200 baud)
	// ------------------------------------------------------------

	if cfg.Slave.SilenceUs == 0 {
		cfg.Slave.SilenceUs = int(Silence(s.BaudRate, s.DataBits, s.StopBits, s.Parity) / time.Microsecond)
	}

	// ------------------------------------------------------------
	// SCHEDULER DEFAULTS
	// ------------------------------------------------------------

	if cfg.Scheduler.UpdateRateHz == 0 {
		cfg.Scheduler.UpdateRateHz = DefaultRateHz
	}
	if cfg.Scheduler.PollIntervalMs == 0 {
		cfg.Scheduler.PollIntervalMs = DefaultPollMs
	}

	// ------------------------------------------------------------
	// SIMULATION: always four slots, missing ones empty
	// ------------------------------------------------------------

	for i := range cfg.Simulation.Slots {
		if cfg.Simulation.Slots[i].Type == "" {
			cfg.Simulation.Slots[i].Type = "none"
		}
	}
	for len(cfg.Simulation.Slots) < MaxSlots {
		cfg.Simulation.Slots = append(cfg.Simulation.Slots, SlotConfig{Type: "none"})
	}
}

// Silence is the RTU inter-frame gap: 3.5 character times, or 1750us
// above 19200 baud.
func Silence(baud, dataBits, stopBits int, parity string) time.Duration {
	if baud > 19200 {
		return 1750 * time.Microsecond
	}
	if baud <= 0 {
		baud = DefaultBaudRate
	}

	bits := 1 + dataBits + stopBits
	if parity != "N" {
		bits++
	}
	// 3.5 characters = 7/2 * bits / baud seconds
	return time.Duration(int64(7*bits) * int64(time.Second) / int64(2*baud))
}
