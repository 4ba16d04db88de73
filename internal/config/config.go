// internal/config/config.go
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Slave      SlaveConfig      `yaml:"slave"`
	Serial     SerialConfig     `yaml:"serial"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Simulation SimulationConfig `yaml:"simulation"`
}

// ---- SLAVE ----

type SlaveConfig struct {
	ID uint8 `yaml:"id"`

	// Inter-frame silence. 0 => derived from the baud rate.
	SilenceUs int `yaml:"silence_us"`
}

// ---- SERIAL ----

type SerialConfig struct {
	Address   string `yaml:"address"`
	BaudRate  int    `yaml:"baud_rate"`
	DataBits  int    `yaml:"data_bits"`
	StopBits  int    `yaml:"stop_bits"`
	Parity    string `yaml:"parity"` // N, E or O
	TimeoutMs int    `yaml:"timeout_ms"`
}

// ---- SCHEDULER ----

type SchedulerConfig struct {
	UpdateRateHz   float64 `yaml:"update_rate_hz"`
	PollIntervalMs int     `yaml:"poll_interval_ms"`
}

// ---- SIMULATION ----

type SimulationConfig struct {
	Slots []SlotConfig `yaml:"slots"`
}

type SlotConfig struct {
	Type         string `yaml:"type"` // adc, dac, unknown or none
	StoreAddress uint8  `yaml:"store_address"`
	FailEvery    int    `yaml:"fail_every"`
}

// Load reads one YAML file. Unknown keys are an error.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes a YAML document.
func Parse(raw []byte) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	return &cfg, nil
}
