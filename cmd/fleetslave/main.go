// cmd/fleetslave/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang/glog"

	"github.com/tamzrod/modbus-fleet/internal/config"
	"github.com/tamzrod/modbus-fleet/internal/manager"
	"github.com/tamzrod/modbus-fleet/internal/sim"
	"github.com/tamzrod/modbus-fleet/internal/transport"
)

func main() {
	cfgPath := flag.String("config", "fleet.yaml", "path to the fleet config file")
	flag.Parse()
	defer glog.Flush()

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		glog.Fatalf("config load failed: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		glog.Fatalf("config validation failed: %v", err)
	}
	config.Normalize(cfg)

	// --------------------
	// Serial line + simulated boards
	// --------------------

	port, err := transport.Open(transport.Config{
		Address:  cfg.Serial.Address,
		BaudRate: cfg.Serial.BaudRate,
		DataBits: cfg.Serial.DataBits,
		StopBits: cfg.Serial.StopBits,
		Parity:   cfg.Serial.Parity,
		Timeout:  time.Duration(cfg.Serial.TimeoutMs) * time.Millisecond,
	})
	if err != nil {
		glog.Fatalf("serial open failed: %v", err)
	}
	defer port.Close()

	hw, err := sim.FromConfig(cfg.Simulation)
	if err != nil {
		glog.Fatalf("simulation setup failed: %v", err)
	}

	// --------------------
	// Discovery, register map, loop
	// --------------------

	m, err := manager.New(*cfg, hw, port)
	if err != nil {
		glog.Fatalf("startup failed (code=%d): %v", errorCode(err), err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := m.Run(ctx); err != nil {
		glog.Errorf("run failed: %v", err)
	}
	if err := port.Err(); err != nil {
		glog.Errorf("serial reader stopped (code=%d): %v", errorCode(err), err)
	}

	st := m.Stats()
	glog.Infof(
		"frames=%d dropped=%d exceptions=%d discarded=%d ticks=%d tick_errors=%d write_errors=%d",
		st.Slave.Frames, st.Slave.Dropped, st.Slave.Exceptions, st.Slave.Discarded,
		st.Ticks, st.TickErrors, st.WriteErrs,
	)
}

// errorCode extracts a best-effort uint16 code from an error without assuming concrete types.
// If the error does not expose a code, returns 1 (generic error).
func errorCode(err error) uint16 {
	if err == nil {
		return 0
	}

	type coder interface{ Code() uint16 }

	var c coder
	if errors.As(err, &c) {
		return c.Code()
	}
	return 1
}
