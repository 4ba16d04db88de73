// cmd/fleetctl/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/golang/glog"

	"github.com/tamzrod/modbus-fleet/internal/config"
	"github.com/tamzrod/modbus-fleet/internal/console"
	"github.com/tamzrod/modbus-fleet/internal/manager"
	"github.com/tamzrod/modbus-fleet/internal/master"
	"github.com/tamzrod/modbus-fleet/internal/sim"
	"github.com/tamzrod/modbus-fleet/internal/transport"
)

var (
	port      = flag.String("port", "/dev/ttyUSB0", "Serial port of the slave.")
	baudRate  = flag.Int("baud", config.DefaultBaudRate, "Baud rate.")
	dataBits  = flag.Int("data-bits", config.DefaultDataBits, "Data bits.")
	stopBits  = flag.Int("stop-bits", config.DefaultStopBits, "Stop bits.")
	parity    = flag.String("parity", config.DefaultParity, "Parity: N, E or O.")
	timeoutMs = flag.Int("timeout-ms", 500, "Response timeout in milliseconds.")
	slaveID   = flag.Uint("id", 1, "Slave id.")
	simConfig = flag.String("sim", "", "Run an in-process simulated slave from this config instead of opening a port.")
)

func main() {
	flag.Parse()
	defer glog.Flush()

	cli, cleanup, err := connect()
	if err != nil {
		glog.Fatalf("connect failed: %v", err)
	}
	defer cleanup()

	con := console.New(cli)
	if err := con.Run(flag.Args()...); err != nil {
		code, ok := master.ExceptionCode(err)
		if ok {
			glog.Fatalf("exception %d: %v", code, err)
		}
		glog.Fatalf("%v", err)
	}
}

func connect() (*master.Client, func(), error) {
	if *slaveID == 0 || *slaveID > config.MaxSlaveID {
		return nil, nil, fmt.Errorf("id must be 1..%d", config.MaxSlaveID)
	}
	if *simConfig != "" {
		return connectSim(*simConfig)
	}

	cli, err := master.Dial(master.Config{
		Address:  *port,
		BaudRate: *baudRate,
		DataBits: *dataBits,
		StopBits: *stopBits,
		Parity:   *parity,
		Timeout:  time.Duration(*timeoutMs) * time.Millisecond,
		SlaveID:  uint8(*slaveID),
	})
	if err != nil {
		return nil, nil, err
	}
	return cli, func() { cli.Close() }, nil
}

// connectSim runs the slave loop on a goroutine behind a loopback.
func connectSim(path string) (*master.Client, func(), error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, nil, err
	}
	config.Normalize(cfg)

	hw, err := sim.FromConfig(cfg.Simulation)
	if err != nil {
		return nil, nil, err
	}

	lb := transport.NewLoopback()
	m, err := manager.New(*cfg, hw, lb)
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	go m.Run(ctx)

	glog.Infof("simulated slave %s, id %d", m.ID(), cfg.Slave.ID)
	return master.New(cfg.Slave.ID, lb), cancel, nil
}
