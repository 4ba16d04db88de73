// internal/manager/manager.go
package manager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang/glog"
	"github.com/google/uuid"

	"github.com/tamzrod/modbus-fleet/internal/board"
	"github.com/tamzrod/modbus-fleet/internal/bus"
	"github.com/tamzrod/modbus-fleet/internal/config"
	"github.com/tamzrod/modbus-fleet/internal/discovery"
	"github.com/tamzrod/modbus-fleet/internal/regmap"
	"github.com/tamzrod/modbus-fleet/internal/scheduler"
	"github.com/tamzrod/modbus-fleet/internal/slave"
	"github.com/tamzrod/modbus-fleet/internal/status"
	"github.com/tamzrod/modbus-fleet/internal/writer"
)

// LineTick is the IRQ line the scheduler clock raises.
const LineTick uint32 = 1 << 0

// Stats counts loop activity since start.
type Stats struct {
	Slave      slave.Stats
	Ticks      uint64
	TickErrors uint64
	WriteErrs  uint64
}

// Manager owns the whole slave: discovered slots, register map, engine,
// scheduler and write routines. It is driven by one goroutine.
type Manager struct {
	id  uuid.UUID
	cfg config.Config
	irq *bus.IRQ

	slots  [board.SlotCount]board.Slot
	boards []board.Slot
	regs   *regmap.Map

	engine *slave.Engine
	sched  *scheduler.Scheduler
	clock  *scheduler.Clock
	writer writer.Writer
	status writer.StatusWriter

	rate  float64
	stats Stats
}

// New discovers the boards behind hw, builds the register map and wires
// the loop. cfg must be validated and normalized. A register map failure is
// the only fatal path.
func New(cfg config.Config, hw discovery.Hardware, tr slave.Transport) (*Manager, error) {
	if hw == nil {
		return nil, errors.New("manager: hardware required")
	}

	m := &Manager{
		id:   uuid.New(),
		cfg:  cfg,
		irq:  &bus.IRQ{},
		rate: cfg.Scheduler.UpdateRateHz,
	}
	// ---- discovery (before any bank exists, before the loop) ----
	m.slots = discovery.Discover(hw)
	m.boards = board.Recognized(m.slots)

	if b, ok := hw.(interface{ SetIRQ(*bus.IRQ) }); ok {
		b.SetIRQ(m.irq)
	}
	glog.Infof("manager %s: %d board(s) recognized", m.id, len(m.boards))

	// ---- register map ----
	regs, err := BuildMap(cfg.Slave.ID, m.boards)
	if err != nil {
		return nil, err
	}
	m.regs = regs

	// ---- engine ----
	m.engine, err = slave.New(slave.Config{
		ID:      cfg.Slave.ID,
		Silence: time.Duration(cfg.Slave.SilenceUs) * time.Microsecond,
	}, regs, tr)
	if err != nil {
		return nil, err
	}

	// ---- scheduler + clock ----
	m.sched, m.clock, err = scheduler.Build(cfg, m.boards, regs.Bank(regmap.InputRegisters), hw, m.irq, LineTick)
	if err != nil {
		return nil, err
	}

	// ---- write routines ----
	plan, err := writer.BuildPlan(cfg.Slave.ID, m.boards)
	if err != nil {
		return nil, err
	}
	m.writer = writer.New(plan, regs, m.sched, m)
	m.status = writer.NewStatusWriter(regs)

	if err := m.status.WriteStatus(m.snapshot()); err != nil {
		return nil, fmt.Errorf("manager: global registers: %w", err)
	}

	if err := m.sched.Start(); err != nil {
		return nil, err
	}

	for _, b := range m.boards {
		glog.Infof("manager %s: slot %d %s store 0x%X", m.id, b.Index, b.Type, b.StoreAddress)
	}
	return m, nil
}

func (m *Manager) ID() uuid.UUID { return m.id }

// Slots is the discovery result, one entry per physical slot.
func (m *Manager) Slots() [board.SlotCount]board.Slot { return m.slots }

// Boards is the recognized boards in slot order.
func (m *Manager) Boards() []board.Slot { return append([]board.Slot(nil), m.boards...) }

func (m *Manager) Registers() *regmap.Map { return m.regs }

func (m *Manager) IRQ() *bus.IRQ { return m.irq }

func (m *Manager) Stats() Stats {
	s := m.stats
	s.Slave = m.engine.Stats()
	return s
}

func (m *Manager) snapshot() status.Snapshot {
	return status.FromBoards(m.boards, m.rate)
}

// ---- RateSetter ----

func (m *Manager) UpdateRate() float64 { return m.rate }

// SetUpdateRate retimes the scheduler clock and republishes the rate.
func (m *Manager) SetUpdateRate(hz float64) error {
	if !(hz > 0 && hz <= scheduler.MaxUpdateRate) {
		return fmt.Errorf("manager: update rate %g Hz out of range", hz)
	}
	if err := m.clock.SetInterval(scheduler.IntervalFor(hz)); err != nil {
		return err
	}

	m.rate = hz
	glog.Infof("manager %s: update rate %g Hz", m.id, hz)
	return m.status.WriteStatus(m.snapshot())
}

// ---- loop ----

// Process runs one loop iteration: at most one request with its write
// routines, then at most one scheduler tick.
func (m *Manager) Process() error {
	if err := m.serve(); err != nil {
		return err
	}

	if m.irq.Take(LineTick) {
		res := m.sched.Tick()
		if !res.Idle {
			m.stats.Ticks++
		}
		if res.Err != nil {
			m.stats.TickErrors++
		}
	}
	return nil
}

// serve is the receive, dispatch and write-routine block. It runs masked so
// a tick cannot switch boards under it.
func (m *Manager) serve() error {
	g := bus.Enter(m.irq)
	defer g.Release()

	if err := m.engine.Poll(); err != nil {
		return err
	}

	if ev, ok := m.engine.Notifier().Take(); ok {
		if err := m.writer.Apply(ev); err != nil {
			m.stats.WriteErrs++
		}
	}
	return nil
}

// Run starts the tick clock and loops until ctx is done. It stops only
// between iterations.
func (m *Manager) Run(ctx context.Context) error {
	go m.clock.Run(ctx)

	interval := time.Duration(m.cfg.Scheduler.PollIntervalMs) * time.Millisecond
	if interval <= 0 {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	glog.Infof("manager %s: running, slave id %d, %g Hz", m.id, m.cfg.Slave.ID, m.rate)

	for {
		if err := m.Process(); err != nil {
			glog.Errorf("manager %s: %v", m.id, err)
		}

		select {
		case <-ctx.Done():
			glog.Infof("manager %s: stopped", m.id)
			return nil
		case <-ticker.C:
		}
	}
}
