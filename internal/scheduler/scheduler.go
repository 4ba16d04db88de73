// internal/scheduler/scheduler.go
package scheduler

import (
	"errors"
	"fmt"

	"github.com/golang/glog"

	"github.com/tamzrod/modbus-fleet/internal/board"
	"github.com/tamzrod/modbus-fleet/internal/bus"
	"github.com/tamzrod/modbus-fleet/internal/regmap"
)

// Scheduler time-multiplexes the recognized boards over the shared bus.
// One Tick is one unit of work on the active board: a TypeA board samples
// one channel, a TypeB board runs one secondary receive poll.
//
// It is not safe for concurrent use; it runs on the manager loop.
type Scheduler struct {
	cfg    Config
	boards []board.Slot
	inputs *regmap.Bank
	bus    bus.Bus
	mask   bus.Masker

	pos     int // index into boards
	channel int

	// onBus is the board index whose setting is applied, -1 for none.
	onBus int
}

// New creates a scheduler over boards in the given order.
// The input bank must already hold every board register.
func New(cfg Config, boards []board.Slot, inputs *regmap.Bank, b bus.Bus, m bus.Masker) (*Scheduler, error) {
	if cfg.SlaveID == 0 || cfg.SlaveID > regmap.MaxID {
		return nil, fmt.Errorf("scheduler: slave id %d out of range", cfg.SlaveID)
	}
	if b == nil || m == nil {
		return nil, errors.New("scheduler: bus and masker required")
	}
	if len(boards) > 0 && inputs == nil {
		return nil, errors.New("scheduler: input bank required")
	}
	for _, s := range boards {
		if !s.Present() {
			return nil, fmt.Errorf("scheduler: slot %d holds no recognized board", s.Index)
		}
	}

	return &Scheduler{
		cfg:    cfg,
		boards: append([]board.Slot(nil), boards...),
		inputs: inputs,
		bus:    b,
		mask:   m,
		onBus:  -1,
	}, nil
}

// Start puts the first board on the bus.
func (s *Scheduler) Start() error {
	s.pos, s.channel = 0, 0
	if len(s.boards) == 0 {
		return nil
	}
	return s.activate(0)
}

// Boards returns the scheduled boards in order.
func (s *Scheduler) Boards() []board.Slot {
	return append([]board.Slot(nil), s.boards...)
}

// Position is the next (board index, channel) a Tick will work on.
func (s *Scheduler) Position() (int, int) {
	return s.pos, s.channel
}

// Active is the board currently owning the bus.
func (s *Scheduler) Active() (board.Slot, bool) {
	if s.onBus < 0 || s.onBus >= len(s.boards) {
		return board.Slot{}, false
	}
	return s.boards[s.onBus], true
}

// Tick performs exactly one unit of work.
func (s *Scheduler) Tick() TickResult {
	if len(s.boards) == 0 {
		return TickResult{Idle: true}
	}

	b := s.boards[s.pos]
	res := TickResult{Slot: b.Index, Board: b.Type, Channel: s.channel}

	// a failed switch is retried before any device access
	if s.onBus != s.pos {
		if err := s.activate(s.pos); err != nil {
			res.Err = err
			return res
		}
	}

	switch b.Type {
	case board.TypeA:
		adc, ok := b.Device.(board.ADC)
		if !ok {
			res.Err = fmt.Errorf("scheduler: slot %d device is not an adc", b.Index)
			return res
		}
		v, err := adc.SampleChannel(s.channel)
		if err != nil {
			glog.V(2).Infof("scheduler: slot %d ch %d: %v", b.Index, s.channel, err)
			res.Err = err
			return res
		}
		res.Sample, res.Sampled = v, true
		s.storeSample(b, s.channel, v, adc.WireStatus(s.channel))

	case board.TypeB:
		// secondary poll only

	default:
		res.Err = fmt.Errorf("scheduler: slot %d unsupported board %s", b.Index, b.Type)
		return res
	}

	res.Secondary = s.pollSecondary(b)

	switched, err := s.advance()
	if err != nil {
		glog.Warningf("scheduler: %v", err)
		res.Err = err
	}
	res.Switched = switched
	return res
}

// WithBoard makes the board in slot active, runs fn and puts the scheduled
// board back on the bus.
func (s *Scheduler) WithBoard(slot uint8, fn func(board.Slot) error) error {
	i := s.indexOf(slot)
	if i < 0 {
		return fmt.Errorf("scheduler: slot %d not scheduled", slot)
	}

	if i == s.pos && s.onBus == s.pos {
		return fn(s.boards[i])
	}

	if err := s.activate(i); err != nil {
		return err
	}
	runErr := fn(s.boards[i])

	if err := s.activate(s.pos); err != nil {
		if runErr != nil {
			return fmt.Errorf("%v | %w", runErr, err)
		}
		return err
	}
	return runErr
}

func (s *Scheduler) indexOf(slot uint8) int {
	for i, b := range s.boards {
		if b.Index == slot {
			return i
		}
	}
	return -1
}

// advance moves to the next unit. switched reports a completed board
// switch; a failed one is retried by the next Tick.
func (s *Scheduler) advance() (switched bool, err error) {
	s.channel++
	if s.channel < board.Units(s.boards[s.pos].Type) {
		return false, nil
	}

	s.channel = 0
	s.pos = (s.pos + 1) % len(s.boards)
	if err := s.activate(s.pos); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Scheduler) activate(i int) error {
	s.onBus = -1
	if err := bus.Apply(s.bus, s.mask, s.boards[i].BusSetting()); err != nil {
		return fmt.Errorf("scheduler: activate slot %d: %w", s.boards[i].Index, err)
	}
	s.onBus = i
	return nil
}

func (s *Scheduler) addr(b board.Slot, index int) uint16 {
	return regmap.Encode(b.Index, s.cfg.SlaveID, uint8(index))
}

func (s *Scheduler) storeSample(b board.Slot, ch int, v uint32, wire uint16) {
	base := board.ADCSampleBase + 2*ch
	s.inputs.Set(s.addr(b, base), uint16(v>>16))
	s.inputs.Set(s.addr(b, base+1), uint16(v))

	if ch < board.ADCVoltageChannels {
		s.inputs.Set(s.addr(b, board.ADCWireStatusBase+ch), wire)
	}
}

// pollSecondary copies a received secondary frame into the board's buffer,
// one byte per register.
func (s *Scheduler) pollSecondary(b board.Slot) int {
	frame, ok := b.Device.ReceivePoll()
	if !ok {
		return 0
	}

	base := board.SecondaryBase(b.Type)
	n := 0
	for i, c := range frame {
		if i >= board.SecondaryBufferRegs {
			break
		}
		if s.inputs.Set(s.addr(b, base+i), uint16(c)) {
			n++
		}
	}
	glog.V(1).Infof("scheduler: slot %d secondary frame, %d bytes", b.Index, len(frame))
	return n
}
