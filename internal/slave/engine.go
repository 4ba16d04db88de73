// internal/slave/engine.go
package slave

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang/glog"

	"github.com/tamzrod/modbus-fleet/internal/regmap"
	"github.com/tamzrod/modbus-fleet/internal/rtu"
)

// Transport is the serial line as the engine sees it.
// TryReadByte never blocks beyond the port's own receive timeout.
type Transport interface {
	TryReadByte() (byte, bool)
	Write(p []byte) (int, error)
}

// Config is the runtime config of one slave engine.
type Config struct {
	ID uint8

	// Silence is the inter-frame gap that ends a frame of unknown size
	// and discards a stalled partial frame.
	Silence time.Duration

	// Now is the clock used for silence detection. nil means time.Now.
	Now func() time.Time
}

// Stats counts request outcomes since start.
type Stats struct {
	Frames     uint64 // complete frames taken off the line
	Dropped    uint64 // crc, identity or length failures
	Exceptions uint64
	Discarded  uint64 // partial frames lost to silence
}

// Engine is a MODBUS RTU slave bound to one transport and one register map.
// It is not safe for concurrent use: one frame is in flight at a time.
type Engine struct {
	cfg    Config
	tr     Transport
	disp   *Dispatcher
	notify *Notifier

	state State
	buf   []byte
	last  time.Time
	stats Stats
}

// New creates an engine. The register map must already be fully built.
func New(cfg Config, regs *regmap.Map, tr Transport) (*Engine, error) {
	if cfg.ID == 0 {
		return nil, errors.New("slave: id 0 is the broadcast address")
	}
	if regs == nil {
		return nil, errors.New("slave: register map required")
	}
	if tr == nil {
		return nil, errors.New("slave: transport required")
	}
	if cfg.Silence <= 0 {
		return nil, errors.New("slave: silence must be > 0")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	n := &Notifier{}
	return &Engine{
		cfg:    cfg,
		tr:     tr,
		disp:   NewDispatcher(cfg.ID, regs, n),
		notify: n,
		buf:    make([]byte, 0, rtu.MaxFrameSize),
	}, nil
}

func (e *Engine) Notifier() *Notifier { return e.notify }

func (e *Engine) State() State { return e.state }

func (e *Engine) Stats() Stats { return e.stats }

// Poll drains the transport and answers at most one complete request.
// A silence gap between two reads ends the buffered frame even when no Poll
// ran during the gap. A non-nil error is a transport write failure; protocol
// failures are answered or dropped and never returned.
func (e *Engine) Poll() error {
	for len(e.buf) < rtu.MaxFrameSize {
		b, ok := e.tr.TryReadByte()
		if !ok {
			break
		}

		now := e.cfg.Now()
		if len(e.buf) > 0 && now.Sub(e.last) >= e.cfg.Silence {
			handled, err := e.flush()
			e.buf = append(e.buf, b)
			e.last = now
			if handled || err != nil {
				return err
			}
			continue
		}
		e.buf = append(e.buf, b)
		e.last = now

		if need, known := rtu.RequestSize(e.buf); known && len(e.buf) >= need && need > 2 {
			break
		}
	}

	if len(e.buf) == 0 {
		return nil
	}

	need, known := rtu.RequestSize(e.buf)
	if known && need > 2 && len(e.buf) >= need {
		err := e.handle(e.buf[:need])
		e.consume(need)
		return err
	}

	if e.cfg.Now().Sub(e.last) < e.cfg.Silence {
		return nil
	}

	_, err := e.flush()
	return err
}

// flush ends the buffered bytes at a silence gap. A frame of known size is
// incomplete and discarded; one of unknown size is handled as is.
func (e *Engine) flush() (handled bool, err error) {
	if _, known := rtu.RequestSize(e.buf); known {
		glog.V(2).Infof("slave: discarding %d byte partial frame", len(e.buf))
		e.stats.Discarded++
		e.consume(len(e.buf))
		return false, nil
	}

	err = e.handle(e.buf)
	e.consume(len(e.buf))
	return true, err
}

func (e *Engine) handle(frame []byte) error {
	e.stats.Frames++
	e.state = RequestReceived
	defer func() { e.state = Idle }()

	if err := rtu.Validate(frame, e.cfg.ID); err != nil {
		e.stats.Dropped++
		if !errors.Is(err, rtu.ErrNotAddressed) {
			glog.V(2).Infof("slave: dropped frame: %v", err)
		}
		return nil
	}
	e.state = Validated

	resp, err := e.disp.Dispatch(frame)
	if err != nil {
		e.stats.Exceptions++
		glog.V(1).Infof("slave: %v", err)
	}
	e.state = RepliedOrExcepted

	if _, err := e.tr.Write(resp); err != nil {
		return fmt.Errorf("slave: write response: %w", err)
	}
	return nil
}

func (e *Engine) consume(n int) {
	rest := copy(e.buf, e.buf[n:])
	e.buf = e.buf[:rest]
}
