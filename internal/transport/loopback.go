// internal/transport/loopback.go
package transport

import (
	"errors"
	"sync"
	"time"
)

// DefaultLoopbackTimeout bounds Send while waiting for the slave.
const DefaultLoopbackTimeout = time.Second

var ErrNoResponse = errors.New("transport: no response")

// Loopback joins an in-process master and slave. The slave side is
// TryReadByte/Write; the master side is Send, a modbus.Transporter.
type Loopback struct {
	// Pump, when set, is called by Send to let the slave run synchronously.
	// Without it Send waits for a slave loop running elsewhere.
	Pump func() error

	// Timeout bounds the wait for a reply. 0 means DefaultLoopbackTimeout.
	Timeout time.Duration

	mu    sync.Mutex
	rx    []byte
	tx    [][]byte
	ready chan struct{}
}

func NewLoopback() *Loopback {
	return &Loopback{ready: make(chan struct{}, 1)}
}

// ---- slave side ----

func (l *Loopback) TryReadByte() (byte, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.rx) == 0 {
		return 0, false
	}
	b := l.rx[0]
	l.rx = l.rx[1:]
	return b, true
}

func (l *Loopback) Write(p []byte) (int, error) {
	l.mu.Lock()
	l.tx = append(l.tx, append([]byte(nil), p...))
	l.mu.Unlock()

	select {
	case l.ready <- struct{}{}:
	default:
	}
	return len(p), nil
}

// ---- master side ----

// Send delivers one request and returns the reply.
func (l *Loopback) Send(adu []byte) ([]byte, error) {
	l.mu.Lock()
	l.rx = append(l.rx, adu...)
	l.tx = nil
	l.mu.Unlock()

	if l.Pump != nil {
		if err := l.Pump(); err != nil {
			return nil, err
		}
		if out, ok := l.pop(); ok {
			return out, nil
		}
		return nil, ErrNoResponse
	}

	timeout := l.Timeout
	if timeout <= 0 {
		timeout = DefaultLoopbackTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		if out, ok := l.pop(); ok {
			return out, nil
		}
		select {
		case <-l.ready:
		case <-timer.C:
			return nil, ErrNoResponse
		}
	}
}

func (l *Loopback) pop() ([]byte, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.tx) == 0 {
		return nil, false
	}
	out := l.tx[0]
	l.tx = l.tx[1:]
	return out, true
}
