// internal/transport/serial.go
package transport

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/goburrow/serial"
	"github.com/golang/glog"
)

// rxDepth covers a few maximum-size frames.
const rxDepth = 1024

// Config is the serial line setup.
type Config struct {
	Address  string
	BaudRate int
	DataBits int
	StopBits int
	Parity   string
	Timeout  time.Duration
}

// Serial is a slave-side serial port. A reader goroutine moves received
// bytes into a queue so TryReadByte never blocks.
type Serial struct {
	port io.ReadWriteCloser
	rx   chan byte
	done chan struct{}

	closeOnce sync.Once
	mu        sync.Mutex
	err       error
}

// Open opens the port and starts the reader.
func Open(cfg Config) (*Serial, error) {
	if cfg.Address == "" {
		return nil, errors.New("transport: serial address required")
	}

	p, err := serial.Open(&serial.Config{
		Address:  cfg.Address,
		BaudRate: cfg.BaudRate,
		DataBits: cfg.DataBits,
		StopBits: cfg.StopBits,
		Parity:   cfg.Parity,
		Timeout:  cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("transport: open %s: %w", cfg.Address, err)
	}

	glog.Infof("transport: %s open at %d baud %d%s%d", cfg.Address, cfg.BaudRate, cfg.DataBits, cfg.Parity, cfg.StopBits)
	return newSerial(p), nil
}

func newSerial(port io.ReadWriteCloser) *Serial {
	s := &Serial{
		port: port,
		rx:   make(chan byte, rxDepth),
		done: make(chan struct{}),
	}
	go s.readLoop()
	return s
}

func (s *Serial) readLoop() {
	buf := make([]byte, 256)
	for {
		n, err := s.port.Read(buf)
		for _, b := range buf[:n] {
			select {
			case s.rx <- b:
			case <-s.done:
				return
			}
		}
		if err == nil {
			continue
		}
		if errors.Is(err, serial.ErrTimeout) {
			continue
		}

		select {
		case <-s.done:
		default:
			glog.Errorf("transport: read: %v", err)
			s.mu.Lock()
			s.err = err
			s.mu.Unlock()
		}
		return
	}
}

// TryReadByte returns the next received byte, if any.
func (s *Serial) TryReadByte() (byte, bool) {
	select {
	case b := <-s.rx:
		return b, true
	default:
		return 0, false
	}
}

func (s *Serial) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

// Err is the error that stopped the reader, if any.
func (s *Serial) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Serial) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.port.Close()
	})
	return err
}
