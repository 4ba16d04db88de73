// internal/sim/secondary.go
package sim

import (
	"fmt"

	"github.com/tamzrod/modbus-fleet/internal/board"
)

// commandZeroReply is what the simulated field transmitter answers to
// command zero: preamble, short-frame response delimiter, then data.
var commandZeroReply = []byte{0xFF, 0xFF, 0xFF, 0x06, 0x80, 0x00, 0x0E, 0x00, 0x00, 0xFE, 0x26, 0x06}

// secondary is the simulated secondary link shared by both board kinds.
type secondary struct {
	check func() error

	rx           [][]byte
	Channel      uint8
	CommandZeros int
}

// Inject queues a frame for a later ReceivePoll.
func (s *secondary) Inject(frame []byte) {
	s.rx = append(s.rx, append([]byte(nil), frame...))
}

func (s *secondary) ReceivePoll() ([]byte, bool) {
	if len(s.rx) == 0 || s.check() != nil {
		return nil, false
	}
	f := s.rx[0]
	s.rx = s.rx[1:]
	return f, true
}

func (s *secondary) SendCommandZero() error {
	if err := s.check(); err != nil {
		return err
	}
	s.CommandZeros++
	s.Inject(commandZeroReply)
	return nil
}

func (s *secondary) SelectSecondaryChannel(ch uint8) error {
	if err := s.check(); err != nil {
		return err
	}
	if ch >= board.SecondaryChannels {
		return fmt.Errorf("sim: secondary channel %d out of range", ch)
	}
	s.Channel = ch
	return nil
}
