// internal/rtu/frame.go
package rtu

import "errors"

// Frame geometry.
const (
	// MaxFrameSize is the largest RTU ADU on the wire.
	MaxFrameSize = 256

	// MinFrameSize is address + function + CRC.
	MinFrameSize = 4
)

var (
	ErrShortFrame   = errors.New("rtu: frame too short")
	ErrCRC          = errors.New("rtu: crc mismatch")
	ErrNotAddressed = errors.New("rtu: frame not addressed to this slave")
)

// Validate checks the CRC trailer and the destination identity.
// Any error means the frame must be dropped without a reply.
func Validate(frame []byte, id uint8) error {
	if len(frame) < MinFrameSize {
		return ErrShortFrame
	}

	n := len(frame) - 2
	want := CRC16(frame[:n])
	got := uint16(frame[n]) | uint16(frame[n+1])<<8
	if got != want {
		return ErrCRC
	}

	if frame[0] != id {
		return ErrNotAddressed
	}
	return nil
}

// ExceptionFrame builds {id, fc|0x80, code} + CRC.
func ExceptionFrame(id, fc, code uint8) []byte {
	out := make([]byte, 0, 5)
	out = append(out, id, fc|0x80, code)
	return AppendCRC(out)
}

// PDU returns the function code and data of a validated frame.
func PDU(frame []byte) (fc uint8, data []byte) {
	return frame[1], frame[2 : len(frame)-2]
}
