// internal/board/device.go
package board

// Device is what every board variant offers on the secondary (HART) link.
type Device interface {
	// ReceivePoll returns a received secondary frame, if one is complete.
	// It never blocks.
	ReceivePoll() ([]byte, bool)
	SendCommandZero() error
	SelectSecondaryChannel(ch uint8) error
}

// ADC is the TypeA board.
type ADC interface {
	Device

	// SampleChannel reads one conversion. It waits for the converter's
	// ready bit and returns ErrTimeout when that wait expires.
	SampleChannel(ch int) (uint32, error)
	// WireStatus is the open-wire flag of a voltage channel.
	WireStatus(ch int) uint16

	SetOutputCoding(bipolar bool) error
	SetFilter(opt uint16) error
	SetPostfilter(opt uint16) error
	SetOutputDataRate(opt uint16) error
	SetOpenWireDetect(enabled bool) error
}

// DAC is the TypeB board.
type DAC interface {
	Device

	SetRange(ch int, r uint16) error
	// SetOutput writes a code and returns the code the channel holds
	// afterwards; a faulted channel keeps its previous code.
	SetOutput(ch int, code uint16) (uint16, error)
}

// ByteStore is the identification memory on every board.
type ByteStore interface {
	ReadByte(offset uint16) (byte, error)
	WriteByte(offset uint16, b byte) error
}
