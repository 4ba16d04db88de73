// internal/slave/dispatcher.go
package slave

import (
	"encoding/binary"

	"github.com/goburrow/modbus"

	"github.com/tamzrod/modbus-fleet/internal/regmap"
	"github.com/tamzrod/modbus-fleet/internal/rtu"
)

// Per-request quantity limits.
const (
	maxReadBits       = 2000
	maxReadRegisters  = 125
	maxWriteBits      = 1968
	maxWriteRegisters = 123

	coilOn  uint16 = 0xFF00
	coilOff uint16 = 0x0000
)

// Dispatcher turns a validated request frame into a response frame.
// It touches only the register map and the write notifier.
type Dispatcher struct {
	id     uint8
	regs   *regmap.Map
	notify *Notifier
}

func NewDispatcher(id uint8, regs *regmap.Map, notify *Notifier) *Dispatcher {
	return &Dispatcher{id: id, regs: regs, notify: notify}
}

// Dispatch returns the full response ADU for frame, CRC included.
// An exception response is returned as the frame plus a non-nil error.
func (d *Dispatcher) Dispatch(frame []byte) ([]byte, error) {
	fc, data := rtu.PDU(frame)

	pdu, exc := d.handle(fc, data)
	if exc != 0 {
		return rtu.ExceptionFrame(d.id, fc, uint8(exc)), &ExceptionError{Function: fc, Exception: exc}
	}

	out := make([]byte, 0, 2+len(pdu)+2)
	out = append(out, d.id, fc)
	out = append(out, pdu...)
	return rtu.AppendCRC(out), nil
}

// bankFor maps a supported function code to the bank it addresses.
func bankFor(fc uint8) (regmap.Kind, bool) {
	switch fc {
	case modbus.FuncCodeReadCoils, modbus.FuncCodeWriteSingleCoil, modbus.FuncCodeWriteMultipleCoils:
		return regmap.Coils, true
	case modbus.FuncCodeReadDiscreteInputs:
		return regmap.Contacts, true
	case modbus.FuncCodeReadHoldingRegisters, modbus.FuncCodeWriteSingleRegister, modbus.FuncCodeWriteMultipleRegisters:
		return regmap.HoldingRegisters, true
	case modbus.FuncCodeReadInputRegisters:
		return regmap.InputRegisters, true
	default:
		return 0, false
	}
}

func (d *Dispatcher) handle(fc uint8, data []byte) ([]byte, ExceptionCode) {
	kind, ok := bankFor(fc)
	if !ok {
		return nil, IllegalFunction
	}
	bank := d.regs.Bank(kind)
	if bank == nil {
		return nil, IllegalFunction
	}
	if len(data) < 4 {
		return nil, IllegalDataValue
	}

	start := binary.BigEndian.Uint16(data[0:2])
	field := binary.BigEndian.Uint16(data[2:4])

	switch fc {
	case modbus.FuncCodeReadCoils, modbus.FuncCodeReadDiscreteInputs:
		return readBits(bank, start, field)

	case modbus.FuncCodeReadHoldingRegisters, modbus.FuncCodeReadInputRegisters:
		return readRegisters(bank, start, field)

	case modbus.FuncCodeWriteSingleCoil:
		if field != coilOn && field != coilOff {
			return nil, IllegalDataValue
		}
		idx, ok := bank.Span(start, 1)
		if !ok {
			return nil, IllegalDataAddress
		}
		bank.Store(idx, []uint16{field})
		d.notify.Raise(WriteEvent{Bank: kind, Start: start, Count: 1})
		return data[0:4], 0

	case modbus.FuncCodeWriteSingleRegister:
		idx, ok := bank.Span(start, 1)
		if !ok {
			return nil, IllegalDataAddress
		}
		bank.Store(idx, []uint16{field})
		d.notify.Raise(WriteEvent{Bank: kind, Start: start, Count: 1})
		return data[0:4], 0

	case modbus.FuncCodeWriteMultipleCoils:
		values, exc := unpackBitPayload(data, field)
		if exc != 0 {
			return nil, exc
		}
		idx, ok := bank.Span(start, field)
		if !ok {
			return nil, IllegalDataAddress
		}
		bank.Store(idx, values)
		d.notify.Raise(WriteEvent{Bank: kind, Start: start, Count: field})
		return data[0:4], 0

	case modbus.FuncCodeWriteMultipleRegisters:
		values, exc := unpackRegisterPayload(data, field)
		if exc != 0 {
			return nil, exc
		}
		idx, ok := bank.Span(start, field)
		if !ok {
			return nil, IllegalDataAddress
		}
		bank.Store(idx, values)
		d.notify.Raise(WriteEvent{Bank: kind, Start: start, Count: field})
		return data[0:4], 0
	}

	return nil, IllegalFunction
}

// ---- reads ----

func readBits(bank *regmap.Bank, start, qty uint16) ([]byte, ExceptionCode) {
	if qty == 0 || qty > maxReadBits {
		return nil, IllegalDataValue
	}
	idx, ok := bank.Span(start, qty)
	if !ok {
		return nil, IllegalDataAddress
	}

	values := bank.Values(idx)
	n := (len(values) + 7) / 8
	out := make([]byte, 1+n)
	out[0] = byte(n)
	for i, v := range values {
		if v != 0 {
			out[1+i/8] |= 1 << uint(i%8)
		}
	}
	return out, 0
}

func readRegisters(bank *regmap.Bank, start, qty uint16) ([]byte, ExceptionCode) {
	if qty == 0 || qty > maxReadRegisters {
		return nil, IllegalDataValue
	}
	idx, ok := bank.Span(start, qty)
	if !ok {
		return nil, IllegalDataAddress
	}

	values := bank.Values(idx)
	out := make([]byte, 1+2*len(values))
	out[0] = byte(2 * len(values))
	for i, v := range values {
		binary.BigEndian.PutUint16(out[1+2*i:], v)
	}
	return out, 0
}

// ---- write payloads ----

func unpackBitPayload(data []byte, qty uint16) ([]uint16, ExceptionCode) {
	if qty == 0 || qty > maxWriteBits || len(data) < 5 {
		return nil, IllegalDataValue
	}
	count := int(data[4])
	if count != (int(qty)+7)/8 || len(data)-5 != count {
		return nil, IllegalDataValue
	}

	payload := data[5:]
	values := make([]uint16, qty)
	for i := range values {
		if payload[i/8]&(1<<uint(i%8)) != 0 {
			values[i] = 1
		}
	}
	return values, 0
}

func unpackRegisterPayload(data []byte, qty uint16) ([]uint16, ExceptionCode) {
	if qty == 0 || qty > maxWriteRegisters || len(data) < 5 {
		return nil, IllegalDataValue
	}
	count := int(data[4])
	if count != 2*int(qty) || len(data)-5 != count {
		return nil, IllegalDataValue
	}

	payload := data[5:]
	values := make([]uint16, qty)
	for i := range values {
		values[i] = binary.BigEndian.Uint16(payload[2*i:])
	}
	return values, 0
}
