// internal/slave/exception.go
package slave

import (
	"fmt"

	"github.com/goburrow/modbus"
)

// ExceptionCode is the one-byte code carried in an exception response.
type ExceptionCode uint8

const (
	IllegalFunction              ExceptionCode = modbus.ExceptionCodeIllegalFunction
	IllegalDataAddress           ExceptionCode = modbus.ExceptionCodeIllegalDataAddress
	IllegalDataValue             ExceptionCode = modbus.ExceptionCodeIllegalDataValue
	SlaveDeviceFailure           ExceptionCode = modbus.ExceptionCodeServerDeviceFailure
	Acknowledge                  ExceptionCode = modbus.ExceptionCodeAcknowledge
	SlaveDeviceBusy              ExceptionCode = modbus.ExceptionCodeServerDeviceBusy
	NegativeAcknowledge          ExceptionCode = 7
	MemoryParityError            ExceptionCode = modbus.ExceptionCodeMemoryParityError
	GatewayPathUnavailable       ExceptionCode = modbus.ExceptionCodeGatewayPathUnavailable
	GatewayTargetFailedToRespond ExceptionCode = modbus.ExceptionCodeGatewayTargetDeviceFailedToRespond
)

func (c ExceptionCode) String() string {
	switch c {
	case IllegalFunction:
		return "illegal function"
	case IllegalDataAddress:
		return "illegal data address"
	case IllegalDataValue:
		return "illegal data value"
	case SlaveDeviceFailure:
		return "slave device failure"
	case Acknowledge:
		return "acknowledge"
	case SlaveDeviceBusy:
		return "slave device busy"
	case NegativeAcknowledge:
		return "negative acknowledge"
	case MemoryParityError:
		return "memory parity error"
	case GatewayPathUnavailable:
		return "gateway path unavailable"
	case GatewayTargetFailedToRespond:
		return "gateway target failed to respond"
	default:
		return fmt.Sprintf("exception(%d)", uint8(c))
	}
}

// ExceptionError reports a request answered with an exception.
type ExceptionError struct {
	Function  uint8
	Exception ExceptionCode
}

func (e *ExceptionError) Error() string {
	return fmt.Sprintf("slave: fc=%d answered with %s", e.Function, e.Exception)
}

// Code exposes the exception code to errors.As based extractors.
func (e *ExceptionError) Code() uint16 {
	return uint16(e.Exception)
}
