// internal/master/client.go
package master

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goburrow/modbus"
)

// Client is a MODBUS RTU master bound to one slave.
// It serializes requests because the slave id lives on the shared handler.
type Client struct {
	mu      sync.Mutex
	handler *modbus.RTUClientHandler
	client  modbus.Client
	closer  func() error
}

type Config struct {
	Address  string
	BaudRate int
	DataBits int
	StopBits int
	Parity   string
	Timeout  time.Duration
	SlaveID  uint8
}

// Dial opens the serial port and returns a connected client.
func Dial(cfg Config) (*Client, error) {
	if cfg.Address == "" {
		return nil, errors.New("master: address required")
	}

	h := modbus.NewRTUClientHandler(cfg.Address)
	h.BaudRate = cfg.BaudRate
	h.DataBits = cfg.DataBits
	h.StopBits = cfg.StopBits
	h.Parity = cfg.Parity
	h.Timeout = cfg.Timeout
	h.SlaveId = cfg.SlaveID

	if err := h.Connect(); err != nil {
		return nil, fmt.Errorf("master: connect %s: %w", cfg.Address, err)
	}

	return &Client{
		handler: h,
		client:  modbus.NewClient(h),
		closer:  h.Close,
	}, nil
}

// New builds a client over an arbitrary transporter, such as an in-process
// loopback.
func New(slaveID uint8, tr modbus.Transporter) *Client {
	h := modbus.NewRTUClientHandler("")
	h.SlaveId = slaveID

	return &Client{
		handler: h,
		client:  modbus.NewClient2(h, tr),
		closer:  func() error { return nil },
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closer()
}

func (c *Client) SlaveID() uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handler.SlaveId
}

func (c *Client) SetSlaveID(id uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler.SlaveId = id
}

// ---- reads ----

func (c *Client) ReadCoils(addr, qty uint16) ([]bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, err := c.client.ReadCoils(addr, qty)
	if err != nil {
		return nil, err
	}
	return unpackBits(raw, int(qty)), nil
}

func (c *Client) ReadDiscreteInputs(addr, qty uint16) ([]bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, err := c.client.ReadDiscreteInputs(addr, qty)
	if err != nil {
		return nil, err
	}
	return unpackBits(raw, int(qty)), nil
}

func (c *Client) ReadHoldingRegisters(addr, qty uint16) ([]uint16, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, err := c.client.ReadHoldingRegisters(addr, qty)
	if err != nil {
		return nil, err
	}
	return unpackRegisters(raw), nil
}

func (c *Client) ReadInputRegisters(addr, qty uint16) ([]uint16, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, err := c.client.ReadInputRegisters(addr, qty)
	if err != nil {
		return nil, err
	}
	return unpackRegisters(raw), nil
}

// ---- writes ----

func (c *Client) WriteCoils(addr uint16, bits []bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(bits) == 1 {
		v := uint16(0x0000)
		if bits[0] {
			v = 0xFF00
		}
		_, err := c.client.WriteSingleCoil(addr, v)
		return err
	}

	_, err := c.client.WriteMultipleCoils(addr, uint16(len(bits)), packBits(bits))
	return err
}

func (c *Client) WriteRegisters(addr uint16, regs []uint16) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(regs) == 1 {
		_, err := c.client.WriteSingleRegister(addr, regs[0])
		return err
	}

	_, err := c.client.WriteMultipleRegisters(addr, uint16(len(regs)), packRegisters(regs))
	return err
}

// ExceptionCode extracts the slave's exception code from err.
func ExceptionCode(err error) (byte, bool) {
	var mbErr *modbus.ModbusError
	if errors.As(err, &mbErr) {
		return mbErr.ExceptionCode, true
	}
	return 0, false
}

// ---- helpers (pure geometry) ----

func packBits(bits []bool) []byte {
	n := (len(bits) + 7) / 8
	out := make([]byte, n)
	for i, v := range bits {
		if v {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}

func packRegisters(regs []uint16) []byte {
	out := make([]byte, len(regs)*2)
	for i, r := range regs {
		out[2*i] = byte(r >> 8)
		out[2*i+1] = byte(r)
	}
	return out
}

func unpackBits(data []byte, count int) []bool {
	out := make([]bool, count)
	for i := 0; i < count; i++ {
		byteIdx := i / 8
		if byteIdx >= len(data) {
			break
		}
		out[i] = data[byteIdx]&(1<<uint(i%8)) != 0
	}
	return out
}

func unpackRegisters(data []byte) []uint16 {
	n := len(data) / 2
	out := make([]uint16, n)
	for i := 0; i < n; i++ {
		out[i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
	}
	return out
}
