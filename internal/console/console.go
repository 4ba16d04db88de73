// internal/console/console.go
package console

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/tamzrod/modbus-fleet/internal/board"
	"github.com/tamzrod/modbus-fleet/internal/master"
)

const consoleKey = "$console"

// Console is the ishell backed master console.
type Console struct {
	Shell  *ishell.Shell
	Client *master.Client
}

// New creates a console over an open client.
func New(cli *master.Client) *Console {
	c := &Console{
		Shell:  ishell.New(),
		Client: cli,
	}
	c.Shell.Set(consoleKey, c)
	c.Shell.SetPrompt(fmt.Sprintf("[slave %d] > ", cli.SlaveID()))
	for _, cmd := range commands {
		c.Shell.AddCmd(cmd)
	}
	return c
}

// From gets the Console from an ishell context.
func From(c *ishell.Context) *Console {
	return c.Get(consoleKey).(*Console)
}

// Run evaluates args as one command, or starts the interactive shell.
func (c *Console) Run(args ...string) error {
	if len(args) > 0 {
		return c.Shell.Process(args...)
	}
	c.Shell.Run()
	return nil
}

// ---- command bodies ----

// Boards formats the global board table.
func (c *Console) Boards() (string, error) {
	boards, err := c.Client.Boards()
	if err != nil {
		return "", err
	}
	if len(boards) == 0 {
		return "No boards recognized", nil
	}

	var w bytes.Buffer
	for i, b := range boards {
		fmt.Fprintf(&w, "%d: slot %d %s\n", i, b.Slot, b.Type)
	}
	return strings.TrimRight(w.String(), "\n"), nil
}

// Read formats a register dump. bank is "in" or "hold".
func (c *Console) Read(bank string, addr, n uint16) (string, error) {
	var (
		regs []uint16
		err  error
	)
	switch bank {
	case "in", "input":
		regs, err = c.Client.ReadInputRegisters(addr, n)
	case "hold", "holding":
		regs, err = c.Client.ReadHoldingRegisters(addr, n)
	default:
		return "", fmt.Errorf("unknown bank %q, want in or hold", bank)
	}
	if err != nil {
		return "", err
	}

	var w bytes.Buffer
	for i, v := range regs {
		fmt.Fprintf(&w, "0x%04X: 0x%04X (%d)\n", addr+uint16(i), v, v)
	}
	return strings.TrimRight(w.String(), "\n"), nil
}

func (c *Console) Write(addr uint16, values []uint16) error {
	if len(values) == 0 {
		return errors.New("VALUE required")
	}
	return c.Client.WriteRegisters(addr, values)
}

// Rate reads the update rate, or sets it when hz > 0.
func (c *Console) Rate(hz float64) (string, error) {
	if hz > 0 {
		if err := c.Client.SetUpdateRate(hz); err != nil {
			return "", err
		}
	}
	cur, err := c.Client.UpdateRate()
	if err != nil {
		return "", err
	}
	if hz > 0 && cur != hz {
		return "", fmt.Errorf("rate %g Hz refused, still %g Hz", hz, cur)
	}
	return fmt.Sprintf("%g Hz", cur), nil
}

func (c *Console) Sample(slot uint8, ch int) (string, error) {
	v, err := c.Client.Sample(slot, ch)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("slot %d ch %d: 0x%08X (%d)", slot, ch, v, v), nil
}

// ---- argument parsing ----

func parseUint16(s, what string) (uint16, error) {
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("Invalid %s: %v", what, err)
	}
	return uint16(v), nil
}

func parseSlot(s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil || v >= board.SlotCount {
		return 0, fmt.Errorf("Invalid SLOT %q", s)
	}
	return uint8(v), nil
}

// ---- ishell commands ----

var commands = []*ishell.Cmd{
	&BoardsCmd,
	&ReadCmd,
	&WriteCmd,
	&RateCmd,
	&SampleCmd,
}

var (
	// BoardsCmd decodes the global board table.
	BoardsCmd = ishell.Cmd{
		Name:    "boards",
		Aliases: []string{"b"},
		Help:    "",
		Func: func(c *ishell.Context) {
			out, err := From(c).Boards()
			if err != nil {
				c.Err(err)
				return
			}
			c.Println(out)
		},
	}

	// ReadCmd dumps input or holding registers.
	ReadCmd = ishell.Cmd{
		Name:    "read",
		Aliases: []string{"r"},
		Help:    "in|hold ADDR [COUNT]",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 2 {
				c.Err(fmt.Errorf("BANK and ADDR required"))
				return
			}
			addr, err := parseUint16(c.Args[1], "ADDR")
			if err != nil {
				c.Err(err)
				return
			}
			n := uint16(1)
			if len(c.Args) > 2 {
				if n, err = parseUint16(c.Args[2], "COUNT"); err != nil {
					c.Err(err)
					return
				}
			}
			out, err := From(c).Read(c.Args[0], addr, n)
			if err != nil {
				c.Err(err)
				return
			}
			c.Println(out)
		},
	}

	// WriteCmd writes holding registers from ADDR on.
	WriteCmd = ishell.Cmd{
		Name:    "write",
		Aliases: []string{"w"},
		Help:    "ADDR VALUE...",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 2 {
				c.Err(fmt.Errorf("ADDR and VALUE required"))
				return
			}
			addr, err := parseUint16(c.Args[0], "ADDR")
			if err != nil {
				c.Err(err)
				return
			}
			values := make([]uint16, 0, len(c.Args)-1)
			for _, a := range c.Args[1:] {
				v, err := parseUint16(a, "VALUE")
				if err != nil {
					c.Err(err)
					return
				}
				values = append(values, v)
			}
			if err := From(c).Write(addr, values); err != nil {
				c.Err(err)
			}
		},
	}

	// RateCmd reads or sets the scheduler update rate.
	RateCmd = ishell.Cmd{
		Name: "rate",
		Help: "[HZ]",
		Func: func(c *ishell.Context) {
			hz := 0.0
			if len(c.Args) > 0 {
				v, err := strconv.ParseFloat(c.Args[0], 64)
				if err != nil || v <= 0 {
					c.Err(fmt.Errorf("Invalid HZ %q", c.Args[0]))
					return
				}
				hz = v
			}
			out, err := From(c).Rate(hz)
			if err != nil {
				c.Err(err)
				return
			}
			c.Println(out)
		},
	}

	// SampleCmd reads the latest conversion of an ADC channel.
	SampleCmd = ishell.Cmd{
		Name:    "sample",
		Aliases: []string{"s"},
		Help:    "SLOT CH",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 2 {
				c.Err(fmt.Errorf("SLOT and CH required"))
				return
			}
			slot, err := parseSlot(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			ch, err := strconv.Atoi(c.Args[1])
			if err != nil {
				c.Err(fmt.Errorf("Invalid CH: %v", err))
				return
			}
			out, err := From(c).Sample(slot, ch)
			if err != nil {
				c.Err(err)
				return
			}
			c.Println(out)
		},
	}
)
