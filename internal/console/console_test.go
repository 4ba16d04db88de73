// internal/console/console_test.go
package console

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tamzrod/modbus-fleet/internal/board"
	"github.com/tamzrod/modbus-fleet/internal/config"
	"github.com/tamzrod/modbus-fleet/internal/manager"
	"github.com/tamzrod/modbus-fleet/internal/master"
	"github.com/tamzrod/modbus-fleet/internal/sim"
	"github.com/tamzrod/modbus-fleet/internal/transport"
)

func newConsole(t *testing.T) (*Console, *manager.Manager) {
	t.Helper()

	c := config.Config{
		Slave: config.SlaveConfig{ID: 4},
		Simulation: config.SimulationConfig{
			Slots: []config.SlotConfig{
				{Type: "none"},
				{Type: "adc", StoreAddress: 1},
			},
		},
	}
	require.NoError(t, config.Validate(&c))
	config.Normalize(&c)

	bp, err := sim.FromConfig(c.Simulation)
	require.NoError(t, err)

	lb := transport.NewLoopback()
	m, err := manager.New(c, bp, lb)
	require.NoError(t, err)
	lb.Pump = m.Process

	return &Console{Client: master.New(4, lb)}, m
}

func TestConsole_Boards(t *testing.T) {
	con, _ := newConsole(t)

	out, err := con.Boards()
	require.NoError(t, err)
	require.Equal(t, "0: slot 1 adc", out)
}

func TestConsole_ReadGlobals(t *testing.T) {
	con, _ := newConsole(t)

	out, err := con.Read("in", 0, 2)
	require.NoError(t, err)
	require.Equal(t, "0x0000: 0x0001 (1)\n0x0001: 0x0002 (2)", out)

	_, err = con.Read("coils", 0, 1)
	require.Error(t, err)
}

func TestConsole_RateAndSample(t *testing.T) {
	con, m := newConsole(t)

	out, err := con.Rate(25)
	require.NoError(t, err)
	require.Equal(t, "25 Hz", out)

	_, err = con.Rate(2000)
	require.Error(t, err)

	m.IRQ().Raise(manager.LineTick)
	require.NoError(t, m.Process())

	out, err = con.Sample(1, 0)
	require.NoError(t, err)
	require.Contains(t, out, "slot 1 ch 0: 0x00810000")
}

func TestConsole_WriteHolding(t *testing.T) {
	con, _ := newConsole(t)

	addr := con.Client.BoardAddress(1, board.ADCFilter)
	require.NoError(t, con.Write(addr, []uint16{2}))

	out, err := con.Read("hold", addr, 1)
	require.NoError(t, err)
	require.Contains(t, out, "0x0002")

	require.Error(t, con.Write(addr, nil))
}

func TestParseHelpers(t *testing.T) {
	v, err := parseUint16("0x1005", "ADDR")
	require.NoError(t, err)
	require.Equal(t, uint16(0x1005), v)

	_, err = parseUint16("70000", "ADDR")
	require.Error(t, err)

	_, err = parseSlot("4")
	require.Error(t, err)
	s, err := parseSlot("3")
	require.NoError(t, err)
	require.Equal(t, uint8(3), s)
}
