// internal/slave/fake_test.go
package slave

import (
	"time"

	"github.com/tamzrod/modbus-fleet/internal/regmap"
)

// ---- fake transport ----

type fakeTransport struct {
	rx []byte
	tx [][]byte

	failWrite error
}

func (f *fakeTransport) feed(b []byte) { f.rx = append(f.rx, b...) }

func (f *fakeTransport) TryReadByte() (byte, bool) {
	if len(f.rx) == 0 {
		return 0, false
	}
	b := f.rx[0]
	f.rx = f.rx[1:]
	return b, true
}

func (f *fakeTransport) Write(p []byte) (int, error) {
	if f.failWrite != nil {
		return 0, f.failWrite
	}
	f.tx = append(f.tx, append([]byte(nil), p...))
	return len(p), nil
}

// ---- fake clock ----

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

// ---- fixtures ----

// testMap builds a map with holding 0x1005..0x1006, input 0x1005..0x1008,
// coils 0..15 and no contacts bank.
func testMap() *regmap.Map {
	hold := regmap.NewBank(regmap.HoldingRegisters, 2)
	_ = hold.Add(0x1005, 0x1234)
	_ = hold.Add(0x1006, 0xABCD)

	in := regmap.NewBank(regmap.InputRegisters, 4)
	for i := uint16(0); i < 4; i++ {
		_ = in.Add(0x1005+i, 100+i)
	}

	coils := regmap.NewBank(regmap.Coils, 16)
	for i := uint16(0); i < 16; i++ {
		_ = coils.Add(i, 0)
	}

	return regmap.New(hold, in, coils)
}
