// internal/sim/backplane.go
package sim

import (
	"errors"
	"fmt"

	"github.com/tamzrod/modbus-fleet/internal/board"
	"github.com/tamzrod/modbus-fleet/internal/bus"
)

// Kind is what a simulated slot holds.
type Kind uint8

const (
	Empty Kind = iota
	ADCBoard
	DACBoard
	UnknownBoard // has a byte store but no known converter
)

// ParseKind accepts the config spellings.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "", "none", "empty":
		return Empty, nil
	case "adc":
		return ADCBoard, nil
	case "dac":
		return DACBoard, nil
	case "unknown":
		return UnknownBoard, nil
	}
	return Empty, fmt.Errorf("sim: unknown board kind %q", s)
}

var (
	ErrNack      = errors.New("sim: no acknowledge")
	ErrNotActive = errors.New("sim: board accessed while not active")
)

// floating is what an undriven MISO line reads.
const floating uint16 = 0xFFFF

// adcID is the identification register of the simulated converter.
const adcID uint16 = 0x30D4

type slot struct {
	kind      Kind
	storeAddr uint8
	store     *Store
	adc       *ADC
	dac       *DAC
}

// Backplane simulates four board slots behind one shared bus.
type Backplane struct {
	slots [board.SlotCount]*slot

	selected  uint8
	mode      bus.ClockMode
	storeAddr uint8

	// IRQ, when set, is checked on every reconfiguration call.
	IRQ *bus.IRQ

	Reconfigs        int
	UnmaskedReconfig int
}

func NewBackplane() *Backplane {
	return &Backplane{}
}

// Insert places a board in slot i. The store answers at storeAddr.
func (b *Backplane) Insert(i uint8, k Kind, storeAddr uint8) {
	if int(i) >= len(b.slots) {
		return
	}
	if k == Empty {
		b.slots[i] = nil
		return
	}

	s := &slot{kind: k, storeAddr: storeAddr, store: NewStore()}
	switch k {
	case ADCBoard:
		s.adc = newADC(b, i)
	case DACBoard:
		s.dac = newDAC(b, i)
	}
	b.slots[i] = s
}

// ADC returns the simulated ADC in slot i, or nil.
func (b *Backplane) ADC(i uint8) *ADC {
	if s := b.slotAt(i); s != nil {
		return s.adc
	}
	return nil
}

// DAC returns the simulated DAC in slot i, or nil.
func (b *Backplane) DAC(i uint8) *DAC {
	if s := b.slotAt(i); s != nil {
		return s.dac
	}
	return nil
}

// StoreAt returns the byte store of slot i, or nil.
func (b *Backplane) StoreAt(i uint8) *Store {
	if s := b.slotAt(i); s != nil {
		return s.store
	}
	return nil
}

func (b *Backplane) slotAt(i uint8) *slot {
	if int(i) >= len(b.slots) {
		return nil
	}
	return b.slots[i]
}

// SetIRQ attaches the mask the reconfiguration counters check.
func (b *Backplane) SetIRQ(q *bus.IRQ) { b.IRQ = q }

// Setting is the current bus configuration.
func (b *Backplane) Setting() bus.Setting {
	return bus.Setting{Slot: b.selected, Mode: b.mode, StoreAddress: b.storeAddr}
}

// ---- bus.Bus ----

func (b *Backplane) SelectSlot(i uint8) error {
	if int(i) >= len(b.slots) {
		return fmt.Errorf("sim: slot %d out of range", i)
	}
	b.noteReconfig()
	b.selected = i
	return nil
}

func (b *Backplane) SetClockMode(m bus.ClockMode) error {
	b.noteReconfig()
	b.mode = m
	return nil
}

func (b *Backplane) SetStoreAddress(a uint8) error {
	if a >= 8 {
		return fmt.Errorf("sim: store address %d out of range", a)
	}
	b.noteReconfig()
	b.storeAddr = a
	return nil
}

func (b *Backplane) noteReconfig() {
	b.Reconfigs++
	if b.IRQ != nil && !b.IRQ.Masked() {
		b.UnmaskedReconfig++
	}
}

// ---- discovery.Hardware ----

func (b *Backplane) Store() board.ByteStore {
	return storeView{b: b}
}

func (b *Backplane) ReadID() (uint16, error) {
	s := b.slotAt(b.selected)
	if s == nil || s.adc == nil || b.mode != board.TypeA.ClockMode() {
		return floating, nil
	}
	return adcID, nil
}

func (b *Backplane) ReadControl() (uint16, error) {
	s := b.slotAt(b.selected)
	if s == nil || s.dac == nil || b.mode != board.TypeB.ClockMode() {
		return floating, nil
	}
	return s.dac.ctrl, nil
}

func (b *Backplane) WriteControl(v uint16) error {
	s := b.slotAt(b.selected)
	if s == nil || s.dac == nil || b.mode != board.TypeB.ClockMode() {
		return nil
	}
	s.dac.ctrl = v
	return nil
}

func (b *Backplane) Attach(i uint8, t board.Type) (board.Device, error) {
	s := b.slotAt(i)
	if s == nil {
		return nil, fmt.Errorf("sim: slot %d empty", i)
	}
	switch {
	case t == board.TypeA && s.adc != nil:
		return s.adc, nil
	case t == board.TypeB && s.dac != nil:
		return s.dac, nil
	}
	return nil, fmt.Errorf("sim: slot %d holds no %s", i, t)
}

// requireActive fails unless the bus is configured for slot i and mode m.
func (b *Backplane) requireActive(i uint8, m bus.ClockMode) error {
	s := b.slotAt(i)
	if s == nil || b.selected != i || b.mode != m || b.storeAddr != s.storeAddr {
		return ErrNotActive
	}
	return nil
}

// ---- byte store ----

// Store is a small identification memory.
type Store struct {
	mem    map[uint16]byte
	Writes int
}

func NewStore() *Store {
	return &Store{mem: make(map[uint16]byte)}
}

func (s *Store) Peek(off uint16) byte { return s.mem[off] }

func (s *Store) Poke(off uint16, v byte) { s.mem[off] = v }

// storeView routes store access to whichever store answers on the bus.
type storeView struct{ b *Backplane }

func (v storeView) target() (*Store, error) {
	s := v.b.slotAt(v.b.selected)
	if s == nil || s.storeAddr != v.b.storeAddr {
		return nil, ErrNack
	}
	return s.store, nil
}

func (v storeView) ReadByte(off uint16) (byte, error) {
	st, err := v.target()
	if err != nil {
		return 0, err
	}
	return st.mem[off], nil
}

func (v storeView) WriteByte(off uint16, val byte) error {
	st, err := v.target()
	if err != nil {
		return err
	}
	st.mem[off] = val
	st.Writes++
	return nil
}
