// internal/slave/notifier.go
package slave

import "github.com/tamzrod/modbus-fleet/internal/regmap"

// WriteEvent describes the registers touched by one successful write.
type WriteEvent struct {
	Bank  regmap.Kind
	Start uint16
	Count uint16
}

// Addresses lists the written addresses, start + i for register i.
func (ev WriteEvent) Addresses() []uint16 {
	out := make([]uint16, 0, ev.Count)
	for i := uint16(0); i < ev.Count; i++ {
		out = append(out, ev.Start+i)
	}
	return out
}

// Notifier is a single edge-triggered write flag.
// A raise that is not yet taken is overwritten by the next one.
type Notifier struct {
	pending bool
	ev      WriteEvent
}

func (n *Notifier) Raise(ev WriteEvent) {
	n.ev = ev
	n.pending = true
}

// Take consumes the flag. It reports false if nothing is pending.
func (n *Notifier) Take() (WriteEvent, bool) {
	if !n.pending {
		return WriteEvent{}, false
	}
	n.pending = false
	return n.ev, true
}

func (n *Notifier) Pending() bool { return n.pending }
