// internal/bus/critical.go
package bus

import "sync"

// Masker disables and restores interrupt delivery.
// Mask reports whether interrupts were already masked.
type Masker interface {
	Mask() (wasMasked bool)
	Restore(wasMasked bool)
}

// Guard is a scoped critical section. Release restores the mask state seen
// at Enter, so guards nest.
type Guard struct {
	m        Masker
	prev     bool
	released bool
}

// Enter masks interrupts until Release.
func Enter(m Masker) *Guard {
	return &Guard{m: m, prev: m.Mask()}
}

// Release is idempotent; use it with defer.
func (g *Guard) Release() {
	if g.released {
		return
	}
	g.released = true
	g.m.Restore(g.prev)
}

// IRQ is the interrupt mask of the cooperative loop. Event sources raise
// lines through Raise; a raise while masked is held until the mask is lifted.
type IRQ struct {
	mu      sync.Mutex
	masked  bool
	pending uint32
	fired   uint32
}

func (q *IRQ) Mask() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	prev := q.masked
	q.masked = true
	return prev
}

func (q *IRQ) Restore(wasMasked bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.masked = wasMasked
	if !wasMasked {
		q.fired |= q.pending
		q.pending = 0
	}
}

// Masked reports the current state.
func (q *IRQ) Masked() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.masked
}

// Raise sets the event bits in line.
func (q *IRQ) Raise(line uint32) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.masked {
		q.pending |= line
		return
	}
	q.fired |= line
}

// Take clears and reports whether line had fired.
func (q *IRQ) Take(line uint32) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.fired&line == 0 {
		return false
	}
	q.fired &^= line
	return true
}
