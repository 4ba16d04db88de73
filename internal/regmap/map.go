// internal/regmap/map.go
package regmap

// Map holds the four banks. A nil bank is "not configured".
type Map struct {
	banks [4]*Bank
}

// New builds a map from the configured banks. Later banks of the same kind
// replace earlier ones.
func New(banks ...*Bank) *Map {
	m := &Map{}
	for _, b := range banks {
		if b == nil {
			continue
		}
		m.banks[b.kind] = b
	}
	return m
}

// Bank returns the bank of the given kind, or nil.
func (m *Map) Bank(k Kind) *Bank {
	if int(k) >= len(m.banks) {
		return nil
	}
	return m.banks[k]
}

// Get is a convenience lookup across banks.
func (m *Map) Get(k Kind, addr uint16) (uint16, bool) {
	b := m.Bank(k)
	if b == nil {
		return 0, false
	}
	return b.Get(addr)
}

// Set is a convenience write across banks.
func (m *Map) Set(k Kind, addr, value uint16) bool {
	b := m.Bank(k)
	if b == nil {
		return false
	}
	return b.Set(addr, value)
}
