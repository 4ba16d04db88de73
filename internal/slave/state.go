// internal/slave/state.go
package slave

// State is the per-request protocol state.
type State uint8

const (
	Idle State = iota
	RequestReceived
	Validated
	RepliedOrExcepted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case RequestReceived:
		return "request-received"
	case Validated:
		return "validated"
	case RepliedOrExcepted:
		return "replied"
	default:
		return "unknown"
	}
}
