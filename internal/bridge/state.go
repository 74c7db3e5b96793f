package bridge

// State is the position of a Session in its connection lifecycle.
type State int

const (
	Idle State = iota
	Connecting
	AwaitingLoginResult
	Connected
	Disconnected
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Connecting:
		return "connecting"
	case AwaitingLoginResult:
		return "awaiting-login-result"
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}
