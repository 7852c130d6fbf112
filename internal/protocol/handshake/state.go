package handshake

// State is a handshake engine state.
type State int

const (
	StateInit State = iota
	StateCertVerified
	StateKeyExchanged
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateCertVerified:
		return "CERT_VERIFIED"
	case StateKeyExchanged:
		return "KEY_EXCHANGED"
	case StateReady:
		return "READY"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}
