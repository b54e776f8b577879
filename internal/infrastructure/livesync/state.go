package livesync

// State is the lifecycle of one screen's live list.
type State int

const (
	StateDetached State = iota
	StateAttaching
	StateLive
	StateDegraded
)

func (s State) String() string {
	switch s {
	case StateDetached:
		return "detached"
	case StateAttaching:
		return "attaching"
	case StateLive:
		return "live"
	case StateDegraded:
		return "degraded"
	}
	return "unknown"
}

// Degraded is terminal until the screen is re-activated.
var transitions = map[State][]State{
	StateDetached:  {StateAttaching},
	StateAttaching: {StateLive, StateDegraded, StateDetached},
	StateLive:      {StateDegraded, StateDetached},
	StateDegraded:  {StateDetached},
}

func canTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
