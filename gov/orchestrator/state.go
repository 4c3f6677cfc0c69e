package orchestrator

// State is the phase of an orchestration run.
type State uint8

const (
	Start State = iota
	Deploying
	Wiring
	Bootstrapping
	WritingManifest
	Done
	Failed
)

var stateNames = [...]string{
	Start:           "start",
	Deploying:       "deploying",
	Wiring:          "wiring",
	Bootstrapping:   "bootstrapping",
	WritingManifest: "writing-manifest",
	Done:            "done",
	Failed:          "failed",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == Done || s == Failed
}

// next is the only forward transition out of each non-terminal state.
var next = map[State]State{
	Start:           Deploying,
	Deploying:       Wiring,
	Wiring:          Bootstrapping,
	Bootstrapping:   WritingManifest,
	WritingManifest: Done,
}

// canTransition reports whether from -> to is allowed. Failed is reachable
// from any non-terminal state; terminal states never move.
func canTransition(from, to State) bool {
	if from.Terminal() {
		return false
	}
	if to == Failed {
		return true
	}
	return next[from] == to
}
