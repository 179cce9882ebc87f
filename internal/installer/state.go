package installer

import "fmt"

type State string

const (
	Uninstalled  State = "uninstalled"
	Installing   State = "installing"
	Installed    State = "installed"
	Uninstalling State = "uninstalling"
)

// Failed operations fall back to the state they started from, so every
// in-progress state may return to its origin.
var transitions = map[State][]State{
	Uninstalled:  {Installing},
	Installing:   {Installed, Uninstalled},
	Installed:    {Installing, Uninstalling},
	Uninstalling: {Uninstalled, Installed},
}

func canTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func checkTransition(from, to State) error {
	if !canTransition(from, to) {
		return fmt.Errorf("INS_STATE: illegal transition %s -> %s", from, to)
	}
	return nil
}
