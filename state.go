// SPDX-License-Identifier: EPL-2.0

package quadbinaural

// State is the lifecycle state of a Player.
type State int

const (
	Uninitialized State = iota
	Initialized
	AudioOpen
	Playing
	Stopped
	Released
)

var stateNames = [...]string{
	Uninitialized: "uninitialized",
	Initialized:   "initialized",
	AudioOpen:     "audio-open",
	Playing:       "playing",
	Stopped:       "stopped",
	Released:      "released",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}
