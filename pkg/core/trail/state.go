package trail

import "math"

// Step is one lesson or exercise in a course, in display order.
type Step struct {
	ID       string
	Status   Status
	Progress float64 // percentage in [0,100]; only meaningful on the active step
}

// NodeState is the status-derived part of a node.
type NodeState struct {
	ID        string
	Completed bool
	Active    bool
	Unlocked  bool
	Progress  float64
}

// ActiveIndex returns the index of the first in-progress step, else the
// first step that is not completed, else -1.
func ActiveIndex(steps []Step) int {
	firstOpen := -1
	for i, s := range steps {
		switch s.Status {
		case InProgress:
			return i
		case Completed:
		default:
			if firstOpen < 0 {
				firstOpen = i
			}
		}
	}
	return firstOpen
}

// DeriveStates computes completion, activity and unlock flags for every step.
// At most one state is Active. Progress is carried over, clamped to [0,100],
// on the active state only.
func DeriveStates(steps []Step) []NodeState {
	active := ActiveIndex(steps)
	states := make([]NodeState, len(steps))
	for i, s := range steps {
		st := NodeState{
			ID:        s.ID,
			Completed: s.Status == Completed,
			Active:    i == active,
		}
		st.Unlocked = i == 0 || st.Active || steps[i-1].Status == Completed
		if st.Active {
			st.Progress = clampPercent(s.Progress)
		}
		states[i] = st
	}
	return states
}

func clampPercent(p float64) float64 {
	switch {
	case math.IsNaN(p), p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}
