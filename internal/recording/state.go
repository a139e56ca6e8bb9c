package recording

// State is the controller's lifecycle position.
type State int

const (
	StateIdle State = iota
	StateRecording
	StatePaused
	// StateFinalizing waits for the stream to deliver its last fragment.
	StateFinalizing
	// StateStopped is idle with an artifact ready to save.
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StatePaused:
		return "paused"
	case StateFinalizing:
		return "finalizing"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// Active reports whether a session is open.
func (s State) Active() bool {
	return s == StateRecording || s == StatePaused || s == StateFinalizing
}

const (
	LabelPause  = "Pause"
	LabelResume = "Resume"
)

// Controls is the set of actions the UI should offer in a state.
type Controls struct {
	Start      bool
	Pause      bool
	PauseLabel string
	Stop       bool
	Cancel     bool
	Save       bool
}

// Controls derives which actions are enabled in s.
func (s State) Controls() Controls {
	c := Controls{PauseLabel: LabelPause}
	switch s {
	case StateIdle:
		c.Start = true
	case StateRecording:
		c.Pause, c.Stop, c.Cancel = true, true, true
	case StatePaused:
		c.Pause, c.Stop, c.Cancel = true, true, true
		c.PauseLabel = LabelResume
	case StateFinalizing:
		c.Cancel = true
	case StateStopped:
		c.Start, c.Cancel, c.Save = true, true, true
	}
	return c
}
