package core

// Action represents a semantic control action, abstracted from physical key presses.
type Action int

const (
	ActionNone    Action = iota
	ActionLeft           // A, Left arrow - steer left
	ActionRight          // D, Right arrow - steer right
	ActionConfirm        // Enter - confirm
	ActionRestart        // R key - restart after game over
	ActionEnd            // E key - end the run explicitly
	ActionQuit           // Q, Ctrl+C - exit
	ActionPause          // P, Escape - pause/unpause
)

// String returns a human-readable name for the action.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "None"
	case ActionLeft:
		return "Left"
	case ActionRight:
		return "Right"
	case ActionConfirm:
		return "Confirm"
	case ActionRestart:
		return "Restart"
	case ActionEnd:
		return "End"
	case ActionQuit:
		return "Quit"
	case ActionPause:
		return "Pause"
	default:
		return "Unknown"
	}
}

// InputFrame is the input state for a single simulation tick.
// Lateral is the normalized steering intent in [-1, 1]; discrete actions
// such as pause are carried in Actions.
type InputFrame struct {
	Lateral float64
	Actions map[Action]bool
}

// NewInputFrame creates an empty input frame.
func NewInputFrame() InputFrame {
	return InputFrame{
		Actions: make(map[Action]bool),
	}
}

// Set marks an action as triggered for this frame.
// Left and Right also set the lateral intent.
func (f *InputFrame) Set(a Action) {
	if f.Actions == nil {
		f.Actions = make(map[Action]bool)
	}
	f.Actions[a] = true
	switch a {
	case ActionLeft:
		f.Lateral = -1
	case ActionRight:
		f.Lateral = 1
	}
}

// Steer sets the lateral intent, clamped to [-1, 1].
func (f *InputFrame) Steer(intent float64) {
	f.Lateral = ClampF(intent, -1, 1)
}

// Has returns true if the given action was triggered this frame.
func (f InputFrame) Has(a Action) bool {
	if f.Actions == nil {
		return false
	}
	return f.Actions[a]
}

// Intent returns the lateral intent clamped to [-1, 1].
func (f InputFrame) Intent() float64 {
	return ClampF(f.Lateral, -1, 1)
}

// Clear resets all actions and the lateral intent for the next frame.
func (f *InputFrame) Clear() {
	for k := range f.Actions {
		delete(f.Actions, k)
	}
	f.Lateral = 0
}
