package domain

// ActionKind names a control affordance attached to an outbound prompt.
// The transport renders these as whatever its medium supports (buttons,
// quick replies, slash commands).
type ActionKind string

const (
	ActionConfirm ActionKind = "confirm"
	ActionCancel  ActionKind = "cancel"
	ActionPause   ActionKind = "pause"
	ActionResume  ActionKind = "resume"
	ActionEnd     ActionKind = "end"
)

// Option is one selectable owner in a disambiguation prompt.
type Option struct {
	Owner ParticipantID
	Label string
}

// Prompt is a single outbound message to one participant, optionally
// carrying control affordances or selection options.
type Prompt struct {
	Text    string
	Actions []ActionKind
	Options []Option
}

// TextPrompt builds a plain prompt with no affordances.
func TextPrompt(text string) Prompt {
	return Prompt{Text: text}
}

// ControlPrompt builds a prompt carrying control affordances.
func ControlPrompt(text string, actions ...ActionKind) Prompt {
	return Prompt{Text: text, Actions: actions}
}

// SessionControls is the standard keyboard offered inside an active session.
func SessionControls() []ActionKind {
	return []ActionKind{ActionPause, ActionEnd}
}

// PausedControls is the keyboard offered while a session is paused.
func PausedControls() []ActionKind {
	return []ActionKind{ActionResume, ActionEnd}
}
