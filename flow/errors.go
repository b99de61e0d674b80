package flow

import "errors"

// ValidationError reports user input that failed a field's validation
// rule. MessageKey names the localized reply shown to the user; the
// conversation state is left unchanged.
type ValidationError struct {
	MessageKey string
	Params     map[string]string
}

func (e *ValidationError) Error() string {
	return "invalid input: " + e.MessageKey
}

// ErrProtocol marks an event that is inconsistent with the current
// conversation state, typically a press on a stale inline keyboard.
var ErrProtocol = errors.New("event does not match conversation state")
