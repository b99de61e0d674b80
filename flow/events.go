package flow

// EventKind is the source of an incoming conversation event.
type EventKind int

const (
	EventText EventKind = iota
	EventButton
	EventMedia
	EventCancel
	EventTimeout
)

func (k EventKind) String() string {
	switch k {
	case EventText:
		return "text"
	case EventButton:
		return "button"
	case EventMedia:
		return "media"
	case EventCancel:
		return "cancel"
	case EventTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// ButtonKind identifies a pressed inline button. Arg carries the
// parameter for the parametric kinds.
type ButtonKind int

const (
	ButtonNone ButtonKind = iota
	ButtonLang              // Arg: language code
	ButtonCategory          // Arg: category key
	ButtonChoice            // Arg: option key of the current choice step
	ButtonSkip
	ButtonDoneMedia
	ButtonClearMedia
	ButtonPost
	ButtonEdit
	ButtonCancel
	ButtonEditField // Arg: field id
	ButtonBackToPreview
)

type Button struct {
	Kind ButtonKind
	Arg  string
}

// Event is one external input to the conversation: a text message, a
// button press, an uploaded media item, a /cancel, or an inactivity
// timeout.
type Event struct {
	Kind   EventKind
	Text   string
	Button Button
	Media  MediaItem

	// Ref is the message carrying the pressed inline keyboard, set for
	// button events. Prompts are edited in place when it is known.
	Ref MessageRef
}
