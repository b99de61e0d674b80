package flow

import (
	"sync"
	"time"
)

// MediaType distinguishes the kinds of media an ad can carry.
type MediaType string

const (
	MediaPhoto MediaType = "photo"
	MediaVideo MediaType = "video"
)

// MediaItem is one uploaded photo or video, identified by the telegram
// file id.
type MediaItem struct {
	Type   MediaType `json:"type"`
	FileID string    `json:"file_id"`
}

// Value is one collected answer. A field is in exactly one of three
// states: not yet answered (zero Value), explicitly skipped, or holding
// validated text. Skipped is never conflated with empty text.
type Value struct {
	Text    string
	Filled  bool
	Skipped bool
}

func TextValue(text string) Value {
	return Value{Text: text, Filled: true}
}

func SkippedValue() Value {
	return Value{Skipped: true}
}

// IsSet reports whether the field has been answered, by value or by skip.
func (v Value) IsSet() bool {
	return v.Filled || v.Skipped
}

// Session is the per-user conversation state. All access goes through
// the session lock; the engine assumes the caller holds it.
type Session struct {
	UserID    int64
	Chat      ChatTarget
	FirstName string
	Username  string

	Lang     string
	State    State
	Category Category
	Fields   CategoryFields

	Price       Value
	Location    Value
	Description Value
	Media       []MediaItem

	// EditingField marks a field being re-collected from the preview's
	// edit menu. Accepting input for it routes straight back to preview
	// instead of following the flow graph.
	EditingField FieldID

	// LastPreview is the previous preview message, deleted before a new
	// preview is shown so the post/edit/cancel keyboard never appears
	// twice.
	LastPreview MessageRef

	// FlowInterrupted is set when /language arrives mid-flow. After the
	// new language is picked the draft is discarded.
	FlowInterrupted bool

	mu       sync.Mutex
	timer    *time.Timer
	timerSeq uint64
}

func NewSession(userID int64, chat ChatTarget, firstName, username, lang string) *Session {
	return &Session{
		UserID:    userID,
		Chat:      chat,
		FirstName: firstName,
		Username:  username,
		Lang:      lang,
	}
}

func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// InFlow reports whether an ad is currently being put together.
func (s *Session) InFlow() bool {
	return s.State != StateNone || s.Category != ""
}

// clear wipes all collected ad data and stops the inactivity timer.
// Identity and language preference survive.
func (s *Session) clear() {
	s.State = StateNone
	s.Category = ""
	s.Fields = nil
	s.Price = Value{}
	s.Location = Value{}
	s.Description = Value{}
	s.Media = nil
	s.EditingField = ""
	s.LastPreview = MessageRef{}
	s.FlowInterrupted = false
	s.stopTimer()
}

func (s *Session) stopTimer() {
	s.timerSeq++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// setField routes a value to its place in the session. Returns false for
// a field the current schema does not have.
func (s *Session) setField(f FieldID, v Value) bool {
	switch f {
	case FieldPrice:
		s.Price = v
	case FieldLocation:
		s.Location = v
	case FieldDescription:
		s.Description = v
	default:
		if s.Fields == nil {
			return false
		}
		return s.Fields.Set(f, v)
	}
	return true
}

func (s *Session) fieldValue(f FieldID) (Value, bool) {
	switch f {
	case FieldPrice:
		return s.Price, true
	case FieldLocation:
		return s.Location, true
	case FieldDescription:
		return s.Description, true
	}
	if s.Fields == nil {
		return Value{}, false
	}
	return s.Fields.Get(f)
}

func (s *Session) hasMedia(fileID string) bool {
	for _, m := range s.Media {
		if m.FileID == fileID {
			return true
		}
	}
	return false
}

// editableFields returns, in collection order, the fields currently
// holding a value. Skipped and unanswered fields are not offered for
// editing; media is offered whenever at least one item was uploaded.
func (s *Session) editableFields() []FieldID {
	var out []FieldID
	if s.Fields != nil {
		for _, f := range s.Fields.FieldIDs() {
			if v, ok := s.Fields.Get(f); ok && v.Filled {
				out = append(out, f)
			}
		}
	}
	for _, f := range []FieldID{FieldPrice, FieldLocation, FieldDescription} {
		if v, _ := s.fieldValue(f); v.Filled {
			out = append(out, f)
		}
	}
	if len(s.Media) > 0 {
		out = append(out, FieldMedia)
	}
	return out
}

// CategoryData returns the filled category-specific answers keyed by
// field id, for persistence and webhooks.
func (s *Session) CategoryData() map[string]string {
	out := map[string]string{}
	if s.Fields == nil {
		return out
	}
	for _, f := range s.Fields.FieldIDs() {
		if v, ok := s.Fields.Get(f); ok && v.Filled {
			out[string(f)] = v.Text
		}
	}
	return out
}
