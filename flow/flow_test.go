package flow

import (
	"context"
	"fmt"
)

// fakeMessenger records everything the engine sends.
type sentMsg struct {
	to      ChatTarget
	text    string
	actions []Action
}

type mediaSend struct {
	to      ChatTarget
	items   []MediaItem
	caption string
}

type fakeMessenger struct {
	sent    []sentMsg
	edited  []sentMsg
	media   []mediaSend
	deleted []MessageRef
	nextID  int

	sendErr    error
	editErr    error
	mediaErr   error
	mediaEmpty bool
}

func (m *fakeMessenger) SendPrompt(_ context.Context, to ChatTarget, text string, actions []Action) (MessageRef, error) {
	if m.sendErr != nil {
		return MessageRef{}, m.sendErr
	}
	m.nextID++
	m.sent = append(m.sent, sentMsg{to: to, text: text, actions: actions})
	return MessageRef{Chat: to, MessageID: m.nextID}, nil
}

func (m *fakeMessenger) EditPrompt(_ context.Context, ref MessageRef, text string, actions []Action) (MessageRef, error) {
	if m.editErr != nil {
		return MessageRef{}, m.editErr
	}
	m.edited = append(m.edited, sentMsg{to: ref.Chat, text: text, actions: actions})
	return ref, nil
}

func (m *fakeMessenger) SendMediaGroup(_ context.Context, to ChatTarget, items []MediaItem, caption string) (MessageRef, error) {
	if m.mediaErr != nil {
		return MessageRef{}, m.mediaErr
	}
	m.media = append(m.media, mediaSend{to: to, items: items, caption: caption})
	if m.mediaEmpty {
		return MessageRef{}, nil
	}
	m.nextID++
	return MessageRef{Chat: to, MessageID: m.nextID}, nil
}

func (m *fakeMessenger) DeleteMessage(_ context.Context, ref MessageRef) error {
	m.deleted = append(m.deleted, ref)
	return nil
}

// lastSent returns the text of the most recent SendPrompt call.
func (m *fakeMessenger) lastSent() string {
	if len(m.sent) == 0 {
		return ""
	}
	return m.sent[len(m.sent)-1].text
}

// allTexts returns every sent text followed by every edited text.
func (m *fakeMessenger) allTexts() []string {
	var out []string
	for _, s := range m.sent {
		out = append(out, s.text)
	}
	for _, s := range m.edited {
		out = append(out, s.text)
	}
	return out
}

// fakeTexts resolves every key to itself so assertions can match on
// localization keys.
type fakeTexts struct{}

func (fakeTexts) Resolve(key, lang string, params map[string]string) string {
	return key
}

// fakeFormatter renders a fixed marker.
type fakeFormatter struct{}

func (fakeFormatter) RenderSummary(s *Session) string {
	return fmt.Sprintf("summary:%s", s.Category)
}

// savedDraft is a snapshot of what SaveDraft saw, since the session is
// cleared right after publishing.
type savedDraft struct {
	userID     int64
	category   Category
	price      string
	location   string
	desc       Value
	mediaCount int
}

type fakeStore struct {
	langs    map[int64]string
	saved    []savedDraft
	nextID   int64
	statuses map[int64]PostStatus
	feedMsgs map[int64]int

	langErr error
	saveErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		langs:    map[int64]string{},
		statuses: map[int64]PostStatus{},
		feedMsgs: map[int64]int{},
	}
}

func (f *fakeStore) GetUserLanguage(userID int64) (string, error) {
	if f.langErr != nil {
		return "", f.langErr
	}
	return f.langs[userID], nil
}

func (f *fakeStore) SetUserLanguage(userID int64, lang, firstName, username string) error {
	f.langs[userID] = lang
	return nil
}

func (f *fakeStore) SaveDraft(s *Session) (int64, error) {
	if f.saveErr != nil {
		return 0, f.saveErr
	}
	f.nextID++
	f.saved = append(f.saved, savedDraft{
		userID:     s.UserID,
		category:   s.Category,
		price:      s.Price.Text,
		location:   s.Location.Text,
		desc:       s.Description,
		mediaCount: len(s.Media),
	})
	f.statuses[f.nextID] = StatusPending
	return f.nextID, nil
}

func (f *fakeStore) UpdateStatus(postID int64, status PostStatus, channelMessageID int) error {
	f.statuses[postID] = status
	if channelMessageID != 0 {
		f.feedMsgs[postID] = channelMessageID
	}
	return nil
}

type fakeNotifier struct {
	calls []int64
	err   error
}

func (f *fakeNotifier) NotifyPublished(_ context.Context, postID int64, s *Session, feedRef MessageRef) error {
	f.calls = append(f.calls, postID)
	return f.err
}
