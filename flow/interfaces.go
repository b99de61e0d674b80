package flow

import (
	"context"
	"strconv"
)

// ChatTarget identifies a telegram chat, either by numeric id or by a
// public @channel username.
type ChatTarget struct {
	ID       int64
	Username string
}

func (t ChatTarget) IsZero() bool {
	return t.ID == 0 && t.Username == ""
}

func (t ChatTarget) String() string {
	if t.Username != "" {
		return t.Username
	}
	return strconv.FormatInt(t.ID, 10)
}

// MessageRef is a handle to a message the bot has sent, used to edit or
// delete it later.
type MessageRef struct {
	Chat      ChatTarget
	MessageID int
}

func (r MessageRef) IsZero() bool {
	return r.MessageID == 0
}

// Action is a button offered under a prompt.
type Action struct {
	Label  string
	Button Button
}

// Messenger abstracts the chat transport the engine talks through.
type Messenger interface {
	SendPrompt(ctx context.Context, to ChatTarget, text string, actions []Action) (MessageRef, error)
	EditPrompt(ctx context.Context, ref MessageRef, text string, actions []Action) (MessageRef, error)
	SendMediaGroup(ctx context.Context, to ChatTarget, items []MediaItem, caption string) (MessageRef, error)
	DeleteMessage(ctx context.Context, ref MessageRef) error
}

// TextProvider resolves localized message texts. Unknown keys must come
// back as a visible placeholder rather than an empty string.
type TextProvider interface {
	Resolve(key, lang string, params map[string]string) string
}

// PostStatus is the lifecycle status of a persisted ad.
type PostStatus string

const (
	StatusPending         PostStatus = "pending"
	StatusPublished       PostStatus = "published"
	StatusFailedNoMessage PostStatus = "failed_to_publish_no_message_sent"
	StatusFailedException PostStatus = "failed_to_publish_exception"
)

// Store persists finished ads and per-user language preferences.
type Store interface {
	GetUserLanguage(userID int64) (string, error)
	SetUserLanguage(userID int64, lang, firstName, username string) error
	SaveDraft(s *Session) (int64, error)
	UpdateStatus(postID int64, status PostStatus, channelMessageID int) error
}

// Formatter renders the collected session data into the ad text shown in
// the preview and published to the feed.
type Formatter interface {
	RenderSummary(s *Session) string
}

// FeedNotifier is told about successfully published ads. Notification is
// best effort; a failure never affects the user-visible outcome.
type FeedNotifier interface {
	NotifyPublished(ctx context.Context, postID int64, s *Session, feedRef MessageRef) error
}

// Language is a selectable bot language.
type Language struct {
	Code  string
	Label string
}
