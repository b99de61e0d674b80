package main

import (
	"context"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sardorm/telegram-elon-bot/flow"
	"github.com/sardorm/telegram-elon-bot/format"
	"github.com/sardorm/telegram-elon-bot/locale"
)

type botApiMock struct {
	mock.Mock
}

func (m *botApiMock) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	return args.Get(0).(tgbotapi.Message), args.Error(1)
}

func (m *botApiMock) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	args := m.Called(c)
	return args.Get(0).(*tgbotapi.APIResponse), args.Error(1)
}

func (m *botApiMock) SendMediaGroup(cfg tgbotapi.MediaGroupConfig) ([]tgbotapi.Message, error) {
	args := m.Called(cfg)
	return args.Get(0).([]tgbotapi.Message), args.Error(1)
}

// memStore is an in-memory flow.Store.
type memStore struct {
	langs  map[int64]string
	drafts int64
}

func newMemStore() *memStore {
	return &memStore{langs: map[int64]string{}}
}

func (m *memStore) GetUserLanguage(userID int64) (string, error) {
	return m.langs[userID], nil
}

func (m *memStore) SetUserLanguage(userID int64, lang, firstName, username string) error {
	m.langs[userID] = lang
	return nil
}

func (m *memStore) SaveDraft(s *flow.Session) (int64, error) {
	m.drafts++
	return m.drafts, nil
}

func (m *memStore) UpdateStatus(postID int64, status flow.PostStatus, channelMessageID int) error {
	return nil
}

func setup(t *testing.T) (*botApiMock, *memStore, *Bot) {
	t.Helper()
	tg := new(botApiMock)
	store := newMemStore()

	texts, err := locale.NewProvider("uz")
	require.NoError(t, err)

	settings := flow.Settings{
		DefaultLanguage:      "uz",
		Languages:            locale.Supported(),
		MaxMediaItems:        10,
		MaxDescriptionLength: 1000,
		FeedChat:             flow.ChatTarget{Username: "@feed"},
		FeedIsChannel:        true,
	}
	engine := flow.NewEngine(newTelegramMessenger(tg), texts, store, format.New(texts), settings)
	return tg, store, NewBot(tg, engine)
}

func makeUpdateWithMessageText(userID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: makeMessage(userID, text)}
}

func makeMessage(userID int64, text string) *tgbotapi.Message {
	msg := &tgbotapi.Message{
		From: &tgbotapi.User{ID: userID, FirstName: "Alice", UserName: "alice"},
		Chat: &tgbotapi.Chat{ID: userID},
		Text: text,
	}
	if len(text) > 0 && text[0] == '/' {
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}}
	}
	return msg
}

func makeCallbackUpdate(userID int64, data string, messageID int) tgbotapi.Update {
	return tgbotapi.Update{
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:   "cb-1",
			From: &tgbotapi.User{ID: userID, FirstName: "Alice", UserName: "alice"},
			Data: data,
			Message: &tgbotapi.Message{
				MessageID: messageID,
				Chat:      &tgbotapi.Chat{ID: userID},
			},
		},
	}
}

func TestStartCommandSendsLanguagePrompt(t *testing.T) {
	tg, _, bot := setup(t)

	var sent tgbotapi.MessageConfig
	tg.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		msg, ok := c.(tgbotapi.MessageConfig)
		if ok {
			sent = msg
		}
		return ok
	})).Return(tgbotapi.Message{MessageID: 1}, nil)

	bot.HandleUpdate(context.Background(), makeUpdateWithMessageText(1, "/start"))

	tg.AssertExpectations(t)
	assert.Contains(t, sent.Text, "tilingizni tanlang")

	markup, ok := sent.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	var buttons []tgbotapi.InlineKeyboardButton
	for _, row := range markup.InlineKeyboard {
		buttons = append(buttons, row...)
	}
	require.Len(t, buttons, 3)
	assert.Equal(t, "lang:en", *buttons[0].CallbackData)
}

func TestStartSkipsLanguageForKnownUser(t *testing.T) {
	tg, store, bot := setup(t)
	store.langs[1] = "en"

	var sent tgbotapi.MessageConfig
	tg.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		msg, ok := c.(tgbotapi.MessageConfig)
		if ok {
			sent = msg
		}
		return ok
	})).Return(tgbotapi.Message{MessageID: 1}, nil)

	bot.HandleUpdate(context.Background(), makeUpdateWithMessageText(1, "/start"))

	assert.Equal(t, "What do you want to sell?", sent.Text)
}

func TestLanguageCallbackRoutedToEngine(t *testing.T) {
	tg, store, bot := setup(t)

	tg.On("Send", mock.Anything).Return(tgbotapi.Message{MessageID: 2}, nil)
	tg.On("Request", mock.Anything).Return(&tgbotapi.APIResponse{Ok: true}, nil)

	ctx := context.Background()
	bot.HandleUpdate(ctx, makeUpdateWithMessageText(1, "/start"))
	bot.HandleUpdate(ctx, makeCallbackUpdate(1, "lang:ru", 1))

	assert.Equal(t, "ru", store.langs[1])

	s := bot.session(1, &tgbotapi.User{ID: 1})
	s.Lock()
	defer s.Unlock()
	assert.Equal(t, "ru", s.Lang)
	assert.Equal(t, flow.StateCategorySelect, s.State)
}

func TestHelpCommandRepliesWithoutTouchingFlow(t *testing.T) {
	tg, store, bot := setup(t)
	store.langs[1] = "en"

	tg.On("Send", mock.Anything).Return(tgbotapi.Message{MessageID: 1}, nil)

	ctx := context.Background()
	bot.HandleUpdate(ctx, makeUpdateWithMessageText(1, "/start"))
	bot.HandleUpdate(ctx, makeUpdateWithMessageText(1, "/help"))

	s := bot.session(1, &tgbotapi.User{ID: 1})
	s.Lock()
	defer s.Unlock()
	assert.Equal(t, flow.StateCategorySelect, s.State)
}

func TestCancelCommandClearsFlow(t *testing.T) {
	tg, store, bot := setup(t)
	store.langs[1] = "en"

	tg.On("Send", mock.Anything).Return(tgbotapi.Message{MessageID: 1}, nil)
	tg.On("Request", mock.Anything).Return(&tgbotapi.APIResponse{Ok: true}, nil)

	ctx := context.Background()
	bot.HandleUpdate(ctx, makeUpdateWithMessageText(1, "/start"))
	bot.HandleUpdate(ctx, makeCallbackUpdate(1, "cat:cars", 1))
	bot.HandleUpdate(ctx, makeUpdateWithMessageText(1, "/cancel"))

	s := bot.session(1, &tgbotapi.User{ID: 1})
	s.Lock()
	defer s.Unlock()
	assert.Equal(t, flow.StateNone, s.State)
	assert.Empty(t, s.Category)
}

func TestPhotoMessageBecomesMediaEvent(t *testing.T) {
	tg, store, bot := setup(t)
	store.langs[1] = "en"

	tg.On("Send", mock.Anything).Return(tgbotapi.Message{MessageID: 1}, nil)
	tg.On("Request", mock.Anything).Return(&tgbotapi.APIResponse{Ok: true}, nil)

	ctx := context.Background()
	bot.HandleUpdate(ctx, makeUpdateWithMessageText(1, "/start"))
	bot.HandleUpdate(ctx, makeCallbackUpdate(1, "cat:other", 1))
	bot.HandleUpdate(ctx, makeUpdateWithMessageText(1, "Old bicycle"))
	bot.HandleUpdate(ctx, makeUpdateWithMessageText(1, "500"))
	bot.HandleUpdate(ctx, makeUpdateWithMessageText(1, "Tashkent"))
	bot.HandleUpdate(ctx, makeCallbackUpdate(1, "skip", 2))

	photoMsg := makeMessage(1, "")
	photoMsg.Photo = []tgbotapi.PhotoSize{
		{FileID: "small", Width: 90},
		{FileID: "large", Width: 800},
	}
	bot.HandleUpdate(ctx, tgbotapi.Update{Message: photoMsg})

	s := bot.session(1, &tgbotapi.User{ID: 1})
	s.Lock()
	defer s.Unlock()
	require.Len(t, s.Media, 1)
	assert.Equal(t, "large", s.Media[0].FileID)
	assert.Equal(t, flow.MediaPhoto, s.Media[0].Type)
}

func TestUnparseableCallbackIgnored(t *testing.T) {
	tg, store, bot := setup(t)
	store.langs[1] = "en"

	tg.On("Send", mock.Anything).Return(tgbotapi.Message{MessageID: 1}, nil)
	tg.On("Request", mock.Anything).Return(&tgbotapi.APIResponse{Ok: true}, nil)

	ctx := context.Background()
	bot.HandleUpdate(ctx, makeUpdateWithMessageText(1, "/start"))
	bot.HandleUpdate(ctx, makeCallbackUpdate(1, "bogus:stuff", 1))

	s := bot.session(1, &tgbotapi.User{ID: 1})
	s.Lock()
	defer s.Unlock()
	assert.Equal(t, flow.StateCategorySelect, s.State)
}

func TestSessionReusedPerUser(t *testing.T) {
	_, _, bot := setup(t)

	first := bot.session(1, &tgbotapi.User{ID: 7, FirstName: "Bob"})
	second := bot.session(1, &tgbotapi.User{ID: 7, FirstName: "Bob"})
	other := bot.session(2, &tgbotapi.User{ID: 8, FirstName: "Eve"})

	assert.Same(t, first, second)
	assert.NotSame(t, first, other)
}
