package main

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/sardorm/telegram-elon-bot/flow"
)

// Bot routes telegram updates into conversation events and keeps the
// per-user session registry.
type Bot struct {
	tg     BotAPI
	engine *flow.Engine

	mu       sync.Mutex
	sessions map[int64]*flow.Session
}

func NewBot(tg BotAPI, engine *flow.Engine) *Bot {
	return &Bot{
		tg:       tg,
		engine:   engine,
		sessions: make(map[int64]*flow.Session),
	}
}

// session returns the user's session, creating one on first contact.
func (b *Bot) session(chatID int64, from *tgbotapi.User) *flow.Session {
	b.mu.Lock()
	defer b.mu.Unlock()

	if s, ok := b.sessions[from.ID]; ok {
		return s
	}
	s := flow.NewSession(from.ID, flow.ChatTarget{ID: chatID}, from.FirstName, from.UserName, "")
	b.sessions[from.ID] = s
	log.Info().Int64("userId", from.ID).Msg("new user session created")
	return s
}

func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.From == nil {
		return
	}
	s := b.session(message.Chat.ID, message.From)
	s.Lock()
	defer s.Unlock()

	if message.IsCommand() {
		b.handleCommand(ctx, s, message)
		return
	}

	switch {
	case len(message.Photo) > 0:
		// Telegram sends several sizes of the same photo; the last one
		// is the largest.
		largest := message.Photo[len(message.Photo)-1]
		b.engine.HandleEvent(ctx, s, flow.Event{
			Kind:  flow.EventMedia,
			Media: flow.MediaItem{Type: flow.MediaPhoto, FileID: largest.FileID},
		})
	case message.Video != nil:
		b.engine.HandleEvent(ctx, s, flow.Event{
			Kind:  flow.EventMedia,
			Media: flow.MediaItem{Type: flow.MediaVideo, FileID: message.Video.FileID},
		})
	case message.Text != "":
		b.engine.HandleEvent(ctx, s, flow.Event{Kind: flow.EventText, Text: message.Text})
	}
}

func (b *Bot) handleCommand(ctx context.Context, s *flow.Session, message *tgbotapi.Message) {
	command := message.Command()
	log.Info().Int64("userId", s.UserID).Str("command", command).Msg("got command")

	switch command {
	case "start":
		b.engine.Start(ctx, s)
	case "language":
		b.engine.StartLanguageChange(ctx, s)
	case "help":
		b.engine.Help(ctx, s)
	case "cancel":
		b.engine.HandleEvent(ctx, s, flow.Event{Kind: flow.EventCancel})
	default:
		log.Info().Str("command", command).Msg("unknown command ignored")
	}
}

func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if query.From == nil {
		return
	}

	// Stop the client-side spinner regardless of what the press does.
	if _, err := b.tg.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		log.Warn().Err(err).Msg("failed to answer callback query")
	}

	btn, ok := parseButton(query.Data)
	if !ok {
		log.Warn().Str("data", query.Data).Msg("unparseable callback data")
		return
	}

	var chatID int64
	ev := flow.Event{Kind: flow.EventButton, Button: btn}
	if query.Message != nil {
		chatID = query.Message.Chat.ID
		ev.Ref = flow.MessageRef{
			Chat:      flow.ChatTarget{ID: query.Message.Chat.ID},
			MessageID: query.Message.MessageID,
		}
	}

	s := b.session(chatID, query.From)
	s.Lock()
	defer s.Unlock()
	b.engine.HandleEvent(ctx, s, ev)
}

// Command defines a bot command and its Telegram menu description.
type Command struct {
	Name        string
	Description string
}

var botCommands = []Command{
	{Name: "start", Description: "Create a new ad"},
	{Name: "language", Description: "Change language"},
	{Name: "help", Description: "How the bot works"},
	{Name: "cancel", Description: "Cancel the current ad"},
}

// RegisterCommands sets the bot's command menu in Telegram. Called once
// at startup.
func RegisterCommands(tg BotAPI) {
	commands := make([]tgbotapi.BotCommand, len(botCommands))
	for i, cmd := range botCommands {
		commands[i] = tgbotapi.BotCommand{Command: cmd.Name, Description: cmd.Description}
	}

	config := tgbotapi.NewSetMyCommands(commands...)
	if _, err := tg.Request(config); err != nil {
		log.Error().Err(err).Msg("failed to set bot commands")
	} else {
		log.Info().Int("count", len(commands)).Msg("registered bot commands")
	}
}
