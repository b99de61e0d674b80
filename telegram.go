package main

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/sardorm/telegram-elon-bot/flow"
)

// BotAPI is the subset of the telegram client the bot uses. Tests mock
// it.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	SendMediaGroup(cfg tgbotapi.MediaGroupConfig) ([]tgbotapi.Message, error)
}

// telegramMessenger implements flow.Messenger over the bot API.
type telegramMessenger struct {
	tg BotAPI
}

func newTelegramMessenger(tg BotAPI) *telegramMessenger {
	return &telegramMessenger{tg: tg}
}

func chatTargetBase(to flow.ChatTarget) tgbotapi.BaseChat {
	return tgbotapi.BaseChat{ChatID: to.ID, ChannelUsername: to.Username}
}

func (m *telegramMessenger) SendPrompt(ctx context.Context, to flow.ChatTarget, text string, actions []flow.Action) (flow.MessageRef, error) {
	msg := tgbotapi.MessageConfig{
		BaseChat:  chatTargetBase(to),
		Text:      text,
		ParseMode: tgbotapi.ModeMarkdown,
	}
	if len(actions) > 0 {
		msg.ReplyMarkup = actionsToKeyboard(actions)
	}
	sent, err := m.tg.Send(msg)
	if err != nil {
		return flow.MessageRef{}, fmt.Errorf("sending message: %w", err)
	}
	return flow.MessageRef{Chat: to, MessageID: sent.MessageID}, nil
}

func (m *telegramMessenger) EditPrompt(ctx context.Context, ref flow.MessageRef, text string, actions []flow.Action) (flow.MessageRef, error) {
	var edit tgbotapi.EditMessageTextConfig
	if len(actions) > 0 {
		edit = tgbotapi.NewEditMessageTextAndMarkup(ref.Chat.ID, ref.MessageID, text, actionsToKeyboard(actions))
	} else {
		edit = tgbotapi.NewEditMessageText(ref.Chat.ID, ref.MessageID, text)
	}
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := m.tg.Send(edit); err != nil {
		return flow.MessageRef{}, fmt.Errorf("editing message %d: %w", ref.MessageID, err)
	}
	return ref, nil
}

// SendMediaGroup sends the items as an album with the caption on the
// first item, and returns a ref to the album's first message.
func (m *telegramMessenger) SendMediaGroup(ctx context.Context, to flow.ChatTarget, items []flow.MediaItem, caption string) (flow.MessageRef, error) {
	var media []interface{}
	for i, item := range items {
		switch item.Type {
		case flow.MediaVideo:
			v := tgbotapi.NewInputMediaVideo(tgbotapi.FileID(item.FileID))
			if i == 0 {
				v.Caption = caption
				v.ParseMode = tgbotapi.ModeMarkdown
			}
			media = append(media, v)
		default:
			p := tgbotapi.NewInputMediaPhoto(tgbotapi.FileID(item.FileID))
			if i == 0 {
				p.Caption = caption
				p.ParseMode = tgbotapi.ModeMarkdown
			}
			media = append(media, p)
		}
	}

	cfg := tgbotapi.MediaGroupConfig{
		ChatID:          to.ID,
		ChannelUsername: to.Username,
		Media:           media,
	}
	messages, err := m.tg.SendMediaGroup(cfg)
	if err != nil {
		return flow.MessageRef{}, fmt.Errorf("sending media group: %w", err)
	}
	if len(messages) == 0 {
		return flow.MessageRef{}, nil
	}
	return flow.MessageRef{Chat: to, MessageID: messages[0].MessageID}, nil
}

func (m *telegramMessenger) DeleteMessage(ctx context.Context, ref flow.MessageRef) error {
	cfg := tgbotapi.NewDeleteMessage(ref.Chat.ID, ref.MessageID)
	if _, err := m.tg.Request(cfg); err != nil {
		return fmt.Errorf("deleting message %d: %w", ref.MessageID, err)
	}
	return nil
}

// actionsToKeyboard lays buttons out two per row.
func actionsToKeyboard(actions []flow.Action) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	row := []tgbotapi.InlineKeyboardButton{}
	for _, a := range actions {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(a.Label, encodeButton(a.Button)))
		if len(row) == 2 {
			rows = append(rows, row)
			row = []tgbotapi.InlineKeyboardButton{}
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// Callback data is "kind" or "kind:arg".
func encodeButton(b flow.Button) string {
	switch b.Kind {
	case flow.ButtonLang:
		return "lang:" + b.Arg
	case flow.ButtonCategory:
		return "cat:" + b.Arg
	case flow.ButtonChoice:
		return "opt:" + b.Arg
	case flow.ButtonSkip:
		return "skip"
	case flow.ButtonDoneMedia:
		return "media_done"
	case flow.ButtonClearMedia:
		return "media_clear"
	case flow.ButtonPost:
		return "post"
	case flow.ButtonEdit:
		return "edit"
	case flow.ButtonCancel:
		return "cancel"
	case flow.ButtonEditField:
		return "edit_field:" + b.Arg
	case flow.ButtonBackToPreview:
		return "back"
	}
	return ""
}

func parseButton(data string) (flow.Button, bool) {
	kind, arg, _ := strings.Cut(data, ":")
	switch kind {
	case "lang":
		if arg == "" {
			return flow.Button{}, false
		}
		return flow.Button{Kind: flow.ButtonLang, Arg: arg}, true
	case "cat":
		if arg == "" {
			return flow.Button{}, false
		}
		return flow.Button{Kind: flow.ButtonCategory, Arg: arg}, true
	case "opt":
		if arg == "" {
			return flow.Button{}, false
		}
		return flow.Button{Kind: flow.ButtonChoice, Arg: arg}, true
	case "skip":
		return flow.Button{Kind: flow.ButtonSkip}, true
	case "media_done":
		return flow.Button{Kind: flow.ButtonDoneMedia}, true
	case "media_clear":
		return flow.Button{Kind: flow.ButtonClearMedia}, true
	case "post":
		return flow.Button{Kind: flow.ButtonPost}, true
	case "edit":
		return flow.Button{Kind: flow.ButtonEdit}, true
	case "cancel":
		return flow.Button{Kind: flow.ButtonCancel}, true
	case "edit_field":
		if arg == "" {
			return flow.Button{}, false
		}
		return flow.Button{Kind: flow.ButtonEditField, Arg: arg}, true
	case "back":
		return flow.Button{Kind: flow.ButtonBackToPreview}, true
	}
	return flow.Button{}, false
}
