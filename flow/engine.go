// Package flow implements the guided ad creation conversation: the flow
// graph, the engine that advances a session through it, the preview and
// edit controller, and the publisher.
package flow

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
)

// Settings carries the tunables the engine needs.
type Settings struct {
	DefaultLanguage      string
	Languages            []Language
	MaxMediaItems        int
	MaxDescriptionLength int
	Timeout              time.Duration
	FeedChat             ChatTarget
	FeedIsChannel        bool
}

type Engine struct {
	messenger Messenger
	texts     TextProvider
	store     Store
	formatter Formatter
	notifier  FeedNotifier
	settings  Settings
}

func NewEngine(messenger Messenger, texts TextProvider, store Store, formatter Formatter, settings Settings) *Engine {
	return &Engine{
		messenger: messenger,
		texts:     texts,
		store:     store,
		formatter: formatter,
		settings:  settings,
	}
}

// SetFeedNotifier enables best-effort webhook notifications for
// published ads.
func (e *Engine) SetFeedNotifier(n FeedNotifier) {
	e.notifier = n
}

// Start begins the ad creation flow, restarting it when one is already
// in progress. Users with a stored language preference skip the language
// question. The caller must hold the session lock.
func (e *Engine) Start(ctx context.Context, s *Session) {
	if s.InFlow() {
		log.Info().Int64("userId", s.UserID).Str("state", s.State.String()).
			Msg("restarting conversation mid-flow")
		e.send(ctx, s, e.text(s, "conversation_restarted", nil), nil)
	}
	s.clear()

	lang, err := e.store.GetUserLanguage(s.UserID)
	if err != nil {
		log.Warn().Err(err).Int64("userId", s.UserID).Msg("could not read language preference")
	}
	if lang != "" && e.supportedLang(lang) {
		s.Lang = lang
		e.askCategory(ctx, s, MessageRef{})
	} else {
		e.askLanguage(ctx, s)
	}
	e.armTimer(s)
}

// StartLanguageChange handles the /language command. When it arrives in
// the middle of ad creation the draft is discarded after the new
// language is picked.
func (e *Engine) StartLanguageChange(ctx context.Context, s *Session) {
	if s.InFlow() && s.State != StateChangeLang && s.State != StateLangSelect {
		s.FlowInterrupted = true
	}
	e.send(ctx, s, e.text(s, "change_language_prompt", nil), e.languageActions())
	s.State = StateChangeLang
	e.armTimer(s)
}

// Help replies with the localized help text. It does not touch the flow.
func (e *Engine) Help(ctx context.Context, s *Session) {
	e.send(ctx, s, e.text(s, "help_message", nil), nil)
}

// HandleEvent advances the conversation with one external event. Invalid
// user input never surfaces as an error; it is answered with a localized
// re-prompt and the state stays put. The caller must hold the session
// lock.
func (e *Engine) HandleEvent(ctx context.Context, s *Session, ev Event) {
	switch ev.Kind {
	case EventCancel:
		e.cancel(ctx, s, ev.Ref)
		return
	case EventTimeout:
		e.expire(ctx, s)
		return
	}

	defer e.armTimer(s)

	switch s.State {
	case StateLangSelect:
		e.handleLangSelect(ctx, s, ev)
	case StateChangeLang:
		e.handleLangChange(ctx, s, ev)
	case StateCategorySelect:
		e.handleCategorySelect(ctx, s, ev)
	case StatePreview:
		e.handlePreviewAction(ctx, s, ev)
	case StateEditChoice:
		e.handleEditChoice(ctx, s, ev)
	default:
		if _, ok := steps[s.State]; ok {
			e.handleCollect(ctx, s, ev)
			return
		}
		e.protocolError(ctx, s, ev)
	}
}

func (e *Engine) handleLangSelect(ctx context.Context, s *Session, ev Event) {
	if ev.Kind != EventButton || ev.Button.Kind != ButtonLang || !e.supportedLang(ev.Button.Arg) {
		e.protocolError(ctx, s, ev)
		return
	}
	s.Lang = ev.Button.Arg
	e.persistLanguage(s)
	e.askCategory(ctx, s, ev.Ref)
}

func (e *Engine) handleLangChange(ctx context.Context, s *Session, ev Event) {
	if ev.Kind != EventButton || ev.Button.Kind != ButtonLang || !e.supportedLang(ev.Button.Arg) {
		e.protocolError(ctx, s, ev)
		return
	}
	s.Lang = ev.Button.Arg
	e.persistLanguage(s)

	text := e.text(s, "language_changed_success", map[string]string{"new_lang": e.languageLabel(s.Lang)})
	e.render(ctx, s, ev.Ref, text, nil)
	if s.FlowInterrupted {
		log.Info().Int64("userId", s.UserID).Str("lang", s.Lang).
			Msg("language changed mid-flow, discarding draft")
	}
	s.clear()
}

func (e *Engine) handleCategorySelect(ctx context.Context, s *Session, ev Event) {
	if ev.Kind != EventButton || ev.Button.Kind != ButtonCategory {
		e.protocolError(ctx, s, ev)
		return
	}
	cat := Category(ev.Button.Arg)
	start, ok := branchStart[cat]
	if !ok {
		e.protocolError(ctx, s, ev)
		return
	}

	// Re-selecting drops whatever was collected for the previous
	// category.
	s.Category = cat
	s.Fields = NewCategoryFields(cat)
	log.Info().Int64("userId", s.UserID).Str("category", string(cat)).Msg("category chosen")

	e.render(ctx, s, ev.Ref, e.text(s, categoryChosenKey[cat], nil), nil)
	e.enterStep(ctx, s, start, MessageRef{})
}

func (e *Engine) handleCollect(ctx context.Context, s *Session, ev Event) {
	sp := steps[s.State]
	switch {
	case ev.Kind == EventText && sp.Input == InputText:
		v, err := e.validateText(sp, ev.Text)
		if err != nil {
			e.rejectInput(ctx, s, err)
			return
		}
		e.applyValue(ctx, s, sp, v, MessageRef{})
	case ev.Kind == EventButton && ev.Button.Kind == ButtonSkip:
		if !sp.Optional {
			e.protocolError(ctx, s, ev)
			return
		}
		e.applyValue(ctx, s, sp, SkippedValue(), ev.Ref)
	case ev.Kind == EventButton && ev.Button.Kind == ButtonChoice && sp.Input == InputChoice:
		if !validChoice(sp, ev.Button.Arg) {
			e.protocolError(ctx, s, ev)
			return
		}
		e.applyValue(ctx, s, sp, TextValue(ev.Button.Arg), ev.Ref)
	case sp.Input == InputMedia:
		e.handleMediaEvent(ctx, s, sp, ev)
	default:
		e.protocolError(ctx, s, ev)
	}
}

// applyValue writes an accepted value and advances the flow. A field
// being re-collected from the edit menu routes straight back to preview
// instead of following the graph.
func (e *Engine) applyValue(ctx context.Context, s *Session, sp Step, v Value, ref MessageRef) {
	s.setField(sp.Field, v)
	log.Info().Int64("userId", s.UserID).Str("field", string(sp.Field)).
		Bool("skipped", v.Skipped).Msg("field collected")

	if s.EditingField == sp.Field {
		s.EditingField = ""
		e.showPreview(ctx, s, ref)
		return
	}
	e.enterStep(ctx, s, sp.Next, ref)
}

func (e *Engine) handleMediaEvent(ctx context.Context, s *Session, sp Step, ev Event) {
	switch {
	case ev.Kind == EventMedia:
		e.addMedia(ctx, s, sp, ev.Media)
	case ev.Kind == EventButton && ev.Button.Kind == ButtonDoneMedia:
		if len(s.Media) == 0 {
			e.send(ctx, s, e.text(s, "no_media_uploaded_error", nil), e.stepActions(s, sp))
			return
		}
		s.EditingField = ""
		e.showPreview(ctx, s, ev.Ref)
	case ev.Kind == EventButton && ev.Button.Kind == ButtonClearMedia:
		s.Media = nil
		text := e.text(s, "media_cleared", nil) + "\n\n" + e.text(s, sp.PromptKey, e.promptParams(s, StateMedia))
		e.render(ctx, s, ev.Ref, text, e.stepActions(s, sp))
	default:
		e.protocolError(ctx, s, ev)
	}
}

// addMedia appends an uploaded item, ignoring duplicates by file id and
// refusing anything past the cap, then reports the running count.
func (e *Engine) addMedia(ctx context.Context, s *Session, sp Step, item MediaItem) {
	if len(s.Media) >= e.settings.MaxMediaItems {
		params := map[string]string{"max_media": strconv.Itoa(e.settings.MaxMediaItems)}
		e.send(ctx, s, e.text(s, "max_media_reached", params), e.stepActions(s, sp))
		return
	}
	if item.FileID != "" && !s.hasMedia(item.FileID) {
		s.Media = append(s.Media, item)
	}

	params := map[string]string{
		"count":     strconv.Itoa(len(s.Media)),
		"max_media": strconv.Itoa(e.settings.MaxMediaItems),
	}
	key := "media_received"
	if len(s.Media) >= e.settings.MaxMediaItems {
		key = "max_media_reached"
	}
	e.send(ctx, s, e.text(s, key, params), e.stepActions(s, sp))
}

func (e *Engine) validateText(sp Step, raw string) (Value, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Value{}, &ValidationError{MessageKey: "invalid_input"}
	}
	switch sp.Field {
	case FieldPrice:
		if !strings.ContainsAny(text, "0123456789") {
			return Value{}, &ValidationError{MessageKey: "price_invalid"}
		}
	case FieldDescription:
		if utf8.RuneCountInString(text) > e.settings.MaxDescriptionLength {
			return Value{}, &ValidationError{
				MessageKey: "description_too_long",
				Params:     map[string]string{"max_desc_len": strconv.Itoa(e.settings.MaxDescriptionLength)},
			}
		}
	}
	return TextValue(text), nil
}

func (e *Engine) rejectInput(ctx context.Context, s *Session, err error) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		e.send(ctx, s, e.text(s, verr.MessageKey, verr.Params), nil)
		return
	}
	e.send(ctx, s, e.text(s, "general_error", nil), nil)
}

// protocolError answers an event that makes no sense in the current
// state, e.g. a press on a stale keyboard. The state is left as is.
func (e *Engine) protocolError(ctx context.Context, s *Session, ev Event) {
	log.Warn().Int64("userId", s.UserID).Str("state", s.State.String()).
		Str("eventKind", ev.Kind.String()).Err(ErrProtocol).Msg("unexpected event for state")
	key := "general_error"
	if ev.Kind == EventText {
		key = "invalid_input"
	}
	e.send(ctx, s, e.text(s, key, nil), nil)
}

func (e *Engine) cancel(ctx context.Context, s *Session, ref MessageRef) {
	if !s.InFlow() {
		return
	}
	log.Info().Int64("userId", s.UserID).Str("state", s.State.String()).Msg("conversation cancelled")
	e.render(ctx, s, ref, e.text(s, "post_cancelled", nil), nil)
	s.clear()
}

func (e *Engine) expire(ctx context.Context, s *Session) {
	if !s.InFlow() {
		return
	}
	log.Info().Int64("userId", s.UserID).Str("state", s.State.String()).Msg("conversation timed out")
	e.send(ctx, s, e.text(s, "timeout_message", nil), nil)
	s.clear()
}

func (e *Engine) askLanguage(ctx context.Context, s *Session) {
	e.send(ctx, s, e.text(s, "welcome", map[string]string{"name": s.FirstName}), e.languageActions())
	s.State = StateLangSelect
}

func (e *Engine) askCategory(ctx context.Context, s *Session, ref MessageRef) {
	var actions []Action
	for _, c := range Categories() {
		actions = append(actions, Action{
			Label:  e.text(s, "category_"+string(c), nil),
			Button: Button{Kind: ButtonCategory, Arg: string(c)},
		})
	}
	e.render(ctx, s, ref, e.text(s, "choose_category", nil), actions)
	s.State = StateCategorySelect
}

// enterStep renders the prompt for a collection state and moves there.
func (e *Engine) enterStep(ctx context.Context, s *Session, st State, ref MessageRef) {
	sp := steps[st]
	text := e.text(s, sp.PromptKey, e.promptParams(s, st))
	e.render(ctx, s, ref, text, e.stepActions(s, sp))
	s.State = st
}

func (e *Engine) promptParams(s *Session, st State) map[string]string {
	switch st {
	case StateAnimalBreed:
		if v, ok := s.fieldValue(FieldAnimalType); ok && v.Filled {
			return map[string]string{"animal_type": v.Text}
		}
	case StateDescription:
		return map[string]string{"max_desc_len": strconv.Itoa(e.settings.MaxDescriptionLength)}
	case StateMedia:
		return map[string]string{"max_media": strconv.Itoa(e.settings.MaxMediaItems)}
	}
	return nil
}

func (e *Engine) stepActions(s *Session, sp Step) []Action {
	var actions []Action
	for _, c := range sp.Choices {
		actions = append(actions, Action{
			Label:  e.text(s, c.LabelKey, nil),
			Button: Button{Kind: ButtonChoice, Arg: c.Key},
		})
	}
	if sp.Input == InputMedia {
		actions = append(actions, Action{Label: e.text(s, "btn_done_media", nil), Button: Button{Kind: ButtonDoneMedia}})
		if len(s.Media) > 0 {
			actions = append(actions, Action{Label: e.text(s, "btn_clear_media", nil), Button: Button{Kind: ButtonClearMedia}})
		}
	}
	if sp.Optional {
		key := "btn_skip"
		if sp.Field == FieldDescription {
			key = "btn_skip_description"
		}
		actions = append(actions, Action{Label: e.text(s, key, nil), Button: Button{Kind: ButtonSkip}})
	}
	return actions
}

func (e *Engine) languageActions() []Action {
	var actions []Action
	for _, l := range e.settings.Languages {
		actions = append(actions, Action{Label: l.Label, Button: Button{Kind: ButtonLang, Arg: l.Code}})
	}
	return actions
}

func (e *Engine) persistLanguage(s *Session) {
	if err := e.store.SetUserLanguage(s.UserID, s.Lang, s.FirstName, s.Username); err != nil {
		log.Error().Err(err).Int64("userId", s.UserID).Msg("failed to persist language preference")
	}
}

func (e *Engine) supportedLang(code string) bool {
	for _, l := range e.settings.Languages {
		if l.Code == code {
			return true
		}
	}
	return false
}

func (e *Engine) languageLabel(code string) string {
	for _, l := range e.settings.Languages {
		if l.Code == code {
			return l.Label
		}
	}
	return code
}

func (e *Engine) lang(s *Session) string {
	if s.Lang != "" {
		return s.Lang
	}
	return e.settings.DefaultLanguage
}

func (e *Engine) text(s *Session, key string, params map[string]string) string {
	return e.texts.Resolve(key, e.lang(s), params)
}

func (e *Engine) send(ctx context.Context, s *Session, text string, actions []Action) MessageRef {
	ref, err := e.messenger.SendPrompt(ctx, s.Chat, text, actions)
	if err != nil {
		log.Error().Err(err).Int64("userId", s.UserID).Msg("failed to send message")
	}
	return ref
}

// render replaces the message the user pressed a button on when one is
// known, falling back to a fresh send when editing fails.
func (e *Engine) render(ctx context.Context, s *Session, ref MessageRef, text string, actions []Action) MessageRef {
	if !ref.IsZero() {
		newRef, err := e.messenger.EditPrompt(ctx, ref, text, actions)
		if err == nil {
			return newRef
		}
		log.Warn().Err(err).Int64("userId", s.UserID).Msg("could not edit prompt, sending a new message")
	}
	return e.send(ctx, s, text, actions)
}

// armTimer restarts the inactivity timer. A generation counter makes a
// stale fire a no-op; the timer callback takes the session lock itself.
func (e *Engine) armTimer(s *Session) {
	s.stopTimer()
	if s.State == StateNone || e.settings.Timeout <= 0 {
		return
	}
	seq := s.timerSeq
	s.timer = time.AfterFunc(e.settings.Timeout, func() {
		s.Lock()
		defer s.Unlock()
		if s.timerSeq != seq {
			return
		}
		e.expire(context.Background(), s)
	})
}
