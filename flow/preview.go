package flow

import (
	"context"

	"github.com/rs/zerolog/log"
)

// showPreview renders the assembled ad with post/edit/cancel actions.
// With media attached the summary goes out as the media group caption
// and the actions ride on a separate confirm message, since a media
// group cannot carry an inline keyboard.
func (e *Engine) showPreview(ctx context.Context, s *Session, ref MessageRef) {
	summary := e.formatter.RenderSummary(s)
	confirm := e.text(s, "preview_confirm_prompt", nil)
	actions := []Action{
		{Label: e.text(s, "btn_post", nil), Button: Button{Kind: ButtonPost}},
		{Label: e.text(s, "btn_edit", nil), Button: Button{Kind: ButtonEdit}},
		{Label: e.text(s, "btn_cancel", nil), Button: Button{Kind: ButtonCancel}},
	}

	// Drop the previous preview so the keyboard never appears twice.
	if !s.LastPreview.IsZero() {
		if err := e.messenger.DeleteMessage(ctx, s.LastPreview); err != nil {
			log.Warn().Err(err).Int64("userId", s.UserID).Msg("could not delete previous preview")
		}
		s.LastPreview = MessageRef{}
	}

	var sent MessageRef
	if len(s.Media) > 0 {
		if _, err := e.messenger.SendMediaGroup(ctx, s.Chat, s.Media, summary); err != nil {
			log.Error().Err(err).Int64("userId", s.UserID).Msg("failed to send preview media group")
			sent = e.render(ctx, s, ref, summary+"\n\n"+confirm, actions)
		} else {
			sent = e.send(ctx, s, confirm, actions)
		}
	} else {
		sent = e.render(ctx, s, ref, summary+"\n\n"+confirm, actions)
	}
	s.LastPreview = sent
	s.State = StatePreview
}

func (e *Engine) handlePreviewAction(ctx context.Context, s *Session, ev Event) {
	if ev.Kind != EventButton {
		e.protocolError(ctx, s, ev)
		return
	}
	switch ev.Button.Kind {
	case ButtonPost:
		e.publish(ctx, s, ev.Ref)
	case ButtonEdit:
		e.askEditChoice(ctx, s, ev.Ref)
	case ButtonCancel:
		e.cancel(ctx, s, ev.Ref)
	default:
		e.protocolError(ctx, s, ev)
	}
}

// askEditChoice lists the fields that currently hold a value and can be
// re-collected, plus a way back to the preview.
func (e *Engine) askEditChoice(ctx context.Context, s *Session, ref MessageRef) {
	var actions []Action
	for _, f := range s.editableFields() {
		actions = append(actions, Action{
			Label:  e.text(s, "btn_edit_"+string(f), nil),
			Button: Button{Kind: ButtonEditField, Arg: string(f)},
		})
	}
	actions = append(actions, Action{
		Label:  e.text(s, "btn_back_to_preview", nil),
		Button: Button{Kind: ButtonBackToPreview},
	})
	e.render(ctx, s, ref, e.text(s, "edit_choice_prompt", nil), actions)
	s.State = StateEditChoice
}

func (e *Engine) handleEditChoice(ctx context.Context, s *Session, ev Event) {
	if ev.Kind != EventButton {
		e.protocolError(ctx, s, ev)
		return
	}
	switch ev.Button.Kind {
	case ButtonBackToPreview:
		e.showPreview(ctx, s, ev.Ref)
	case ButtonEditField:
		e.startFieldEdit(ctx, s, ev)
	default:
		e.protocolError(ctx, s, ev)
	}
}

// startFieldEdit resets one field and re-enters the state that collects
// it. Editing media drops the whole list and collects from empty.
func (e *Engine) startFieldEdit(ctx context.Context, s *Session, ev Event) {
	f := FieldID(ev.Button.Arg)
	if f == FieldMedia {
		s.Media = nil
		s.EditingField = FieldMedia
		e.enterStep(ctx, s, StateMedia, ev.Ref)
		return
	}

	st, ok := collectState[f]
	if !ok {
		e.protocolError(ctx, s, ev)
		return
	}
	if _, ok := s.fieldValue(f); !ok {
		// Field does not exist in the current category's schema, which
		// means the button came from a stale keyboard.
		e.protocolError(ctx, s, ev)
		return
	}
	s.EditingField = f
	s.setField(f, Value{})
	e.enterStep(ctx, s, st, ev.Ref)
}
