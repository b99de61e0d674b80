package flow

import (
	"context"

	"github.com/rs/zerolog/log"
)

// publish persists the ad and sends it to the configured feed chat. The
// draft row is written before any network call so a failed publish still
// leaves a record, tagged with a failure status. The session is cleared
// whatever the outcome; the draft is recoverable from the store.
func (e *Engine) publish(ctx context.Context, s *Session, ref MessageRef) {
	postID, err := e.store.SaveDraft(s)
	if err != nil {
		log.Error().Err(err).Int64("userId", s.UserID).Msg("failed to save ad draft")
		e.render(ctx, s, ref, e.text(s, "general_error", nil), nil)
		s.clear()
		return
	}
	log.Info().Int64("postId", postID).Int64("userId", s.UserID).
		Str("category", string(s.Category)).Msg("draft saved, publishing to feed")

	text := e.formatter.RenderSummary(s)
	var feedRef MessageRef
	var sendErr error
	if len(s.Media) > 0 {
		feedRef, sendErr = e.messenger.SendMediaGroup(ctx, e.settings.FeedChat, s.Media, text)
	} else {
		feedRef, sendErr = e.messenger.SendPrompt(ctx, e.settings.FeedChat, text, nil)
	}

	switch {
	case sendErr != nil:
		log.Error().Err(sendErr).Int64("postId", postID).Msg("failed to publish to feed")
		e.setStatus(postID, StatusFailedException, 0)
		e.render(ctx, s, ref, e.text(s, "general_error", nil), nil)
	case feedRef.IsZero():
		log.Error().Int64("postId", postID).Msg("feed publish produced no message")
		e.setStatus(postID, StatusFailedNoMessage, 0)
		e.render(ctx, s, ref, e.text(s, "general_error", nil), nil)
	default:
		e.setStatus(postID, StatusPublished, feedRef.MessageID)
		log.Info().Int64("postId", postID).Int("feedMessageId", feedRef.MessageID).Msg("ad published")

		key := "post_successful_admin"
		if e.settings.FeedIsChannel {
			key = "post_successful_channel"
		}
		params := map[string]string{"target_chat": e.settings.FeedChat.String()}
		e.render(ctx, s, ref, e.text(s, key, params), nil)

		if e.notifier != nil {
			if err := e.notifier.NotifyPublished(ctx, postID, s, feedRef); err != nil {
				log.Warn().Err(err).Int64("postId", postID).Msg("feed webhook notification failed")
			}
		}
	}
	s.clear()
}

func (e *Engine) setStatus(postID int64, status PostStatus, feedMessageID int) {
	if err := e.store.UpdateStatus(postID, status, feedMessageID); err != nil {
		log.Error().Err(err).Int64("postId", postID).Str("status", string(status)).
			Msg("failed to update post status")
	}
}
