// Package webhook notifies an external endpoint about published ads.
package webhook

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/sardorm/telegram-elon-bot/flow"
)

// Notifier posts a JSON summary of every published ad to a configured
// URL. It implements flow.FeedNotifier.
type Notifier struct {
	httpClient *resty.Client
	url        string
}

func New(url string) *Notifier {
	return &Notifier{
		url: url,
		httpClient: resty.New().
			SetTimeout(10 * time.Second).
			SetHeader("Content-Type", "application/json"),
	}
}

type publishedAd struct {
	PostID        int64             `json:"post_id"`
	UserID        int64             `json:"user_id"`
	Lang          string            `json:"lang"`
	Category      string            `json:"category"`
	Price         string            `json:"price"`
	Location      string            `json:"location"`
	Description   string            `json:"description,omitempty"`
	Fields        map[string]string `json:"fields,omitempty"`
	MediaCount    int               `json:"media_count"`
	FeedMessageID int               `json:"feed_message_id"`
}

func (n *Notifier) NotifyPublished(ctx context.Context, postID int64, s *flow.Session, feedRef flow.MessageRef) error {
	payload := publishedAd{
		PostID:        postID,
		UserID:        s.UserID,
		Lang:          s.Lang,
		Category:      string(s.Category),
		Price:         s.Price.Text,
		Location:      s.Location.Text,
		Fields:        s.CategoryData(),
		MediaCount:    len(s.Media),
		FeedMessageID: feedRef.MessageID,
	}
	if s.Description.Filled {
		payload.Description = s.Description.Text
	}

	res, err := n.httpClient.R().
		SetContext(ctx).
		SetBody(payload).
		Post(n.url)
	if err != nil {
		return err
	}
	if res.IsError() {
		return fmt.Errorf("webhook request failed: POST %s (status: %d)", n.url, res.StatusCode())
	}
	return nil
}
