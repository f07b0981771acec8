package notify

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	slackapi "github.com/slack-go/slack"
)

const maxRetries = 3

// slackClient abstracts the Slack API methods we use, enabling test mocks.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// SlackOpts holds parameters for creating a Slack notifier.
type SlackOpts struct {
	BotToken  string // xoxb-... bot token
	ChannelID string
	Client    slackClient // for testing
}

// Slack posts events to a Slack channel.
type Slack struct {
	client    slackClient
	channelID string
}

// NewSlack creates a Slack notifier.
func NewSlack(opts SlackOpts) (*Slack, error) {
	if opts.Client == nil && opts.BotToken == "" {
		return nil, fmt.Errorf("notify: slack: bot token is required")
	}
	if err := requireChannel("slack", opts.ChannelID); err != nil {
		return nil, err
	}
	client := opts.Client
	if client == nil {
		client = slackapi.New(opts.BotToken)
	}
	return &Slack{client: client, channelID: opts.ChannelID}, nil
}

// Notify implements Notifier.
func (s *Slack) Notify(ctx context.Context, e Event) error {
	options := slackMessageOptions(e)
	err := retryOnSlackRateLimit(ctx, func() error {
		_, _, postErr := s.client.PostMessageContext(ctx, s.channelID, options...)
		return postErr
	})
	if err != nil {
		return fmt.Errorf("notify: slack: post message: %w", err)
	}
	return nil
}

func slackMessageOptions(e Event) []slackapi.MsgOption {
	att := slackapi.Attachment{
		Title:    e.Title(),
		Color:    e.Color(),
		Fallback: e.Title(),
	}
	for _, f := range e.fields() {
		att.Fields = append(att.Fields, slackapi.AttachmentField{Title: f[0], Value: f[1], Short: true})
	}
	return []slackapi.MsgOption{
		slackapi.MsgOptionText(e.Title(), false),
		slackapi.MsgOptionAttachments(att),
	}
}

// retryOnSlackRateLimit calls fn and retries with backoff on Slack rate
// limit errors, honoring RetryAfter.
func retryOnSlackRateLimit(ctx context.Context, fn func() error) error {
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		var rle *slackapi.RateLimitedError
		if !errors.As(err, &rle) || attempt == maxRetries {
			return err
		}
		wait := rle.RetryAfter
		if wait <= 0 {
			wait = time.Duration(math.Pow(2, float64(attempt))) * time.Second
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}
