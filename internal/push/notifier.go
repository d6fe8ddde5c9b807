package push

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"foodspot/internal/events"

	"github.com/9ssi7/exponent"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Expo accepts at most 100 messages per request.
const maxBatch = 100

const sendTimeout = 15 * time.Second

type TokenSource interface {
	TokensForUsers(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID][]string, error)
	BroadcastTokens(ctx context.Context) ([]string, error)
}

type Notifier struct {
	sender Sender
	tokens TokenSource
	logger *zap.SugaredLogger
}

func NewNotifier(sender Sender, tokens TokenSource, logger *zap.SugaredLogger) *Notifier {
	return &Notifier{sender: sender, tokens: tokens, logger: logger}
}

// Messages builds one Expo message per device token. The data payload
// drives the client's deep link into the notifications screen.
func Messages(tokens []string, n events.NotificationPublished) []*exponent.Message {
	msgs := make([]*exponent.Message, 0, len(tokens))
	for _, t := range tokens {
		token := exponent.Token(t)
		msgs = append(msgs, &exponent.Message{
			To:    []*exponent.Token{&token},
			Title: n.Title,
			Body:  n.Message,
			Data: map[string]string{
				"type":           "notification",
				"notificationId": strconv.FormatInt(n.NotificationID, 10),
				"screen":         "notifications",
			},
		})
	}
	return msgs
}

func (n *Notifier) recipients(ctx context.Context, e events.NotificationPublished) ([]string, error) {
	if e.UserID == nil {
		return n.tokens.BroadcastTokens(ctx)
	}
	byUser, err := n.tokens.TokensForUsers(ctx, []uuid.UUID{*e.UserID})
	if err != nil {
		return nil, err
	}
	return byUser[*e.UserID], nil
}

// Notify sends e to its recipients' devices in batches. Having no devices
// is not an error.
func (n *Notifier) Notify(ctx context.Context, e events.NotificationPublished) error {
	tokens, err := n.recipients(ctx, e)
	if err != nil {
		return fmt.Errorf("load push tokens: %w", err)
	}
	if len(tokens) == 0 {
		return nil
	}

	msgs := Messages(tokens, e)
	for start := 0; start < len(msgs); start += maxBatch {
		end := min(start+maxBatch, len(msgs))
		if _, err := n.sender.Publish(ctx, msgs[start:end]); err != nil {
			return fmt.Errorf("publish push batch %d-%d: %w", start, end, err)
		}
	}
	return nil
}

// Attach sends a push for every published notification. Sends run in the
// background so publishers are never held up by Expo.
func (n *Notifier) Attach(bus *events.Bus) (detach func()) {
	return bus.NotificationPublished.Subscribe(func(e events.NotificationPublished) {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
			defer cancel()
			if err := n.Notify(ctx, e); err != nil {
				n.logger.Errorw("push notification failed", "notification_id", e.NotificationID, "error", err)
			}
		}()
	})
}
