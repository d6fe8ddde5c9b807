// Package push delivers notifications to mobile devices through Expo.
package push

import (
	"context"

	"github.com/9ssi7/exponent"
)

// Sender is tied to the exponent SDK types so messages built here can be
// handed straight to the Expo client.
type Sender interface {
	Publish(ctx context.Context, msgs []*exponent.Message) ([]*exponent.MessageResponse, error)
}

type ExpoAdapter struct {
	client *exponent.Client
}

func NewExpoAdapter(c *exponent.Client) *ExpoAdapter {
	return &ExpoAdapter{client: c}
}

func (a *ExpoAdapter) Publish(ctx context.Context, msgs []*exponent.Message) ([]*exponent.MessageResponse, error) {
	return a.client.Publish(ctx, msgs)
}
