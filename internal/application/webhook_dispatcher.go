package application

import (
	"context"
	"fmt"

	"subete-shopify-layer/internal/domain"

	"github.com/rs/zerolog"
)

// WebhookHandler processes webhook events of the topics it accepts
type WebhookHandler interface {
	CanHandle(topic string) bool
	Handle(ctx context.Context, event *domain.WebhookEvent) error
}

// WebhookDispatcher routes verified webhook events to registered handlers
type WebhookDispatcher struct {
	handlers []WebhookHandler
	logger   zerolog.Logger
}

// NewWebhookDispatcher creates a new webhook dispatcher
func NewWebhookDispatcher(logger zerolog.Logger) *WebhookDispatcher {
	return &WebhookDispatcher{logger: logger}
}

// RegisterHandler adds a handler. Handlers run in registration order.
func (d *WebhookDispatcher) RegisterHandler(h WebhookHandler) {
	d.handlers = append(d.handlers, h)
}

// Dispatch runs every handler accepting the event topic. Topics without a
// handler are acknowledged and ignored.
func (d *WebhookDispatcher) Dispatch(ctx context.Context, event *domain.WebhookEvent) error {
	handled := false
	for _, h := range d.handlers {
		if !h.CanHandle(event.Topic) {
			continue
		}
		handled = true
		if err := h.Handle(ctx, event); err != nil {
			return fmt.Errorf("handle %s: %w", event.Topic, err)
		}
	}
	if !handled {
		d.logger.Debug().Str("topic", event.Topic).Str("shop", event.Shop).Msg("No handler for webhook topic")
	}
	return nil
}
