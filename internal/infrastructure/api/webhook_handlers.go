package api

import (
	"io"
	"net/http"

	"subete-shopify-layer/internal/application"
	"subete-shopify-layer/internal/domain"
	"subete-shopify-layer/internal/ports"

	"github.com/rs/zerolog"
)

// webhookHandler verifies and dispatches Shopify webhook deliveries
func webhookHandler(
	client ports.ShopifyClient,
	dispatcher *application.WebhookDispatcher,
	logger zerolog.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		topic := r.Header.Get("X-Shopify-Topic")
		if topic == "" {
			logger.Warn().Msg("Missing X-Shopify-Topic header")
			http.Error(w, "Missing X-Shopify-Topic header", http.StatusBadRequest)
			return
		}

		// VerifyWebhook restores the body after hashing it
		if !client.VerifyWebhook(r) {
			logger.Warn().Str("topic", topic).Msg("Webhook signature verification failed")
			http.Error(w, "Invalid signature", http.StatusUnauthorized)
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to read webhook payload")
			http.Error(w, "Failed to read request body", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		event := &domain.WebhookEvent{
			Topic:   topic,
			Shop:    r.Header.Get("X-Shopify-Shop-Domain"),
			Payload: payload,
		}
		if err := dispatcher.Dispatch(r.Context(), event); err != nil {
			logger.Error().Err(err).Str("topic", topic).Str("shop", event.Shop).Msg("Failed to dispatch webhook event")
			// 500 makes Shopify retry the delivery
			http.Error(w, "Failed to process webhook event", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"received": "true"})
	}
}
