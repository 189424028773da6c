package webhook_handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"subete-shopify-layer/internal/domain"
	"subete-shopify-layer/internal/ports"

	"github.com/rs/zerolog"
)

// AppUninstalledHandler revokes a shop's install when the app is removed
type AppUninstalledHandler struct {
	logger zerolog.Logger
	shops  ports.ShopRepository
}

// NewAppUninstalledHandler creates a new app uninstalled webhook handler
func NewAppUninstalledHandler(logger zerolog.Logger, shops ports.ShopRepository) *AppUninstalledHandler {
	return &AppUninstalledHandler{
		logger: logger,
		shops:  shops,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *AppUninstalledHandler) CanHandle(topic string) bool {
	return topic == domain.TopicAppUninstalled
}

// Handle clears the stored access token. The shop row is kept, so a later
// reinstall reuses the same shop id and its campaigns.
func (h *AppUninstalledHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	shopDomain := event.Shop
	if shopDomain == "" {
		var shopData struct {
			Domain          string `json:"domain"`
			MyshopifyDomain string `json:"myshopify_domain"`
		}
		if err := json.Unmarshal(event.Payload, &shopData); err != nil {
			return fmt.Errorf("failed to parse app uninstalled webhook payload: %w", err)
		}
		shopDomain = shopData.MyshopifyDomain
		if shopDomain == "" {
			shopDomain = shopData.Domain
		}
	}
	if shopDomain == "" {
		return fmt.Errorf("%w: shop domain", domain.ErrMissingParameter)
	}

	if err := h.shops.ClearAccessToken(ctx, shopDomain); err != nil {
		return fmt.Errorf("failed to clear access token: %w", err)
	}

	h.logger.Info().
		Str("topic", event.Topic).
		Str("shop", shopDomain).
		Msg("App uninstalled - access token revoked")
	return nil
}
