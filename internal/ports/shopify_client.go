package ports

import (
	"context"
	"net/http"
	"net/url"

	"subete-shopify-layer/internal/domain"
)

// ShopifyClient defines the Shopify operations the install flow and the
// webhook endpoint depend on
type ShopifyClient interface {
	// Authentication
	AuthorizeURL(shop string, state string) (string, error)
	ExchangeToken(ctx context.Context, shop string, code string) (string, error)
	VerifyCallback(query url.Values) (bool, error)
	VerifyWebhook(r *http.Request) bool

	// Theme API
	ListThemes(ctx context.Context, shop string, accessToken string) ([]domain.Theme, error)
	GetAsset(ctx context.Context, shop string, accessToken string, themeID uint64, key string) (*domain.ThemeAsset, error)
	PutAsset(ctx context.Context, shop string, accessToken string, themeID uint64, asset domain.ThemeAsset) error
}

// TokenCipher seals access tokens before they are stored
type TokenCipher interface {
	Encrypt(plaintext string) (string, error)
}

// Metrics receives business events from the application services
type Metrics interface {
	InstallFinished(outcome string)
	ParticipantEnrolled(outcome string)
	CampaignCreated()
}

// NopMetrics discards every event
type NopMetrics struct{}

func (NopMetrics) InstallFinished(string)     {}
func (NopMetrics) ParticipantEnrolled(string) {}
func (NopMetrics) CampaignCreated()           {}
