package shopify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"subete-shopify-layer/internal/domain"
	"subete-shopify-layer/internal/ports"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"
)

// Config holds the app credentials and OAuth parameters
type Config struct {
	APIKey      string
	APISecret   string
	Scopes      []string
	RedirectURI string
	APIVersion  string
	// HTTPClient overrides the client used for Admin API calls
	HTTPClient *http.Client
}

type client struct {
	cfg    Config
	app    goshopify.App
	logger zerolog.Logger
}

var _ ports.ShopifyClient = (*client)(nil)

// NewClient creates a new Shopify client adapter
func NewClient(cfg Config, logger zerolog.Logger) ports.ShopifyClient {
	app := goshopify.App{
		ApiKey:      cfg.APIKey,
		ApiSecret:   cfg.APISecret,
		RedirectUrl: cfg.RedirectURI,
		Scope:       strings.Join(cfg.Scopes, ","),
	}
	return &client{
		cfg:    cfg,
		app:    app,
		logger: logger,
	}
}

// createClient is a helper to create a goshopify client. Calls are never
// retried; a throttled or failed request surfaces as an error.
func (c *client) createClient(shopDomain string, accessToken string) (*goshopify.Client, error) {
	var opts []goshopify.Option
	if c.cfg.HTTPClient != nil {
		opts = append(opts, goshopify.WithHTTPClient(c.cfg.HTTPClient))
	}
	if c.cfg.APIVersion != "" {
		opts = append(opts, goshopify.WithVersion(c.cfg.APIVersion))
	}
	client, err := goshopify.NewClient(c.app, shopDomain, accessToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, nil
}

// Authentication methods

func (c *client) AuthorizeURL(shop string, state string) (string, error) {
	if shop == "" {
		return "", fmt.Errorf("shop is required")
	}
	// Shopify expects scopes comma-separated with no spaces
	scopesStr := strings.Join(c.cfg.Scopes, ",")

	authURL := fmt.Sprintf(
		"https://%s/admin/oauth/authorize?client_id=%s&scope=%s&redirect_uri=%s&state=%s",
		shop,
		url.QueryEscape(c.cfg.APIKey),
		url.QueryEscape(scopesStr),
		url.QueryEscape(c.cfg.RedirectURI),
		url.QueryEscape(state),
	)

	c.logger.Debug().
		Str("shop", shop).
		Str("scopes", scopesStr).
		Msg("Generated OAuth authorization URL")

	return authURL, nil
}

func (c *client) ExchangeToken(ctx context.Context, shop string, code string) (string, error) {
	token, err := c.app.GetAccessToken(ctx, shop, code)
	if err != nil {
		return "", fmt.Errorf("failed to exchange token: %w", err)
	}
	if token == "" {
		return "", fmt.Errorf("failed to exchange token: empty access token")
	}
	return token, nil
}

// VerifyCallback checks the hmac parameter Shopify signs the callback query with
func (c *client) VerifyCallback(query url.Values) (bool, error) {
	if query.Get("hmac") == "" {
		return false, nil
	}
	ok, err := c.app.VerifyAuthorizationURL(&url.URL{RawQuery: query.Encode()})
	if err != nil {
		return false, fmt.Errorf("failed to verify callback: %w", err)
	}
	return ok, nil
}

// VerifyWebhook checks the X-Shopify-Hmac-Sha256 header against the body.
// The request body stays readable afterwards.
func (c *client) VerifyWebhook(r *http.Request) bool {
	return c.app.VerifyWebhookRequest(r)
}

// Theme API

func (c *client) ListThemes(ctx context.Context, shop string, accessToken string) ([]domain.Theme, error) {
	client, err := c.createClient(shop, accessToken)
	if err != nil {
		return nil, err
	}
	themes, err := client.Theme.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list themes: %w", err)
	}

	result := make([]domain.Theme, 0, len(themes))
	for _, t := range themes {
		result = append(result, domain.Theme{ID: t.Id, Name: t.Name, Role: t.Role})
	}
	return result, nil
}

func (c *client) GetAsset(ctx context.Context, shop string, accessToken string, themeID uint64, key string) (*domain.ThemeAsset, error) {
	client, err := c.createClient(shop, accessToken)
	if err != nil {
		return nil, err
	}
	asset, err := client.Asset.Get(ctx, themeID, key)
	if err != nil {
		return nil, fmt.Errorf("failed to get asset %s: %w", key, err)
	}
	if asset == nil {
		return nil, nil
	}
	return &domain.ThemeAsset{Key: asset.Key, Value: asset.Value}, nil
}

func (c *client) PutAsset(ctx context.Context, shop string, accessToken string, themeID uint64, asset domain.ThemeAsset) error {
	client, err := c.createClient(shop, accessToken)
	if err != nil {
		return err
	}
	if _, err := client.Asset.Update(ctx, themeID, goshopify.Asset{Key: asset.Key, Value: asset.Value}); err != nil {
		return fmt.Errorf("failed to update asset %s: %w", asset.Key, err)
	}
	return nil
}
