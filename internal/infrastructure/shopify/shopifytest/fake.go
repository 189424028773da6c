// Package shopifytest provides an in-memory ports.ShopifyClient for tests.
package shopifytest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"subete-shopify-layer/internal/domain"
	"subete-shopify-layer/internal/ports"
)

// ErrAssetNotFound is returned by GetAsset for unknown keys
var ErrAssetNotFound = errors.New("asset not found")

// Client is a scripted Shopify client. Zero values behave like a healthy
// shop; set the error fields to script failures.
type Client struct {
	mu sync.Mutex

	AccessToken string
	Themes      []domain.Theme
	// Assets is keyed by theme id, then asset key
	Assets map[uint64]map[string]string

	ExchangeErr   error
	ListThemesErr error
	GetAssetErr   error
	// PutAssetErr fails puts of the given asset keys
	PutAssetErr map[string]error

	CallbackValid bool
	WebhookValid  bool

	Exchanges int
	Puts      []domain.ThemeAsset
}

var _ ports.ShopifyClient = (*Client)(nil)

// New returns a client with one main theme holding the given layout
func New(themeID uint64, layout string) *Client {
	return &Client{
		AccessToken: "shpat_test",
		Themes: []domain.Theme{
			{ID: themeID + 1, Name: "Draft", Role: "unpublished"},
			{ID: themeID, Name: "Dawn", Role: domain.MainThemeRole},
		},
		Assets: map[uint64]map[string]string{
			themeID: {domain.ThemeLayoutKey: layout},
		},
		CallbackValid: true,
		WebhookValid:  true,
	}
}

func (c *Client) AuthorizeURL(shop string, state string) (string, error) {
	q := url.Values{"state": {state}}
	return fmt.Sprintf("https://%s/admin/oauth/authorize?%s", shop, q.Encode()), nil
}

func (c *Client) ExchangeToken(_ context.Context, _ string, _ string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Exchanges++
	if c.ExchangeErr != nil {
		return "", c.ExchangeErr
	}
	return c.AccessToken, nil
}

func (c *Client) VerifyCallback(url.Values) (bool, error) {
	return c.CallbackValid, nil
}

func (c *Client) VerifyWebhook(*http.Request) bool {
	return c.WebhookValid
}

func (c *Client) ListThemes(context.Context, string, string) ([]domain.Theme, error) {
	if c.ListThemesErr != nil {
		return nil, c.ListThemesErr
	}
	return c.Themes, nil
}

func (c *Client) GetAsset(_ context.Context, _ string, _ string, themeID uint64, key string) (*domain.ThemeAsset, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.GetAssetErr != nil {
		return nil, c.GetAssetErr
	}
	value, ok := c.Assets[themeID][key]
	if !ok {
		return nil, ErrAssetNotFound
	}
	return &domain.ThemeAsset{Key: key, Value: value}, nil
}

func (c *Client) PutAsset(_ context.Context, _ string, _ string, themeID uint64, asset domain.ThemeAsset) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.PutAssetErr[asset.Key]; err != nil {
		return err
	}
	if c.Assets == nil {
		c.Assets = make(map[uint64]map[string]string)
	}
	if c.Assets[themeID] == nil {
		c.Assets[themeID] = make(map[string]string)
	}
	c.Assets[themeID][asset.Key] = asset.Value
	c.Puts = append(c.Puts, asset)
	return nil
}

// Asset returns the stored value of a theme asset
func (c *Client) Asset(themeID uint64, key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.Assets[themeID][key]
	return v, ok
}
