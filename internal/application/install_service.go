package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"

	"subete-shopify-layer/internal/domain"
	"subete-shopify-layer/internal/ports"

	"github.com/rs/zerolog"
)

// Install outcomes reported to metrics
const (
	InstallOutcomeSuccess  = "success"
	InstallOutcomeDegraded = "degraded"
	InstallOutcomeFailed   = "failed"
)

// InstallOptions tunes the install workflow
type InstallOptions struct {
	WidgetURL      string
	StateTTL       time.Duration
	VerifyCallback bool
}

// InstallService drives the OAuth install flow and patches the merchant's
// main theme with the widget
type InstallService struct {
	client  ports.ShopifyClient
	shops   ports.ShopRepository
	states  ports.StateStore
	cipher  ports.TokenCipher
	metrics ports.Metrics
	logger  zerolog.Logger
	opts    InstallOptions
	now     func() time.Time
}

// NewInstallService creates a new install service
func NewInstallService(
	client ports.ShopifyClient,
	shops ports.ShopRepository,
	states ports.StateStore,
	cipher ports.TokenCipher,
	metrics ports.Metrics,
	logger zerolog.Logger,
	opts InstallOptions,
) *InstallService {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	if opts.StateTTL <= 0 {
		opts.StateTTL = 10 * time.Minute
	}
	return &InstallService{
		client:  client,
		shops:   shops,
		states:  states,
		cipher:  cipher,
		metrics: metrics,
		logger:  logger,
		opts:    opts,
		now:     time.Now,
	}
}

// CallbackParams carries the query of the OAuth callback
type CallbackParams struct {
	Shop  string
	Code  string
	State string
	Query url.Values
}

// InstallResult describes what a completed install changed
type InstallResult struct {
	Shop             string
	ThemeID          uint64
	SnippetInstalled bool
	LayoutPatched    bool
}

// Degraded reports whether a best-effort theme step failed
func (r *InstallResult) Degraded() bool {
	return !r.SnippetInstalled || !r.LayoutPatched
}

// AuthorizeURL issues a state nonce for the shop and returns the provider
// authorization URL to redirect the browser to
func (s *InstallService) AuthorizeURL(ctx context.Context, shop string) (string, error) {
	if shop == "" {
		return "", fmt.Errorf("%w: shop", domain.ErrMissingParameter)
	}

	stateBytes := make([]byte, 16)
	if _, err := rand.Read(stateBytes); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	state := &domain.OAuthState{
		State:     hex.EncodeToString(stateBytes),
		Shop:      shop,
		ExpiresAt: s.now().Add(s.opts.StateTTL),
	}
	if err := s.states.Save(ctx, state); err != nil {
		s.logger.Error().Err(err).Str("shop", shop).Msg("Failed to save OAuth state")
		return "", fmt.Errorf("%w: failed to save oauth state: %w", domain.ErrPersistence, err)
	}

	authURL, err := s.client.AuthorizeURL(shop, state.State)
	if err != nil {
		return "", fmt.Errorf("failed to build authorization url: %w", err)
	}
	return authURL, nil
}

// Callback completes an install: exchange the code, persist the token,
// locate the main theme and embed the widget. Failures up to and including
// the theme lookup abort the install; widget steps are best effort.
func (s *InstallService) Callback(ctx context.Context, params CallbackParams) (*InstallResult, error) {
	result, err := s.callback(ctx, params)
	switch {
	case err != nil:
		s.metrics.InstallFinished(InstallOutcomeFailed)
	case result.Degraded():
		s.metrics.InstallFinished(InstallOutcomeDegraded)
	default:
		s.metrics.InstallFinished(InstallOutcomeSuccess)
	}
	return result, err
}

func (s *InstallService) callback(ctx context.Context, params CallbackParams) (*InstallResult, error) {
	if params.Shop == "" || params.Code == "" {
		return nil, fmt.Errorf("%w: shop and code", domain.ErrMissingParameter)
	}
	if s.opts.VerifyCallback {
		if err := s.verifyCallback(ctx, params); err != nil {
			return nil, err
		}
	}

	accessToken, err := s.client.ExchangeToken(ctx, params.Shop, params.Code)
	if err != nil {
		s.logger.Error().Err(err).Str("shop", params.Shop).Msg("Failed to exchange token")
		return nil, fmt.Errorf("%w: %w", domain.ErrOAuthExchangeFailed, err)
	}

	if err := s.persistToken(ctx, params.Shop, accessToken); err != nil {
		return nil, err
	}

	themes, err := s.client.ListThemes(ctx, params.Shop, accessToken)
	if err != nil {
		s.logger.Error().Err(err).Str("shop", params.Shop).Msg("Failed to list themes")
		return nil, fmt.Errorf("failed to list themes: %w", err)
	}
	mainTheme, ok := domain.FindMainTheme(themes)
	if !ok {
		s.logger.Error().Str("shop", params.Shop).Int("themes", len(themes)).Msg("No main theme found")
		return nil, domain.ErrNoMainTheme
	}

	result := &InstallResult{
		Shop:    params.Shop,
		ThemeID: mainTheme.ID,
	}
	result.SnippetInstalled = s.installSnippet(ctx, params.Shop, accessToken, mainTheme.ID)
	result.LayoutPatched = s.patchLayout(ctx, params.Shop, accessToken, mainTheme.ID)

	if result.Degraded() {
		s.logger.Warn().
			Str("shop", params.Shop).
			Uint64("themeID", mainTheme.ID).
			Bool("snippetInstalled", result.SnippetInstalled).
			Bool("layoutPatched", result.LayoutPatched).
			Msg("App installed but widget injection incomplete")
	} else {
		s.logger.Info().
			Str("shop", params.Shop).
			Uint64("themeID", mainTheme.ID).
			Msg("App installed and widget injected")
	}
	return result, nil
}

func (s *InstallService) verifyCallback(ctx context.Context, params CallbackParams) error {
	if params.State == "" {
		return fmt.Errorf("%w: state", domain.ErrMissingParameter)
	}

	valid, err := s.client.VerifyCallback(params.Query)
	if err != nil || !valid {
		s.logger.Warn().Err(err).Str("shop", params.Shop).Msg("OAuth callback signature verification failed")
		return fmt.Errorf("%w: bad signature", domain.ErrInvalidCallback)
	}

	state, err := s.states.Consume(ctx, params.State)
	if err != nil {
		s.logger.Error().Err(err).Str("shop", params.Shop).Msg("Failed to consume OAuth state")
		return fmt.Errorf("%w: failed to consume oauth state: %w", domain.ErrPersistence, err)
	}
	if state == nil || state.Shop != params.Shop || state.Expired(s.now()) {
		s.logger.Warn().Str("shop", params.Shop).Msg("Unknown or expired OAuth state")
		return fmt.Errorf("%w: unknown state", domain.ErrInvalidCallback)
	}
	return nil
}

func (s *InstallService) persistToken(ctx context.Context, shop, accessToken string) error {
	sealed, err := s.cipher.Encrypt(accessToken)
	if err != nil {
		s.logger.Error().Err(err).Str("shop", shop).Msg("Failed to encrypt access token")
		return fmt.Errorf("failed to encrypt access token: %w", err)
	}

	if err := s.shops.UpsertShop(ctx, &domain.Shop{Domain: shop, AccessToken: sealed}); err != nil {
		s.logger.Error().Err(err).Str("shop", shop).Msg("Failed to save shop")
		return fmt.Errorf("%w: failed to save shop: %w", domain.ErrPersistence, err)
	}
	return nil
}

func (s *InstallService) installSnippet(ctx context.Context, shop, accessToken string, themeID uint64) bool {
	snippet := domain.WidgetSnippet(s.opts.WidgetURL)
	if err := s.client.PutAsset(ctx, shop, accessToken, themeID, snippet); err != nil {
		s.logger.Warn().Err(err).Str("shop", shop).Str("key", snippet.Key).Msg("Could not create widget snippet")
		return false
	}
	return true
}

func (s *InstallService) patchLayout(ctx context.Context, shop, accessToken string, themeID uint64) bool {
	layout, err := s.client.GetAsset(ctx, shop, accessToken, themeID, domain.ThemeLayoutKey)
	if err == nil && layout == nil {
		err = fmt.Errorf("asset %s not found", domain.ThemeLayoutKey)
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("shop", shop).Msg("Could not read theme layout")
		return false
	}

	patched, changed := InjectRenderCall(layout.Value)
	if !changed {
		if strings.Contains(layout.Value, domain.WidgetRenderCall) {
			return true
		}
		s.logger.Warn().Str("shop", shop).Msg("Theme layout has no closing body tag")
		return false
	}

	if err := s.client.PutAsset(ctx, shop, accessToken, themeID, domain.ThemeAsset{Key: domain.ThemeLayoutKey, Value: patched}); err != nil {
		s.logger.Warn().Err(err).Str("shop", shop).Msg("Could not update theme layout")
		return false
	}
	return true
}
