package application

import (
	"context"
	"errors"
	"fmt"

	"subete-shopify-layer/internal/domain"
	"subete-shopify-layer/internal/ports"

	"github.com/rs/zerolog"
)

// ShopResolver maps a shop domain to the internal shop id. It is the gate
// for every tenant-scoped operation.
type ShopResolver struct {
	shops  ports.ShopRepository
	logger zerolog.Logger
}

// NewShopResolver creates a new shop resolver
func NewShopResolver(shops ports.ShopRepository, logger zerolog.Logger) *ShopResolver {
	return &ShopResolver{
		shops:  shops,
		logger: logger,
	}
}

// Resolve returns the shop id for an exact domain match. Store failures and
// misses both yield ErrShopNotFound so callers cannot tell them apart.
func (r *ShopResolver) Resolve(ctx context.Context, shopDomain string) (string, error) {
	if shopDomain == "" {
		return "", fmt.Errorf("%w: shop", domain.ErrMissingParameter)
	}

	shop, err := r.shops.GetShopByDomain(ctx, shopDomain)
	if err != nil {
		r.logger.Error().Err(err).Str("shop", shopDomain).Msg("Failed to look up shop")
		return "", domain.ErrShopNotFound
	}
	if !shop.Installed() {
		return "", domain.ErrShopNotFound
	}
	return shop.ID, nil
}

// authorize resolves the shop for a scoped operation, turning any
// resolution failure into ErrUnauthorized
func (r *ShopResolver) authorize(ctx context.Context, shopDomain string) (string, error) {
	shopID, err := r.Resolve(ctx, shopDomain)
	if err != nil {
		if errors.Is(err, domain.ErrMissingParameter) {
			return "", err
		}
		return "", fmt.Errorf("%w: %s", domain.ErrUnauthorized, shopDomain)
	}
	return shopID, nil
}
