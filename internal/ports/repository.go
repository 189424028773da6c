package ports

import (
	"context"
	"errors"

	"subete-shopify-layer/internal/domain"
)

// ErrDuplicateKey is wrapped by repositories when a write violates a
// uniqueness constraint (shop domain, client email, client/campaign pair)
var ErrDuplicateKey = errors.New("duplicate key")

// ShopRepository defines persistence for installed shops.
// Lookups return (nil, nil) when no row matches.
type ShopRepository interface {
	// UpsertShop inserts or updates the shop keyed by domain and fills shop.ID
	UpsertShop(ctx context.Context, shop *domain.Shop) error
	GetShopByDomain(ctx context.Context, shopDomain string) (*domain.Shop, error)
	// ClearAccessToken drops the token but keeps the shop row
	ClearAccessToken(ctx context.Context, shopDomain string) error
}

// CampaignRepository defines persistence for campaigns. Every read and
// delete is filtered by the owning shop id.
type CampaignRepository interface {
	CreateCampaign(ctx context.Context, campaign *domain.Campaign) error
	// ListCampaigns returns the shop's campaigns newest first
	ListCampaigns(ctx context.Context, shopID string) ([]*domain.Campaign, error)
	GetCampaign(ctx context.Context, shopID, campaignID string) (*domain.Campaign, error)
	// DeleteCampaign removes the campaign and its participants. It reports
	// false when no campaign matched.
	DeleteCampaign(ctx context.Context, shopID, campaignID string) (bool, error)
	// FindLatestCampaignByProduct returns the newest campaign bound to the product
	FindLatestCampaignByProduct(ctx context.Context, shopID, productID string) (*domain.Campaign, error)
}

// ClientRepository defines persistence for clients
type ClientRepository interface {
	GetClientByEmail(ctx context.Context, email string) (*domain.Client, error)
	// CreateClient wraps ErrDuplicateKey when the email already exists
	CreateClient(ctx context.Context, client *domain.Client) error
}

// ParticipantRepository defines persistence for campaign participants
type ParticipantRepository interface {
	// AddParticipant wraps ErrDuplicateKey when the client already joined
	AddParticipant(ctx context.Context, participant *domain.Participant) error
	// ListParticipants returns participants joined with client data, oldest first
	ListParticipants(ctx context.Context, campaignID string) ([]*domain.ParticipantView, error)
}

// Store groups every repository backed by one persistent store
type Store interface {
	ShopRepository
	CampaignRepository
	ClientRepository
	ParticipantRepository
	Close(ctx context.Context) error
}

// StateStore keeps OAuth state nonces between /auth and the callback
type StateStore interface {
	Save(ctx context.Context, state *domain.OAuthState) error
	// Consume returns and deletes the nonce. It returns (nil, nil) when the
	// nonce is unknown or already used.
	Consume(ctx context.Context, state string) (*domain.OAuthState, error)
}
