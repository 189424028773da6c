// Package repositorytest wraps the in-memory store with scripted failures.
package repositorytest

import (
	"context"

	"subete-shopify-layer/internal/domain"
	"subete-shopify-layer/internal/infrastructure/repository"
	"subete-shopify-layer/internal/ports"
)

// FaultyStore behaves like the embedded MemoryStore until one of the error
// fields is set; the matching call then fails without touching the data.
type FaultyStore struct {
	*repository.MemoryStore

	GetShopErr          error
	CreateCampaignErr   error
	ListCampaignsErr    error
	GetCampaignErr      error
	DeleteCampaignErr   error
	FindByProductErr    error
	GetClientErr        error
	CreateClientErr     error
	AddParticipantErr   error
	ListParticipantsErr error
}

var _ ports.Store = (*FaultyStore)(nil)

// New wraps a fresh memory store
func New() *FaultyStore {
	return &FaultyStore{MemoryStore: repository.NewMemoryStore()}
}

func (s *FaultyStore) GetShopByDomain(ctx context.Context, shopDomain string) (*domain.Shop, error) {
	if s.GetShopErr != nil {
		return nil, s.GetShopErr
	}
	return s.MemoryStore.GetShopByDomain(ctx, shopDomain)
}

func (s *FaultyStore) CreateCampaign(ctx context.Context, campaign *domain.Campaign) error {
	if s.CreateCampaignErr != nil {
		return s.CreateCampaignErr
	}
	return s.MemoryStore.CreateCampaign(ctx, campaign)
}

func (s *FaultyStore) ListCampaigns(ctx context.Context, shopID string) ([]*domain.Campaign, error) {
	if s.ListCampaignsErr != nil {
		return nil, s.ListCampaignsErr
	}
	return s.MemoryStore.ListCampaigns(ctx, shopID)
}

func (s *FaultyStore) GetCampaign(ctx context.Context, shopID, campaignID string) (*domain.Campaign, error) {
	if s.GetCampaignErr != nil {
		return nil, s.GetCampaignErr
	}
	return s.MemoryStore.GetCampaign(ctx, shopID, campaignID)
}

func (s *FaultyStore) DeleteCampaign(ctx context.Context, shopID, campaignID string) (bool, error) {
	if s.DeleteCampaignErr != nil {
		return false, s.DeleteCampaignErr
	}
	return s.MemoryStore.DeleteCampaign(ctx, shopID, campaignID)
}

func (s *FaultyStore) FindLatestCampaignByProduct(ctx context.Context, shopID, productID string) (*domain.Campaign, error) {
	if s.FindByProductErr != nil {
		return nil, s.FindByProductErr
	}
	return s.MemoryStore.FindLatestCampaignByProduct(ctx, shopID, productID)
}

func (s *FaultyStore) GetClientByEmail(ctx context.Context, email string) (*domain.Client, error) {
	if s.GetClientErr != nil {
		return nil, s.GetClientErr
	}
	return s.MemoryStore.GetClientByEmail(ctx, email)
}

func (s *FaultyStore) CreateClient(ctx context.Context, client *domain.Client) error {
	if s.CreateClientErr != nil {
		return s.CreateClientErr
	}
	return s.MemoryStore.CreateClient(ctx, client)
}

func (s *FaultyStore) AddParticipant(ctx context.Context, participant *domain.Participant) error {
	if s.AddParticipantErr != nil {
		return s.AddParticipantErr
	}
	return s.MemoryStore.AddParticipant(ctx, participant)
}

func (s *FaultyStore) ListParticipants(ctx context.Context, campaignID string) ([]*domain.ParticipantView, error) {
	if s.ListParticipantsErr != nil {
		return nil, s.ListParticipantsErr
	}
	return s.MemoryStore.ListParticipants(ctx, campaignID)
}
