package application

import (
	"context"
	"fmt"
	"strings"

	"subete-shopify-layer/internal/domain"
	"subete-shopify-layer/internal/ports"

	"github.com/rs/zerolog"
)

// CampaignService implements campaign CRUD scoped to the caller's shop
type CampaignService struct {
	resolver     *ShopResolver
	campaigns    ports.CampaignRepository
	participants ports.ParticipantRepository
	metrics      ports.Metrics
	logger       zerolog.Logger
}

// NewCampaignService creates a new campaign service
func NewCampaignService(
	resolver *ShopResolver,
	campaigns ports.CampaignRepository,
	participants ports.ParticipantRepository,
	metrics ports.Metrics,
	logger zerolog.Logger,
) *CampaignService {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &CampaignService{
		resolver:     resolver,
		campaigns:    campaigns,
		participants: participants,
		metrics:      metrics,
		logger:       logger,
	}
}

// CreateCampaignInput represents input for creating a campaign
type CreateCampaignInput struct {
	Name      string
	Goal      int64
	Shop      string
	ProductID string
}

// Create inserts a campaign owned by the resolved shop
func (s *CampaignService) Create(ctx context.Context, input CreateCampaignInput) (*domain.Campaign, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" || input.Goal <= 0 || input.Shop == "" {
		return nil, fmt.Errorf("%w: name, goal and shop are required", domain.ErrMissingParameter)
	}

	shopID, err := s.resolver.authorize(ctx, input.Shop)
	if err != nil {
		return nil, err
	}

	campaign := &domain.Campaign{
		ShopID: shopID,
		Name:   name,
		Goal:   input.Goal,
	}
	if productID := strings.TrimSpace(input.ProductID); productID != "" {
		campaign.ProductID = &productID
	}

	if err := s.campaigns.CreateCampaign(ctx, campaign); err != nil {
		s.logger.Error().Err(err).Str("shop", input.Shop).Msg("Failed to create campaign")
		return nil, fmt.Errorf("%w: failed to create campaign: %w", domain.ErrPersistence, err)
	}

	s.metrics.CampaignCreated()
	s.logger.Info().Str("shop", input.Shop).Str("campaignID", campaign.ID).Msg("Campaign created")
	return campaign, nil
}

// List returns the shop's campaigns newest first
func (s *CampaignService) List(ctx context.Context, shop string) ([]*domain.Campaign, error) {
	shopID, err := s.resolver.authorize(ctx, shop)
	if err != nil {
		return nil, err
	}

	campaigns, err := s.campaigns.ListCampaigns(ctx, shopID)
	if err != nil {
		s.logger.Error().Err(err).Str("shop", shop).Msg("Failed to list campaigns")
		return nil, fmt.Errorf("%w: failed to list campaigns: %w", domain.ErrPersistence, err)
	}
	if campaigns == nil {
		campaigns = []*domain.Campaign{}
	}
	return campaigns, nil
}

// Get returns a campaign owned by the shop. A campaign of another shop is
// reported exactly like a missing one.
func (s *CampaignService) Get(ctx context.Context, id, shop string) (*domain.Campaign, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: id", domain.ErrMissingParameter)
	}
	shopID, err := s.resolver.authorize(ctx, shop)
	if err != nil {
		return nil, err
	}
	return s.owned(ctx, shopID, id)
}

// Delete removes a campaign owned by the shop along with its participants
func (s *CampaignService) Delete(ctx context.Context, id, shop string) error {
	if id == "" {
		return fmt.Errorf("%w: id", domain.ErrMissingParameter)
	}
	shopID, err := s.resolver.authorize(ctx, shop)
	if err != nil {
		return err
	}
	if _, err := s.owned(ctx, shopID, id); err != nil {
		return err
	}

	deleted, err := s.campaigns.DeleteCampaign(ctx, shopID, id)
	if err != nil {
		s.logger.Error().Err(err).Str("shop", shop).Str("campaignID", id).Msg("Failed to delete campaign")
		return fmt.Errorf("%w: failed to delete campaign: %w", domain.ErrPersistence, err)
	}
	if !deleted {
		return fmt.Errorf("%w: campaign %s", domain.ErrNotFound, id)
	}

	s.logger.Info().Str("shop", shop).Str("campaignID", id).Msg("Campaign deleted")
	return nil
}

// Export returns the campaign's participants as CSV with the columns
// name, email, joined_at
func (s *CampaignService) Export(ctx context.Context, id, shop string) (*CampaignExport, error) {
	campaign, err := s.Get(ctx, id, shop)
	if err != nil {
		return nil, err
	}

	views, err := s.participants.ListParticipants(ctx, campaign.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("shop", shop).Str("campaignID", id).Msg("Failed to list participants for export")
		return nil, fmt.Errorf("%w: failed to list participants: %w", domain.ErrPersistence, err)
	}

	body, err := encodeParticipantsCSV(views)
	if err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}
	return &CampaignExport{
		Filename: exportFilename(campaign.ID),
		Body:     body,
	}, nil
}

// FindByProduct returns the newest campaign of the shop bound to the product
func (s *CampaignService) FindByProduct(ctx context.Context, shop, productID string) (*domain.Campaign, error) {
	if productID == "" {
		return nil, fmt.Errorf("%w: product_id", domain.ErrMissingParameter)
	}
	shopID, err := s.resolver.authorize(ctx, shop)
	if err != nil {
		return nil, err
	}

	campaign, err := s.campaigns.FindLatestCampaignByProduct(ctx, shopID, productID)
	if err != nil {
		s.logger.Error().Err(err).Str("shop", shop).Str("productID", productID).Msg("Failed to find campaign by product")
		return nil, fmt.Errorf("%w: campaign for product %s", domain.ErrNotFound, productID)
	}
	if campaign == nil {
		return nil, fmt.Errorf("%w: campaign for product %s", domain.ErrNotFound, productID)
	}
	return campaign, nil
}

// owned fetches a campaign filtered by both id and shop id
func (s *CampaignService) owned(ctx context.Context, shopID, id string) (*domain.Campaign, error) {
	campaign, err := s.campaigns.GetCampaign(ctx, shopID, id)
	if err != nil {
		s.logger.Error().Err(err).Str("campaignID", id).Msg("Failed to get campaign")
		return nil, fmt.Errorf("%w: campaign %s", domain.ErrNotFound, id)
	}
	if campaign == nil {
		return nil, fmt.Errorf("%w: campaign %s", domain.ErrNotFound, id)
	}
	return campaign, nil
}
