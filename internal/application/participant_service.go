package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"subete-shopify-layer/internal/domain"
	"subete-shopify-layer/internal/ports"

	"github.com/rs/zerolog"
)

// Enrollment outcomes reported to metrics
const (
	EnrollOutcomeJoined        = "joined"
	EnrollOutcomeAlreadyJoined = "already_joined"
	EnrollOutcomeFailed        = "failed"
)

// ParticipantService enrolls clients into campaigns and lists them
type ParticipantService struct {
	resolver     *ShopResolver
	campaigns    ports.CampaignRepository
	clients      ports.ClientRepository
	participants ports.ParticipantRepository
	metrics      ports.Metrics
	logger       zerolog.Logger
}

// NewParticipantService creates a new participant service
func NewParticipantService(
	resolver *ShopResolver,
	campaigns ports.CampaignRepository,
	clients ports.ClientRepository,
	participants ports.ParticipantRepository,
	metrics ports.Metrics,
	logger zerolog.Logger,
) *ParticipantService {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &ParticipantService{
		resolver:     resolver,
		campaigns:    campaigns,
		clients:      clients,
		participants: participants,
		metrics:      metrics,
		logger:       logger,
	}
}

// EnrollInput represents input for joining a campaign
type EnrollInput struct {
	Email      string
	Name       string
	CampaignID string
	Shop       string
}

// Enroll joins the client identified by email into the campaign, creating
// the client on first sight. A second join of the same pair yields
// ErrAlreadyJoined.
func (s *ParticipantService) Enroll(ctx context.Context, input EnrollInput) (*domain.Participant, error) {
	participant, err := s.enroll(ctx, input)
	switch {
	case err == nil:
		s.metrics.ParticipantEnrolled(EnrollOutcomeJoined)
	case errors.Is(err, domain.ErrAlreadyJoined):
		s.metrics.ParticipantEnrolled(EnrollOutcomeAlreadyJoined)
	default:
		s.metrics.ParticipantEnrolled(EnrollOutcomeFailed)
	}
	return participant, err
}

func (s *ParticipantService) enroll(ctx context.Context, input EnrollInput) (*domain.Participant, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	name := strings.TrimSpace(input.Name)
	if email == "" || name == "" || input.CampaignID == "" || input.Shop == "" {
		return nil, fmt.Errorf("%w: email, name, campaign_id and shop are required", domain.ErrMissingParameter)
	}

	shopID, err := s.resolver.authorize(ctx, input.Shop)
	if err != nil {
		return nil, err
	}
	if err := s.ensureOwned(ctx, shopID, input.CampaignID); err != nil {
		return nil, err
	}

	client, err := s.findOrCreateClient(ctx, email, name)
	if err != nil {
		return nil, err
	}

	participant := &domain.Participant{
		ClientID:   client.ID,
		CampaignID: input.CampaignID,
	}
	if err := s.participants.AddParticipant(ctx, participant); err != nil {
		if errors.Is(err, ports.ErrDuplicateKey) {
			return nil, domain.ErrAlreadyJoined
		}
		s.logger.Error().Err(err).Str("campaignID", input.CampaignID).Msg("Failed to insert participant")
		return nil, fmt.Errorf("%w: failed to join campaign: %w", domain.ErrPersistence, err)
	}

	s.logger.Info().
		Str("shop", input.Shop).
		Str("campaignID", input.CampaignID).
		Str("clientID", client.ID).
		Msg("Client joined campaign")
	return participant, nil
}

// List returns the campaign's participants oldest first
func (s *ParticipantService) List(ctx context.Context, campaignID, shop string) ([]*domain.ParticipantView, error) {
	if campaignID == "" || shop == "" {
		return nil, fmt.Errorf("%w: campaign_id and shop are required", domain.ErrMissingParameter)
	}
	shopID, err := s.resolver.authorize(ctx, shop)
	if err != nil {
		return nil, err
	}
	if err := s.ensureOwned(ctx, shopID, campaignID); err != nil {
		return nil, err
	}

	views, err := s.participants.ListParticipants(ctx, campaignID)
	if err != nil {
		s.logger.Error().Err(err).Str("campaignID", campaignID).Msg("Failed to list participants")
		return nil, fmt.Errorf("%w: failed to list participants: %w", domain.ErrPersistence, err)
	}
	if views == nil {
		views = []*domain.ParticipantView{}
	}
	return views, nil
}

func (s *ParticipantService) ensureOwned(ctx context.Context, shopID, campaignID string) error {
	campaign, err := s.campaigns.GetCampaign(ctx, shopID, campaignID)
	if err != nil {
		s.logger.Error().Err(err).Str("campaignID", campaignID).Msg("Failed to get campaign")
	}
	if err != nil || campaign == nil {
		return fmt.Errorf("%w: campaign %s", domain.ErrNotFound, campaignID)
	}
	return nil
}

// findOrCreateClient looks the client up by email. A concurrent enrollment
// may create the same email first; the unique index then wins and the
// existing row is read back.
func (s *ParticipantService) findOrCreateClient(ctx context.Context, email, name string) (*domain.Client, error) {
	client, err := s.clients.GetClientByEmail(ctx, email)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to look up client")
		return nil, fmt.Errorf("%w: failed to look up client: %w", domain.ErrPersistence, err)
	}
	if client != nil {
		return client, nil
	}

	client = &domain.Client{Email: email, Name: name}
	err = s.clients.CreateClient(ctx, client)
	if err == nil {
		return client, nil
	}
	if !errors.Is(err, ports.ErrDuplicateKey) {
		s.logger.Error().Err(err).Msg("Failed to create client")
		return nil, fmt.Errorf("%w: failed to create client: %w", domain.ErrPersistence, err)
	}

	client, err = s.clients.GetClientByEmail(ctx, email)
	if err != nil || client == nil {
		s.logger.Error().Err(err).Msg("Failed to read back client after duplicate email")
		return nil, fmt.Errorf("%w: failed to create client", domain.ErrPersistence)
	}
	return client, nil
}
