package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"subete-shopify-layer/internal/domain"
	"subete-shopify-layer/internal/ports"

	"github.com/google/uuid"
)

// MemoryStore implements ports.Store in process memory. It enforces the
// same uniqueness rules as the database schemas and backs local runs and
// tests.
type MemoryStore struct {
	mu           sync.RWMutex
	seq          int64
	now          func() time.Time
	shops        map[string]*domain.Shop // by domain
	campaigns    map[string]*memCampaign
	clients      map[string]*domain.Client // by email
	participants map[string]*memParticipant
}

type memCampaign struct {
	domain.Campaign
	seq int64
}

type memParticipant struct {
	domain.Participant
	seq int64
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:          time.Now,
		shops:        make(map[string]*domain.Shop),
		campaigns:    make(map[string]*memCampaign),
		clients:      make(map[string]*domain.Client),
		participants: make(map[string]*memParticipant),
	}
}

var _ ports.Store = (*MemoryStore)(nil)

// UpsertShop saves or updates a shop keyed by domain
func (s *MemoryStore) UpsertShop(_ context.Context, shop *domain.Shop) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if existing, ok := s.shops[shop.Domain]; ok {
		existing.AccessToken = shop.AccessToken
		existing.UpdatedAt = now
		shop.ID = existing.ID
		shop.CreatedAt = existing.CreatedAt
		shop.UpdatedAt = now
		return nil
	}

	stored := *shop
	stored.ID = uuid.NewString()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.shops[shop.Domain] = &stored
	*shop = stored
	return nil
}

// GetShopByDomain retrieves a shop by domain
func (s *MemoryStore) GetShopByDomain(_ context.Context, shopDomain string) (*domain.Shop, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	shop, ok := s.shops[shopDomain]
	if !ok {
		return nil, nil
	}
	copied := *shop
	return &copied, nil
}

// ClearAccessToken removes the token of a shop
func (s *MemoryStore) ClearAccessToken(_ context.Context, shopDomain string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if shop, ok := s.shops[shopDomain]; ok {
		shop.AccessToken = ""
		shop.UpdatedAt = s.now()
	}
	return nil
}

// CreateCampaign inserts a campaign
func (s *MemoryStore) CreateCampaign(_ context.Context, campaign *domain.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	campaign.ID = uuid.NewString()
	if campaign.CreatedAt.IsZero() {
		campaign.CreatedAt = s.now()
	}
	s.seq++
	s.campaigns[campaign.ID] = &memCampaign{Campaign: *campaign, seq: s.seq}
	return nil
}

// ListCampaigns returns the shop's campaigns newest first
func (s *MemoryStore) ListCampaigns(_ context.Context, shopID string) ([]*domain.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.campaignsWhere(func(c *memCampaign) bool { return c.ShopID == shopID }), nil
}

// GetCampaign retrieves a campaign by id within a shop
func (s *MemoryStore) GetCampaign(_ context.Context, shopID, campaignID string) (*domain.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.campaigns[campaignID]
	if !ok || c.ShopID != shopID {
		return nil, nil
	}
	copied := c.Campaign
	return &copied, nil
}

// DeleteCampaign removes a campaign and its participants
func (s *MemoryStore) DeleteCampaign(_ context.Context, shopID, campaignID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.campaigns[campaignID]
	if !ok || c.ShopID != shopID {
		return false, nil
	}
	for id, p := range s.participants {
		if p.CampaignID == campaignID {
			delete(s.participants, id)
		}
	}
	delete(s.campaigns, campaignID)
	return true, nil
}

// FindLatestCampaignByProduct returns the newest campaign bound to a product
func (s *MemoryStore) FindLatestCampaignByProduct(_ context.Context, shopID, productID string) (*domain.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := s.campaignsWhere(func(c *memCampaign) bool {
		return c.ShopID == shopID && c.ProductID != nil && *c.ProductID == productID
	})
	if len(matches) == 0 {
		return nil, nil
	}
	return matches[0], nil
}

// campaignsWhere must be called with the lock held
func (s *MemoryStore) campaignsWhere(match func(*memCampaign) bool) []*domain.Campaign {
	var rows []*memCampaign
	for _, c := range s.campaigns {
		if match(c) {
			rows = append(rows, c)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.After(rows[j].CreatedAt)
		}
		return rows[i].seq > rows[j].seq
	})

	campaigns := make([]*domain.Campaign, 0, len(rows))
	for _, c := range rows {
		copied := c.Campaign
		campaigns = append(campaigns, &copied)
	}
	return campaigns
}

// GetClientByEmail retrieves a client by email
func (s *MemoryStore) GetClientByEmail(_ context.Context, email string) (*domain.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	client, ok := s.clients[email]
	if !ok {
		return nil, nil
	}
	copied := *client
	return &copied, nil
}

// CreateClient inserts a client with a unique email
func (s *MemoryStore) CreateClient(_ context.Context, client *domain.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clients[client.Email]; ok {
		return fmt.Errorf("failed to create client: %w", ports.ErrDuplicateKey)
	}
	client.ID = uuid.NewString()
	if client.CreatedAt.IsZero() {
		client.CreatedAt = s.now()
	}
	stored := *client
	s.clients[client.Email] = &stored
	return nil
}

// AddParticipant inserts a participant with a unique client/campaign pair
func (s *MemoryStore) AddParticipant(_ context.Context, participant *domain.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.participants {
		if p.ClientID == participant.ClientID && p.CampaignID == participant.CampaignID {
			return fmt.Errorf("failed to add participant: %w", ports.ErrDuplicateKey)
		}
	}
	participant.ID = uuid.NewString()
	if participant.JoinedAt.IsZero() {
		participant.JoinedAt = s.now()
	}
	s.seq++
	s.participants[participant.ID] = &memParticipant{Participant: *participant, seq: s.seq}
	return nil
}

// ListParticipants returns participants with client data, oldest first
func (s *MemoryStore) ListParticipants(_ context.Context, campaignID string) ([]*domain.ParticipantView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clientsByID := make(map[string]*domain.Client, len(s.clients))
	for _, c := range s.clients {
		clientsByID[c.ID] = c
	}

	var rows []*memParticipant
	for _, p := range s.participants {
		if p.CampaignID == campaignID {
			rows = append(rows, p)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].JoinedAt.Equal(rows[j].JoinedAt) {
			return rows[i].JoinedAt.Before(rows[j].JoinedAt)
		}
		return rows[i].seq < rows[j].seq
	})

	views := make([]*domain.ParticipantView, 0, len(rows))
	for _, p := range rows {
		view := &domain.ParticipantView{ID: p.ID, JoinedAt: p.JoinedAt}
		if c, ok := clientsByID[p.ClientID]; ok {
			view.Name = c.Name
			view.Email = c.Email
		}
		views = append(views, view)
	}
	return views, nil
}

// Close is a no-op
func (s *MemoryStore) Close(context.Context) error {
	return nil
}
