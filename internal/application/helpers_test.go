package application

import (
	"context"
	"sync"
	"testing"

	"subete-shopify-layer/internal/domain"
	"subete-shopify-layer/internal/infrastructure/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const testShop = "demo.myshopify.com"

type recordingMetrics struct {
	mu          sync.Mutex
	installs    []string
	enrollments []string
	campaigns   int
}

func (m *recordingMetrics) InstallFinished(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.installs = append(m.installs, outcome)
}

func (m *recordingMetrics) ParticipantEnrolled(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enrollments = append(m.enrollments, outcome)
}

func (m *recordingMetrics) CampaignCreated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.campaigns++
}

// installShop stores an installed shop and returns its id
func installShop(t *testing.T, store *repository.MemoryStore, shopDomain string) string {
	t.Helper()
	shop := &domain.Shop{Domain: shopDomain, AccessToken: "sealed"}
	require.NoError(t, store.UpsertShop(context.Background(), shop))
	return shop.ID
}

type campaignFixture struct {
	store        *repository.MemoryStore
	metrics      *recordingMetrics
	campaigns    *CampaignService
	participants *ParticipantService
}

func newCampaignFixture(t *testing.T) *campaignFixture {
	t.Helper()
	store := repository.NewMemoryStore()
	metrics := &recordingMetrics{}
	logger := zerolog.Nop()
	resolver := NewShopResolver(store, logger)
	return &campaignFixture{
		store:        store,
		metrics:      metrics,
		campaigns:    NewCampaignService(resolver, store, store, metrics, logger),
		participants: NewParticipantService(resolver, store, store, store, metrics, logger),
	}
}
