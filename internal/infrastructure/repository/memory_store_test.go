package repository

import (
	"context"
	"testing"
	"time"

	"subete-shopify-layer/internal/domain"
	"subete-shopify-layer/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_CampaignOrderingAndScope(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	shop := &domain.Shop{Domain: "a.myshopify.com", AccessToken: "t"}
	require.NoError(t, store.UpsertShop(ctx, shop))

	for _, name := range []string{"first", "second", "third"} {
		require.NoError(t, store.CreateCampaign(ctx, &domain.Campaign{ShopID: shop.ID, Name: name, Goal: 1}))
	}

	list, err := store.ListCampaigns(ctx, shop.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"third", "second", "first"}, []string{list[0].Name, list[1].Name, list[2].Name})

	other, err := store.ListCampaigns(ctx, "someone-else")
	require.NoError(t, err)
	assert.Empty(t, other)

	got, err := store.GetCampaign(ctx, "someone-else", list[0].ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStore_Uniqueness(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	client := &domain.Client{Email: "a@x.com", Name: "A"}
	require.NoError(t, store.CreateClient(ctx, client))
	assert.ErrorIs(t, store.CreateClient(ctx, &domain.Client{Email: "a@x.com"}), ports.ErrDuplicateKey)

	p := &domain.Participant{ClientID: client.ID, CampaignID: "c1"}
	require.NoError(t, store.AddParticipant(ctx, p))
	assert.ErrorIs(t, store.AddParticipant(ctx, &domain.Participant{ClientID: client.ID, CampaignID: "c1"}), ports.ErrDuplicateKey)
	require.NoError(t, store.AddParticipant(ctx, &domain.Participant{ClientID: client.ID, CampaignID: "c2"}))

	views, err := store.ListParticipants(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "a@x.com", views[0].Email)
}

func TestMemoryStore_UpsertKeepsID(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	first := &domain.Shop{Domain: "a.myshopify.com", AccessToken: "t1"}
	require.NoError(t, store.UpsertShop(ctx, first))
	second := &domain.Shop{Domain: "a.myshopify.com", AccessToken: "t2"}
	require.NoError(t, store.UpsertShop(ctx, second))
	assert.Equal(t, first.ID, second.ID)

	found, err := store.GetShopByDomain(ctx, "a.myshopify.com")
	require.NoError(t, err)
	assert.Equal(t, "t2", found.AccessToken)
}
