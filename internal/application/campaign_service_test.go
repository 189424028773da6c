package application

import (
	"context"
	"strings"
	"testing"

	"subete-shopify-layer/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCampaignService_CreateAndList(t *testing.T) {
	f := newCampaignFixture(t)
	ctx := context.Background()
	shopID := installShop(t, f.store, testShop)

	first, err := f.campaigns.Create(ctx, CreateCampaignInput{Name: "Spring", Goal: 100, Shop: testShop})
	require.NoError(t, err)
	second, err := f.campaigns.Create(ctx, CreateCampaignInput{Name: " Summer ", Goal: 250, Shop: testShop, ProductID: "123"})
	require.NoError(t, err)

	list, err := f.campaigns.List(ctx, testShop)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")
	assert.Equal(t, first.ID, list[1].ID)

	assert.Equal(t, "Summer", list[0].Name)
	assert.Equal(t, int64(250), list[0].Goal)
	assert.Equal(t, shopID, list[0].ShopID)
	require.NotNil(t, list[0].ProductID)
	assert.Equal(t, "123", *list[0].ProductID)
	assert.Nil(t, list[1].ProductID)
	assert.Equal(t, 2, f.metrics.campaigns)
}

func TestCampaignService_CreateValidation(t *testing.T) {
	f := newCampaignFixture(t)
	installShop(t, f.store, testShop)

	inputs := []CreateCampaignInput{
		{Goal: 10, Shop: testShop},
		{Name: "x", Goal: 0, Shop: testShop},
		{Name: "x", Goal: -5, Shop: testShop},
		{Name: "x", Goal: 10},
	}
	for _, in := range inputs {
		_, err := f.campaigns.Create(context.Background(), in)
		assert.ErrorIs(t, err, domain.ErrMissingParameter)
	}
}

func TestCampaignService_UnauthorizedShop(t *testing.T) {
	f := newCampaignFixture(t)
	ctx := context.Background()

	_, err := f.campaigns.Create(ctx, CreateCampaignInput{Name: "x", Goal: 1, Shop: "ghost.myshopify.com"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.campaigns.List(ctx, "ghost.myshopify.com")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	// an uninstalled shop keeps its row but loses access
	installShop(t, f.store, testShop)
	require.NoError(t, f.store.ClearAccessToken(ctx, testShop))
	_, err = f.campaigns.List(ctx, testShop)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestCampaignService_CrossTenantIsNotFound(t *testing.T) {
	f := newCampaignFixture(t)
	ctx := context.Background()
	installShop(t, f.store, testShop)
	installShop(t, f.store, "other.myshopify.com")

	theirs, err := f.campaigns.Create(ctx, CreateCampaignInput{Name: "Theirs", Goal: 5, Shop: "other.myshopify.com"})
	require.NoError(t, err)

	for _, id := range []string{theirs.ID, "does-not-exist"} {
		_, err = f.campaigns.Get(ctx, id, testShop)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		err = f.campaigns.Delete(ctx, id, testShop)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		_, err = f.campaigns.Export(ctx, id, testShop)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	}

	still, err := f.campaigns.Get(ctx, theirs.ID, "other.myshopify.com")
	require.NoError(t, err)
	assert.Equal(t, "Theirs", still.Name)
}

func TestCampaignService_DeleteRemovesParticipants(t *testing.T) {
	f := newCampaignFixture(t)
	ctx := context.Background()
	installShop(t, f.store, testShop)

	campaign, err := f.campaigns.Create(ctx, CreateCampaignInput{Name: "Spring", Goal: 100, Shop: testShop})
	require.NoError(t, err)
	_, err = f.participants.Enroll(ctx, EnrollInput{Email: "a@x.com", Name: "A", CampaignID: campaign.ID, Shop: testShop})
	require.NoError(t, err)

	require.NoError(t, f.campaigns.Delete(ctx, campaign.ID, testShop))

	_, err = f.campaigns.Get(ctx, campaign.ID, testShop)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	views, err := f.store.ListParticipants(ctx, campaign.ID)
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestCampaignService_Export(t *testing.T) {
	f := newCampaignFixture(t)
	ctx := context.Background()
	installShop(t, f.store, testShop)

	campaign, err := f.campaigns.Create(ctx, CreateCampaignInput{Name: "Spring", Goal: 100, Shop: testShop})
	require.NoError(t, err)
	for _, p := range []struct{ name, email string }{{"A", "a@x.com"}, {"B", "b@x.com"}} {
		_, err := f.participants.Enroll(ctx, EnrollInput{Email: p.email, Name: p.name, CampaignID: campaign.ID, Shop: testShop})
		require.NoError(t, err)
	}

	export, err := f.campaigns.Export(ctx, campaign.ID, testShop)
	require.NoError(t, err)
	assert.Equal(t, "campaign-"+campaign.ID+"-participants.csv", export.Filename)

	lines := strings.Split(strings.TrimSpace(string(export.Body)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "name,email,joined_at", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "A,a@x.com,"))
	assert.True(t, strings.HasPrefix(lines[2], "B,b@x.com,"))
}

func TestCampaignService_FindByProduct(t *testing.T) {
	f := newCampaignFixture(t)
	ctx := context.Background()
	installShop(t, f.store, testShop)

	_, err := f.campaigns.Create(ctx, CreateCampaignInput{Name: "Old", Goal: 1, Shop: testShop, ProductID: "p1"})
	require.NoError(t, err)
	latest, err := f.campaigns.Create(ctx, CreateCampaignInput{Name: "New", Goal: 1, Shop: testShop, ProductID: "p1"})
	require.NoError(t, err)

	got, err := f.campaigns.FindByProduct(ctx, testShop, "p1")
	require.NoError(t, err)
	assert.Equal(t, latest.ID, got.ID)

	_, err = f.campaigns.FindByProduct(ctx, testShop, "p2")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.campaigns.FindByProduct(ctx, testShop, "")
	assert.ErrorIs(t, err, domain.ErrMissingParameter)
}
