package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"subete-shopify-layer/internal/application"
	"subete-shopify-layer/internal/application/webhook_handlers"
	"subete-shopify-layer/internal/domain"
	"subete-shopify-layer/internal/infrastructure/encryption"
	"subete-shopify-layer/internal/infrastructure/metrics"
	"subete-shopify-layer/internal/infrastructure/repository"
	"subete-shopify-layer/internal/infrastructure/repository/repositorytest"
	"subete-shopify-layer/internal/infrastructure/shopify/shopifytest"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testShop  = "demo.myshopify.com"
	otherShop = "other.myshopify.com"
	testKey   = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"
)

type testServer struct {
	handler http.Handler
	store   *repository.MemoryStore
	faults  *repositorytest.FaultyStore
	client  *shopifytest.Client
}

func newTestServer(t *testing.T, verify bool) *testServer {
	t.Helper()
	logger := zerolog.Nop()
	faults := repositorytest.New()
	store := faults.MemoryStore
	client := shopifytest.New(7, "<html><body>\n</body></html>")
	cipher, err := encryption.NewService(testKey)
	require.NoError(t, err)
	m := metrics.New()

	resolver := application.NewShopResolver(faults, logger)
	dispatcher := application.NewWebhookDispatcher(logger)
	dispatcher.RegisterHandler(webhook_handlers.NewAppUninstalledHandler(logger, store))

	handler := NewRouter(Dependencies{
		Install: application.NewInstallService(client, store, repository.NewMemoryStateStore(), cipher, m, logger, application.InstallOptions{
			WidgetURL:      "https://widget.example.com",
			StateTTL:       time.Minute,
			VerifyCallback: verify,
		}),
		Campaigns:    application.NewCampaignService(resolver, faults, faults, m, logger),
		Participants: application.NewParticipantService(resolver, faults, faults, faults, m, logger),
		Webhooks:     dispatcher,
		Shopify:      client,
		Metrics:      m,
		Logger:       logger,
	})
	return &testServer{handler: handler, store: store, faults: faults, client: client}
}

func (s *testServer) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) install(t *testing.T, shop string) {
	t.Helper()
	require.NoError(t, s.store.UpsertShop(context.Background(), &domain.Shop{Domain: shop, AccessToken: "sealed"}))
}

func (s *testServer) createCampaign(t *testing.T, shop, name string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/create-campaign", `{"name":"`+name+`","goal":100,"shop":"`+shop+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Message string `json:"message"`
		ID      string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Campaign created", resp.Message)
	require.NotEmpty(t, resp.ID)
	return resp.ID
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp["error"]
}

func TestOperationalRoutes(t *testing.T) {
	s := newTestServer(t, false)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/", "").Code)

	health := s.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, health.Code)
	assert.JSONEq(t, `{"status":"ok"}`, health.Body.String())

	m := s.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, m.Code)
	assert.Contains(t, m.Body.String(), "subete_http_requests_total")
}

func TestAuthRedirect(t *testing.T) {
	s := newTestServer(t, true)

	missing := s.do(t, http.MethodGet, "/auth", "")
	assert.Equal(t, http.StatusBadRequest, missing.Code)
	assert.Contains(t, missing.Body.String(), "Missing shop parameter")

	rec := s.do(t, http.MethodGet, "/auth?shop="+testShop, "")
	require.Equal(t, http.StatusFound, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, testShop, loc.Host)
	assert.NotEmpty(t, loc.Query().Get("state"))
}

func TestAuthCallback(t *testing.T) {
	t.Run("installs and patches theme", func(t *testing.T) {
		s := newTestServer(t, false)

		rec := s.do(t, http.MethodGet, "/auth/callback?shop="+testShop+"&code=c0de", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "App installed and widget inserted!", rec.Body.String())

		layout, _ := s.client.Asset(7, domain.ThemeLayoutKey)
		assert.Contains(t, layout, domain.WidgetRenderCall)
	})

	t.Run("missing parameters", func(t *testing.T) {
		s := newTestServer(t, false)
		rec := s.do(t, http.MethodGet, "/auth/callback?shop="+testShop, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Missing parameters")
	})

	t.Run("no main theme", func(t *testing.T) {
		s := newTestServer(t, false)
		s.client.Themes = nil
		rec := s.do(t, http.MethodGet, "/auth/callback?shop="+testShop+"&code=c0de", "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "Error authenticating with Shopify")
	})

	t.Run("forged callback", func(t *testing.T) {
		s := newTestServer(t, true)
		rec := s.do(t, http.MethodGet, "/auth/callback?shop="+testShop+"&code=c0de&state=forged&hmac=x", "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid OAuth callback")
		assert.Zero(t, s.client.Exchanges)
	})

	t.Run("full verified flow", func(t *testing.T) {
		s := newTestServer(t, true)
		redirect := s.do(t, http.MethodGet, "/auth?shop="+testShop, "")
		loc, err := url.Parse(redirect.Header().Get("Location"))
		require.NoError(t, err)
		state := loc.Query().Get("state")

		rec := s.do(t, http.MethodGet, "/auth/callback?shop="+testShop+"&code=c0de&hmac=x&state="+state, "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestCampaignRoutes(t *testing.T) {
	s := newTestServer(t, false)
	s.install(t, testShop)

	first := s.createCampaign(t, testShop, "Spring")
	second := s.createCampaign(t, testShop, "Summer")

	rec := s.do(t, http.MethodGet, "/api/campaigns?shop="+testShop, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, second, list[0]["id"])
	assert.Equal(t, first, list[1]["id"])
	assert.Equal(t, "Summer", list[0]["name"])
	assert.Equal(t, float64(100), list[0]["goal"])
	assert.Contains(t, list[0], "product_id")
	assert.Nil(t, list[0]["product_id"])

	get := s.do(t, http.MethodGet, "/api/campaigns/"+first+"?shop="+testShop, "")
	require.Equal(t, http.StatusOK, get.Code)
	assert.Contains(t, get.Body.String(), `"name":"Spring"`)

	del := s.do(t, http.MethodDelete, "/api/campaigns/"+first+"?shop="+testShop, "")
	require.Equal(t, http.StatusOK, del.Code)
	assert.JSONEq(t, `{"message":"Campaign deleted"}`, del.Body.String())

	gone := s.do(t, http.MethodGet, "/api/campaigns/"+first+"?shop="+testShop, "")
	assert.Equal(t, http.StatusNotFound, gone.Code)
}

func TestCampaignRoutes_Errors(t *testing.T) {
	s := newTestServer(t, false)
	s.install(t, testShop)
	s.install(t, otherShop)
	theirs := s.createCampaign(t, otherShop, "Theirs")

	tests := []struct {
		name   string
		method string
		target string
		body   string
		want   int
	}{
		{"create missing goal", http.MethodPost, "/api/create-campaign", `{"name":"x","shop":"` + testShop + `"}`, http.StatusBadRequest},
		{"create bad json", http.MethodPost, "/api/create-campaign", `{"name":`, http.StatusBadRequest},
		{"create unknown shop", http.MethodPost, "/api/create-campaign", `{"name":"x","goal":1,"shop":"ghost.myshopify.com"}`, http.StatusForbidden},
		{"list missing shop", http.MethodGet, "/api/campaigns", "", http.StatusBadRequest},
		{"list unknown shop", http.MethodGet, "/api/campaigns?shop=ghost.myshopify.com", "", http.StatusForbidden},
		{"get other tenant", http.MethodGet, "/api/campaigns/" + theirs + "?shop=" + testShop, "", http.StatusNotFound},
		{"get unknown id", http.MethodGet, "/api/campaigns/nope?shop=" + testShop, "", http.StatusNotFound},
		{"delete other tenant", http.MethodDelete, "/api/campaigns/" + theirs + "?shop=" + testShop, "", http.StatusNotFound},
		{"export other tenant", http.MethodGet, "/api/campaigns/" + theirs + "/export?shop=" + testShop, "", http.StatusNotFound},
		{"by product missing id", http.MethodGet, "/api/campaigns/by-product?shop=" + testShop, "", http.StatusBadRequest},
		{"by product none", http.MethodGet, "/api/campaigns/by-product?shop=" + testShop + "&product_id=9", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			assert.NotEmpty(t, errorBody(t, rec))
		})
	}

	// the other tenant's campaign survived the cross-tenant delete
	still := s.do(t, http.MethodGet, "/api/campaigns/"+theirs+"?shop="+otherShop, "")
	assert.Equal(t, http.StatusOK, still.Code)
}

func TestStoreFailureStatuses(t *testing.T) {
	down := errors.New("db down")
	tests := []struct {
		name   string
		fault  func(*repositorytest.FaultyStore)
		method string
		target string
		body   string
		want   int
		msg    string
	}{
		{"shop lookup fails", func(f *repositorytest.FaultyStore) { f.GetShopErr = down },
			http.MethodGet, "/api/campaigns?shop=" + testShop, "", http.StatusForbidden, msgUnauthorized},
		{"create fails", func(f *repositorytest.FaultyStore) { f.CreateCampaignErr = down },
			http.MethodPost, "/api/create-campaign", `{"name":"x","goal":1,"shop":"` + testShop + `"}`, http.StatusInternalServerError, msgInternal},
		{"list fails", func(f *repositorytest.FaultyStore) { f.ListCampaignsErr = down },
			http.MethodGet, "/api/campaigns?shop=" + testShop, "", http.StatusInternalServerError, msgInternal},
		{"enroll insert fails", func(f *repositorytest.FaultyStore) { f.AddParticipantErr = down },
			http.MethodPost, "/api/participants", `{"email":"a@x.com","name":"A","campaign_id":"{id}","shop":"` + testShop + `"}`, http.StatusInternalServerError, msgInternal},
		{"participant list fails", func(f *repositorytest.FaultyStore) { f.ListParticipantsErr = down },
			http.MethodGet, "/api/participants?campaign_id={id}&shop=" + testShop, "", http.StatusInternalServerError, msgInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, false)
			s.install(t, testShop)
			id := s.createCampaign(t, testShop, "Spring")

			tt.fault(s.faults)
			rec := s.do(t, tt.method, strings.ReplaceAll(tt.target, "{id}", id), strings.ReplaceAll(tt.body, "{id}", id))
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			assert.Equal(t, tt.msg, errorBody(t, rec))
			assert.NotContains(t, rec.Body.String(), "db down")
		})
	}
}

func TestUnauthorizedShopDoesNotMutate(t *testing.T) {
	s := newTestServer(t, false)
	s.install(t, testShop)
	id := s.createCampaign(t, testShop, "Spring")

	rec := s.do(t, http.MethodPost, "/api/create-campaign", `{"name":"x","goal":1,"shop":"ghost.myshopify.com"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = s.do(t, http.MethodPost, "/api/participants", `{"email":"a@x.com","name":"A","campaign_id":"`+id+`","shop":"ghost.myshopify.com"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = s.do(t, http.MethodDelete, "/api/campaigns/"+id+"?shop=ghost.myshopify.com", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	campaigns, err := s.store.ListCampaigns(context.Background(), mustShopID(t, s, testShop))
	require.NoError(t, err)
	assert.Len(t, campaigns, 1)
	client, err := s.store.GetClientByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Nil(t, client)
}

func mustShopID(t *testing.T, s *testServer, shop string) string {
	t.Helper()
	got, err := s.store.GetShopByDomain(context.Background(), shop)
	require.NoError(t, err)
	require.NotNil(t, got)
	return got.ID
}

func TestCampaignByProduct(t *testing.T) {
	s := newTestServer(t, false)
	s.install(t, testShop)

	rec := s.do(t, http.MethodPost, "/api/create-campaign", `{"name":"Tee","goal":"50","shop":"`+testShop+`","product_id":8812}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := s.do(t, http.MethodGet, "/api/campaigns/by-product?shop="+testShop+"&product_id=8812", "")
	require.Equal(t, http.StatusOK, got.Code)
	assert.Contains(t, got.Body.String(), `"product_id":"8812"`)
	assert.Contains(t, got.Body.String(), `"goal":50`)
}

func TestParticipantRoutes(t *testing.T) {
	s := newTestServer(t, false)
	s.install(t, testShop)
	id := s.createCampaign(t, testShop, "Spring")

	join := func(email, name string) *httptest.ResponseRecorder {
		return s.do(t, http.MethodPost, "/api/participants", `{"email":"`+email+`","name":"`+name+`","campaign_id":"`+id+`","shop":"`+testShop+`"}`)
	}

	first := join("a@x.com", "A")
	require.Equal(t, http.StatusOK, first.Code)
	assert.JSONEq(t, `{"message":"Joined campaign successfully"}`, first.Body.String())

	again := join("a@x.com", "A")
	assert.Equal(t, http.StatusConflict, again.Code)
	assert.JSONEq(t, `{"error":"Already joined this campaign"}`, again.Body.String())

	require.Equal(t, http.StatusOK, join("b@x.com", "B").Code)

	rec := s.do(t, http.MethodGet, "/api/participants?campaign_id="+id+"&shop="+testShop, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var views []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 2)
	assert.Equal(t, "a@x.com", views[0]["email"])
	assert.Equal(t, "B", views[1]["name"])

	export := s.do(t, http.MethodGet, "/api/campaigns/"+id+"/export?shop="+testShop, "")
	require.Equal(t, http.StatusOK, export.Code)
	assert.Equal(t, application.ExportContentType, export.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="campaign-`+id+`-participants.csv"`, export.Header().Get("Content-Disposition"))
	lines := strings.Split(strings.TrimSpace(export.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "name,email,joined_at", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "A,a@x.com,"))
	assert.True(t, strings.HasPrefix(lines[2], "B,b@x.com,"))
}

func TestParticipantRoutes_RequireJSON(t *testing.T) {
	s := newTestServer(t, false)
	req := httptest.NewRequest(http.MethodPost, "/api/participants", strings.NewReader("email=a@x.com"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestWebhookUninstall(t *testing.T) {
	s := newTestServer(t, false)
	s.install(t, testShop)

	send := func(topic string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/shopify", strings.NewReader(`{"myshopify_domain":"`+testShop+`"}`))
		req.Header.Set("X-Shopify-Topic", topic)
		req.Header.Set("X-Shopify-Shop-Domain", testShop)
		rec := httptest.NewRecorder()
		s.handler.ServeHTTP(rec, req)
		return rec
	}

	s.client.WebhookValid = false
	assert.Equal(t, http.StatusUnauthorized, send(domain.TopicAppUninstalled).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/campaigns?shop="+testShop, "").Code)

	s.client.WebhookValid = true
	assert.Equal(t, http.StatusBadRequest, send("").Code)
	require.Equal(t, http.StatusOK, send(domain.TopicAppUninstalled).Code)

	shop, err := s.store.GetShopByDomain(context.Background(), testShop)
	require.NoError(t, err)
	require.NotNil(t, shop)
	assert.False(t, shop.Installed())
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/api/campaigns?shop="+testShop, "").Code)
}
