package api

import (
	"net/http"

	"subete-shopify-layer/internal/application"
	"subete-shopify-layer/internal/infrastructure/metrics"
	securitymiddleware "subete-shopify-layer/internal/infrastructure/middleware"
	"subete-shopify-layer/internal/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Dependencies wires the HTTP surface to the application layer
type Dependencies struct {
	Install      *application.InstallService
	Campaigns    *application.CampaignService
	Participants *application.ParticipantService
	Webhooks     *application.WebhookDispatcher
	Shopify      ports.ShopifyClient
	// Metrics is optional; nil disables /metrics and request metrics
	Metrics        *metrics.Metrics
	AllowedOrigins []string
	// SwaggerFile is served as /swagger/doc.json when set
	SwaggerFile string
	Logger      zerolog.Logger
}

// NewRouter builds the chi router with middleware and every route
func NewRouter(deps Dependencies) http.Handler {
	logger := deps.Logger
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(securitymiddleware.AuditLoggingMiddleware(logger))
	r.Use(middleware.Recoverer)
	if deps.Metrics != nil {
		r.Use(securitymiddleware.RequestMetricsMiddleware(deps.Metrics))
	}
	r.Use(securitymiddleware.SecurityHeadersMiddleware())
	r.Use(securitymiddleware.InputValidationMiddleware(logger))
	r.Use(cors.Handler(corsOptions(deps.AllowedOrigins)))

	// Public operational routes
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("Subete Shopify app is running"))
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}
	if deps.SwaggerFile != "" {
		r.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			http.ServeFile(w, r, deps.SwaggerFile)
		})
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	// OAuth routes
	r.Get("/auth", oauthInitHandler(deps.Install, logger))
	r.Get("/auth/callback", oauthCallbackHandler(deps.Install, logger))

	r.Post("/webhooks/shopify", webhookHandler(deps.Shopify, deps.Webhooks, logger))

	r.Route("/api", func(r chi.Router) {
		r.Post("/create-campaign", createCampaignHandler(deps.Campaigns, logger))
		r.Get("/campaigns", listCampaignsHandler(deps.Campaigns, logger))
		r.Get("/campaigns/by-product", campaignByProductHandler(deps.Campaigns, logger))
		r.Get("/campaigns/{id}", getCampaignHandler(deps.Campaigns, logger))
		r.Delete("/campaigns/{id}", deleteCampaignHandler(deps.Campaigns, logger))
		r.Get("/campaigns/{id}/export", exportCampaignHandler(deps.Campaigns, logger))

		r.Get("/participants", listParticipantsHandler(deps.Participants, logger))
		r.Post("/participants", enrollParticipantHandler(deps.Participants, logger))
	})

	return r
}

func corsOptions(origins []string) cors.Options {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	allowCredentials := true
	for _, o := range origins {
		if o == "*" {
			// browsers reject credentials with a wildcard origin
			allowCredentials = false
		}
	}
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: allowCredentials,
		MaxAge:           300,
	}
}
