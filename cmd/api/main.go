package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"subete-shopify-layer/internal/application"
	"subete-shopify-layer/internal/application/webhook_handlers"
	"subete-shopify-layer/internal/config"
	apiinfra "subete-shopify-layer/internal/infrastructure/api"
	"subete-shopify-layer/internal/infrastructure/encryption"
	"subete-shopify-layer/internal/infrastructure/metrics"
	"subete-shopify-layer/internal/infrastructure/repository"
	shopifyinfra "subete-shopify-layer/internal/infrastructure/shopify"
	"subete-shopify-layer/internal/ports"

	"github.com/rs/zerolog"
)

func main() {
	// Initialize logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load(logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}
	logger = logger.Level(cfg.Level())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg.Store, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("Failed to open store")
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			logger.Error().Err(err).Msg("Failed to close store")
		}
	}()

	states, closeStates, err := openStateStore(ctx, cfg.OAuth, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open OAuth state store")
	}
	defer closeStates()

	// Initialize infrastructure (implementations)
	encryptionService, err := encryption.NewService(cfg.EncryptionKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize encryption service")
	}

	shopifyClient := shopifyinfra.NewClient(shopifyinfra.Config{
		APIKey:      cfg.Shopify.APIKey,
		APISecret:   cfg.Shopify.APISecret,
		Scopes:      cfg.Shopify.Scopes,
		RedirectURI: cfg.RedirectURI(),
		APIVersion:  cfg.Shopify.APIVersion,
	}, logger)

	appMetrics := metrics.New()

	// Initialize application services
	resolver := application.NewShopResolver(store, logger)
	installService := application.NewInstallService(
		shopifyClient,
		store,
		states,
		encryptionService,
		appMetrics,
		logger,
		application.InstallOptions{
			WidgetURL:      cfg.WidgetBaseURL(),
			StateTTL:       cfg.OAuth.StateTTL,
			VerifyCallback: cfg.Shopify.VerifyCallback,
		},
	)
	campaignService := application.NewCampaignService(resolver, store, store, appMetrics, logger)
	participantService := application.NewParticipantService(resolver, store, store, store, appMetrics, logger)

	// Initialize webhook dispatcher and register handlers
	webhookDispatcher := application.NewWebhookDispatcher(logger)
	webhookDispatcher.RegisterHandler(webhook_handlers.NewAppUninstalledHandler(logger, store))

	router := apiinfra.NewRouter(apiinfra.Dependencies{
		Install:        installService,
		Campaigns:      campaignService,
		Participants:   participantService,
		Webhooks:       webhookDispatcher,
		Shopify:        shopifyClient,
		Metrics:        appMetrics,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		SwaggerFile:    "./docs/swagger.json",
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("Graceful shutdown failed")
		}
	}()

	logger.Info().
		Str("port", cfg.Port).
		Str("store", cfg.Store.Driver).
		Bool("verifyCallback", cfg.Shopify.VerifyCallback).
		Msg("Starting API server")
	logger.Info().Msg("Swagger documentation available at http://localhost:" + cfg.Port + "/swagger/index.html")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("Failed to start server")
	}
	logger.Info().Msg("Server stopped")
}

func openStore(ctx context.Context, cfg config.StoreConfig, logger zerolog.Logger) (ports.Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		store, err := repository.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.DriverMongo:
		store, err := repository.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.DriverMemory:
		logger.Warn().Msg("Using in-memory store; data is lost on restart")
		return repository.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func openStateStore(ctx context.Context, cfg config.OAuthConfig, logger zerolog.Logger) (ports.StateStore, func(), error) {
	if cfg.RedisURL == "" {
		logger.Info().Msg("REDIS_URL not set, keeping OAuth state in memory")
		return repository.NewMemoryStateStore(), func() {}, nil
	}
	states, err := repository.ConnectRedisStateStore(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	return states, func() {
		if err := states.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close redis client")
		}
	}, nil
}
