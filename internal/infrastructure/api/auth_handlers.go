package api

import (
	"errors"
	"net/http"

	"subete-shopify-layer/internal/application"
	"subete-shopify-layer/internal/domain"

	"github.com/rs/zerolog"
)

// oauthInitHandler starts the install by redirecting to Shopify
func oauthInitHandler(install *application.InstallService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shop := r.URL.Query().Get("shop")
		if shop == "" {
			http.Error(w, "Missing shop parameter", http.StatusBadRequest)
			return
		}

		authURL, err := install.AuthorizeURL(r.Context(), shop)
		if err != nil {
			logger.Error().Err(err).Str("shop", shop).Msg("Failed to start OAuth flow")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		logger.Info().Str("shop", shop).Msg("Redirecting to Shopify for authorization")
		http.Redirect(w, r, authURL, http.StatusFound)
	}
}

// oauthCallbackHandler completes the install
func oauthCallbackHandler(install *application.InstallService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		params := application.CallbackParams{
			Shop:  query.Get("shop"),
			Code:  query.Get("code"),
			State: query.Get("state"),
			Query: query,
		}

		result, err := install.Callback(r.Context(), params)
		switch {
		case errors.Is(err, domain.ErrMissingParameter):
			http.Error(w, "Missing parameters", http.StatusBadRequest)
			return
		case errors.Is(err, domain.ErrInvalidCallback):
			http.Error(w, "Invalid OAuth callback", http.StatusForbidden)
			return
		case err != nil:
			logger.Error().Err(err).Str("shop", params.Shop).Msg("OAuth callback failed")
			http.Error(w, "Error authenticating with Shopify", http.StatusInternalServerError)
			return
		}

		logger.Info().
			Str("shop", result.Shop).
			Bool("degraded", result.Degraded()).
			Msg("OAuth callback completed")
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("App installed and widget inserted!"))
	}
}
