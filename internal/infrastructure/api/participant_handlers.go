package api

import (
	"net/http"

	"subete-shopify-layer/internal/application"

	"github.com/rs/zerolog"
)

type enrollRequest struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	CampaignID string `json:"campaign_id"`
	Shop       string `json:"shop"`
}

func enrollParticipantHandler(participants *application.ParticipantService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req enrollRequest
		if err := decodeJSON(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": msgInvalidBody})
			return
		}

		_, err := participants.Enroll(r.Context(), application.EnrollInput{
			Email:      req.Email,
			Name:       req.Name,
			CampaignID: req.CampaignID,
			Shop:       req.Shop,
		})
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeMessage(w, http.StatusOK, "Joined campaign successfully")
	}
}

func listParticipantsHandler(participants *application.ParticipantService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		views, err := participants.List(r.Context(), query.Get("campaign_id"), query.Get("shop"))
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, views)
	}
}
