package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"subete-shopify-layer/internal/application"
	"subete-shopify-layer/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type createCampaignRequest struct {
	Name      string      `json:"name"`
	Goal      json.Number `json:"goal"`
	Shop      string      `json:"shop"`
	ProductID flexString  `json:"product_id"`
}

func createCampaignHandler(campaigns *application.CampaignService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createCampaignRequest
		if err := decodeJSON(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": msgInvalidBody})
			return
		}

		goal, err := strconv.ParseInt(req.Goal.String(), 10, 64)
		if err != nil {
			writeError(w, logger, fmt.Errorf("%w: goal", domain.ErrMissingParameter))
			return
		}

		campaign, err := campaigns.Create(r.Context(), application.CreateCampaignInput{
			Name:      req.Name,
			Goal:      goal,
			Shop:      req.Shop,
			ProductID: string(req.ProductID),
		})
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "Campaign created",
			"id":      campaign.ID,
		})
	}
}

func listCampaignsHandler(campaigns *application.CampaignService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := campaigns.List(r.Context(), r.URL.Query().Get("shop"))
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func getCampaignHandler(campaigns *application.CampaignService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		campaign, err := campaigns.Get(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("shop"))
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, campaign)
	}
}

func deleteCampaignHandler(campaigns *application.CampaignService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := campaigns.Delete(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("shop")); err != nil {
			writeError(w, logger, err)
			return
		}
		writeMessage(w, http.StatusOK, "Campaign deleted")
	}
}

func exportCampaignHandler(campaigns *application.CampaignService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		export, err := campaigns.Export(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("shop"))
		if err != nil {
			writeError(w, logger, err)
			return
		}
		w.Header().Set("Content-Type", application.ExportContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(export.Body)
	}
}

func campaignByProductHandler(campaigns *application.CampaignService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		campaign, err := campaigns.FindByProduct(r.Context(), query.Get("shop"), query.Get("product_id"))
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, campaign)
	}
}
