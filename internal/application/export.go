package application

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"subete-shopify-layer/internal/domain"
)

// ExportContentType is the media type of campaign exports
const ExportContentType = "text/csv; charset=utf-8"

var exportHeader = []string{"name", "email", "joined_at"}

// CampaignExport is a rendered participants file
type CampaignExport struct {
	Filename string
	Body     []byte
}

func encodeParticipantsCSV(views []*domain.ParticipantView) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, err
	}
	for _, v := range views {
		if err := w.Write([]string{v.Name, v.Email, v.JoinedAt.UTC().Format(time.RFC3339)}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func exportFilename(campaignID string) string {
	return fmt.Sprintf("campaign-%s-participants.csv", campaignID)
}
