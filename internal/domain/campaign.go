package domain

import "time"

// Campaign is a promotional record owned by exactly one shop
type Campaign struct {
	ID        string    `json:"id"`
	ShopID    string    `json:"shop_id"`
	Name      string    `json:"name"`
	Goal      int64     `json:"goal"`
	ProductID *string   `json:"product_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Client is an end customer identified by email
type Client struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Participant links a client to a campaign. The (ClientID, CampaignID)
// pair is unique.
type Participant struct {
	ID         string    `json:"id"`
	ClientID   string    `json:"client_id"`
	CampaignID string    `json:"campaign_id"`
	JoinedAt   time.Time `json:"joined_at"`
}

// ParticipantView is a participant joined with its client's name and email
type ParticipantView struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	JoinedAt time.Time `json:"joined_at"`
}
