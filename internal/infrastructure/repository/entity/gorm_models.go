package entity

import (
	"fmt"
	"time"

	"subete-shopify-layer/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ShopModel is the shops table
type ShopModel struct {
	ID          string `gorm:"type:varchar(36);primaryKey"`
	Domain      string `gorm:"size:255;not null;uniqueIndex"`
	AccessToken string `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (ShopModel) TableName() string { return "shops" }

// CampaignModel is the campaigns table
type CampaignModel struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	ShopID    string    `gorm:"type:varchar(36);not null;index:idx_campaigns_shop_created,priority:1;index:idx_campaigns_shop_product,priority:1"`
	Shop      ShopModel `gorm:"foreignKey:ShopID;constraint:OnDelete:RESTRICT"`
	Name      string    `gorm:"size:255;not null"`
	Goal      int64     `gorm:"not null"`
	ProductID *string   `gorm:"size:64;index:idx_campaigns_shop_product,priority:2"`
	CreatedAt time.Time `gorm:"index:idx_campaigns_shop_created,priority:2"`
}

func (CampaignModel) TableName() string { return "campaigns" }

// ClientModel is the clients table
type ClientModel struct {
	ID        string `gorm:"type:varchar(36);primaryKey"`
	Email     string `gorm:"size:320;not null;uniqueIndex"`
	Name      string `gorm:"size:255;not null"`
	CreatedAt time.Time
}

func (ClientModel) TableName() string { return "clients" }

// ParticipantModel is the participants table
type ParticipantModel struct {
	ID         string        `gorm:"type:varchar(36);primaryKey"`
	ClientID   string        `gorm:"type:varchar(36);not null;uniqueIndex:idx_participants_client_campaign,priority:1"`
	Client     ClientModel   `gorm:"foreignKey:ClientID"`
	CampaignID string        `gorm:"type:varchar(36);not null;uniqueIndex:idx_participants_client_campaign,priority:2;index"`
	Campaign   CampaignModel `gorm:"foreignKey:CampaignID;constraint:OnDelete:CASCADE"`
	JoinedAt   time.Time     `gorm:"not null"`
}

func (ParticipantModel) TableName() string { return "participants" }

// ParticipantRow is the participants/clients join projection
type ParticipantRow struct {
	ID       string
	Name     string
	Email    string
	JoinedAt time.Time
}

func (m *ShopModel) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// BeforeCreate assigns a time-ordered id so campaigns created within the
// same timestamp still sort in insertion order
func (m *CampaignModel) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate campaign id: %w", err)
		}
		m.ID = id.String()
	}
	return nil
}

func (m *ClientModel) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

func (m *ParticipantModel) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.JoinedAt.IsZero() {
		m.JoinedAt = time.Now()
	}
	return nil
}

// ToDomain converts the row to a domain entity
func (m *ShopModel) ToDomain() *domain.Shop {
	return &domain.Shop{
		ID:          m.ID,
		Domain:      m.Domain,
		AccessToken: m.AccessToken,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// ToDomain converts the row to a domain entity
func (m *CampaignModel) ToDomain() *domain.Campaign {
	return &domain.Campaign{
		ID:        m.ID,
		ShopID:    m.ShopID,
		Name:      m.Name,
		Goal:      m.Goal,
		ProductID: m.ProductID,
		CreatedAt: m.CreatedAt,
	}
}

// CampaignModelFromDomain converts a domain entity to a row
func CampaignModelFromDomain(c *domain.Campaign) *CampaignModel {
	return &CampaignModel{
		ID:        c.ID,
		ShopID:    c.ShopID,
		Name:      c.Name,
		Goal:      c.Goal,
		ProductID: c.ProductID,
		CreatedAt: c.CreatedAt,
	}
}

// ToDomain converts the row to a domain entity
func (m *ClientModel) ToDomain() *domain.Client {
	return &domain.Client{
		ID:        m.ID,
		Email:     m.Email,
		Name:      m.Name,
		CreatedAt: m.CreatedAt,
	}
}

// ToDomain converts the row to a domain view
func (r *ParticipantRow) ToDomain() *domain.ParticipantView {
	return &domain.ParticipantView{
		ID:       r.ID,
		Name:     r.Name,
		Email:    r.Email,
		JoinedAt: r.JoinedAt,
	}
}

// Models lists the tables in migration order
func Models() []any {
	return []any{&ShopModel{}, &CampaignModel{}, &ClientModel{}, &ParticipantModel{}}
}
