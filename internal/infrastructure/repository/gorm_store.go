package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"subete-shopify-layer/internal/domain"
	"subete-shopify-layer/internal/infrastructure/repository/entity"
	"subete-shopify-layer/internal/ports"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// GormStore implements ports.Store on a relational database through gorm
type GormStore struct {
	db *gorm.DB
}

var _ ports.Store = (*GormStore)(nil)

// OpenPostgres connects to Postgres and migrates the schema
func OpenPostgres(ctx context.Context, dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return NewGormStore(ctx, db)
}

// NewGormStore wraps an open connection and migrates the schema. The
// connection must be opened with TranslateError so uniqueness violations
// surface as gorm.ErrDuplicatedKey.
func NewGormStore(ctx context.Context, db *gorm.DB) (*GormStore, error) {
	if err := db.WithContext(ctx).AutoMigrate(entity.Models()...); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &GormStore{db: db}, nil
}

// UpsertShop saves or updates a shop keyed by domain
func (s *GormStore) UpsertShop(ctx context.Context, shop *domain.Shop) error {
	now := time.Now()
	m := &entity.ShopModel{
		Domain:      shop.Domain,
		AccessToken: shop.AccessToken,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "domain"}},
			DoUpdates: clause.AssignmentColumns([]string{"access_token", "updated_at"}),
		}).
		Create(m).Error
	if err != nil {
		return fmt.Errorf("failed to save shop: %w", err)
	}

	// The generated id is discarded on conflict; read back the stored row.
	stored, err := s.GetShopByDomain(ctx, shop.Domain)
	if err != nil {
		return err
	}
	if stored == nil {
		return fmt.Errorf("failed to save shop: row missing after upsert")
	}
	*shop = *stored
	return nil
}

// GetShopByDomain retrieves a shop by domain
func (s *GormStore) GetShopByDomain(ctx context.Context, shopDomain string) (*domain.Shop, error) {
	var m entity.ShopModel
	err := s.db.WithContext(ctx).Where("domain = ?", shopDomain).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shop: %w", err)
	}
	return m.ToDomain(), nil
}

// ClearAccessToken removes the token of a shop
func (s *GormStore) ClearAccessToken(ctx context.Context, shopDomain string) error {
	err := s.db.WithContext(ctx).
		Model(&entity.ShopModel{}).
		Where("domain = ?", shopDomain).
		Updates(map[string]any{"access_token": "", "updated_at": time.Now()}).Error
	if err != nil {
		return fmt.Errorf("failed to clear access token: %w", err)
	}
	return nil
}

// CreateCampaign inserts a campaign
func (s *GormStore) CreateCampaign(ctx context.Context, campaign *domain.Campaign) error {
	m := entity.CampaignModelFromDomain(campaign)
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(m).Error; err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}
	campaign.ID = m.ID
	campaign.CreatedAt = m.CreatedAt
	return nil
}

// ListCampaigns returns the shop's campaigns newest first
func (s *GormStore) ListCampaigns(ctx context.Context, shopID string) ([]*domain.Campaign, error) {
	var rows []entity.CampaignModel
	err := s.db.WithContext(ctx).
		Where("shop_id = ?", shopID).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	return campaignsToDomain(rows), nil
}

// GetCampaign retrieves a campaign by id within a shop
func (s *GormStore) GetCampaign(ctx context.Context, shopID, campaignID string) (*domain.Campaign, error) {
	var m entity.CampaignModel
	err := s.db.WithContext(ctx).
		Where("id = ? AND shop_id = ?", campaignID, shopID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	return m.ToDomain(), nil
}

// DeleteCampaign removes a campaign and its participants in one transaction
func (s *GormStore) DeleteCampaign(ctx context.Context, shopID, campaignID string) (bool, error) {
	deleted := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&entity.CampaignModel{}).
			Where("id = ? AND shop_id = ?", campaignID, shopID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return nil
		}
		if err := tx.Where("campaign_id = ?", campaignID).Delete(&entity.ParticipantModel{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ? AND shop_id = ?", campaignID, shopID).Delete(&entity.CampaignModel{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete campaign: %w", err)
	}
	return deleted, nil
}

// FindLatestCampaignByProduct returns the newest campaign bound to a product
func (s *GormStore) FindLatestCampaignByProduct(ctx context.Context, shopID, productID string) (*domain.Campaign, error) {
	var m entity.CampaignModel
	err := s.db.WithContext(ctx).
		Where("shop_id = ? AND product_id = ?", shopID, productID).
		Order("created_at DESC, id DESC").
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find campaign by product: %w", err)
	}
	return m.ToDomain(), nil
}

// GetClientByEmail retrieves a client by email
func (s *GormStore) GetClientByEmail(ctx context.Context, email string) (*domain.Client, error) {
	var m entity.ClientModel
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return m.ToDomain(), nil
}

// CreateClient inserts a client with a unique email
func (s *GormStore) CreateClient(ctx context.Context, client *domain.Client) error {
	m := &entity.ClientModel{Email: client.Email, Name: client.Name}
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("failed to create client: %w", translateGormError(err))
	}
	client.ID = m.ID
	client.CreatedAt = m.CreatedAt
	return nil
}

// AddParticipant inserts a participant with a unique client/campaign pair
func (s *GormStore) AddParticipant(ctx context.Context, participant *domain.Participant) error {
	m := &entity.ParticipantModel{
		ClientID:   participant.ClientID,
		CampaignID: participant.CampaignID,
		JoinedAt:   participant.JoinedAt,
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(m).Error; err != nil {
		return fmt.Errorf("failed to add participant: %w", translateGormError(err))
	}
	participant.ID = m.ID
	participant.JoinedAt = m.JoinedAt
	return nil
}

// ListParticipants returns participants with client data, oldest first
func (s *GormStore) ListParticipants(ctx context.Context, campaignID string) ([]*domain.ParticipantView, error) {
	var rows []entity.ParticipantRow
	err := s.db.WithContext(ctx).
		Table("participants").
		Select("participants.id, clients.name, clients.email, participants.joined_at").
		Joins("JOIN clients ON clients.id = participants.client_id").
		Where("participants.campaign_id = ?", campaignID).
		Order("participants.joined_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}

	views := make([]*domain.ParticipantView, 0, len(rows))
	for i := range rows {
		views = append(views, rows[i].ToDomain())
	}
	return views, nil
}

// Close releases the connection pool
func (s *GormStore) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func campaignsToDomain(rows []entity.CampaignModel) []*domain.Campaign {
	campaigns := make([]*domain.Campaign, 0, len(rows))
	for i := range rows {
		campaigns = append(campaigns, rows[i].ToDomain())
	}
	return campaigns
}

func translateGormError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ports.ErrDuplicateKey, err)
	}
	return err
}
