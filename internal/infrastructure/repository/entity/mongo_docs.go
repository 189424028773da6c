package entity

import (
	"time"

	"subete-shopify-layer/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoShopDoc represents a shop in MongoDB
type MongoShopDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Domain      string             `bson:"domain"`
	AccessToken string             `bson:"accessToken"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoShopDoc) ToDomain() *domain.Shop {
	return &domain.Shop{
		ID:          d.ID.Hex(),
		Domain:      d.Domain,
		AccessToken: d.AccessToken,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// MongoCampaignDoc represents a campaign in MongoDB
type MongoCampaignDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	ShopID    primitive.ObjectID `bson:"shopId"`
	Name      string             `bson:"name"`
	Goal      int64              `bson:"goal"`
	ProductID *string            `bson:"productId,omitempty"`
	CreatedAt time.Time          `bson:"createdAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoCampaignDoc) ToDomain() *domain.Campaign {
	return &domain.Campaign{
		ID:        d.ID.Hex(),
		ShopID:    d.ShopID.Hex(),
		Name:      d.Name,
		Goal:      d.Goal,
		ProductID: d.ProductID,
		CreatedAt: d.CreatedAt,
	}
}

// MongoClientDoc represents a client in MongoDB
type MongoClientDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Email     string             `bson:"email"`
	Name      string             `bson:"name"`
	CreatedAt time.Time          `bson:"createdAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoClientDoc) ToDomain() *domain.Client {
	return &domain.Client{
		ID:        d.ID.Hex(),
		Email:     d.Email,
		Name:      d.Name,
		CreatedAt: d.CreatedAt,
	}
}

// MongoParticipantDoc represents a participant in MongoDB
type MongoParticipantDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	ClientID   primitive.ObjectID `bson:"clientId"`
	CampaignID primitive.ObjectID `bson:"campaignId"`
	JoinedAt   time.Time          `bson:"joinedAt"`
}

// MongoParticipantView is the result of the participants/clients lookup
type MongoParticipantView struct {
	ID       primitive.ObjectID `bson:"_id"`
	JoinedAt time.Time          `bson:"joinedAt"`
	Client   MongoClientDoc     `bson:"client"`
}

// ToDomain converts the lookup result to a domain view
func (v *MongoParticipantView) ToDomain() *domain.ParticipantView {
	return &domain.ParticipantView{
		ID:       v.ID.Hex(),
		Name:     v.Client.Name,
		Email:    v.Client.Email,
		JoinedAt: v.JoinedAt,
	}
}
