package repository

import (
	"context"
	"fmt"
	"time"

	"subete-shopify-layer/internal/domain"
	"subete-shopify-layer/internal/infrastructure/repository/entity"
	"subete-shopify-layer/internal/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore implements ports.Store using MongoDB. Unique indexes carry the
// same constraints as the relational schema.
type MongoStore struct {
	client                 *mongo.Client
	shopsCollection        *mongo.Collection
	campaignsCollection    *mongo.Collection
	clientsCollection      *mongo.Collection
	participantsCollection *mongo.Collection
}

var _ ports.Store = (*MongoStore)(nil)

// ConnectMongo connects to MongoDB and prepares the indexes
func ConnectMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	store := NewMongoStore(client, client.Database(database))
	if err := store.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return store, nil
}

// NewMongoStore creates a new MongoDB store on an open database
func NewMongoStore(client *mongo.Client, db *mongo.Database) *MongoStore {
	return &MongoStore{
		client:                 client,
		shopsCollection:        db.Collection("shops"),
		campaignsCollection:    db.Collection("campaigns"),
		clientsCollection:      db.Collection("clients"),
		participantsCollection: db.Collection("participants"),
	}
}

// EnsureIndexes creates the unique and lookup indexes
func (r *MongoStore) EnsureIndexes(ctx context.Context) error {
	indexes := []struct {
		collection *mongo.Collection
		model      mongo.IndexModel
	}{
		{r.shopsCollection, mongo.IndexModel{
			Keys:    bson.D{{Key: "domain", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{r.campaignsCollection, mongo.IndexModel{
			Keys: bson.D{{Key: "shopId", Value: 1}, {Key: "createdAt", Value: -1}},
		}},
		{r.campaignsCollection, mongo.IndexModel{
			Keys: bson.D{{Key: "shopId", Value: 1}, {Key: "productId", Value: 1}, {Key: "createdAt", Value: -1}},
		}},
		{r.clientsCollection, mongo.IndexModel{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{r.participantsCollection, mongo.IndexModel{
			Keys:    bson.D{{Key: "clientId", Value: 1}, {Key: "campaignId", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{r.participantsCollection, mongo.IndexModel{
			Keys: bson.D{{Key: "campaignId", Value: 1}, {Key: "joinedAt", Value: 1}},
		}},
	}

	for _, idx := range indexes {
		if _, err := idx.collection.Indexes().CreateOne(ctx, idx.model); err != nil {
			return fmt.Errorf("failed to create index on %s: %w", idx.collection.Name(), err)
		}
	}
	return nil
}

// UpsertShop saves or updates a shop keyed by domain
func (r *MongoStore) UpsertShop(ctx context.Context, shop *domain.Shop) error {
	now := time.Now()
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	filter := bson.M{"domain": shop.Domain}
	update := bson.M{
		"$set":         bson.M{"accessToken": shop.AccessToken, "updatedAt": now},
		"$setOnInsert": bson.M{"createdAt": now},
	}

	var doc entity.MongoShopDoc
	if err := r.shopsCollection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		return fmt.Errorf("failed to save shop: %w", err)
	}
	*shop = *doc.ToDomain()
	return nil
}

// GetShopByDomain retrieves a shop by domain
func (r *MongoStore) GetShopByDomain(ctx context.Context, shopDomain string) (*domain.Shop, error) {
	var doc entity.MongoShopDoc
	err := r.shopsCollection.FindOne(ctx, bson.M{"domain": shopDomain}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shop: %w", err)
	}
	return doc.ToDomain(), nil
}

// ClearAccessToken removes the token of a shop
func (r *MongoStore) ClearAccessToken(ctx context.Context, shopDomain string) error {
	update := bson.M{"$set": bson.M{"accessToken": "", "updatedAt": time.Now()}}
	if _, err := r.shopsCollection.UpdateOne(ctx, bson.M{"domain": shopDomain}, update); err != nil {
		return fmt.Errorf("failed to clear access token: %w", err)
	}
	return nil
}

// CreateCampaign inserts a campaign
func (r *MongoStore) CreateCampaign(ctx context.Context, campaign *domain.Campaign) error {
	shopID, err := primitive.ObjectIDFromHex(campaign.ShopID)
	if err != nil {
		return fmt.Errorf("invalid shop id: %w", err)
	}
	doc := entity.MongoCampaignDoc{
		ID:        primitive.NewObjectID(),
		ShopID:    shopID,
		Name:      campaign.Name,
		Goal:      campaign.Goal,
		ProductID: campaign.ProductID,
		CreatedAt: campaign.CreatedAt,
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}

	if _, err := r.campaignsCollection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}
	campaign.ID = doc.ID.Hex()
	campaign.CreatedAt = doc.CreatedAt
	return nil
}

// ListCampaigns returns the shop's campaigns newest first
func (r *MongoStore) ListCampaigns(ctx context.Context, shopID string) ([]*domain.Campaign, error) {
	oid, err := primitive.ObjectIDFromHex(shopID)
	if err != nil {
		return []*domain.Campaign{}, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.campaignsCollection.Find(ctx, bson.M{"shopId": oid}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	defer cursor.Close(ctx)

	campaigns := []*domain.Campaign{}
	for cursor.Next(ctx) {
		var doc entity.MongoCampaignDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode campaign: %w", err)
		}
		campaigns = append(campaigns, doc.ToDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return campaigns, nil
}

// GetCampaign retrieves a campaign by id within a shop
func (r *MongoStore) GetCampaign(ctx context.Context, shopID, campaignID string) (*domain.Campaign, error) {
	filter, ok := campaignFilter(shopID, campaignID)
	if !ok {
		return nil, nil
	}

	var doc entity.MongoCampaignDoc
	err := r.campaignsCollection.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	return doc.ToDomain(), nil
}

// DeleteCampaign removes a campaign's participants and then the campaign.
// MongoDB standalone servers have no transactions, so a failed participant
// delete leaves the campaign in place and the call can be repeated.
func (r *MongoStore) DeleteCampaign(ctx context.Context, shopID, campaignID string) (bool, error) {
	filter, ok := campaignFilter(shopID, campaignID)
	if !ok {
		return false, nil
	}

	err := r.campaignsCollection.FindOne(ctx, filter, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to find campaign: %w", err)
	}

	if _, err := r.participantsCollection.DeleteMany(ctx, bson.M{"campaignId": filter["_id"]}); err != nil {
		return false, fmt.Errorf("failed to delete participants: %w", err)
	}

	result, err := r.campaignsCollection.DeleteOne(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("failed to delete campaign: %w", err)
	}
	return result.DeletedCount > 0, nil
}

// FindLatestCampaignByProduct returns the newest campaign bound to a product
func (r *MongoStore) FindLatestCampaignByProduct(ctx context.Context, shopID, productID string) (*domain.Campaign, error) {
	oid, err := primitive.ObjectIDFromHex(shopID)
	if err != nil {
		return nil, nil
	}

	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	var doc entity.MongoCampaignDoc
	err = r.campaignsCollection.FindOne(ctx, bson.M{"shopId": oid, "productId": productID}, opts).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find campaign by product: %w", err)
	}
	return doc.ToDomain(), nil
}

// GetClientByEmail retrieves a client by email
func (r *MongoStore) GetClientByEmail(ctx context.Context, email string) (*domain.Client, error) {
	var doc entity.MongoClientDoc
	err := r.clientsCollection.FindOne(ctx, bson.M{"email": email}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return doc.ToDomain(), nil
}

// CreateClient inserts a client with a unique email
func (r *MongoStore) CreateClient(ctx context.Context, client *domain.Client) error {
	doc := entity.MongoClientDoc{
		ID:        primitive.NewObjectID(),
		Email:     client.Email,
		Name:      client.Name,
		CreatedAt: time.Now(),
	}
	if _, err := r.clientsCollection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create client: %w", translateMongoError(err))
	}
	client.ID = doc.ID.Hex()
	client.CreatedAt = doc.CreatedAt
	return nil
}

// AddParticipant inserts a participant with a unique client/campaign pair
func (r *MongoStore) AddParticipant(ctx context.Context, participant *domain.Participant) error {
	clientID, err := primitive.ObjectIDFromHex(participant.ClientID)
	if err != nil {
		return fmt.Errorf("invalid client id: %w", err)
	}
	campaignID, err := primitive.ObjectIDFromHex(participant.CampaignID)
	if err != nil {
		return fmt.Errorf("invalid campaign id: %w", err)
	}

	doc := entity.MongoParticipantDoc{
		ID:         primitive.NewObjectID(),
		ClientID:   clientID,
		CampaignID: campaignID,
		JoinedAt:   participant.JoinedAt,
	}
	if doc.JoinedAt.IsZero() {
		doc.JoinedAt = time.Now()
	}
	if _, err := r.participantsCollection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to add participant: %w", translateMongoError(err))
	}
	participant.ID = doc.ID.Hex()
	participant.JoinedAt = doc.JoinedAt
	return nil
}

// ListParticipants returns participants with client data, oldest first
func (r *MongoStore) ListParticipants(ctx context.Context, campaignID string) ([]*domain.ParticipantView, error) {
	oid, err := primitive.ObjectIDFromHex(campaignID)
	if err != nil {
		return []*domain.ParticipantView{}, nil
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"campaignId": oid}}},
		{{Key: "$sort", Value: bson.D{{Key: "joinedAt", Value: 1}, {Key: "_id", Value: 1}}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         r.clientsCollection.Name(),
			"localField":   "clientId",
			"foreignField": "_id",
			"as":           "client",
		}}},
		{{Key: "$unwind", Value: "$client"}},
	}

	cursor, err := r.participantsCollection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer cursor.Close(ctx)

	views := []*domain.ParticipantView{}
	for cursor.Next(ctx) {
		var doc entity.MongoParticipantView
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode participant: %w", err)
		}
		views = append(views, doc.ToDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return views, nil
}

// Close disconnects the client
func (r *MongoStore) Close(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	return r.client.Disconnect(ctx)
}

func campaignFilter(shopID, campaignID string) (bson.M, bool) {
	shopOID, err := primitive.ObjectIDFromHex(shopID)
	if err != nil {
		return nil, false
	}
	campaignOID, err := primitive.ObjectIDFromHex(campaignID)
	if err != nil {
		return nil, false
	}
	return bson.M{"_id": campaignOID, "shopId": shopOID}, true
}

func translateMongoError(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", ports.ErrDuplicateKey, err)
	}
	return err
}
