package paymentRepo

import (
	"context"
	"fmt"
	"time"

	"tradocs/database"
	"tradocs/database/repository"
	"tradocs/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoPaymentRepo implements PaymentRepository using MongoDB.
type MongoPaymentRepo struct {
	coll *mongo.Collection
}

func NewMongoPaymentRepo() PaymentRepository {
	repo := &MongoPaymentRepo{coll: database.DB().Collection("payments")}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create payment indexes: %v\n", err)
	}
	return repo
}

func (r *MongoPaymentRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "stripeSessionId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "stripePaymentIntentId", Value: 1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "documentIds", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "affiliateId", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "paidAt", Value: 1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoPaymentRepo) Create(ctx context.Context, p *models.Payment) error {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	if _, err := r.coll.InsertOne(ctx, p); err != nil {
		return fmt.Errorf("failed to create payment: %w", repository.Translate(err))
	}
	return nil
}

func (r *MongoPaymentRepo) findOne(ctx context.Context, filter bson.M) (*models.Payment, error) {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	var p models.Payment
	if err := r.coll.FindOne(ctx, filter).Decode(&p); err != nil {
		return nil, repository.Translate(err)
	}
	return &p, nil
}

func (r *MongoPaymentRepo) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	return r.findOne(ctx, bson.M{"id": id})
}

func (r *MongoPaymentRepo) GetBySessionID(ctx context.Context, sessionID string) (*models.Payment, error) {
	return r.findOne(ctx, bson.M{"stripeSessionId": sessionID})
}

func (r *MongoPaymentRepo) GetByPaymentIntentID(ctx context.Context, intentID string) (*models.Payment, error) {
	return r.findOne(ctx, bson.M{"stripePaymentIntentId": intentID})
}

func (r *MongoPaymentRepo) Update(ctx context.Context, p *models.Payment) error {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	result, err := r.coll.UpdateOne(ctx, bson.M{"id": p.ID}, bson.M{"$set": p})
	if err != nil {
		return fmt.Errorf("failed to update payment %s: %w", p.ID, err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *MongoPaymentRepo) List(ctx context.Context, f PaymentFilter) ([]models.Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	filter := bson.M{}
	if f.UserID != "" {
		filter["userId"] = f.UserID
	}
	if len(f.Statuses) > 0 {
		filter["status"] = bson.M{"$in": f.Statuses}
	}
	if f.AffiliateID != "" {
		filter["affiliateId"] = f.AffiliateID
	}
	if len(f.DocumentIDs) > 0 {
		filter["documentIds"] = bson.M{"$in": f.DocumentIDs}
	}
	if !f.From.IsZero() || !f.To.IsZero() {
		filter["$expr"] = effectiveTimeRange(f.From, f.To)
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer cursor.Close(ctx)

	payments := []models.Payment{}
	if err := cursor.All(ctx, &payments); err != nil {
		return nil, fmt.Errorf("failed to decode payments: %w", err)
	}
	return payments, nil
}

// effectiveTimeRange compares ifNull(paidAt, createdAt) against the bounds.
func effectiveTimeRange(from, to time.Time) bson.M {
	effective := bson.M{"$ifNull": bson.A{"$paidAt", "$createdAt"}}
	var conds bson.A
	if !from.IsZero() {
		conds = append(conds, bson.M{"$gte": bson.A{effective, from}})
	}
	if !to.IsZero() {
		conds = append(conds, bson.M{"$lt": bson.A{effective, to}})
	}
	return bson.M{"$and": conds}
}

func (r *MongoPaymentRepo) ListStalePending(ctx context.Context, cutoff time.Time) ([]models.Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	cursor, err := r.coll.Find(ctx, bson.M{"status": models.PaymentPending, "createdAt": bson.M{"$lt": cutoff}})
	if err != nil {
		return nil, fmt.Errorf("failed to list stale payments: %w", err)
	}
	defer cursor.Close(ctx)

	payments := []models.Payment{}
	if err := cursor.All(ctx, &payments); err != nil {
		return nil, fmt.Errorf("failed to decode stale payments: %w", err)
	}
	return payments, nil
}
