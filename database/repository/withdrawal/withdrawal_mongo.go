package withdrawalRepo

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

type MongoWithdrawalRepo struct {
	coll *mongo.Collection
}

func NewMongoWithdrawalRepo() WithdrawalRepository {
	repo := &MongoWithdrawalRepo{coll: database.DB().Collection("affiliate_withdrawal_requests")}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create withdrawal indexes: %v\n", err)
	}
	return repo
}

func (r *MongoWithdrawalRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "affiliateId", Value: 1}, {Key: "requestedAt", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoWithdrawalRepo) Create(ctx context.Context, w *models.WithdrawalRequest) error {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	if w.RequestedAt.IsZero() {
		w.RequestedAt = time.Now()
	}
	if _, err := r.coll.InsertOne(ctx, w); err != nil {
		return fmt.Errorf("failed to create withdrawal request: %w", repository.Translate(err))
	}
	return nil
}

func (r *MongoWithdrawalRepo) GetByID(ctx context.Context, id string) (*models.WithdrawalRequest, error) {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	var w models.WithdrawalRequest
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&w); err != nil {
		return nil, repository.Translate(err)
	}
	return &w, nil
}

func (r *MongoWithdrawalRepo) Update(ctx context.Context, w *models.WithdrawalRequest) error {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	result, err := r.coll.UpdateOne(ctx, bson.M{"id": w.ID}, bson.M{"$set": w})
	if err != nil {
		return fmt.Errorf("failed to update withdrawal request %s: %w", w.ID, err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *MongoWithdrawalRepo) List(ctx context.Context, f WithdrawalFilter) ([]models.WithdrawalRequest, error) {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	filter := bson.M{}
	if f.AffiliateID != "" {
		filter["affiliateId"] = f.AffiliateID
	}
	if len(f.Statuses) > 0 {
		filter["status"] = bson.M{"$in": f.Statuses}
	}

	opts := options.Find().SetSort(bson.D{{Key: "requestedAt", Value: -1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list withdrawal requests: %w", err)
	}
	defer cursor.Close(ctx)

	rows := []models.WithdrawalRequest{}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode withdrawal requests: %w", err)
	}
	return rows, nil
}
