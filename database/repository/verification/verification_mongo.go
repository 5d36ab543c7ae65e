package verificationRepo

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

// MongoVerificationRepo implements VerificationRepository using MongoDB.
type MongoVerificationRepo struct {
	coll *mongo.Collection
}

func NewMongoVerificationRepo() VerificationRepository {
	repo := &MongoVerificationRepo{coll: database.DB().Collection("documents_to_be_verified")}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create verification indexes: %v\n", err)
	}
	return repo
}

func (r *MongoVerificationRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "documentId", Value: 1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "filename", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: 1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoVerificationRepo) Create(ctx context.Context, v *models.Verification) error {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
	}
	if _, err := r.coll.InsertOne(ctx, v); err != nil {
		return fmt.Errorf("failed to create verification: %w", repository.Translate(err))
	}
	return nil
}

func (r *MongoVerificationRepo) GetByID(ctx context.Context, id string) (*models.Verification, error) {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	var v models.Verification
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&v); err != nil {
		return nil, repository.Translate(err)
	}
	return &v, nil
}

func (r *MongoVerificationRepo) Update(ctx context.Context, v *models.Verification) error {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	result, err := r.coll.UpdateOne(ctx, bson.M{"id": v.ID}, bson.M{"$set": v})
	if err != nil {
		return fmt.Errorf("failed to update verification %s: %w", v.ID, err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *MongoVerificationRepo) List(ctx context.Context, f VerificationFilter) ([]models.Verification, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if f.UserID != "" {
		filter["userId"] = f.UserID
	}
	if len(f.Statuses) > 0 {
		filter["status"] = bson.M{"$in": f.Statuses}
	}
	if f.AuthenticatorID != "" {
		filter["authenticatorId"] = f.AuthenticatorID
	}
	reviewed := bson.M{}
	if !f.ReviewedFrom.IsZero() {
		reviewed["$gte"] = f.ReviewedFrom
	}
	if !f.ReviewedTo.IsZero() {
		reviewed["$lt"] = f.ReviewedTo
	}
	if len(reviewed) > 0 {
		filter["reviewedAt"] = reviewed
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list verifications: %w", err)
	}
	defer cursor.Close(ctx)

	rows := []models.Verification{}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode verifications: %w", err)
	}
	return rows, nil
}

func (r *MongoVerificationRepo) DeleteByDocumentID(ctx context.Context, documentID string) (int64, error) {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	result, err := r.coll.DeleteMany(ctx, bson.M{"documentId": documentID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete verifications for %s: %w", documentID, err)
	}
	return result.DeletedCount, nil
}
