package profileRepo

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

// MongoProfileRepo implements ProfileRepository using MongoDB.
type MongoProfileRepo struct {
	coll *mongo.Collection
}

// NewMongoProfileRepo creates a new instance of ProfileRepository using MongoDB.
func NewMongoProfileRepo() ProfileRepository {
	repo := &MongoProfileRepo{coll: database.DB().Collection("profiles")}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create profile indexes: %v\n", err)
	}
	return repo
}

// ensureIndexes creates indexes for fields frequently used in queries.
func (r *MongoProfileRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "affiliateCode", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
		{Keys: bson.D{{Key: "role", Value: 1}}},
		{Keys: bson.D{{Key: "referredBy", Value: 1}}},
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoProfileRepo) Create(ctx context.Context, profile *models.Profile) error {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	now := time.Now()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, profile); err != nil {
		return fmt.Errorf("failed to create profile: %w", repository.Translate(err))
	}
	return nil
}

func (r *MongoProfileRepo) findOne(ctx context.Context, filter bson.M) (*models.Profile, error) {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	var p models.Profile
	if err := r.coll.FindOne(ctx, filter).Decode(&p); err != nil {
		return nil, repository.Translate(err)
	}
	return &p, nil
}

func (r *MongoProfileRepo) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	return r.findOne(ctx, bson.M{"id": id})
}

func (r *MongoProfileRepo) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoProfileRepo) GetByAffiliateCode(ctx context.Context, code string) (*models.Profile, error) {
	return r.findOne(ctx, bson.M{"affiliateCode": code})
}

func (r *MongoProfileRepo) Update(ctx context.Context, profile *models.Profile) error {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	profile.UpdatedAt = time.Now()
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": profile.ID}, bson.M{"$set": profile})
	if err != nil {
		return fmt.Errorf("failed to update profile %s: %w", profile.ID, repository.Translate(err))
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *MongoProfileRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	result, err := r.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete profile %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *MongoProfileRepo) List(ctx context.Context, role string) ([]models.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if role != "" {
		filter["role"] = role
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve profiles: %w", err)
	}
	defer cursor.Close(ctx)

	profiles := []models.Profile{}
	if err := cursor.All(ctx, &profiles); err != nil {
		return nil, fmt.Errorf("failed to decode profiles: %w", err)
	}
	return profiles, nil
}

func (r *MongoProfileRepo) CountReferrals(ctx context.Context, code string) (int, error) {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, bson.M{"referredBy": code})
	if err != nil {
		return 0, fmt.Errorf("failed to count referrals: %w", err)
	}
	return int(n), nil
}

func (r *MongoProfileRepo) CountByRole(ctx context.Context) (map[string]int64, error) {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: "$role"}, {Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}}}}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to count profiles by role: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Role  string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode role counts: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Role] = row.Count
	}
	return counts, nil
}
