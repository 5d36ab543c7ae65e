package translatedRepo

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

// MongoTranslatedRepo implements TranslatedRepository using MongoDB.
type MongoTranslatedRepo struct {
	coll *mongo.Collection
}

func NewMongoTranslatedRepo() TranslatedRepository {
	repo := &MongoTranslatedRepo{coll: database.DB().Collection("translated_documents")}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create translated document indexes: %v\n", err)
	}
	return repo
}

func (r *MongoTranslatedRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "originalDocumentId", Value: 1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "filename", Value: 1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoTranslatedRepo) Create(ctx context.Context, t *models.TranslatedDocument) error {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	if _, err := r.coll.InsertOne(ctx, t); err != nil {
		return fmt.Errorf("failed to create translated document: %w", repository.Translate(err))
	}
	return nil
}

func (r *MongoTranslatedRepo) GetByID(ctx context.Context, id string) (*models.TranslatedDocument, error) {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	var t models.TranslatedDocument
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&t); err != nil {
		return nil, repository.Translate(err)
	}
	return &t, nil
}

func (r *MongoTranslatedRepo) ListByUser(ctx context.Context, userID string) ([]models.TranslatedDocument, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if userID != "" {
		filter["userId"] = userID
	}
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list translated documents: %w", err)
	}
	defer cursor.Close(ctx)

	rows := []models.TranslatedDocument{}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode translated documents: %w", err)
	}
	return rows, nil
}

func (r *MongoTranslatedRepo) DeleteByDocumentID(ctx context.Context, documentID string) (int64, error) {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	result, err := r.coll.DeleteMany(ctx, bson.M{"originalDocumentId": documentID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete translations for %s: %w", documentID, err)
	}
	return result.DeletedCount, nil
}
