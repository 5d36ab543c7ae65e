package folderRepo

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

type MongoFolderRepo struct {
	coll *mongo.Collection
}

func NewMongoFolderRepo() FolderRepository {
	repo := &MongoFolderRepo{coll: database.DB().Collection("folders")}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create folder indexes: %v\n", err)
	}
	return repo
}

func (r *MongoFolderRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "parentId", Value: 1}, {Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoFolderRepo) Create(ctx context.Context, f *models.Folder) error {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	now := time.Now()
	if f.CreatedAt.IsZero() {
		f.CreatedAt = now
	}
	f.UpdatedAt = now
	if _, err := r.coll.InsertOne(ctx, f); err != nil {
		return fmt.Errorf("failed to create folder: %w", repository.Translate(err))
	}
	return nil
}

func (r *MongoFolderRepo) GetByID(ctx context.Context, id string) (*models.Folder, error) {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	var f models.Folder
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&f); err != nil {
		return nil, repository.Translate(err)
	}
	return &f, nil
}

func (r *MongoFolderRepo) Update(ctx context.Context, f *models.Folder) error {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	f.UpdatedAt = time.Now()
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": f.ID}, bson.M{"$set": f})
	if err != nil {
		return fmt.Errorf("failed to update folder %s: %w", f.ID, repository.Translate(err))
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *MongoFolderRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	result, err := r.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete folder %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *MongoFolderRepo) ListByUser(ctx context.Context, userID string) ([]models.Folder, error) {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	defer cursor.Close(ctx)

	rows := []models.Folder{}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode folders: %w", err)
	}
	return rows, nil
}
