package documentRepo

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"tradocs/database"
	"tradocs/database/repository"
	"tradocs/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDocumentRepo implements DocumentRepository using MongoDB.
type MongoDocumentRepo struct {
	coll *mongo.Collection
}

// NewMongoDocumentRepo creates a new instance of DocumentRepository using MongoDB.
func NewMongoDocumentRepo() DocumentRepository {
	repo := &MongoDocumentRepo{coll: database.DB().Collection("documents")}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create document indexes: %v\n", err)
	}
	return repo
}

func (r *MongoDocumentRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "filename", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: 1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func toBSON(f DocumentFilter) bson.M {
	filter := bson.M{}
	if f.UserID != "" {
		filter["userId"] = f.UserID
	}
	if f.FolderID != nil {
		filter["folderId"] = *f.FolderID
	}
	if len(f.Statuses) > 0 {
		filter["status"] = bson.M{"$in": f.Statuses}
	}
	if len(f.IDs) > 0 {
		filter["id"] = bson.M{"$in": f.IDs}
	}
	created := bson.M{}
	if !f.From.IsZero() {
		created["$gte"] = f.From
	}
	if !f.To.IsZero() {
		created["$lt"] = f.To
	}
	if len(created) > 0 {
		filter["createdAt"] = created
	}
	if f.Search != "" {
		filter["filename"] = bson.M{"$regex": regexp.QuoteMeta(f.Search), "$options": "i"}
	}
	return filter
}

func (r *MongoDocumentRepo) Create(ctx context.Context, doc *models.Document) error {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	now := time.Now()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create document: %w", repository.Translate(err))
	}
	return nil
}

func (r *MongoDocumentRepo) GetByID(ctx context.Context, id string) (*models.Document, error) {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	var doc models.Document
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&doc); err != nil {
		return nil, repository.Translate(err)
	}
	return &doc, nil
}

func (r *MongoDocumentRepo) Update(ctx context.Context, doc *models.Document) error {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	doc.UpdatedAt = time.Now()
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": doc.ID}, bson.M{"$set": doc})
	if err != nil {
		return fmt.Errorf("failed to update document %s: %w", doc.ID, err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *MongoDocumentRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	result, err := r.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete document %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *MongoDocumentRepo) List(ctx context.Context, f DocumentFilter) ([]models.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}

	cursor, err := r.coll.Find(ctx, toBSON(f), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer cursor.Close(ctx)

	docs := []models.Document{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode documents: %w", err)
	}
	return docs, nil
}

func (r *MongoDocumentRepo) ListStaleDrafts(ctx context.Context, cutoff time.Time) ([]models.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	filter := bson.M{
		"status":    models.DocumentStatusDraft,
		"createdAt": bson.M{"$lt": cutoff},
		"$or": bson.A{
			bson.M{"paymentId": bson.M{"$exists": false}},
			bson.M{"paymentId": ""},
		},
	}
	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale drafts: %w", err)
	}
	defer cursor.Close(ctx)

	docs := []models.Document{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode stale drafts: %w", err)
	}
	return docs, nil
}

func (r *MongoDocumentRepo) MoveFolderToRoot(ctx context.Context, userID, folderID string) (int64, error) {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	result, err := r.coll.UpdateMany(ctx,
		bson.M{"userId": userID, "folderId": folderID},
		bson.M{"$set": bson.M{"folderId": "", "updatedAt": time.Now()}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to move folder documents: %w", err)
	}
	return result.ModifiedCount, nil
}
