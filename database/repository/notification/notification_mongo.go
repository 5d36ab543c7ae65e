package notificationRepo

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

// MongoNotificationRepo implements NotificationRepository using MongoDB.
type MongoNotificationRepo struct {
	coll *mongo.Collection
}

func NewMongoNotificationRepo() NotificationRepository {
	repo := &MongoNotificationRepo{coll: database.DB().Collection("notifications")}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create notification indexes: %v\n", err)
	}
	return repo
}

func (r *MongoNotificationRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "read", Value: 1}, {Key: "createdAt", Value: -1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	if _, err := r.coll.InsertOne(ctx, n); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *MongoNotificationRepo) List(ctx context.Context, userID string, unreadOnly bool, limit int64) ([]models.Notification, error) {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	filter := bson.M{"userId": userID}
	if unreadOnly {
		filter["read"] = false
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer cursor.Close(ctx)

	rows := []models.Notification{}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode notifications: %w", err)
	}
	return rows, nil
}

func (r *MongoNotificationRepo) MarkRead(ctx context.Context, userID, id string) error {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	result, err := r.coll.UpdateOne(ctx,
		bson.M{"id": id, "userId": userID},
		bson.M{"$set": bson.M{"read": true, "readAt": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *MongoNotificationRepo) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	result, err := r.coll.UpdateMany(ctx,
		bson.M{"userId": userID, "read": false},
		bson.M{"$set": bson.M{"read": true, "readAt": time.Now()}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return result.ModifiedCount, nil
}

func (r *MongoNotificationRepo) CountUnread(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, bson.M{"userId": userID, "read": false})
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return n, nil
}

func (r *MongoNotificationRepo) Delete(ctx context.Context, userID, id string) error {
	ctx, cancel := repository.WithTimeout(ctx)
	defer cancel()

	result, err := r.coll.DeleteOne(ctx, bson.M{"id": id, "userId": userID})
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *MongoNotificationRepo) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	result, err := r.coll.DeleteMany(ctx, bson.M{"read": true, "createdAt": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, fmt.Errorf("failed to purge notifications: %w", err)
	}
	return result.DeletedCount, nil
}
