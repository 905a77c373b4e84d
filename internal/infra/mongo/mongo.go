package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	quizzesCollection  = "quizzes"
	attemptsCollection = "attempts"
)

// Connect dials the server and verifies it answers a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the indexes the stores rely on. Safe to call on every start.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(attemptsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "quizId", Value: 1}, {Key: "attemptNumber", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("user_quiz_attempt_unique"),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "timeStarted", Value: -1}},
			Options: options.Index().SetName("user_history"),
		},
	})
	if err != nil {
		return fmt.Errorf("attempt indexes: %w", err)
	}
	_, err = db.Collection(quizzesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "isActive", Value: 1},
			{Key: "isPublic", Value: 1},
			{Key: "targetDemographic", Value: 1},
			{Key: "category", Value: 1},
			{Key: "difficulty", Value: 1},
		},
		Options: options.Index().SetName("quiz_listing"),
	})
	if err != nil {
		return fmt.Errorf("quiz indexes: %w", err)
	}
	return nil
}
