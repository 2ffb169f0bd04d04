package repository

import (
	"context"
	"fmt"
	"time"

	"tonotes/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func SetupIndexes(ctx context.Context, coll *mongo.Collection) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	noteIndexes := []mongo.IndexModel{
		// List order
		{
			Keys: bson.D{
				{Key: "priority", Value: 1},
				{Key: "created_at", Value: 1},
			},
			Options: options.Index().
				SetName("notes_priority_order"),
		},
		// Status filter keeps the same order
		{
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "priority", Value: 1},
				{Key: "created_at", Value: 1},
			},
			Options: options.Index().
				SetName("notes_status_priority"),
		},
		// Notes without a reminder have no reminder_time field
		{
			Keys: bson.D{{Key: "reminder_time", Value: 1}},
			Options: options.Index().
				SetName("notes_reminder_time").
				SetSparse(true),
		},
	}

	if _, err := coll.Indexes().CreateMany(ctx, noteIndexes); err != nil {
		return fmt.Errorf("failed to create notes indexes: %w", err)
	}

	utils.Info().Str("collection", coll.Name()).Msg("notes indexes ready")
	return nil
}
