package repository

import (
	"context"
	"fmt"
	"time"

	"reviewcatalog/background-worker-service/internal/app/background-worker/entity"
	"reviewcatalog/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const journalCollection = "review_events"

type eventJournal struct {
	collection *mongo.Collection
}

// NewEventJournal создает журнал событий
// Индекс по product_id создается при старте, ошибка только логируется
func NewEventJournal(db *mongo.Database) EventJournal {
	collection := db.Collection(journalCollection)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "product_id", Value: 1}},
		Options: options.Index().SetName("product_id_idx"),
	}

	if _, err := collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		logger.Warn().Err(err).Str("collection", journalCollection).Msg("Failed to create index on product_id")
	}

	return &eventJournal{collection: collection}
}

func (j *eventJournal) Record(ctx context.Context, event *entity.ReviewEvent) error {
	entry := entity.NewJournalEntry(event)
	entry.ProcessedAt = time.Now().UTC()

	if _, err := j.collection.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to record review event: %w", err)
	}

	return nil
}
