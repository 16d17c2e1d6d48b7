package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/xeze-org/bl/internal/models"
)

// JournalStore keeps the article lifecycle journal in MongoDB.
type JournalStore struct {
	col *mongo.Collection
}

func NewJournalStore(db *mongo.Database) *JournalStore {
	return &JournalStore{col: db.Collection("article_events")}
}

// EnsureIndexes creates the (slug, at) index used by History.
func (s *JournalStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "slug", Value: 1}, {Key: "at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("mongo index: %w", err)
	}
	return nil
}

func (s *JournalStore) Record(ctx context.Context, ev models.Event) error {
	if _, err := s.col.InsertOne(ctx, ev); err != nil {
		return fmt.Errorf("mongo insert: %w", err)
	}
	return nil
}

// History returns the newest events for slug, including events recorded
// under it as a previous slug.
func (s *JournalStore) History(ctx context.Context, slug string, limit int) ([]models.Event, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"slug": slug},
		bson.M{"previous_slug": slug},
	}}
	opts := options.Find().
		SetSort(bson.D{{Key: "at", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo find: %w", err)
	}
	defer cur.Close(ctx)

	events := []models.Event{}
	if err := cur.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("mongo decode: %w", err)
	}
	return events, nil
}
