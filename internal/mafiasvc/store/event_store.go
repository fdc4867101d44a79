package store

import (
	"context"
	"fmt"
	"time"

	"github.com/ChrisAtwell27/BobbyTheBot-sub004/internal/mafiasvc/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// eventRetention is how long audit events stay queryable before the TTL
// index drops them.
const eventRetention = 90 * 24 * time.Hour

type EventStore struct {
	col *mongo.Collection
}

func NewEventStore(db *mongo.Database) *EventStore {
	return &EventStore{col: db.Collection("game_events")}
}

// CreateEvent appends one audit row. Seq is phase-relative and assigned
// here; events are display-only so a racing duplicate seq is harmless.
func (s *EventStore) CreateEvent(ctx context.Context, gameID, phase, eventType, description string, payload map[string]string) error {
	seq, err := s.col.CountDocuments(ctx, bson.M{"game_id": gameID, "phase": phase})
	if err != nil {
		return fmt.Errorf("failed to count events: %w", err)
	}

	now := time.Now()
	ev := models.Event{
		GameID:      gameID,
		Phase:       phase,
		Seq:         int(seq) + 1,
		Type:        eventType,
		Description: description,
		Payload:     payload,
		CreatedAt:   now,
		ExpiresAt:   now.Add(eventRetention),
	}

	if _, err := s.col.InsertOne(ctx, ev); err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

// GetRecentEvents returns the latest n events for a game, newest first.
func (s *EventStore) GetRecentEvents(ctx context.Context, gameID string, n int) ([]*models.Event, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(n))

	cur, err := s.col.Find(ctx, bson.M{"game_id": gameID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent events: %w", err)
	}
	defer cur.Close(ctx)

	var events []*models.Event
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}
