package archive

import (
	"context"
	"time"

	"github.com/avvvet/cardroom-services/internal/comm"
	"github.com/avvvet/cardroom-services/internal/db"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "room_events"

// Record is a stored room event. Mongo removes it once ExpiresAt passes.
type Record struct {
	comm.RoomEvent `bson:",inline"`
	ExpiresAt      time.Time `bson:"expires_at" json:"expires_at"`
}

func NewRecord(ev comm.RoomEvent, ttl time.Duration, now time.Time) Record {
	if ev.At.IsZero() {
		ev.At = now.UTC()
	}
	return Record{RoomEvent: ev, ExpiresAt: ev.At.Add(ttl)}
}

type Store struct {
	coll *mongo.Collection
	ttl  time.Duration
}

func NewStore(database *mongo.Database, ttl time.Duration) *Store {
	return &Store{
		coll: database.Collection(CollectionName),
		ttl:  ttl,
	}
}

// EnsureIndexes creates the TTL index and the per-room lookup index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	if err := db.CreateTTLIndexForCollection(ctx, s.coll.Database(), CollectionName); err != nil {
		return err
	}
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "room_code", Value: 1}, {Key: "at", Value: -1}},
	})
	return err
}

func (s *Store) Save(ctx context.Context, ev comm.RoomEvent) error {
	_, err := s.coll.InsertOne(ctx, NewRecord(ev, s.ttl, time.Now()))
	return err
}

// ListByRoom returns the newest events of a room first.
func (s *Store) ListByRoom(ctx context.Context, roomCode string, limit int64) ([]Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: "at", Value: -1}}).SetLimit(limit)
	cur, err := s.coll.Find(ctx, bson.M{"room_code": roomCode}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	records := []Record{}
	if err := cur.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
