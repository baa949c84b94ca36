// Package mongostore persists listings in a MongoDB collection.
package mongostore

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/12farit21/nosql-telegram-bot/core/logger"
	"github.com/12farit21/nosql-telegram-bot/internal/listing"
	"github.com/12farit21/nosql-telegram-bot/internal/search"
)

const component = "store"

// record is the stored document shape.
type record struct {
	ID    primitive.ObjectID `bson:"_id,omitempty"`
	Offer map[string]string  `bson:"offer"`
	Data  listing.Data       `bson:"data"`
}

func (r record) listing() listing.Listing {
	return listing.Listing{ID: r.ID.Hex(), Offer: r.Offer, Data: r.Data}
}

// Store implements listing.Repository on a collection.
type Store struct {
	coll *mongo.Collection
}

// New wraps coll.
func New(coll *mongo.Collection) *Store {
	return &Store{coll: coll}
}

// Insert writes l as one document and returns the hex ObjectID.
func (s *Store) Insert(ctx context.Context, l listing.Listing) (string, error) {
	offer := l.Offer
	if offer == nil {
		offer = map[string]string{}
	}
	res, err := s.coll.InsertOne(ctx, record{Offer: offer, Data: l.Data})
	if err != nil {
		return "", fmt.Errorf("mongostore: insert: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("mongostore: unexpected inserted id %T", res.InsertedID)
	}
	return oid.Hex(), nil
}

// Find returns up to limit documents matching q, newest first.
func (s *Store) Find(ctx context.Context, q search.Query, limit int) ([]listing.Listing, error) {
	return s.find(ctx, Filter(q), limit)
}

// FindByOwner returns up to limit documents with data.id == ownerID.
func (s *Store) FindByOwner(ctx context.Context, ownerID int64, limit int) ([]listing.Listing, error) {
	return s.find(ctx, bson.D{{Key: "data.id", Value: ownerID}}, limit)
}

func (s *Store) find(ctx context.Context, filter bson.D, limit int) ([]listing.Listing, error) {
	start := time.Now()
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongostore: find: %w", err)
	}
	defer cur.Close(ctx)

	var out []listing.Listing
	for cur.Next(ctx) {
		var r record
		if err := cur.Decode(&r); err != nil {
			// Imported documents may not fit the schema; skip them.
			logger.Warn(ctx, component, "decode.skip",
				slog.String("listing_id", idOf(cur.Current)),
				slog.String("err", err.Error()),
			)
			continue
		}
		out = append(out, r.listing())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("mongostore: cursor: %w", err)
	}
	logger.Debug(ctx, component, "find",
		slog.String("driver", "mongo"),
		slog.Int("limit", limit),
		slog.Int("results", len(out)),
		slog.Duration("duration", logger.Took(start)),
	)
	return out, nil
}

// Delete removes the document with id owned by ownerID.
func (s *Store) Delete(ctx context.Context, id string, ownerID int64) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %q", listing.ErrInvalidID, id)
	}
	res, err := s.coll.DeleteOne(ctx, bson.D{
		{Key: "_id", Value: oid},
		{Key: "data.id", Value: ownerID},
	})
	if err != nil {
		return fmt.Errorf("mongostore: delete: %w", err)
	}
	if res.DeletedCount == 0 {
		return listing.ErrNotFound
	}
	return nil
}

// EnsureIndexes creates the owner index used by FindByOwner and Delete.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "data.id", Value: 1}},
		Options: options.Index().SetName("data_id"),
	})
	if err != nil {
		return fmt.Errorf("mongostore: ensure indexes: %w", err)
	}
	return nil
}

// Ping checks the primary.
func (s *Store) Ping(ctx context.Context) error {
	return s.coll.Database().Client().Ping(ctx, readpref.Primary())
}

// Filter renders q as a Mongo filter document. Text clauses are matched as
// case-insensitive literal substrings.
func Filter(q search.Query) bson.D {
	filter := bson.D{}
	for _, c := range q.Clauses {
		switch c.Op {
		case search.OpEq:
			filter = append(filter, bson.E{Key: c.Path(), Value: c.Int})
		case search.OpContains:
			filter = append(filter, bson.E{Key: c.Path(), Value: bson.D{
				{Key: "$regex", Value: regexp.QuoteMeta(c.Text)},
				{Key: "$options", Value: "i"},
			}})
		}
	}
	return filter
}

func idOf(raw bson.Raw) string {
	v, err := raw.LookupErr("_id")
	if err != nil {
		return ""
	}
	if oid, ok := v.ObjectIDOK(); ok {
		return oid.Hex()
	}
	return v.String()
}
