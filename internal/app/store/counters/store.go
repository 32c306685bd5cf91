// internal/app/store/counters/store.go
package counters

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	// counterDocID is the singleton document holding every counter.
	counterDocID = "idCounters"
	// officerCounterField tracks the last issued officer sequence number.
	officerCounterField = "contactsCounter"

	// OfficerIDPrefix and OfficerIDWidth define the rendered identifier
	// shape, e.g. AGID0001.
	OfficerIDPrefix = "AGID"
	OfficerIDWidth  = 4
)

// Store manages the counter document used to mint identifiers.
type Store struct {
	c *mongo.Collection
}

// New creates a new Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("meta")}
}

// AllocateOfficerID atomically increments the officer counter and returns
// the freshly minted identifier. The increment is a single server-side
// read-modify-write, so concurrent callers always observe distinct,
// sequential values; there is no non-atomic fallback.
func (s *Store) AllocateOfficerID(ctx context.Context) (string, error) {
	n, err := s.next(ctx, officerCounterField)
	if err != nil {
		return "", err
	}
	return FormatOfficerID(n), nil
}

// next increments the named counter and returns the new value, creating the
// counter document on first use.
func (s *Store) next(ctx context.Context, field string) (int64, error) {
	var doc bson.M
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": counterDocID},
		bson.M{"$inc": bson.M{field: int64(1)}},
		options.FindOneAndUpdate().
			SetUpsert(true).
			SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("allocate %s: %w", field, err)
	}

	switch v := doc[field].(type) {
	case int64:
		return v, nil
	case int32:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("allocate %s: unexpected counter type %T", field, v)
	}
}

// FormatOfficerID renders a counter value as a zero-padded identifier.
func FormatOfficerID(n int64) string {
	return fmt.Sprintf("%s%0*d", OfficerIDPrefix, OfficerIDWidth, n)
}

// Reset forces the counter back to zero. Test helper only.
func (s *Store) Reset(ctx context.Context) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": counterDocID},
		bson.M{"$set": bson.M{officerCounterField: int64(0)}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("reset counter: %w", err)
	}
	return nil
}

// Current returns the last issued counter value without incrementing.
func (s *Store) Current(ctx context.Context) (int64, error) {
	var doc bson.M
	err := s.c.FindOne(ctx, bson.M{"_id": counterDocID}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, nil
		}
		return 0, fmt.Errorf("read counter: %w", err)
	}
	switch v := doc[officerCounterField].(type) {
	case int64:
		return v, nil
	case int32:
		return int64(v), nil
	default:
		return 0, nil
	}
}
