// internal/app/store/pending/store.go
package pending

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dalemusser/rosterhub/internal/app/system/normalize"
	"github.com/dalemusser/rosterhub/internal/domain/models"
)

// ErrNotFound is returned when no registration matches the query.
var ErrNotFound = errors.New("registration not found")

// Store manages registration drafts awaiting admin review.
type Store struct {
	c *mongo.Collection
}

// New creates a new Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("pending_registrations")}
}

// EnsureIndexes creates lookup indexes for the review queue.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("idx_pending_email"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_pending_status"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Create stores a new registration draft and returns its document id.
func (s *Store) Create(ctx context.Context, p models.PendingRegistration) (string, error) {
	p.Email = normalize.Email(p.Email)
	p.Status = models.StatusPending
	p.SubmittedAt = time.Now()

	res, err := s.c.InsertOne(ctx, p)
	if err != nil {
		return "", fmt.Errorf("insert registration: %w", err)
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return fmt.Sprintf("%v", res.InsertedID), nil
	}
	return id.Hex(), nil
}

// Get fetches one registration by document id.
func (s *Store) Get(ctx context.Context, docID string) (models.PendingRegistration, error) {
	filter, err := idFilter(docID)
	if err != nil {
		return models.PendingRegistration{}, ErrNotFound
	}
	var p models.PendingRegistration
	if err := s.c.FindOne(ctx, filter).Decode(&p); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.PendingRegistration{}, ErrNotFound
		}
		return models.PendingRegistration{}, fmt.Errorf("get registration %s: %w", docID, err)
	}
	p.DocID = docID
	return p, nil
}

// List returns every registration with the given status, newest first.
// An empty status returns everything.
func (s *Store) List(ctx context.Context, status string) ([]models.PendingRegistration, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "submittedAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer cur.Close(ctx)

	var out []models.PendingRegistration
	for cur.Next(ctx) {
		var raw bson.M
		if err := cur.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode registration: %w", err)
		}
		var p models.PendingRegistration
		if b, err := bson.Marshal(raw); err == nil {
			_ = bson.Unmarshal(b, &p)
		}
		if id, ok := raw["_id"].(primitive.ObjectID); ok {
			p.DocID = id.Hex()
		} else if id, ok := raw["_id"].(string); ok {
			p.DocID = id
		}
		out = append(out, p)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return out, nil
}

// Reject marks a registration rejected with a reason. Rejected rows stay in
// the collection so the applicant can see why.
func (s *Store) Reject(ctx context.Context, docID, reason string) error {
	filter, err := idFilter(docID)
	if err != nil {
		return ErrNotFound
	}
	res, err := s.c.UpdateOne(ctx, filter, bson.M{"$set": bson.M{
		"status":          models.StatusRejected,
		"rejectionReason": reason,
	}})
	if err != nil {
		return fmt.Errorf("reject registration %s: %w", docID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a registration, typically after approval promoted it.
func (s *Store) Delete(ctx context.Context, docID string) error {
	filter, err := idFilter(docID)
	if err != nil {
		return ErrNotFound
	}
	res, err := s.c.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("delete registration %s: %w", docID, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// idFilter matches either ObjectID or plain string document ids.
func idFilter(docID string) (bson.M, error) {
	if oid, err := primitive.ObjectIDFromHex(docID); err == nil {
		return bson.M{"_id": oid}, nil
	}
	if docID == "" {
		return nil, ErrNotFound
	}
	return bson.M{"_id": docID}, nil
}
