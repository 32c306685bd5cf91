// internal/app/store/officers/store.go
package officers

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dalemusser/rosterhub/internal/app/reconcile"
	"github.com/dalemusser/rosterhub/internal/domain/models"
)

// ErrNotFound is returned when no officer matches the query.
var ErrNotFound = errors.New("officer not found")

// Store manages the authoritative officer collection. Officers are keyed by
// allocator-issued AGIDs and carry no credentials.
type Store struct {
	c *mongo.Collection
}

// New creates a new Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("officers")}
}

// EnsureIndexes creates the agid lookup index for legacy documents whose
// _id is not the AGID.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "agid", Value: 1}},
		Options: options.Index().SetName("idx_officers_agid"),
	})
	return err
}

// GetByAGID fetches one raw document by natural key.
func (s *Store) GetByAGID(ctx context.Context, agid string) (reconcile.Doc, error) {
	var raw bson.M
	err := s.c.FindOne(ctx, bson.M{"$or": bson.A{
		bson.M{"_id": agid},
		bson.M{"agid": agid},
	}}).Decode(&raw)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return reconcile.Doc{}, ErrNotFound
		}
		return reconcile.Doc{}, fmt.Errorf("get officer %s: %w", agid, err)
	}
	return asDoc(raw), nil
}

// All streams every raw document in the collection.
func (s *Store) All(ctx context.Context) ([]reconcile.Doc, error) {
	cur, err := s.c.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list officers: %w", err)
	}
	defer cur.Close(ctx)

	var out []reconcile.Doc
	for cur.Next(ctx) {
		var raw bson.M
		if err := cur.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode officer: %w", err)
		}
		out = append(out, asDoc(raw))
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list officers: %w", err)
	}
	return out, nil
}

// Upsert merge-writes the officer under its AGID, recomputing the search
// blob first.
func (s *Store) Upsert(ctx context.Context, o models.Officer) error {
	if o.AGID == "" {
		return fmt.Errorf("upsert officer: blank agid")
	}
	o.SearchBlob = reconcile.OfficerBlob(o)

	fields, err := asSetFields(o)
	if err != nil {
		return fmt.Errorf("encode officer %s: %w", o.AGID, err)
	}
	delete(fields, "_id")
	_, err = s.c.UpdateOne(ctx,
		bson.M{"_id": o.AGID},
		bson.M{"$set": fields},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("merge officer %s: %w", o.AGID, err)
	}
	return nil
}

// Delete removes the document for agid.
func (s *Store) Delete(ctx context.Context, agid string) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"$or": bson.A{
		bson.M{"_id": agid},
		bson.M{"agid": agid},
	}})
	if err != nil {
		return fmt.Errorf("delete officer %s: %w", agid, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func asDoc(raw bson.M) reconcile.Doc {
	doc := reconcile.Doc{Data: raw}
	switch id := raw["_id"].(type) {
	case string:
		doc.ID = id
	case primitive.ObjectID:
		doc.ID = id.Hex()
	}
	delete(raw, "_id")
	return doc
}

func asSetFields(v interface{}) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}
