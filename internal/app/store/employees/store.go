// internal/app/store/employees/store.go
package employees

// Terminology: Record Identifiers
//   - KGID: the natural key of an employee record; modern documents use it
//     as the Mongo _id as well
//   - Document ID: the _id of the stored document; legacy documents may have
//     an ObjectID _id and a separate (possibly blank) kgid field

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dalemusser/rosterhub/internal/app/reconcile"
	"github.com/dalemusser/rosterhub/internal/app/system/normalize"
	"github.com/dalemusser/rosterhub/internal/domain/models"
)

// ErrNotFound is returned when no employee matches the query.
var ErrNotFound = errors.New("employee not found")

// Store manages the authoritative employee collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("employees")}
}

// EnsureIndexes creates the indexes the read paths rely on. Email uniqueness
// is partial so legacy documents without an email keep loading.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "email", Value: 1}},
			Options: options.Index().
				SetName("idx_employees_email").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"email": bson.M{"$type": "string", "$gt": ""}}),
		},
		{
			Keys:    bson.D{{Key: "kgid", Value: 1}},
			Options: options.Index().SetName("idx_employees_kgid"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// GetByKGID fetches one raw document by natural key, matching either the
// document id or the kgid field so legacy documents resolve too.
func (s *Store) GetByKGID(ctx context.Context, kgid string) (reconcile.Doc, error) {
	var raw bson.M
	err := s.c.FindOne(ctx, bson.M{"$or": bson.A{
		bson.M{"_id": kgid},
		bson.M{"kgid": kgid},
	}}).Decode(&raw)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return reconcile.Doc{}, ErrNotFound
		}
		return reconcile.Doc{}, fmt.Errorf("get employee %s: %w", kgid, err)
	}
	return asDoc(raw), nil
}

// GetByEmail fetches one raw document by normalized email (limit 1).
func (s *Store) GetByEmail(ctx context.Context, email string) (reconcile.Doc, error) {
	email = normalize.Email(email)
	if email == "" {
		return reconcile.Doc{}, ErrNotFound
	}
	var raw bson.M
	err := s.c.FindOne(ctx, bson.M{"email": email}).Decode(&raw)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return reconcile.Doc{}, ErrNotFound
		}
		return reconcile.Doc{}, fmt.Errorf("get employee by email: %w", err)
	}
	return asDoc(raw), nil
}

// All streams every raw document in the collection.
func (s *Store) All(ctx context.Context) ([]reconcile.Doc, error) {
	cur, err := s.c.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer cur.Close(ctx)

	var out []reconcile.Doc
	for cur.Next(ctx) {
		var raw bson.M
		if err := cur.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode employee: %w", err)
		}
		out = append(out, asDoc(raw))
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	return out, nil
}

// Upsert merge-writes the employee under its KGID. Only the fields present
// in the record's bson encoding are set; absent string fields never clobber
// existing remote values. The boolean flags are always written, so callers
// must carry their current values. Email is normalized before writing, and
// the search blob is recomputed only for records that carry a name; a
// partial record without one would produce a blob missing most of the
// searchable text.
func (s *Store) Upsert(ctx context.Context, e models.Employee) error {
	if e.KGID == "" {
		return fmt.Errorf("upsert employee: blank kgid")
	}
	e.Email = normalize.Email(e.Email)
	if e.Name != "" {
		e.SearchBlob = reconcile.EmployeeBlob(e)
	} else {
		e.SearchBlob = ""
	}
	e.UpdatedAt = time.Now()

	fields, err := asSetFields(e)
	if err != nil {
		return fmt.Errorf("encode employee %s: %w", e.KGID, err)
	}
	return s.MergeSet(ctx, e.KGID, fields)
}

// MergeSet applies a partial update ($set of the given fields) to the
// document keyed by kgid, creating it when absent.
func (s *Store) MergeSet(ctx context.Context, kgid string, fields bson.M) error {
	delete(fields, "_id")
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": kgid},
		bson.M{"$set": fields},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("merge employee %s: %w", kgid, err)
	}
	return nil
}

// UpdatePINByEmail overwrites the stored PIN hash for the account with the
// given email.
func (s *Store) UpdatePINByEmail(ctx context.Context, email, pinHash string) error {
	email = normalize.Email(email)
	res, err := s.c.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$set": bson.M{"pin": pinHash, "updatedAt": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("update pin: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the document for kgid.
func (s *Store) Delete(ctx context.Context, kgid string) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"$or": bson.A{
		bson.M{"_id": kgid},
		bson.M{"kgid": kgid},
	}})
	if err != nil {
		return fmt.Errorf("delete employee %s: %w", kgid, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// asDoc splits a raw document into its id and body. String ids pass through;
// ObjectIDs render as hex.
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

// asSetFields encodes a record as a flat $set document.
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
