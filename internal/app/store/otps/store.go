// internal/app/store/otps/store.go
package otps

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"github.com/dalemusser/rosterhub/internal/app/system/normalize"
)

const (
	// CodeLength is the length of the one-time code (6 digits).
	CodeLength = 6
	// DefaultExpiry is how long a code is valid.
	DefaultExpiry = 10 * time.Minute
	// BcryptCost for hashing codes.
	BcryptCost = 10
	// MaxVerifyAttempts is the maximum number of verification attempts per code.
	MaxVerifyAttempts = 5
	// MaxIssuesPerWindow caps how many codes an account can be issued
	// within IssueWindow.
	MaxIssuesPerWindow = 3
	// IssueWindow is the time window for issuance rate limiting.
	IssueWindow = 10 * time.Minute
)

var (
	// ErrNotFound is returned when no live code exists for the email.
	ErrNotFound = errors.New("code not found or expired")
	// ErrInvalidCode is returned when the code doesn't match.
	ErrInvalidCode = errors.New("invalid code")
	// ErrTooManyAttempts is returned after too many failed verifications.
	ErrTooManyAttempts = errors.New("too many verification attempts")
	// ErrTooManyRequests is returned when an account asks for more codes
	// than the issuance window allows.
	ErrTooManyRequests = errors.New("too many code requests")
)

// Code is a pending one-time code, keyed by normalized account email.
type Code struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Email       string             `bson:"email"`      // normalized at issuance
	CodeHash    string             `bson:"code_hash"`  // bcrypt hash of the 6-digit code
	ExpiresAt   time.Time          `bson:"expires_at"` // TTL index field
	CreatedAt   time.Time          `bson:"created_at"`
	Attempts    int                `bson:"attempts"`
	IssueCount  int                `bson:"issue_count"` // codes issued in the current window
	WindowStart time.Time          `bson:"window_start"`
}

// Store manages one-time codes.
type Store struct {
	c      *mongo.Collection
	expiry time.Duration
}

// New creates a new Store with the specified expiry duration.
// If expiry is 0 or negative, DefaultExpiry (10 minutes) is used.
func New(db *mongo.Database, expiry time.Duration) *Store {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Store{
		c:      db.Collection("otp_codes"),
		expiry: expiry,
	}
}

// Expiry returns the expiry duration for codes.
func (s *Store) Expiry() time.Duration {
	return s.expiry
}

// EnsureIndexes creates the email lookup index and the TTL index for
// auto-cleanup of expired codes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetName("idx_otp_expires_ttl").SetExpireAfterSeconds(0),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("idx_otp_email"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Create issues a fresh code for the email, replacing any outstanding one.
// Every issuance counts against the per-window rate limit, whether the
// caller thinks of it as a first request or a resend. Returns the plain
// text code to deliver out-of-band.
func (s *Store) Create(ctx context.Context, email string) (string, error) {
	email = normalize.Email(email)
	now := time.Now()

	var existing Code
	err := s.c.FindOne(ctx, bson.M{"email": email}).Decode(&existing)
	existingFound := err == nil

	issueCount := 0
	windowStart := now
	if existingFound && now.Before(existing.WindowStart.Add(IssueWindow)) {
		if existing.IssueCount >= MaxIssuesPerWindow {
			return "", ErrTooManyRequests
		}
		windowStart = existing.WindowStart
		issueCount = existing.IssueCount
	}

	code := generateCode()
	hash, err := bcrypt.GenerateFromPassword([]byte(code), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash code: %w", err)
	}

	// Replace any outstanding codes; only one code per account is live.
	_, _ = s.c.DeleteMany(ctx, bson.M{"email": email})

	rec := Code{
		ID:          primitive.NewObjectID(),
		Email:       email,
		CodeHash:    string(hash),
		ExpiresAt:   now.Add(s.expiry),
		CreatedAt:   now,
		Attempts:    0,
		IssueCount:  issueCount + 1,
		WindowStart: windowStart,
	}
	if _, err := s.c.InsertOne(ctx, rec); err != nil {
		return "", fmt.Errorf("insert code: %w", err)
	}
	return code, nil
}

// Verify checks a code for the email and consumes it on success (single
// use). An expired, consumed, or never-issued code yields ErrNotFound; a
// live code that doesn't match yields ErrInvalidCode.
func (s *Store) Verify(ctx context.Context, email, code string) error {
	email = normalize.Email(email)

	rec, err := s.findLive(ctx, email)
	if err != nil {
		return err
	}

	if rec.Attempts >= MaxVerifyAttempts {
		return ErrTooManyAttempts
	}

	// Count every attempt, valid or not.
	_, _ = s.c.UpdateOne(ctx, bson.M{"_id": rec.ID}, bson.M{"$inc": bson.M{"attempts": 1}})

	if err := bcrypt.CompareHashAndPassword([]byte(rec.CodeHash), []byte(code)); err != nil {
		return ErrInvalidCode
	}

	// Consume: a replayed code must be rejected.
	_, _ = s.c.DeleteOne(ctx, bson.M{"_id": rec.ID})
	return nil
}

// findLive looks up the unexpired code for the email. The direct indexed
// lookup assumes emails were normalized at issuance; if it misses, every
// live code is scanned with normalized comparison to tolerate records
// written with stray casing or whitespace.
func (s *Store) findLive(ctx context.Context, email string) (*Code, error) {
	var rec Code
	err := s.c.FindOne(ctx, bson.M{
		"email":      email,
		"expires_at": bson.M{"$gt": time.Now()},
	}).Decode(&rec)
	if err == nil {
		return &rec, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("find code: %w", err)
	}

	cur, err := s.c.Find(ctx, bson.M{"expires_at": bson.M{"$gt": time.Now()}})
	if err != nil {
		return nil, fmt.Errorf("scan codes: %w", err)
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var cand Code
		if err := cur.Decode(&cand); err != nil {
			continue
		}
		if normalize.Email(cand.Email) == email {
			return &cand, nil
		}
	}
	return nil, ErrNotFound
}

// DeleteByEmail removes any outstanding codes for the email.
func (s *Store) DeleteByEmail(ctx context.Context, email string) error {
	_, err := s.c.DeleteMany(ctx, bson.M{"email": normalize.Email(email)})
	return err
}

// DeleteExpired removes expired codes. The TTL index normally handles this;
// the startup sweeper calls it as a backstop for deployments without TTL
// monitor support.
func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": time.Now()}})
	if err != nil {
		return 0, fmt.Errorf("delete expired codes: %w", err)
	}
	return res.DeletedCount, nil
}

// generateCode generates a random 6-digit numeric code.
// Panics if the system's cryptographic random number generator fails.
func generateCode() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand.Read failed: " + err.Error())
	}
	n := int(b[0])<<24 | int(b[1])<<16 | int(b[2])<<8 | int(b[3])
	if n < 0 {
		n = -n
	}
	code := (n % 900000) + 100000
	return fmt.Sprintf("%06d", code)
}
