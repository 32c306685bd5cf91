package otps_test

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/crypto/bcrypt"

	"github.com/dalemusser/rosterhub/internal/app/store/otps"
	"github.com/dalemusser/rosterhub/internal/testutil"
)

func TestNew_DefaultExpiry(t *testing.T) {
	db := testutil.SetupTestDB(t)

	store := otps.New(db, 0)
	if store.Expiry() != otps.DefaultExpiry {
		t.Errorf("expected default expiry %v, got %v", otps.DefaultExpiry, store.Expiry())
	}

	custom := 30 * time.Minute
	store = otps.New(db, custom)
	if store.Expiry() != custom {
		t.Errorf("expected expiry %v, got %v", custom, store.Expiry())
	}
}

func TestStore_CreateAndVerify(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := otps.New(db, otps.DefaultExpiry)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	code, err := store.Create(ctx, "ravi@example.com")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(code) != otps.CodeLength {
		t.Fatalf("code length = %d, want %d", len(code), otps.CodeLength)
	}

	if err := store.Verify(ctx, "ravi@example.com", code); err != nil {
		t.Errorf("Verify failed: %v", err)
	}
}

func TestStore_Verify_SingleUse(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := otps.New(db, otps.DefaultExpiry)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	code, err := store.Create(ctx, "ravi@example.com")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.Verify(ctx, "ravi@example.com", code); err != nil {
		t.Fatalf("first Verify failed: %v", err)
	}

	// Replay of a consumed code must be rejected.
	if err := store.Verify(ctx, "ravi@example.com", code); err != otps.ErrNotFound {
		t.Errorf("replay err = %v, want ErrNotFound", err)
	}
}

func TestStore_Verify_WrongCode(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := otps.New(db, otps.DefaultExpiry)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	code, err := store.Create(ctx, "ravi@example.com")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	if err := store.Verify(ctx, "ravi@example.com", wrong); err != otps.ErrInvalidCode {
		t.Errorf("err = %v, want ErrInvalidCode", err)
	}

	// The real code still works after one failed attempt.
	if err := store.Verify(ctx, "ravi@example.com", code); err != nil {
		t.Errorf("Verify after failed attempt: %v", err)
	}
}

func TestStore_Verify_Expired(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := otps.New(db, 1*time.Millisecond)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	code, err := store.Create(ctx, "ravi@example.com")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	if err := store.Verify(ctx, "ravi@example.com", code); err != otps.ErrNotFound {
		t.Errorf("expired err = %v, want ErrNotFound", err)
	}
}

func TestStore_Verify_NormalizedEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := otps.New(db, otps.DefaultExpiry)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	code, err := store.Create(ctx, "  Ravi@Example.COM ")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Verification with a differently cased email must still match.
	if err := store.Verify(ctx, "RAVI@example.com", code); err != nil {
		t.Errorf("Verify with unnormalized email: %v", err)
	}
}

func TestStore_Verify_ScanFallbackForDirtyStoredEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := otps.New(db, otps.DefaultExpiry)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// A record written with unnormalized casing, as older writers produced.
	hash, err := bcrypt.GenerateFromPassword([]byte("123456"), otps.BcryptCost)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	_, err = db.Collection("otp_codes").InsertOne(ctx, bson.M{
		"email":      "Ravi@Example.COM",
		"code_hash":  string(hash),
		"expires_at": time.Now().Add(otps.DefaultExpiry),
		"created_at": time.Now(),
	})
	if err != nil {
		t.Fatalf("insert dirty record: %v", err)
	}

	if err := store.Verify(ctx, "ravi@example.com", "123456"); err != nil {
		t.Errorf("Verify via scan fallback: %v", err)
	}
}

func TestStore_Create_ReplacesOutstandingCode(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := otps.New(db, otps.DefaultExpiry)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	first, err := store.Create(ctx, "ravi@example.com")
	if err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	second, err := store.Create(ctx, "ravi@example.com")
	if err != nil {
		t.Fatalf("second Create failed: %v", err)
	}

	if first != second {
		if err := store.Verify(ctx, "ravi@example.com", first); err == nil {
			t.Error("stale code verified after reissue")
		}
	}
	if err := store.Verify(ctx, "ravi@example.com", second); err != nil {
		t.Errorf("fresh code rejected: %v", err)
	}
}

func TestStore_IssuanceRateLimit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := otps.New(db, otps.DefaultExpiry)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// Every request counts, not just ones flagged as resends.
	for i := 0; i < otps.MaxIssuesPerWindow; i++ {
		if _, err := store.Create(ctx, "ravi@example.com"); err != nil {
			t.Fatalf("request %d failed: %v", i+1, err)
		}
	}

	if _, err := store.Create(ctx, "ravi@example.com"); err != otps.ErrTooManyRequests {
		t.Errorf("err = %v, want ErrTooManyRequests", err)
	}

	// A different account is unaffected.
	if _, err := store.Create(ctx, "prakash@example.com"); err != nil {
		t.Errorf("unrelated account rate limited: %v", err)
	}
}

func TestStore_DeleteExpired(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := otps.New(db, 1*time.Millisecond)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, "ravi@example.com"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	n, err := store.DeleteExpired(ctx)
	if err != nil {
		t.Fatalf("DeleteExpired failed: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted %d codes, want 1", n)
	}
}
