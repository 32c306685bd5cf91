package txn_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/dalemusser/rosterhub/internal/app/system/txn"
	"github.com/dalemusser/rosterhub/internal/testutil"
)

func TestIsNotSupported_DriverCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"unrelated error", errors.New("connection reset by peer"), false},
		{"illegal operation code", mongo.CommandError{Code: 20, Message: "Transaction numbers are only allowed on a replica set member"}, true},
		{"older illegal operation code", mongo.CommandError{Code: 51, Message: "cannot use sessions"}, true},
		{"not supported in transaction code", mongo.CommandError{Code: 263, Message: "operation not supported"}, true},
		{"write conflict code is retryable not unsupported", mongo.CommandError{Code: 112, Message: "WriteConflict"}, false},
		{"duplicate key code", mongo.CommandError{Code: 11000, Message: "E11000 duplicate key"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := txn.IsNotSupported(tt.err); got != tt.want {
				t.Errorf("IsNotSupported(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsNotSupported_WrappedCommandError(t *testing.T) {
	// The engine wraps store errors with %w; detection must see through it.
	wrapped := fmt.Errorf("allocate id: %w", mongo.CommandError{Code: 263, Message: "not supported"})
	if !txn.IsNotSupported(wrapped) {
		t.Error("wrapped command error not detected")
	}
}

func TestIsNotSupported_MessageShapes(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		want bool
	}{
		{"standalone mongod wording", "Transaction numbers are only allowed on a replica set member or mongos", true},
		{"session not supported wording", "sessions are not supported by this mongod deployment", true},
		{"transaction plus session wording", "cannot continue transaction: no such session", true},
		{"illegal operation wording", "illegal operation: transaction already in progress", true},
		{"transaction keyword alone", "transaction aborted", false},
		{"replica set keyword alone", "replica set has no primary", false},
		{"shouted standalone wording", "TRANSACTIONS REQUIRE A REPLICA SET", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := txn.IsNotSupported(errors.New(tt.msg)); got != tt.want {
				t.Errorf("IsNotSupported(%q) = %v, want %v", tt.msg, got, tt.want)
			}
		})
	}
}

func TestWithTransaction_RunsWritesOnAnyTopology(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// Standalone servers take the sequential fallback, replica sets the real
	// transaction; either way both writes must land.
	coll := db.Collection("txn_rows")
	err := txn.WithTransaction(ctx, db.Client(), zap.NewNop(), func(ctx context.Context) error {
		if _, err := coll.InsertOne(ctx, bson.M{"_id": "a", "n": 1}); err != nil {
			return err
		}
		_, err := coll.InsertOne(ctx, bson.M{"_id": "b", "n": 2})
		return err
	})
	if err != nil {
		t.Fatalf("WithTransaction: %v", err)
	}

	n, err := coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Errorf("documents = %d, want 2", n)
	}
}

func TestWithTransaction_PropagatesCallbackError(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	boom := errors.New("boom")
	err := txn.WithTransaction(ctx, db.Client(), zap.NewNop(), func(ctx context.Context) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want callback error", err)
	}
}
