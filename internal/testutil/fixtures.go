package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dalemusser/rosterhub/internal/app/reconcile"
	"github.com/dalemusser/rosterhub/internal/domain/models"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// Employee returns a populated employee record. The KGID doubles as the
// remote document id, matching how modern records are written.
func Employee(kgid string) models.Employee {
	now := time.Now().UTC()
	e := models.Employee{
		KGID:       kgid,
		Name:       "Test Employee " + kgid,
		Email:      kgid + "@test.example.com",
		Mobile1:    "9000000000",
		Rank:       "PC",
		District:   "Test District",
		Station:    "Test Station",
		BloodGroup: "O+",
		IsApproved: true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	e.SearchBlob = reconcile.EmployeeBlob(e)
	return e
}

// CreateEmployee inserts an employee document keyed by its KGID.
func (f *Fixtures) CreateEmployee(ctx context.Context, e models.Employee) models.Employee {
	f.t.Helper()

	doc := map[string]interface{}{
		"_id":        e.KGID,
		"kgid":       e.KGID,
		"name":       e.Name,
		"email":      e.Email,
		"pin":        e.PIN,
		"mobile1":    e.Mobile1,
		"mobile2":    e.Mobile2,
		"rank":       e.Rank,
		"district":   e.District,
		"station":    e.Station,
		"bloodGroup": e.BloodGroup,
		"isApproved": e.IsApproved,
		"isDeleted":  e.IsDeleted,
		"searchBlob": e.SearchBlob,
		"createdAt":  e.CreatedAt,
		"updatedAt":  e.UpdatedAt,
	}
	if _, err := f.db.Collection("employees").InsertOne(ctx, doc); err != nil {
		f.t.Fatalf("create employee fixture: %v", err)
	}
	return e
}

// CreateLegacyEmployee inserts a document with a blank kgid field, the shape
// legacy imports produced. The document id carries the identity.
func (f *Fixtures) CreateLegacyEmployee(ctx context.Context, docID, name string) {
	f.t.Helper()

	doc := map[string]interface{}{
		"_id":   docID,
		"kgid":  "",
		"name":  name,
		"metal": "CPC-" + docID,
	}
	if _, err := f.db.Collection("employees").InsertOne(ctx, doc); err != nil {
		f.t.Fatalf("create legacy employee fixture: %v", err)
	}
}

// Officer returns a populated officer record.
func Officer(agid string) models.Officer {
	o := models.Officer{
		AGID:     agid,
		Name:     "Test Officer " + agid,
		Mobile:   "9111111111",
		Rank:     "SP",
		District: "Test District",
		Station:  "Test HQ",
	}
	o.SearchBlob = reconcile.OfficerBlob(o)
	return o
}

// CreateOfficer inserts an officer document keyed by its AGID.
func (f *Fixtures) CreateOfficer(ctx context.Context, o models.Officer) models.Officer {
	f.t.Helper()

	doc := map[string]interface{}{
		"_id":      o.AGID,
		"agid":     o.AGID,
		"name":     o.Name,
		"mobile":   o.Mobile,
		"rank":     o.Rank,
		"district": o.District,
		"station":  o.Station,
	}
	if _, err := f.db.Collection("officers").InsertOne(ctx, doc); err != nil {
		f.t.Fatalf("create officer fixture: %v", err)
	}
	return o
}

// PendingRegistration returns a populated registration draft.
func PendingRegistration(kgid string) models.PendingRegistration {
	return models.PendingRegistration{
		KGID:        kgid,
		Name:        "Test Applicant " + kgid,
		Email:       kgid + "@test.example.com",
		Mobile1:     "9222222222",
		Rank:        "PC",
		Status:      models.StatusPending,
		SubmittedAt: time.Now().UTC(),
	}
}
