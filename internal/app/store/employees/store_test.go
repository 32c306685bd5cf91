package employees_test

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/dalemusser/rosterhub/internal/app/reconcile"
	"github.com/dalemusser/rosterhub/internal/app/store/employees"
	"github.com/dalemusser/rosterhub/internal/domain/models"
	"github.com/dalemusser/rosterhub/internal/testutil"
)

func TestStore_UpsertAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := employees.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e := testutil.Employee("2001")
	e.Email = "  RAVI@Example.COM "
	if err := store.Upsert(ctx, e); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	doc, err := store.GetByKGID(ctx, "2001")
	if err != nil {
		t.Fatalf("GetByKGID failed: %v", err)
	}
	got := reconcile.Employee(doc)
	if got.KGID != "2001" {
		t.Errorf("KGID = %q, want 2001", got.KGID)
	}
	if got.Email != "ravi@example.com" {
		t.Errorf("Email = %q, want normalized at write", got.Email)
	}
	if got.SearchBlob == "" {
		t.Error("SearchBlob not computed at write")
	}
}

func TestStore_GetByEmail_Normalized(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := employees.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fix := testutil.NewFixtures(t, db)
	e := testutil.Employee("2001")
	e.Email = "ravi@example.com"
	fix.CreateEmployee(ctx, e)

	doc, err := store.GetByEmail(ctx, " Ravi@EXAMPLE.com ")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if reconcile.Employee(doc).KGID != "2001" {
		t.Errorf("wrong record returned")
	}

	if _, err := store.GetByEmail(ctx, "missing@example.com"); err != employees.ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if _, err := store.GetByEmail(ctx, ""); err != employees.ErrNotFound {
		t.Errorf("blank email err = %v, want ErrNotFound", err)
	}
}

func TestStore_MergeSet_DoesNotClobber(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := employees.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e := testutil.Employee("2001")
	e.BloodGroup = "AB+"
	if err := store.Upsert(ctx, e); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	// Partial update of one field must leave the rest intact.
	if err := store.MergeSet(ctx, "2001", bson.M{"station": "New Station"}); err != nil {
		t.Fatalf("MergeSet failed: %v", err)
	}

	doc, err := store.GetByKGID(ctx, "2001")
	if err != nil {
		t.Fatalf("GetByKGID failed: %v", err)
	}
	got := reconcile.Employee(doc)
	if got.Station != "New Station" {
		t.Errorf("Station = %q, want updated value", got.Station)
	}
	if got.BloodGroup != "AB+" {
		t.Errorf("BloodGroup = %q, want untouched value", got.BloodGroup)
	}
}

func TestStore_Upsert_PartialRecordPreservesIdentity(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := employees.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	full := testutil.Employee("2001")
	full.Mobile1 = "9876543210"
	if err := store.Upsert(ctx, full); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	doc, err := store.GetByKGID(ctx, "2001")
	if err != nil {
		t.Fatalf("GetByKGID failed: %v", err)
	}
	fullBlob := reconcile.Employee(doc).SearchBlob

	// A record carrying only the key and one changed field must not blank
	// out name, email, or the search blob.
	partial := models.Employee{KGID: "2001", Mobile1: "9999999999", IsApproved: true}
	if err := store.Upsert(ctx, partial); err != nil {
		t.Fatalf("partial Upsert failed: %v", err)
	}

	doc, err = store.GetByKGID(ctx, "2001")
	if err != nil {
		t.Fatalf("GetByKGID after partial failed: %v", err)
	}
	got := reconcile.Employee(doc)
	if got.Mobile1 != "9999999999" {
		t.Errorf("Mobile1 = %q, want updated value", got.Mobile1)
	}
	if got.Name != full.Name {
		t.Errorf("Name = %q, want %q preserved", got.Name, full.Name)
	}
	if got.Email != full.Email {
		t.Errorf("Email = %q, want %q preserved", got.Email, full.Email)
	}
	if got.SearchBlob != fullBlob {
		t.Errorf("SearchBlob = %q, want %q preserved", got.SearchBlob, fullBlob)
	}
}

func TestStore_LegacyDocumentResolvesByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := employees.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fix := testutil.NewFixtures(t, db)
	fix.CreateLegacyEmployee(ctx, "1953036", "Legacy Ravi")

	doc, err := store.GetByKGID(ctx, "1953036")
	if err != nil {
		t.Fatalf("GetByKGID failed: %v", err)
	}
	got := reconcile.Employee(doc)
	if got.KGID != "1953036" {
		t.Errorf("KGID = %q, want back-filled document id", got.KGID)
	}
	if got.MetalNumber != "CPC-1953036" {
		t.Errorf("MetalNumber = %q, want legacy alias value", got.MetalNumber)
	}
}

func TestStore_All(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := employees.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fix := testutil.NewFixtures(t, db)
	fix.CreateEmployee(ctx, testutil.Employee("2001"))
	fix.CreateEmployee(ctx, testutil.Employee("2002"))

	docs, err := store.All(ctx)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(docs) != 2 {
		t.Errorf("got %d docs, want 2", len(docs))
	}
}

func TestStore_UpdatePINByEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := employees.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fix := testutil.NewFixtures(t, db)
	e := testutil.Employee("2001")
	fix.CreateEmployee(ctx, e)

	if err := store.UpdatePINByEmail(ctx, e.Email, "new-hash"); err != nil {
		t.Fatalf("UpdatePINByEmail failed: %v", err)
	}
	doc, _ := store.GetByKGID(ctx, "2001")
	if got := reconcile.Employee(doc); got.PIN != "new-hash" {
		t.Errorf("PIN = %q, want new-hash", got.PIN)
	}

	if err := store.UpdatePINByEmail(ctx, "missing@example.com", "x"); err != employees.ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestStore_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := employees.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fix := testutil.NewFixtures(t, db)
	fix.CreateEmployee(ctx, testutil.Employee("2001"))

	if err := store.Delete(ctx, "2001"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.GetByKGID(ctx, "2001"); err != employees.ErrNotFound {
		t.Errorf("err after delete = %v, want ErrNotFound", err)
	}
	if err := store.Delete(ctx, "2001"); err != employees.ErrNotFound {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}
