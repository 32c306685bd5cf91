package cache

import (
	"testing"

	"github.com/dalemusser/rosterhub/internal/app/reconcile"
	"github.com/dalemusser/rosterhub/internal/domain/models"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s
}

func employee(kgid, name, email string) models.Employee {
	e := models.Employee{KGID: kgid, Name: name, Email: email}
	e.SearchBlob = reconcile.EmployeeBlob(e)
	return e
}

func TestUpsertEmployee_InsertThenUpdate(t *testing.T) {
	s := newStore(t)

	if err := s.UpsertEmployee(employee("2001", "Ravi", "ravi@example.com")); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := s.UpsertEmployee(employee("2001", "Ravi Kumar", "ravi@example.com")); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	got, ok := s.EmployeeByKGID("2001")
	if !ok {
		t.Fatal("employee not found after upsert")
	}
	if got.Name != "Ravi Kumar" {
		t.Errorf("Name = %q, want updated value", got.Name)
	}

	all, err := s.AllEmployees()
	if err != nil {
		t.Fatalf("AllEmployees failed: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("got %d rows, want 1 (upsert must not duplicate)", len(all))
	}
}

func TestUpsertEmployee_BlankKeyRejected(t *testing.T) {
	s := newStore(t)
	if err := s.UpsertEmployee(employee("", "Ravi", "")); err == nil {
		t.Error("expected error for blank kgid")
	}
}

func TestEmployeeByEmail_CaseInsensitive(t *testing.T) {
	s := newStore(t)
	if err := s.UpsertEmployee(employee("2001", "Ravi", "ravi@example.com")); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	got, ok := s.EmployeeByEmail("  RAVI@Example.COM ")
	if !ok {
		t.Fatal("lookup with unnormalized email missed")
	}
	if got.KGID != "2001" {
		t.Errorf("KGID = %q, want 2001", got.KGID)
	}

	if _, ok := s.EmployeeByEmail("missing@example.com"); ok {
		t.Error("lookup of unknown email should miss")
	}
	if _, ok := s.EmployeeByEmail(""); ok {
		t.Error("lookup of empty email should miss")
	}
}

func TestSearchEmployees_BlobSubstring(t *testing.T) {
	s := newStore(t)
	for _, e := range []models.Employee{
		employee("2001", "Ravi Kumar", "ravi@example.com"),
		employee("2002", "Suresh", "suresh@example.com"),
	} {
		if err := s.UpsertEmployee(e); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}

	got, err := s.SearchEmployees("RaviKum")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(got) != 1 || got[0].KGID != "2001" {
		t.Errorf("search = %v, want only kgid 2001", got)
	}

	all, err := s.SearchEmployees("")
	if err != nil {
		t.Fatalf("empty search failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("empty query returned %d rows, want all 2", len(all))
	}
}

func TestDeleteEmployee(t *testing.T) {
	s := newStore(t)
	if err := s.UpsertEmployee(employee("2001", "Ravi", "")); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	if err := s.DeleteEmployee("2001"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, ok := s.EmployeeByKGID("2001"); ok {
		t.Error("employee still present after delete")
	}

	// Deleting again is a no-op, not an error.
	if err := s.DeleteEmployee("2001"); err != nil {
		t.Errorf("second delete errored: %v", err)
	}
}

func TestReplaceEmployees_FullResync(t *testing.T) {
	s := newStore(t)
	if err := s.UpsertEmployee(employee("9999", "Stale", "")); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	err := s.ReplaceEmployees([]models.Employee{
		employee("2001", "Ravi", ""),
		employee("2002", "Suresh", ""),
		{KGID: "", Name: "skipped"},
	})
	if err != nil {
		t.Fatalf("replace failed: %v", err)
	}

	if _, ok := s.EmployeeByKGID("9999"); ok {
		t.Error("stale row survived replace")
	}
	all, err := s.AllEmployees()
	if err != nil {
		t.Fatalf("AllEmployees failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("got %d rows, want 2 (blank-key row skipped)", len(all))
	}
}

func TestUpdateEmployeePIN(t *testing.T) {
	s := newStore(t)
	e := employee("2001", "Ravi", "ravi@example.com")
	e.PIN = "old-hash"
	if err := s.UpsertEmployee(e); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	ok, err := s.UpdateEmployeePIN("RAVI@example.com", "new-hash")
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if !ok {
		t.Fatal("update reported account missing")
	}
	got, _ := s.EmployeeByKGID("2001")
	if got.PIN != "new-hash" {
		t.Errorf("PIN = %q, want new-hash", got.PIN)
	}

	ok, err = s.UpdateEmployeePIN("missing@example.com", "x")
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if ok {
		t.Error("update of unknown account reported success")
	}
}

func TestOfficers_RoundTrip(t *testing.T) {
	s := newStore(t)
	o := models.Officer{AGID: "AGID0007", Name: "Prakash"}
	o.SearchBlob = reconcile.OfficerBlob(o)

	if err := s.UpsertOfficer(o); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	got, ok := s.OfficerByAGID("AGID0007")
	if !ok || got.Name != "Prakash" {
		t.Fatalf("OfficerByAGID = %+v ok=%v", got, ok)
	}

	hits, err := s.SearchOfficers("prakash")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(hits) != 1 {
		t.Errorf("search returned %d rows, want 1", len(hits))
	}

	if err := s.DeleteOfficer("AGID0007"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, ok := s.OfficerByAGID("AGID0007"); ok {
		t.Error("officer still present after delete")
	}
}

func TestPending_RoundTrip(t *testing.T) {
	s := newStore(t)
	p := models.PendingRegistration{DocID: "doc1", Name: "Ravi", Email: "ravi@example.com"}

	if err := s.UpsertPending(p); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	all, err := s.AllPending()
	if err != nil {
		t.Fatalf("AllPending failed: %v", err)
	}
	if len(all) != 1 || all[0].DocID != "doc1" {
		t.Fatalf("AllPending = %+v, want one row doc1", all)
	}

	if err := s.DeletePending("doc1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	all, _ = s.AllPending()
	if len(all) != 0 {
		t.Error("pending row survived delete")
	}
}

func TestClear_EmptiesEveryTable(t *testing.T) {
	s := newStore(t)
	if err := s.UpsertEmployee(employee("2001", "Ravi", "")); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := s.UpsertOfficer(models.Officer{AGID: "AGID0007"}); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := s.UpsertPending(models.PendingRegistration{DocID: "doc1"}); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if all, _ := s.AllEmployees(); len(all) != 0 {
		t.Error("employees survived clear")
	}
	if all, _ := s.AllOfficers(); len(all) != 0 {
		t.Error("officers survived clear")
	}
	if all, _ := s.AllPending(); len(all) != 0 {
		t.Error("pending survived clear")
	}
}
