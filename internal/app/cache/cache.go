// Package cache is the local, offline-capable copy of the directory, backed
// by an in-memory radix-tree database. It holds only denormalized snapshots;
// the remote store is always the merge authority. Every write is an upsert
// by natural key, and a full resync replaces tables wholesale.
package cache

import (
	"fmt"
	"strings"

	memdb "github.com/hashicorp/go-memdb"

	"github.com/dalemusser/rosterhub/internal/app/system/normalize"
	"github.com/dalemusser/rosterhub/internal/domain/models"
)

const (
	tableEmployees = "employees"
	tableOfficers  = "officers"
	tablePending   = "pending"

	indexID    = "id"
	indexEmail = "email"
)

func schema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			tableEmployees: {
				Name: tableEmployees,
				Indexes: map[string]*memdb.IndexSchema{
					indexID: {
						Name:    indexID,
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "KGID"},
					},
					indexEmail: {
						Name:         indexEmail,
						AllowMissing: true,
						Indexer:      &memdb.StringFieldIndex{Field: "Email", Lowercase: true},
					},
				},
			},
			tableOfficers: {
				Name: tableOfficers,
				Indexes: map[string]*memdb.IndexSchema{
					indexID: {
						Name:    indexID,
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "AGID"},
					},
				},
			},
			tablePending: {
				Name: tablePending,
				Indexes: map[string]*memdb.IndexSchema{
					indexID: {
						Name:    indexID,
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "DocID"},
					},
					indexEmail: {
						Name:         indexEmail,
						AllowMissing: true,
						Indexer:      &memdb.StringFieldIndex{Field: "Email", Lowercase: true},
					},
				},
			},
		},
	}
}

// Store is the local cache. Safe for concurrent use; memdb gives lock-free
// readers and serialized writers.
type Store struct {
	db *memdb.MemDB
}

// New creates an empty cache.
func New() (*Store, error) {
	db, err := memdb.NewMemDB(schema())
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}
	return &Store{db: db}, nil
}

// UpsertEmployee writes one employee row, replacing any row with the same
// KGID. Records must already be reconciled; a blank KGID is a caller bug.
func (s *Store) UpsertEmployee(e models.Employee) error {
	if strings.TrimSpace(e.KGID) == "" {
		return fmt.Errorf("upsert employee: blank kgid")
	}
	txn := s.db.Txn(true)
	defer txn.Abort()
	if err := txn.Insert(tableEmployees, &e); err != nil {
		return fmt.Errorf("upsert employee %s: %w", e.KGID, err)
	}
	txn.Commit()
	return nil
}

// EmployeeByKGID returns the cached employee, or ok=false on a miss.
func (s *Store) EmployeeByKGID(kgid string) (models.Employee, bool) {
	txn := s.db.Txn(false)
	defer txn.Abort()
	raw, err := txn.First(tableEmployees, indexID, kgid)
	if err != nil || raw == nil {
		return models.Employee{}, false
	}
	return *raw.(*models.Employee), true
}

// EmployeeByEmail returns the cached employee for the email, which is
// normalized before lookup.
func (s *Store) EmployeeByEmail(email string) (models.Employee, bool) {
	email = normalize.Email(email)
	if email == "" {
		return models.Employee{}, false
	}
	txn := s.db.Txn(false)
	defer txn.Abort()
	raw, err := txn.First(tableEmployees, indexEmail, email)
	if err != nil || raw == nil {
		return models.Employee{}, false
	}
	return *raw.(*models.Employee), true
}

// AllEmployees returns every cached employee in key order.
func (s *Store) AllEmployees() ([]models.Employee, error) {
	txn := s.db.Txn(false)
	defer txn.Abort()
	it, err := txn.Get(tableEmployees, indexID)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	var out []models.Employee
	for raw := it.Next(); raw != nil; raw = it.Next() {
		out = append(out, *raw.(*models.Employee))
	}
	return out, nil
}

// SearchEmployees returns employees whose precomputed search blob contains
// the query, case-insensitive. Relevance ordering is the ranker's job; this
// is only the candidate filter.
func (s *Store) SearchEmployees(query string) ([]models.Employee, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	all, err := s.AllEmployees()
	if err != nil {
		return nil, err
	}
	if query == "" {
		return all, nil
	}
	var out []models.Employee
	for _, e := range all {
		if strings.Contains(e.SearchBlob, query) {
			out = append(out, e)
		}
	}
	return out, nil
}

// DeleteEmployee removes the row for kgid. Deleting a missing row is not an
// error; the remote delete already succeeded.
func (s *Store) DeleteEmployee(kgid string) error {
	txn := s.db.Txn(true)
	defer txn.Abort()
	raw, err := txn.First(tableEmployees, indexID, kgid)
	if err != nil {
		return fmt.Errorf("delete employee %s: %w", kgid, err)
	}
	if raw == nil {
		return nil
	}
	if err := txn.Delete(tableEmployees, raw); err != nil {
		return fmt.Errorf("delete employee %s: %w", kgid, err)
	}
	txn.Commit()
	return nil
}

// ReplaceEmployees atomically clears the table and inserts the given rows.
// Used by full resync.
func (s *Store) ReplaceEmployees(rows []models.Employee) error {
	txn := s.db.Txn(true)
	defer txn.Abort()
	if _, err := txn.DeleteAll(tableEmployees, indexID); err != nil {
		return fmt.Errorf("clear employees: %w", err)
	}
	for i := range rows {
		e := rows[i]
		if strings.TrimSpace(e.KGID) == "" {
			continue
		}
		if err := txn.Insert(tableEmployees, &e); err != nil {
			return fmt.Errorf("insert employee %s: %w", e.KGID, err)
		}
	}
	txn.Commit()
	return nil
}

// UpdateEmployeePIN overwrites the stored PIN hash for the account with the
// given email. Returns false when the account is not cached.
func (s *Store) UpdateEmployeePIN(email, pinHash string) (bool, error) {
	email = normalize.Email(email)
	txn := s.db.Txn(true)
	defer txn.Abort()
	raw, err := txn.First(tableEmployees, indexEmail, email)
	if err != nil {
		return false, fmt.Errorf("update pin for %s: %w", email, err)
	}
	if raw == nil {
		return false, nil
	}
	e := *raw.(*models.Employee)
	e.PIN = pinHash
	if err := txn.Insert(tableEmployees, &e); err != nil {
		return false, fmt.Errorf("update pin for %s: %w", email, err)
	}
	txn.Commit()
	return true, nil
}

// UpsertOfficer writes one officer row keyed by AGID.
func (s *Store) UpsertOfficer(o models.Officer) error {
	if strings.TrimSpace(o.AGID) == "" {
		return fmt.Errorf("upsert officer: blank agid")
	}
	txn := s.db.Txn(true)
	defer txn.Abort()
	if err := txn.Insert(tableOfficers, &o); err != nil {
		return fmt.Errorf("upsert officer %s: %w", o.AGID, err)
	}
	txn.Commit()
	return nil
}

// OfficerByAGID returns the cached officer, or ok=false on a miss.
func (s *Store) OfficerByAGID(agid string) (models.Officer, bool) {
	txn := s.db.Txn(false)
	defer txn.Abort()
	raw, err := txn.First(tableOfficers, indexID, agid)
	if err != nil || raw == nil {
		return models.Officer{}, false
	}
	return *raw.(*models.Officer), true
}

// AllOfficers returns every cached officer in key order.
func (s *Store) AllOfficers() ([]models.Officer, error) {
	txn := s.db.Txn(false)
	defer txn.Abort()
	it, err := txn.Get(tableOfficers, indexID)
	if err != nil {
		return nil, fmt.Errorf("list officers: %w", err)
	}
	var out []models.Officer
	for raw := it.Next(); raw != nil; raw = it.Next() {
		out = append(out, *raw.(*models.Officer))
	}
	return out, nil
}

// SearchOfficers filters officers by search blob, case-insensitive.
func (s *Store) SearchOfficers(query string) ([]models.Officer, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	all, err := s.AllOfficers()
	if err != nil {
		return nil, err
	}
	if query == "" {
		return all, nil
	}
	var out []models.Officer
	for _, o := range all {
		if strings.Contains(o.SearchBlob, query) {
			out = append(out, o)
		}
	}
	return out, nil
}

// DeleteOfficer removes the row for agid; missing rows are not an error.
func (s *Store) DeleteOfficer(agid string) error {
	txn := s.db.Txn(true)
	defer txn.Abort()
	raw, err := txn.First(tableOfficers, indexID, agid)
	if err != nil {
		return fmt.Errorf("delete officer %s: %w", agid, err)
	}
	if raw == nil {
		return nil
	}
	if err := txn.Delete(tableOfficers, raw); err != nil {
		return fmt.Errorf("delete officer %s: %w", agid, err)
	}
	txn.Commit()
	return nil
}

// ReplaceOfficers atomically clears the table and inserts the given rows.
func (s *Store) ReplaceOfficers(rows []models.Officer) error {
	txn := s.db.Txn(true)
	defer txn.Abort()
	if _, err := txn.DeleteAll(tableOfficers, indexID); err != nil {
		return fmt.Errorf("clear officers: %w", err)
	}
	for i := range rows {
		o := rows[i]
		if strings.TrimSpace(o.AGID) == "" {
			continue
		}
		if err := txn.Insert(tableOfficers, &o); err != nil {
			return fmt.Errorf("insert officer %s: %w", o.AGID, err)
		}
	}
	txn.Commit()
	return nil
}

// UpsertPending writes one pending registration keyed by remote doc id.
func (s *Store) UpsertPending(p models.PendingRegistration) error {
	if strings.TrimSpace(p.DocID) == "" {
		return fmt.Errorf("upsert pending: blank doc id")
	}
	txn := s.db.Txn(true)
	defer txn.Abort()
	if err := txn.Insert(tablePending, &p); err != nil {
		return fmt.Errorf("upsert pending %s: %w", p.DocID, err)
	}
	txn.Commit()
	return nil
}

// AllPending returns every cached pending registration.
func (s *Store) AllPending() ([]models.PendingRegistration, error) {
	txn := s.db.Txn(false)
	defer txn.Abort()
	it, err := txn.Get(tablePending, indexID)
	if err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}
	var out []models.PendingRegistration
	for raw := it.Next(); raw != nil; raw = it.Next() {
		out = append(out, *raw.(*models.PendingRegistration))
	}
	return out, nil
}

// DeletePending removes the row for the remote doc id.
func (s *Store) DeletePending(docID string) error {
	txn := s.db.Txn(true)
	defer txn.Abort()
	raw, err := txn.First(tablePending, indexID, docID)
	if err != nil {
		return fmt.Errorf("delete pending %s: %w", docID, err)
	}
	if raw == nil {
		return nil
	}
	if err := txn.Delete(tablePending, raw); err != nil {
		return fmt.Errorf("delete pending %s: %w", docID, err)
	}
	txn.Commit()
	return nil
}

// ReplacePending atomically clears and reloads the pending table.
func (s *Store) ReplacePending(rows []models.PendingRegistration) error {
	txn := s.db.Txn(true)
	defer txn.Abort()
	if _, err := txn.DeleteAll(tablePending, indexID); err != nil {
		return fmt.Errorf("clear pending: %w", err)
	}
	for i := range rows {
		p := rows[i]
		if strings.TrimSpace(p.DocID) == "" {
			continue
		}
		if err := txn.Insert(tablePending, &p); err != nil {
			return fmt.Errorf("insert pending %s: %w", p.DocID, err)
		}
	}
	txn.Commit()
	return nil
}

// Clear empties every table. Called on logout.
func (s *Store) Clear() error {
	txn := s.db.Txn(true)
	defer txn.Abort()
	for _, table := range []string{tableEmployees, tableOfficers, tablePending} {
		if _, err := txn.DeleteAll(table, indexID); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	txn.Commit()
	return nil
}
