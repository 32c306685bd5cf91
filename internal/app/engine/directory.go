package engine

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/dalemusser/rosterhub/internal/app/reconcile"
	"github.com/dalemusser/rosterhub/internal/app/store/employees"
	"github.com/dalemusser/rosterhub/internal/app/system/search"
	"github.com/dalemusser/rosterhub/internal/domain/models"
)

// AddOrUpdateEmployee writes the record to the remote store with merge
// semantics, then mirrors it into the cache. A blank key is filled by the
// allocator first. The operation succeeds once the remote write succeeds;
// cache writeback failure is logged, never surfaced.
func (e *Engine) AddOrUpdateEmployee(ctx context.Context, rec models.Employee) (models.Employee, error) {
	if strings.TrimSpace(rec.KGID) == "" {
		id, err := e.alloc.AllocateOfficerID(ctx)
		if err != nil {
			return models.Employee{}, ErrConflict
		}
		rec.KGID = id
	}

	if err := e.remote.Upsert(ctx, rec); err != nil {
		return models.Employee{}, err
	}

	// Round-trip through the remote store so the cache row reflects the
	// merged document, not just the fields this caller supplied.
	doc, err := e.remote.GetByKGID(ctx, rec.KGID)
	if err == nil {
		rec = reconcile.Employee(doc)
	}
	if err := e.cache.UpsertEmployee(rec); err != nil {
		e.logger.Warn("cache writeback failed",
			zap.String("kgid", rec.KGID),
			zap.Error(err),
		)
	}
	return rec, nil
}

// DeleteEmployee deletes in fixed order: remote store, local cache, legacy
// sheet row, stored photo. Only the authoritative remote delete can fail the
// operation; every later step is best-effort and logged.
func (e *Engine) DeleteEmployee(ctx context.Context, kgid string) error {
	// Grab the record first so the photo reference survives the delete.
	rec, cached := e.cache.EmployeeByKGID(kgid)
	if !cached {
		if doc, err := e.remote.GetByKGID(ctx, kgid); err == nil {
			rec = reconcile.Employee(doc)
		}
	}

	if err := e.remote.Delete(ctx, kgid); err != nil {
		if errors.Is(err, employees.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := e.cache.DeleteEmployee(kgid); err != nil {
		e.logger.Warn("cache delete failed", zap.String("kgid", kgid), zap.Error(err))
	}

	if e.legacy != nil {
		if err := e.legacy.DeleteEmployee(ctx, kgid); err != nil {
			e.logger.Warn("legacy sheet delete failed", zap.String("kgid", kgid), zap.Error(err))
		}
		if fileID := photoFileID(rec.PhotoURL); fileID != "" {
			if err := e.legacy.DeleteImage(ctx, fileID); err != nil {
				e.logger.Warn("photo delete failed", zap.String("file_id", fileID), zap.Error(err))
			}
		}
	}
	return nil
}

// GetEmployee reads from the cache first and falls back to the remote
// store, writing the reconciled record back into the cache on a remote hit.
func (e *Engine) GetEmployee(ctx context.Context, kgid string) (models.Employee, error) {
	if rec, ok := e.cache.EmployeeByKGID(kgid); ok {
		return rec, nil
	}
	doc, err := e.remote.GetByKGID(ctx, kgid)
	if err != nil {
		if errors.Is(err, employees.ErrNotFound) {
			return models.Employee{}, ErrNotFound
		}
		return models.Employee{}, err
	}
	rec := reconcile.Employee(doc)
	if err := e.cache.UpsertEmployee(rec); err != nil {
		e.logger.Warn("cache writeback failed", zap.String("kgid", rec.KGID), zap.Error(err))
	}
	return rec, nil
}

// GetEmployeeByEmail is the email-keyed variant of GetEmployee.
func (e *Engine) GetEmployeeByEmail(ctx context.Context, email string) (models.Employee, error) {
	if rec, ok := e.cache.EmployeeByEmail(email); ok {
		return rec, nil
	}
	doc, err := e.remote.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, employees.ErrNotFound) {
			return models.Employee{}, ErrNotFound
		}
		return models.Employee{}, err
	}
	rec := reconcile.Employee(doc)
	if err := e.cache.UpsertEmployee(rec); err != nil {
		e.logger.Warn("cache writeback failed", zap.String("kgid", rec.KGID), zap.Error(err))
	}
	return rec, nil
}

// RefreshAll rebuilds the cache wholesale from the remote store. Documents
// that reconcile to a blank key are logged and skipped; soft-deleted records
// are filtered out. A skipped document never fails the batch.
func (e *Engine) RefreshAll(ctx context.Context) error {
	if _, err := e.sessions.EnsureAnonymous(ctx); err != nil {
		return err
	}

	docs, err := e.remote.All(ctx)
	if err != nil {
		return err
	}
	rows := make([]models.Employee, 0, len(docs))
	for _, doc := range docs {
		rec := reconcile.Employee(doc)
		if strings.TrimSpace(rec.KGID) == "" {
			e.logger.Warn("skipping employee document with no resolvable key",
				zap.String("doc_id", doc.ID),
			)
			continue
		}
		if rec.IsDeleted {
			continue
		}
		rows = append(rows, rec)
	}
	if err := e.cache.ReplaceEmployees(rows); err != nil {
		return err
	}

	if e.officers != nil {
		if err := e.refreshOfficers(ctx); err != nil {
			return err
		}
	}
	e.logger.Info("directory refreshed", zap.Int("employees", len(rows)))
	return nil
}

// SearchEmployees ranks cached employees against the query. filter selects
// one field or "all"; limit <= 0 applies the default.
func (e *Engine) SearchEmployees(query, filter string, limit int) ([]search.Result[models.Employee], error) {
	items, err := e.cache.AllEmployees()
	if err != nil {
		return nil, err
	}
	return search.Employees(items, query, filter, limit), nil
}

// photoFileID extracts the stored-photo file id from a photo URL. Legacy
// URLs carry the id as the last path segment.
func photoFileID(url string) string {
	if url == "" {
		return ""
	}
	url = strings.TrimSuffix(url, "/")
	if i := strings.LastIndex(url, "/"); i >= 0 {
		return url[i+1:]
	}
	return ""
}
