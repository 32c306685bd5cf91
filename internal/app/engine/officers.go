package engine

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/dalemusser/rosterhub/internal/app/reconcile"
	"github.com/dalemusser/rosterhub/internal/app/store/officers"
	"github.com/dalemusser/rosterhub/internal/app/system/search"
	"github.com/dalemusser/rosterhub/internal/domain/models"
)

// AddOrUpdateOfficer writes an officer to the remote store and mirrors it
// into the cache. A blank AGID is minted by the allocator first; the write
// never proceeds with an empty key.
func (e *Engine) AddOrUpdateOfficer(ctx context.Context, rec models.Officer) (models.Officer, error) {
	if strings.TrimSpace(rec.AGID) == "" {
		id, err := e.alloc.AllocateOfficerID(ctx)
		if err != nil {
			return models.Officer{}, ErrConflict
		}
		rec.AGID = id
	}

	if err := e.officers.Upsert(ctx, rec); err != nil {
		return models.Officer{}, err
	}

	doc, err := e.officers.GetByAGID(ctx, rec.AGID)
	if err == nil {
		rec = reconcile.Officer(doc)
	}
	if err := e.cache.UpsertOfficer(rec); err != nil {
		e.logger.Warn("cache writeback failed",
			zap.String("agid", rec.AGID),
			zap.Error(err),
		)
	}
	return rec, nil
}

// DeleteOfficer deletes remote-first; the cache delete is best-effort.
func (e *Engine) DeleteOfficer(ctx context.Context, agid string) error {
	if err := e.officers.Delete(ctx, agid); err != nil {
		if errors.Is(err, officers.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if err := e.cache.DeleteOfficer(agid); err != nil {
		e.logger.Warn("cache delete failed", zap.String("agid", agid), zap.Error(err))
	}
	return nil
}

// GetOfficer reads cache-first with remote fallback and writeback.
func (e *Engine) GetOfficer(ctx context.Context, agid string) (models.Officer, error) {
	if rec, ok := e.cache.OfficerByAGID(agid); ok {
		return rec, nil
	}
	doc, err := e.officers.GetByAGID(ctx, agid)
	if err != nil {
		if errors.Is(err, officers.ErrNotFound) {
			return models.Officer{}, ErrNotFound
		}
		return models.Officer{}, err
	}
	rec := reconcile.Officer(doc)
	if err := e.cache.UpsertOfficer(rec); err != nil {
		e.logger.Warn("cache writeback failed", zap.String("agid", rec.AGID), zap.Error(err))
	}
	return rec, nil
}

// SearchOfficers ranks cached officers against the query.
func (e *Engine) SearchOfficers(query, filter string, limit int) ([]search.Result[models.Officer], error) {
	items, err := e.cache.AllOfficers()
	if err != nil {
		return nil, err
	}
	return search.Officers(items, query, filter, limit), nil
}

func (e *Engine) refreshOfficers(ctx context.Context) error {
	docs, err := e.officers.All(ctx)
	if err != nil {
		return err
	}
	rows := make([]models.Officer, 0, len(docs))
	for _, doc := range docs {
		rec := reconcile.Officer(doc)
		if strings.TrimSpace(rec.AGID) == "" {
			e.logger.Warn("skipping officer document with no resolvable key",
				zap.String("doc_id", doc.ID),
			)
			continue
		}
		rows = append(rows, rec)
	}
	return e.cache.ReplaceOfficers(rows)
}
