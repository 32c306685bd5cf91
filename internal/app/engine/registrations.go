package engine

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/dalemusser/rosterhub/internal/app/store/pending"
	"github.com/dalemusser/rosterhub/internal/app/system/pinhash"
	"github.com/dalemusser/rosterhub/internal/domain/models"
)

// SubmitRegistration stores a registration draft remotely and mirrors it
// into the cache. The raw PIN in the draft is hashed before it leaves the
// engine; plain PINs are never persisted anywhere.
func (e *Engine) SubmitRegistration(ctx context.Context, reg models.PendingRegistration, rawPIN string) (models.PendingRegistration, error) {
	if rawPIN != "" {
		hash, err := pinhash.Hash(rawPIN)
		if err != nil {
			return models.PendingRegistration{}, err
		}
		reg.PIN = hash
	}

	docID, err := e.regs.Create(ctx, reg)
	if err != nil {
		return models.PendingRegistration{}, err
	}
	reg.DocID = docID
	reg.Status = models.StatusPending

	if err := e.cache.UpsertPending(reg); err != nil {
		e.logger.Warn("pending cache writeback failed", zap.String("doc_id", docID), zap.Error(err))
	}
	return reg, nil
}

// PendingRegistrations lists drafts by status from the remote store and
// refreshes the cached copy.
func (e *Engine) PendingRegistrations(ctx context.Context, status string) ([]models.PendingRegistration, error) {
	rows, err := e.regs.List(ctx, status)
	if err != nil {
		return nil, err
	}
	if status == models.StatusPending || status == "" {
		if err := e.cache.ReplacePending(rows); err != nil {
			e.logger.Warn("pending cache refresh failed", zap.Error(err))
		}
	}
	return rows, nil
}

// ApproveRegistration promotes a draft into the employee collection and
// removes it from the pending set in one transaction where the store
// supports one. The cache is updated only after the remote writes succeed.
func (e *Engine) ApproveRegistration(ctx context.Context, docID string) (models.Employee, error) {
	reg, err := e.regs.Get(ctx, docID)
	if err != nil {
		if errors.Is(err, pending.ErrNotFound) {
			return models.Employee{}, ErrNotFound
		}
		return models.Employee{}, err
	}

	emp := reg.ToEmployee()
	err = e.runTxn(ctx, func(ctx context.Context) error {
		if err := e.remote.Upsert(ctx, emp); err != nil {
			return err
		}
		return e.regs.Delete(ctx, docID)
	})
	if err != nil {
		return models.Employee{}, err
	}

	if err := e.cache.UpsertEmployee(emp); err != nil {
		e.logger.Warn("cache writeback failed", zap.String("kgid", emp.KGID), zap.Error(err))
	}
	if err := e.cache.DeletePending(docID); err != nil {
		e.logger.Warn("pending cache delete failed", zap.String("doc_id", docID), zap.Error(err))
	}
	return emp, nil
}

// ApproveBatch approves several drafts, collecting per-item failures so one
// bad draft never aborts the rest.
func (e *Engine) ApproveBatch(ctx context.Context, docIDs []string) (approved []models.Employee, failed map[string]error) {
	failed = make(map[string]error)
	for _, id := range docIDs {
		emp, err := e.ApproveRegistration(ctx, id)
		if err != nil {
			failed[id] = err
			e.logger.Warn("batch approve item failed", zap.String("doc_id", id), zap.Error(err))
			continue
		}
		approved = append(approved, emp)
	}
	return approved, failed
}

// RejectRegistration marks a draft rejected with a reason.
func (e *Engine) RejectRegistration(ctx context.Context, docID, reason string) error {
	if err := e.regs.Reject(ctx, docID, reason); err != nil {
		if errors.Is(err, pending.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if err := e.cache.DeletePending(docID); err != nil {
		e.logger.Warn("pending cache delete failed", zap.String("doc_id", docID), zap.Error(err))
	}
	return nil
}
