package engine

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/dalemusser/rosterhub/internal/app/otpclient"
	"github.com/dalemusser/rosterhub/internal/app/reconcile"
	"github.com/dalemusser/rosterhub/internal/app/store/employees"
	"github.com/dalemusser/rosterhub/internal/app/system/normalize"
	"github.com/dalemusser/rosterhub/internal/app/system/pinhash"
	"github.com/dalemusser/rosterhub/internal/domain/models"
)

// RequestOneTimeCode asks the OTP service to issue a code for the email.
// The returned message is already user-safe.
func (e *Engine) RequestOneTimeCode(ctx context.Context, email string) (string, error) {
	res, err := e.otp.RequestOTP(ctx, normalize.Email(email))
	if err != nil {
		return "", err
	}
	if !res.Success {
		return res.Message, ErrInvalidCredential
	}
	return res.Message, nil
}

// VerifyOneTimeCode submits the code. On success the returned record is
// reconciled and cached exactly like a login, and an anonymous session is
// established.
func (e *Engine) VerifyOneTimeCode(ctx context.Context, email, code string) (models.Employee, error) {
	res, err := e.otp.VerifyOTP(ctx, normalize.Email(email), code)
	if err != nil {
		return models.Employee{}, err
	}
	if !res.Success || res.Employee == nil {
		return models.Employee{}, ErrInvalidCredential
	}

	rec := *res.Employee
	if strings.TrimSpace(rec.KGID) == "" {
		e.logger.Warn("otp verify returned record with no key",
			zap.String("email", normalize.Email(email)),
		)
		return models.Employee{}, ErrInvalidCredential
	}

	if _, err := e.sessions.EnsureAnonymous(ctx); err != nil {
		return models.Employee{}, err
	}

	if err := e.cache.UpsertEmployee(rec); err != nil {
		e.logger.Warn("otp cache writeback failed", zap.String("kgid", rec.KGID), zap.Error(err))
	}
	e.publish(Identity{Authenticated: true, Employee: rec})
	return rec, nil
}

// ApplyNewPIN hashes the new PIN and updates remote then cache. When the
// account is not yet cached it is fetched and cached first, so the cache row
// the PIN lands on reflects the full remote record.
func (e *Engine) ApplyNewPIN(ctx context.Context, email, newPIN string) error {
	hash, err := pinhash.Hash(newPIN)
	if err != nil {
		return err
	}

	if err := e.remote.UpdatePINByEmail(ctx, email, hash); err != nil {
		if errors.Is(err, employees.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	if _, ok := e.cache.EmployeeByEmail(email); !ok {
		doc, err := e.remote.GetByEmail(ctx, email)
		if err != nil {
			e.logger.Warn("post-update fetch failed", zap.Error(err))
			return nil
		}
		rec := reconcile.Employee(doc)
		rec.PIN = hash
		if err := e.cache.UpsertEmployee(rec); err != nil {
			e.logger.Warn("cache writeback failed", zap.String("kgid", rec.KGID), zap.Error(err))
		}
		return nil
	}

	if _, err := e.cache.UpdateEmployeePIN(email, hash); err != nil {
		e.logger.Warn("cache pin update failed", zap.Error(err))
	}
	return nil
}

// ChangePIN updates the PIN through the OTP service. The old PIN is proven
// by sending the locally stored hash; the forgot flow omits it because a
// verified one-time code already stands in for it.
func (e *Engine) ChangePIN(ctx context.Context, email, newPIN string, isForgot bool) error {
	newHash, err := pinhash.Hash(newPIN)
	if err != nil {
		return err
	}

	req := otpclient.UpdatePINRequest{
		Email:      normalize.Email(email),
		NewPINHash: newHash,
		IsForgot:   isForgot,
	}
	if !isForgot {
		cached, ok := e.cache.EmployeeByEmail(email)
		if !ok || cached.PIN == "" {
			return ErrInvalidCredential
		}
		req.OldPINHash = cached.PIN
	}

	res, err := e.otp.UpdatePIN(ctx, req)
	if err != nil {
		return err
	}
	if !res.Success {
		return ErrInvalidCredential
	}

	if ok, err := e.cache.UpdateEmployeePIN(email, newHash); err != nil || !ok {
		e.logger.Warn("cache pin update failed", zap.Bool("cached", ok), zap.Error(err))
	}
	return nil
}
