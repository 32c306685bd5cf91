// Package engine is the sync and login orchestrator. It owns the ordering
// contract between the remote directory store and the local cache: the
// remote store is always the merge authority, remote writes fully complete
// before any cache write begins, and no cache write is ever based on
// client-supplied data that has not round-tripped through the remote store
// (except the PIN-update path, where remote success already occurred).
package engine

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/dalemusser/rosterhub/internal/app/cache"
	"github.com/dalemusser/rosterhub/internal/app/identity"
	"github.com/dalemusser/rosterhub/internal/app/otpclient"
	"github.com/dalemusser/rosterhub/internal/app/reconcile"
	"github.com/dalemusser/rosterhub/internal/app/store/employees"
	"github.com/dalemusser/rosterhub/internal/app/system/pinhash"
	"github.com/dalemusser/rosterhub/internal/domain/models"
)

// RemoteEmployees is the remote directory surface the engine needs for the
// employee family.
type RemoteEmployees interface {
	GetByKGID(ctx context.Context, kgid string) (reconcile.Doc, error)
	GetByEmail(ctx context.Context, email string) (reconcile.Doc, error)
	All(ctx context.Context) ([]reconcile.Doc, error)
	Upsert(ctx context.Context, e models.Employee) error
	UpdatePINByEmail(ctx context.Context, email, pinHash string) error
	Delete(ctx context.Context, kgid string) error
}

// RemoteOfficers is the remote surface for the officer family.
type RemoteOfficers interface {
	GetByAGID(ctx context.Context, agid string) (reconcile.Doc, error)
	All(ctx context.Context) ([]reconcile.Doc, error)
	Upsert(ctx context.Context, o models.Officer) error
	Delete(ctx context.Context, agid string) error
}

// Registrations is the remote surface for registration drafts.
type Registrations interface {
	Create(ctx context.Context, p models.PendingRegistration) (string, error)
	Get(ctx context.Context, docID string) (models.PendingRegistration, error)
	List(ctx context.Context, status string) ([]models.PendingRegistration, error)
	Reject(ctx context.Context, docID, reason string) error
	Delete(ctx context.Context, docID string) error
}

// Allocator mints collision-free identifiers.
type Allocator interface {
	AllocateOfficerID(ctx context.Context) (string, error)
}

// OTPClient is the OTP verification service surface.
type OTPClient interface {
	RequestOTP(ctx context.Context, email string) (otpclient.RequestResult, error)
	VerifyOTP(ctx context.Context, email, code string) (otpclient.VerifyResult, error)
	UpdatePIN(ctx context.Context, req otpclient.UpdatePINRequest) (otpclient.RequestResult, error)
}

// LegacyAPI is the best-effort spreadsheet side channel.
type LegacyAPI interface {
	DeleteEmployee(ctx context.Context, kgid string) error
	DeleteImage(ctx context.Context, fileID string) error
}

// TxnRunner executes fn atomically when the backing store supports it.
// The default runner just calls fn.
type TxnRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// Identity is the current authenticated principal, published on the
// identity stream after every login state change.
type Identity struct {
	Authenticated bool
	Employee      models.Employee
}

// Engine orchestrates sync, login, and directory mutation.
type Engine struct {
	cache    *cache.Store
	remote   RemoteEmployees
	officers RemoteOfficers
	regs     Registrations
	alloc    Allocator
	otp      OTPClient
	sessions identity.Provider
	legacy   LegacyAPI
	runTxn   TxnRunner
	logger   *zap.Logger

	mu       sync.Mutex
	current  Identity
	watchers []chan Identity
}

// Deps collects the engine's collaborators. Legacy and OTP may be nil when
// a deployment does not use them; everything else is required.
type Deps struct {
	Cache    *cache.Store
	Remote   RemoteEmployees
	Officers RemoteOfficers
	Regs     Registrations
	Alloc    Allocator
	OTP      OTPClient
	Sessions identity.Provider
	Legacy   LegacyAPI
	RunTxn   TxnRunner
	Logger   *zap.Logger
}

// New creates an Engine.
func New(d Deps) *Engine {
	if d.RunTxn == nil {
		d.RunTxn = func(ctx context.Context, fn func(ctx context.Context) error) error {
			return fn(ctx)
		}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return &Engine{
		cache:    d.Cache,
		remote:   d.Remote,
		officers: d.Officers,
		regs:     d.Regs,
		alloc:    d.Alloc,
		otp:      d.OTP,
		sessions: d.Sessions,
		legacy:   d.Legacy,
		runTxn:   d.RunTxn,
		logger:   d.Logger,
	}
}

// Login runs the per-attempt state machine: local lookup, remote lookup,
// remote verify, anonymous session, cache writeback. A local hit with a
// matching PIN authenticates with no network call at all.
func (e *Engine) Login(ctx context.Context, email, pin string) (models.Employee, error) {
	if cached, ok := e.cache.EmployeeByEmail(email); ok && cached.PIN != "" {
		if pinhash.Verify(pin, cached.PIN) {
			e.publish(Identity{Authenticated: true, Employee: cached})
			return cached, nil
		}
		// Local mismatch falls through to the remote: the cached hash may
		// be stale after a PIN change on another device.
	}

	doc, err := e.remote.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, employees.ErrNotFound) {
			return models.Employee{}, ErrInvalidCredential
		}
		return models.Employee{}, err
	}
	rec := reconcile.Employee(doc)

	if strings.TrimSpace(rec.PIN) == "" {
		return models.Employee{}, ErrPINNotSet
	}
	if !pinhash.Verify(pin, rec.PIN) {
		return models.Employee{}, ErrInvalidCredential
	}

	// The session must exist before the record is treated as authenticated;
	// failure here fails the attempt and is not retried inline.
	if _, err := e.sessions.EnsureAnonymous(ctx); err != nil {
		return models.Employee{}, err
	}

	if err := e.cache.UpsertEmployee(rec); err != nil {
		e.logger.Warn("login cache writeback failed",
			zap.String("kgid", rec.KGID),
			zap.Error(err),
		)
	}

	e.publish(Identity{Authenticated: true, Employee: rec})
	return rec, nil
}

// Logout clears the cache and the published identity.
func (e *Engine) Logout() error {
	err := e.cache.Clear()
	e.publish(Identity{})
	return err
}

// Identity returns the currently published principal.
func (e *Engine) Identity() Identity {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// WatchIdentity returns a channel receiving every identity change. Slow
// receivers drop intermediate updates rather than blocking the engine.
func (e *Engine) WatchIdentity() <-chan Identity {
	ch := make(chan Identity, 1)
	e.mu.Lock()
	e.watchers = append(e.watchers, ch)
	ch <- e.current
	e.mu.Unlock()
	return ch
}

func (e *Engine) publish(id Identity) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.current = id
	for _, ch := range e.watchers {
		select {
		case ch <- id:
		default:
			// Drop the stale value and replace it with the latest.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- id:
			default:
			}
		}
	}
}
