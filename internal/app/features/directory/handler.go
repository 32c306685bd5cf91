// Package directory exposes the sync engine to UI collaborators as a JSON
// API: login, search, record CRUD, full refresh, and the registration
// review queue.
package directory

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dalemusser/rosterhub/internal/app/engine"
	"github.com/dalemusser/rosterhub/internal/app/system/timeouts"
	"github.com/dalemusser/rosterhub/internal/domain/models"
)

// Handler serves the directory endpoints.
type Handler struct {
	Engine *engine.Engine
	Log    *zap.Logger
}

// NewHandler constructs the directory handler.
func NewHandler(eng *engine.Engine, logger *zap.Logger) *Handler {
	return &Handler{Engine: eng, Log: logger}
}

type loginPayload struct {
	Email string `json:"email"`
	PIN   string `json:"pin"`
}

type errorResponse struct {
	Message string `json:"message"`
}

// Login handles POST /login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "login")
	defer cancel()

	var in loginPayload
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}

	rec, err := h.Engine.Login(ctx, in.Email, in.PIN)
	if err != nil {
		status := http.StatusUnauthorized
		if !errors.Is(err, engine.ErrInvalidCredential) && !errors.Is(err, engine.ErrPINNotSet) {
			status = http.StatusBadGateway
			h.Log.Error("login failed", zap.Error(err))
		}
		writeJSON(w, status, errorResponse{Message: engine.UserMessage(err)})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Logout handles POST /logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.Logout(); err != nil {
		h.Log.Warn("logout cleanup failed", zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetEmployee handles GET /employees/{kgid}.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get employee")
	defer cancel()

	rec, err := h.Engine.GetEmployee(ctx, chi.URLParam(r, "kgid"))
	if err != nil {
		writeEngineError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// PutEmployee handles PUT /employees: add or update with merge semantics.
func (h *Handler) PutEmployee(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "put employee")
	defer cancel()

	var rec models.Employee
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}

	saved, err := h.Engine.AddOrUpdateEmployee(ctx, rec)
	if err != nil {
		writeEngineError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// DeleteEmployee handles DELETE /employees/{kgid}.
func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "delete employee")
	defer cancel()

	if err := h.Engine.DeleteEmployee(ctx, chi.URLParam(r, "kgid")); err != nil {
		writeEngineError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// searchResult is one ranked hit.
type searchResult struct {
	Score         float64  `json:"score"`
	Exact         bool     `json:"exact"`
	HighRelevance bool     `json:"highRelevance"`
	MatchedFields []string `json:"matchedFields,omitempty"`
}

type employeeHit struct {
	searchResult
	Employee models.Employee `json:"employee"`
}

// SearchEmployees handles GET /employees?query=&filter=&limit=.
func (h *Handler) SearchEmployees(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	filter := r.URL.Query().Get("filter")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	results, err := h.Engine.SearchEmployees(query, filter, limit)
	if err != nil {
		writeEngineError(w, h.Log, err)
		return
	}

	hits := make([]employeeHit, 0, len(results))
	for _, res := range results {
		hits = append(hits, employeeHit{
			searchResult: searchResult{
				Score:         res.Score,
				Exact:         res.IsExact(),
				HighRelevance: res.IsHighRelevance(),
				MatchedFields: res.MatchedFields,
			},
			Employee: res.Item,
		})
	}
	writeJSON(w, http.StatusOK, hits)
}

type officerHit struct {
	searchResult
	Officer models.Officer `json:"officer"`
}

// SearchOfficers handles GET /officers?query=&filter=&limit=.
func (h *Handler) SearchOfficers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	filter := r.URL.Query().Get("filter")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	results, err := h.Engine.SearchOfficers(query, filter, limit)
	if err != nil {
		writeEngineError(w, h.Log, err)
		return
	}

	hits := make([]officerHit, 0, len(results))
	for _, res := range results {
		hits = append(hits, officerHit{
			searchResult: searchResult{
				Score:         res.Score,
				Exact:         res.IsExact(),
				HighRelevance: res.IsHighRelevance(),
				MatchedFields: res.MatchedFields,
			},
			Officer: res.Item,
		})
	}
	writeJSON(w, http.StatusOK, hits)
}

// GetOfficer handles GET /officers/{agid}.
func (h *Handler) GetOfficer(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get officer")
	defer cancel()

	rec, err := h.Engine.GetOfficer(ctx, chi.URLParam(r, "agid"))
	if err != nil {
		writeEngineError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// PutOfficer handles PUT /officers. A record without an AGID gets one from
// the allocator.
func (h *Handler) PutOfficer(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "put officer")
	defer cancel()

	var rec models.Officer
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}

	saved, err := h.Engine.AddOrUpdateOfficer(ctx, rec)
	if err != nil {
		writeEngineError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// DeleteOfficer handles DELETE /officers/{agid}.
func (h *Handler) DeleteOfficer(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "delete officer")
	defer cancel()

	if err := h.Engine.DeleteOfficer(ctx, chi.URLParam(r, "agid")); err != nil {
		writeEngineError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Refresh handles POST /refresh: full resynchronization of the cache. The
// work runs through the engine's result stream; the handler answers on the
// terminal emission.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Sync(), h.Log, "refresh all")
	defer cancel()

	results := engine.Stream(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, h.Engine.RefreshAll(ctx)
	})
	for res := range results {
		switch res.State {
		case engine.StateLoading:
			continue
		case engine.StateError:
			writeEngineError(w, h.Log, res.Err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

type codeRequestPayload struct {
	Email string `json:"email"`
}

type codeVerifyPayload struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type codeRequestResponse struct {
	Message string `json:"message"`
}

// RequestCode handles POST /otp/request: the alternate login factor. The
// engine relays to the OTP service, which mails a code to the account.
func (h *Handler) RequestCode(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "request code")
	defer cancel()

	var in codeRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}

	msg, err := h.Engine.RequestOneTimeCode(ctx, in.Email)
	if err != nil {
		if errors.Is(err, engine.ErrInvalidCredential) {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Message: msg})
			return
		}
		writeEngineError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, codeRequestResponse{Message: msg})
}

// VerifyCode handles POST /otp/verify. A valid code logs the account in:
// the returned record is cached and a session established, same as Login.
func (h *Handler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "verify code")
	defer cancel()

	var in codeVerifyPayload
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}

	rec, err := h.Engine.VerifyOneTimeCode(ctx, in.Email, in.Code)
	if err != nil {
		if errors.Is(err, engine.ErrInvalidCredential) {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Message: engine.UserMessage(err)})
			return
		}
		writeEngineError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type registrationPayload struct {
	models.PendingRegistration
	RawPIN string `json:"rawPin"`
}

// SubmitRegistration handles POST /registrations.
func (h *Handler) SubmitRegistration(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "submit registration")
	defer cancel()

	var in registrationPayload
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}

	saved, err := h.Engine.SubmitRegistration(ctx, in.PendingRegistration, in.RawPIN)
	if err != nil {
		writeEngineError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// ListRegistrations handles GET /registrations?status=.
func (h *Handler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list registrations")
	defer cancel()

	rows, err := h.Engine.PendingRegistrations(ctx, r.URL.Query().Get("status"))
	if err != nil {
		writeEngineError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// ApproveRegistration handles POST /registrations/{id}/approve.
func (h *Handler) ApproveRegistration(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "approve registration")
	defer cancel()

	emp, err := h.Engine.ApproveRegistration(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeEngineError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, emp)
}

type batchApprovePayload struct {
	IDs []string `json:"ids"`
}

type batchApproveResponse struct {
	Approved []models.Employee `json:"approved"`
	Failed   map[string]string `json:"failed,omitempty"`
}

// ApproveBatch handles POST /registrations/approve.
func (h *Handler) ApproveBatch(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "batch approve")
	defer cancel()

	var in batchApprovePayload
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}

	approved, failed := h.Engine.ApproveBatch(ctx, in.IDs)
	out := batchApproveResponse{Approved: approved}
	if len(failed) > 0 {
		out.Failed = make(map[string]string, len(failed))
		for id, err := range failed {
			out.Failed[id] = engine.UserMessage(err)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

type rejectPayload struct {
	Reason string `json:"reason"`
}

// RejectRegistration handles POST /registrations/{id}/reject.
func (h *Handler) RejectRegistration(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "reject registration")
	defer cancel()

	var in rejectPayload
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}

	if err := h.Engine.RejectRegistration(ctx, chi.URLParam(r, "id"), in.Reason); err != nil {
		writeEngineError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type pinPayload struct {
	Email    string `json:"email"`
	NewPIN   string `json:"newPin"`
	IsForgot bool   `json:"isForgot"`
}

// ChangePIN handles POST /pin/change, routing through the OTP service.
func (h *Handler) ChangePIN(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "change pin")
	defer cancel()

	var in pinPayload
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}

	if err := h.Engine.ChangePIN(ctx, in.Email, in.NewPIN, in.IsForgot); err != nil {
		writeEngineError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeEngineError(w http.ResponseWriter, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Message: engine.UserMessage(err)})
	case errors.Is(err, engine.ErrInvalidCredential), errors.Is(err, engine.ErrPINNotSet):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Message: engine.UserMessage(err)})
	case errors.Is(err, engine.ErrConflict):
		writeJSON(w, http.StatusConflict, errorResponse{Message: engine.UserMessage(err)})
	case errors.Is(err, engine.ErrPermission):
		writeJSON(w, http.StatusForbidden, errorResponse{Message: engine.UserMessage(err)})
	default:
		log.Error("directory operation failed", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, errorResponse{Message: engine.UserMessage(err)})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
