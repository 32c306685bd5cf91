// Package otp is the server side of the one-time-code flow: issuing codes
// for approved accounts, verifying them, and applying PIN updates proven
// either by the old PIN hash or by a verified code.
package otp

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/dalemusser/rosterhub/internal/app/reconcile"
	"github.com/dalemusser/rosterhub/internal/app/store/employees"
	"github.com/dalemusser/rosterhub/internal/app/store/otps"
	"github.com/dalemusser/rosterhub/internal/app/system/mailer"
	"github.com/dalemusser/rosterhub/internal/app/system/normalize"
	"github.com/dalemusser/rosterhub/internal/app/system/timeouts"
	"github.com/dalemusser/rosterhub/internal/domain/models"
)

// genericFailure is the message for every issuance failure that would
// otherwise reveal whether an account exists.
const genericFailure = "Could not send a code to that address"

// Handler serves the OTP endpoints.
type Handler struct {
	Employees *employees.Store
	Codes     *otps.Store
	Mail      mailer.Sender
	SiteName  string
	Log       *zap.Logger
}

// NewHandler constructs the OTP handler.
func NewHandler(emp *employees.Store, codes *otps.Store, mail mailer.Sender, siteName string, logger *zap.Logger) *Handler {
	return &Handler{
		Employees: emp,
		Codes:     codes,
		Mail:      mail,
		SiteName:  siteName,
		Log:       logger,
	}
}

type requestPayload struct {
	Email string `json:"email"`
}

type verifyPayload struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type updatePINPayload struct {
	Email      string `json:"email"`
	NewPINHash string `json:"newPinHash"`
	OldPINHash string `json:"oldPinHash"`
	IsForgot   bool   `json:"isForgot"`
}

type statusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type verifyResponse struct {
	Success  bool             `json:"success"`
	Message  string           `json:"message"`
	Employee *models.Employee `json:"employee,omitempty"`
}

// Request handles POST /otp/request. Issuance failures are reported with a
// generic message so callers cannot probe which emails have accounts.
func (h *Handler) Request(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "otp request")
	defer cancel()

	var in requestPayload
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, statusResponse{Message: "invalid request body"})
		return
	}
	email := normalize.Email(in.Email)

	doc, err := h.Employees.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, employees.ErrNotFound) {
			h.Log.Error("otp request: account lookup failed", zap.Error(err))
		}
		writeJSON(w, http.StatusOK, statusResponse{Message: genericFailure})
		return
	}
	rec := reconcile.Employee(doc)
	if !rec.IsApproved {
		writeJSON(w, http.StatusOK, statusResponse{Message: genericFailure})
		return
	}

	code, err := h.Codes.Create(ctx, email)
	if err != nil {
		if errors.Is(err, otps.ErrTooManyRequests) {
			writeJSON(w, http.StatusOK, statusResponse{Message: "Too many codes requested, try again later"})
			return
		}
		h.Log.Error("otp request: code creation failed", zap.Error(err))
		writeJSON(w, http.StatusOK, statusResponse{Message: genericFailure})
		return
	}

	email2 := mailer.BuildOTPEmail(mailer.OTPEmailData{
		SiteName:  h.SiteName,
		Code:      code,
		ExpiresIn: fmt.Sprintf("%d minutes", int(h.Codes.Expiry().Minutes())),
	})
	email2.To = rec.Email
	if err := h.Mail.Send(email2); err != nil {
		h.Log.Error("otp request: mail send failed", zap.Error(err))
		writeJSON(w, http.StatusOK, statusResponse{Message: genericFailure})
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{Success: true, Message: "Code sent"})
}

// Verify handles POST /otp/verify. A valid code is consumed and the full
// account record returned.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "otp verify")
	defer cancel()

	var in verifyPayload
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, verifyResponse{Message: "invalid request body"})
		return
	}
	email := normalize.Email(in.Email)

	if err := h.Codes.Verify(ctx, email, in.Code); err != nil {
		msg := "Invalid or expired code"
		if errors.Is(err, otps.ErrTooManyAttempts) {
			msg = "Too many attempts, request a new code"
		}
		writeJSON(w, http.StatusOK, verifyResponse{Message: msg})
		return
	}

	doc, err := h.Employees.GetByEmail(ctx, email)
	if err != nil {
		h.Log.Error("otp verify: account fetch failed", zap.Error(err))
		writeJSON(w, http.StatusOK, verifyResponse{Message: "Invalid or expired code"})
		return
	}
	rec := reconcile.Employee(doc)

	writeJSON(w, http.StatusOK, verifyResponse{Success: true, Message: "Verified", Employee: &rec})
}

// UpdatePIN handles POST /pin/update. In the normal flow the caller proves
// the old PIN by sending the stored hash, compared in constant time. The
// forgot flow skips that proof; it is only reachable after a verified code.
func (h *Handler) UpdatePIN(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "pin update")
	defer cancel()

	var in updatePINPayload
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, statusResponse{Message: "invalid request body"})
		return
	}
	email := normalize.Email(in.Email)
	if in.NewPINHash == "" {
		writeJSON(w, http.StatusBadRequest, statusResponse{Message: "missing new pin hash"})
		return
	}

	doc, err := h.Employees.GetByEmail(ctx, email)
	if err != nil {
		writeJSON(w, http.StatusOK, statusResponse{Message: "Update failed"})
		return
	}
	rec := reconcile.Employee(doc)

	if !in.IsForgot {
		if subtle.ConstantTimeCompare([]byte(in.OldPINHash), []byte(rec.PIN)) != 1 {
			writeJSON(w, http.StatusOK, statusResponse{Message: "Update failed"})
			return
		}
	}

	if err := h.Employees.UpdatePINByEmail(ctx, email, in.NewPINHash); err != nil {
		h.Log.Error("pin update failed", zap.Error(err))
		writeJSON(w, http.StatusOK, statusResponse{Message: "Update failed"})
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{Success: true, Message: "PIN updated"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
