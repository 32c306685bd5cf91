// internal/app/features/otp/routes.go
package otp

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter that serves the OTP service endpoints.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/otp/request", h.Request)
	r.Post("/otp/verify", h.Verify)
	r.Post("/pin/update", h.UpdatePIN)
	return r
}
