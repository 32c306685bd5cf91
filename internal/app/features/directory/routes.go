// internal/app/features/directory/routes.go
package directory

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter that serves the directory API.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	r.Post("/refresh", h.Refresh)
	r.Post("/pin/change", h.ChangePIN)
	r.Post("/otp/request", h.RequestCode)
	r.Post("/otp/verify", h.VerifyCode)

	r.Route("/employees", func(r chi.Router) {
		r.Get("/", h.SearchEmployees)
		r.Put("/", h.PutEmployee)
		r.Get("/{kgid}", h.GetEmployee)
		r.Delete("/{kgid}", h.DeleteEmployee)
	})

	r.Route("/officers", func(r chi.Router) {
		r.Get("/", h.SearchOfficers)
		r.Put("/", h.PutOfficer)
		r.Get("/{agid}", h.GetOfficer)
		r.Delete("/{agid}", h.DeleteOfficer)
	})

	r.Route("/registrations", func(r chi.Router) {
		r.Post("/", h.SubmitRegistration)
		r.Get("/", h.ListRegistrations)
		r.Post("/approve", h.ApproveBatch)
		r.Post("/{id}/approve", h.ApproveRegistration)
		r.Post("/{id}/reject", h.RejectRegistration)
	})

	return r
}
