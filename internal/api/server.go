package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter собирает маршруты API
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/availability", h.ResolveAvailability)

		r.Route("/bookings", func(r chi.Router) {
			r.Post("/", h.CreateBooking)
			r.Get("/{id}", h.GetBooking)
			r.Post("/{id}/cancel", h.CancelBooking)
			r.Post("/{id}/reschedule", h.RescheduleBooking)
			// Точки входа платёжного коллаборатора
			r.Post("/{id}/payment/success", h.ConfirmPaymentSuccess)
			r.Post("/{id}/payment/failure", h.ConfirmPaymentFailure)
		})

		r.Get("/clients/{id}/bookings", h.ListClientBookings)

		r.Route("/commitments", func(r chi.Router) {
			r.Post("/", h.CreateCommitment)
			r.Get("/{id}", h.GetCommitment)
			r.Get("/{id}/billing", h.ListBillingCycles)
			r.Post("/{id}/pause", h.PauseCommitment)
			r.Post("/{id}/resume", h.ResumeCommitment)
			r.Post("/{id}/cancel", h.CancelCommitment)
		})

		r.Post("/billing/{id}/paid", h.MarkBillingPaid)

		r.Route("/makeups", func(r chi.Router) {
			r.Post("/", h.CreateMakeup)
			r.Post("/{id}/schedule", h.ScheduleMakeup)
			r.Post("/{id}/complete", h.CompleteMakeup)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", h.ListSessions)
			r.Post("/", h.CreateSession)
		})

		r.Route("/blackouts", func(r chi.Router) {
			r.Get("/", h.ListBlackouts)
			r.Post("/", h.CreateBlackout)
		})

		r.Get("/sync-log", h.ListSyncLog)
	})

	return r
}
