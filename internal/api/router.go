package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/caresched/caresched/internal/availability"
	"github.com/caresched/caresched/internal/booking"
	"github.com/caresched/caresched/internal/identity"
	"github.com/caresched/caresched/internal/patient"
	"github.com/caresched/caresched/internal/provider"
	"github.com/caresched/caresched/internal/search"
)

type RouterConfig struct {
	Providers    *provider.Service
	Patients     *patient.Service
	Availability *availability.Service
	Bookings     *booking.Service
	Search       *search.Service
	Tokens       *identity.TokenManager
	PgPool       *pgxpool.Pool
	Redis        *redis.Client
	Logger       zerolog.Logger
	Env          string
	Version      string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	requireProvider := RequireRole(cfg.Tokens, identity.RoleProvider)
	requirePatient := RequireRole(cfg.Tokens, identity.RolePatient)
	requireAuth := RequireAuth(cfg.Tokens)

	r.Route("/api/v1", func(r chi.Router) {
		// Accounts
		r.Post("/providers/register", registerProviderHandler(cfg.Providers))
		r.Post("/providers/login", loginProviderHandler(cfg.Providers, cfg.Tokens))
		r.Post("/patients/register", registerPatientHandler(cfg.Patients))
		r.Post("/patients/login", loginPatientHandler(cfg.Patients, cfg.Tokens))
		r.With(requireProvider).Get("/providers/me", getProviderMeHandler(cfg.Providers))
		r.With(requirePatient).Get("/patients/me", getPatientMeHandler(cfg.Patients))
		r.With(requirePatient).Put("/patients/me/deactivate", deactivatePatientHandler(cfg.Patients))
		r.With(requirePatient).Put("/patients/me/medical-history", updateMedicalHistoryHandler(cfg.Patients))

		// Availability
		r.With(requireProvider).Post("/availability", createAvailabilityHandler(cfg.Availability))
		r.Get("/availability/search", searchAvailabilityHandler(cfg.Search))
		r.Get("/availability/{providerID}", getAvailabilityHandler(cfg.Availability))
		r.With(requireProvider).Put("/availability/slots/{slotID}", updateSlotHandler(cfg.Availability))
		r.With(requireProvider).Delete("/availability/slots/{slotID}", deleteSlotHandler(cfg.Availability))

		// Appointments
		r.With(requirePatient).Post("/appointments", bookAppointmentHandler(cfg.Bookings))
		r.With(requireAuth).Get("/appointments", listAppointmentsHandler(cfg.Bookings))
		r.With(requireAuth).Get("/appointments/{id}", getAppointmentHandler(cfg.Bookings))
		r.With(requireAuth).Patch("/appointments/{id}", updateAppointmentHandler(cfg.Bookings))
		r.With(requireAuth).Post("/appointments/{id}/cancel", cancelAppointmentHandler(cfg.Bookings))
		r.With(requireAuth).Post("/appointments/{id}/reschedule", rescheduleAppointmentHandler(cfg.Bookings))
		r.With(requireAuth).Get("/bookings/{reference}", getAppointmentByReferenceHandler(cfg.Bookings))
	})

	// Back-office routes, expected to be reachable only from inside the
	// deployment network.
	r.Route("/internal", func(r chi.Router) {
		r.Get("/providers/pending-verification", listPendingVerificationHandler(cfg.Providers))
		r.Patch("/providers/{id}/verification", updateVerificationHandler(cfg.Providers))
	})

	return r
}
