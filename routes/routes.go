package routes

import (
	"net/http"
	"time"

	"github.com/ZubbsZubbs/LAUTECH-sub002/app"
	"github.com/ZubbsZubbs/LAUTECH-sub002/handlers"
	"github.com/ZubbsZubbs/LAUTECH-sub002/internal/observability"
	appmiddleware "github.com/ZubbsZubbs/LAUTECH-sub002/middleware"
	"github.com/ZubbsZubbs/LAUTECH-sub002/utils"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Rate limit scopes for the public write endpoints
const (
	scopeLogin   = "login"
	scopeForgot  = "forgot_password"
	scopeContact = "contact"
	scopeSignup  = "subscribe"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()
	logger := deps.Logger

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appmiddleware.RequestLogger(logger, deps.Metrics))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	health := handlers.NewHealthHandler(deps.DB, logger).
		Report("email_providers", func() interface{} { return deps.Dispatcher.Providers() }).
		Report("settings_cache", func() interface{} { return deps.Settings.CacheStats() })
	if deps.Forwarder != nil {
		health.Report("webhook", func() interface{} { return deps.Forwarder.Stats() })
	}
	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)
	if deps.Registry != nil {
		r.Handle("/metrics", observability.Handler(deps.Registry))
	}

	authHandler := handlers.NewAuthHandler(deps.Accounts, logger)
	userHandler := handlers.NewUserHandler(deps.Users, logger)
	patientHandler := handlers.NewPatientHandler(deps.Patients, logger)
	doctorHandler := handlers.NewDoctorHandler(deps.Doctors, logger)
	appointmentHandler := handlers.NewAppointmentHandler(deps.Appointments, logger)
	applicationHandler := handlers.NewApplicationHandler(deps.Applications, logger)
	settingsHandler := handlers.NewSettingsHandler(deps.Settings, logger)
	outreachHandler := handlers.NewOutreachHandler(deps.Outreach, deps.Dispatcher, logger)

	limit := func(scope string) func(http.Handler) http.Handler {
		if deps.RateLimiter == nil {
			return func(next http.Handler) http.Handler { return next }
		}
		return appmiddleware.RateLimit(deps.RateLimiter, scope, logger)
	}

	requireAuth := deps.AuthMiddleware.RequireAuth
	requireAdmin := deps.AuthMiddleware.RequireAdmin

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.HandleRegister)
			r.With(limit(scopeLogin)).Post("/login", authHandler.HandleLogin)
			r.With(limit(scopeForgot)).Post("/forgot-password", authHandler.HandleForgotPassword)
			r.Post("/reset-password", authHandler.HandleResetPassword)
			r.With(requireAuth).Get("/me", authHandler.HandleMe)
		})

		r.With(limit(scopeContact)).Post("/contact", outreachHandler.HandleContact)
		r.With(limit(scopeSignup)).Post("/subscribe", outreachHandler.HandleSubscribe)

		r.Get("/doctors", doctorHandler.HandleList)
		r.Get("/doctors/{id}", doctorHandler.HandleGet)
		r.Get("/settings", settingsHandler.HandleList)
		r.Get("/settings/{key}", settingsHandler.HandleGet)
		r.Post("/appointments", appointmentHandler.HandleBook)
		r.Post("/applications", applicationHandler.HandleSubmit)

		// Dashboard routes (require admin role)
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(requireAdmin)

			r.Route("/users", func(r chi.Router) {
				r.Get("/", userHandler.HandleList)
				r.Get("/{id}", userHandler.HandleGet)
				r.Put("/{id}/role", userHandler.HandleUpdateRole)
				r.Delete("/{id}", userHandler.HandleDelete)
			})

			r.Route("/patients", func(r chi.Router) {
				r.Get("/", patientHandler.HandleList)
				r.Post("/", patientHandler.HandleCreate)
				r.Get("/{id}", patientHandler.HandleGet)
				r.Put("/{id}", patientHandler.HandleUpdate)
				r.Delete("/{id}", patientHandler.HandleDelete)
			})

			r.Post("/doctors", doctorHandler.HandleCreate)
			r.Put("/doctors/{id}", doctorHandler.HandleUpdate)
			r.Delete("/doctors/{id}", doctorHandler.HandleDelete)

			r.Get("/appointments", appointmentHandler.HandleList)
			r.Get("/appointments/{id}", appointmentHandler.HandleGet)
			r.Put("/appointments/{id}/status", appointmentHandler.HandleUpdateStatus)
			r.Delete("/appointments/{id}", appointmentHandler.HandleDelete)

			r.Get("/applications", applicationHandler.HandleList)
			r.Get("/applications/{id}", applicationHandler.HandleGet)
			r.Put("/applications/{id}/status", applicationHandler.HandleUpdateStatus)
			r.Delete("/applications/{id}", applicationHandler.HandleDelete)

			r.Put("/settings/{key}", settingsHandler.HandlePut)
			r.Get("/subscribers", outreachHandler.HandleSubscribers)

			r.Get("/notifications/logs", outreachHandler.HandleDeliveryLogs)
			r.Post("/notifications/test", outreachHandler.HandleSendTest)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
	})

	return r
}
