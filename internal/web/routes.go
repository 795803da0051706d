package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kozaktomas/face-attendance/internal/auth"
	"github.com/kozaktomas/face-attendance/internal/web/handlers"
	"github.com/kozaktomas/face-attendance/internal/web/middleware"
)

func (s *Server) setupRoutes() {
	d := s.deps

	// Create handlers
	authHandler := handlers.NewAuthHandler(d.Service, d.Admin, d.Tokens, d.Logger)
	attendanceHandler := handlers.NewAttendanceHandler(d.Service, d.Ledger, d.Logger)
	usersHandler := handlers.NewUsersHandler(d.Roster, d.Logger)
	adminHandler := handlers.NewAdminHandler(d.Roster, d.Ledger, d.Geofence, d.Metrics, d.Logger)
	locationHandler := handlers.NewLocationHandler(d.Geofence, d.Logger)

	s.router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handlers.HealthCheck)
		r.Get("/status", handlers.Status(d.Roster, d.Ledger, d.Geofence, d.Embedding))

		// Kiosk and self-service
		r.Post("/register", attendanceHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/attendance", attendanceHandler.Submit)
		r.Get("/attendance-records", attendanceHandler.Records)
		r.Get("/users", usersHandler.List)

		r.Post("/admin/login", authHandler.AdminLogin)
		r.Post("/admin/verify-token", authHandler.VerifyToken)

		// Administration requires an admin token
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(d.Tokens, auth.RoleAdmin))

			r.Get("/admin/location-settings", locationHandler.Get)
			r.Post("/admin/location-settings", locationHandler.Update)
			r.Post("/admin/test-location", locationHandler.Test)

			r.Get("/admin/dashboard", adminHandler.Dashboard)
			r.Get("/admin/monthly-records", adminHandler.MonthlyRecords)
			r.Get("/admin/available-months", adminHandler.AvailableMonths)
			r.Get("/admin/export-excel", adminHandler.Export)
			r.Post("/admin/cleanup", adminHandler.Cleanup)

			r.Delete("/admin/users/{id}", usersHandler.Delete)
		})
	})
}
