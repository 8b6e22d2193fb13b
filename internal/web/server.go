// Package web exposes the admin API: employee management, enrollment,
// training, and attendance queries.
package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/kozaktomas/face-clock/internal/config"
	"github.com/kozaktomas/face-clock/internal/enroll"
	"github.com/kozaktomas/face-clock/internal/recognition"
	"github.com/kozaktomas/face-clock/internal/store"
	"github.com/kozaktomas/face-clock/internal/web/handlers"
	"github.com/kozaktomas/face-clock/internal/web/middleware"
)

// Server represents the web server.
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
}

// NewServer wires the API on top of the store, the recognizer, and the
// enrollment service.
func NewServer(cfg config.WebConfig, st store.Store, recognizer *recognition.Recognizer, enroller *enroll.Service) *Server {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(2 * time.Minute))
	r.Use(middleware.CORS())
	r.Use(middleware.SecurityHeaders())

	s := &Server{router: r}
	s.setupRoutes(st, recognizer, enroller)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute, // training and uploads can take a while
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupRoutes(st store.Store, recognizer *recognition.Recognizer, enroller *enroll.Service) {
	employeesHandler := handlers.NewEmployeesHandler(st, recognizer)
	attendanceHandler := handlers.NewAttendanceHandler(st)
	enrollHandler := handlers.NewEnrollHandler(enroller, recognizer)

	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/employees", employeesHandler.List)
		r.Get("/employees/{id}", employeesHandler.Get)
		r.Put("/employees/{id}", employeesHandler.Update)
		r.Delete("/employees/{id}", employeesHandler.Delete)
		r.Get("/employees/{id}/photo", employeesHandler.Photo)
		r.Get("/employees/{id}/status", attendanceHandler.Status)
		r.Get("/employees/{id}/history", attendanceHandler.History)

		r.Get("/attendance/today", attendanceHandler.Today)
		r.Get("/attendance/today/stats", attendanceHandler.TodayStats)
		r.Post("/attendance", attendanceHandler.Log)

		r.Post("/enroll", enrollHandler.Enroll)
		r.Post("/train", enrollHandler.Train)
		r.Get("/model", enrollHandler.ModelStatus)
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	log.Printf("Starting web server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down web server...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}
