package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/planhub/planhub-api/internal/api"
	apiMiddleware "github.com/planhub/planhub-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware. Returns the configured router.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	// API handlers built from the application's services
	authHandler := api.NewAuthHandler(app.userService)
	commentHandler := api.NewCommentHandler(app.commentService)
	taskHandler := api.NewTaskHandler(app.taskService)
	projectHandler := api.NewProjectHandler(app.projectService)
	notificationHandler := api.NewNotificationHandler(app.notificationService)
	userHandler := api.NewUserHandler(app.userService)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	r.Route("/api", func(r chi.Router) {
		// Authentication endpoints (public)
		r.Post("/auth/login", authHandler.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			// Comment endpoints
			r.Post("/comments", commentHandler.CreateComment)
			r.Get("/comments", commentHandler.ListComments)

			// Task endpoints
			r.Post("/tasks", taskHandler.CreateTask)
			r.Patch("/tasks/{id}/status", taskHandler.UpdateStatus)

			// Project roster endpoints
			r.Post("/projects/{id}/members", projectHandler.AddMember)

			// Notification endpoints
			r.Get("/notifications", notificationHandler.ListNotifications)
			r.Post("/notifications/{id}/read", notificationHandler.MarkRead)

			// User directory for the mention picker
			r.Get("/users", userHandler.ListUsers)
		})
	})

	// Health check endpoint
	r.Get("/health", app.healthCheck)

	return r
}

// healthCheck verifies database connectivity before reporting healthy.
func (app *application) healthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := app.db.PingContext(ctx); err != nil {
		app.logger.Error("Health check failed", "error", err)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		app.logger.Error("Failed to write health check response", "error", err)
	}
}
