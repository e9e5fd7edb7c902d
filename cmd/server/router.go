package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/phrazzld/taskhub-api/internal/api"
	apimiddleware "github.com/phrazzld/taskhub-api/internal/api/middleware"
)

// setupRouter configures the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(apimiddleware.TraceMiddleware)

	authHandler := api.NewAuthHandler(
		app.userStore,
		app.jwtService,
		app.passwordVerifier,
		app.config.Upload,
	)
	todoHandler := api.NewTodoHandler(app.todoService, app.sharingService, app.config.Upload)
	notificationHandler := api.NewNotificationHandler(app.notificationService)
	wsHandler := api.NewWSHandler(app.hub, app.jwtService)
	authMiddleware := apimiddleware.NewAuthMiddleware(app.jwtService)

	r.Route("/api", func(r chi.Router) {
		// Authentication endpoints (public)
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.RefreshToken)

		// WebSocket handshake authenticates via query token, not the header
		// middleware.
		r.Get("/ws", wsHandler.Serve)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Get("/auth/me", authHandler.Me)
			r.Put("/auth/profile", authHandler.UpdateProfile)
			r.Put("/auth/password", authHandler.ChangePassword)
			r.Post("/auth/avatar", authHandler.UploadAvatar)

			r.Get("/todos", todoHandler.List)
			r.Get("/todos/shared", todoHandler.ListShared)
			r.Get("/todos/archived", todoHandler.ListArchived)
			r.Get("/todos/starred", todoHandler.ListStarred)
			r.Post("/todos", todoHandler.Create)
			r.Get("/todos/{id}", todoHandler.Get)
			r.Put("/todos/{id}", todoHandler.Update)
			r.Patch("/todos/{id}/star", todoHandler.ToggleStar)
			r.Patch("/todos/{id}/archive", todoHandler.ToggleArchive)
			r.Delete("/todos/{id}", todoHandler.Delete)
			r.Post("/todos/{id}/share", todoHandler.Share)
			r.Post("/todos/{id}/attachments", todoHandler.UploadAttachment)
			r.Delete("/todos/{id}/attachments/{attachmentID}", todoHandler.DeleteAttachment)

			r.Get("/notifications", notificationHandler.List)
			r.Put("/notifications/{id}/read", notificationHandler.MarkRead)
			r.Post("/notifications/share", notificationHandler.CreateShare)
		})
	})

	// Uploaded avatars and attachments are served statically.
	if app.config.Upload.Dir != "" {
		fs := http.StripPrefix("/uploads/", http.FileServer(http.Dir(app.config.Upload.Dir)))
		r.Get("/uploads/*", fs.ServeHTTP)
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
