package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"gatherly/internal/delivery/http/controllers"
	"gatherly/internal/delivery/http/middleware"
	"gatherly/internal/domain"
	"gatherly/internal/realtime"
)

// NewRouter initializes the HTTP router with all application routes
func NewRouter(
	eventController *controllers.EventController,
	notificationController *controllers.NotificationController,
	userController *controllers.UserController,
	hub *realtime.Hub,
	verifier domain.TokenVerifier,
	logger *slog.Logger,
) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier, logger)

	// Users
	mux.HandleFunc("POST /users/register", userController.Register)
	mux.HandleFunc("POST /users/login", userController.Login)
	mux.HandleFunc("GET /users/me", auth(userController.Me))
	mux.HandleFunc("PUT /users/update", auth(userController.UpdateProfile))

	// Events
	mux.HandleFunc("POST /events", auth(eventController.Create))
	mux.HandleFunc("GET /events", auth(eventController.List))
	mux.HandleFunc("PUT /events/update", auth(eventController.Update))
	mux.HandleFunc("PUT /events/rsvp", auth(eventController.RSVP))
	mux.HandleFunc("PUT /events/guests", auth(eventController.ToggleGuest))
	mux.HandleFunc("POST /events/invite", auth(eventController.Invite))
	mux.HandleFunc("POST /events/find-and-invite", auth(eventController.FindAndInvite))
	mux.HandleFunc("POST /events/photo-upload", auth(eventController.PhotoUpload))
	mux.HandleFunc("POST /events/reminders", auth(eventController.Reminders))
	mux.HandleFunc("DELETE /events/{eventID}", auth(eventController.Delete))

	// Notifications
	mux.HandleFunc("GET /notifications", auth(notificationController.List))
	mux.HandleFunc("GET /notifications/latest", auth(notificationController.Latest))
	mux.HandleFunc("PUT /notifications/{notificationID}/opened", auth(notificationController.MarkOpened))

	// Realtime channel; the token rides the query string instead of the
	// Authorization header.
	mux.HandleFunc("GET /socket", realtime.ServeWs(hub, verifier, logger))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
