package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"gatherly/internal/delivery/http/helpers"
	"gatherly/internal/delivery/http/middleware"
	"gatherly/internal/domain"
)

type NotificationController struct {
	Logger  *slog.Logger
	Service domain.NotificationService
}

func NewNotificationController(logger *slog.Logger, svc domain.NotificationService) *NotificationController {
	return &NotificationController{
		Logger:  logger,
		Service: svc,
	}
}

// List godoc
// @Summary List the caller's notification feed
// @Description Returns the feed oldest first, with each actor projected to their public profile. Pass ?unopened=true to restrict to unread entries.
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param unopened query bool false "Only unopened entries"
// @Success 200 {object} map[string]any
// @Router /notifications [get]
func (c *NotificationController) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteFieldError(w, http.StatusUnauthorized, "auth", "Unauthorized!")
		return
	}
	unopenedOnly := r.URL.Query().Get("unopened") == "true"
	notifications, err := c.Service.ListForUser(r.Context(), userID, unopenedOnly)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteFieldError(w, http.StatusInternalServerError, "error", "Something went wrong!")
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]any{
		"myNotifications": notifications,
	})
}

// Latest godoc
// @Summary Get the caller's most recent notification
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]string
// @Router /notifications/latest [get]
func (c *NotificationController) Latest(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteFieldError(w, http.StatusUnauthorized, "auth", "Unauthorized!")
		return
	}
	latest, err := c.Service.Latest(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteFieldError(w, http.StatusNotFound, "notification", "No notifications yet!")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteFieldError(w, http.StatusInternalServerError, "error", "Something went wrong!")
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]any{
		"latest": latest,
	})
}

// MarkOpened godoc
// @Summary Mark a notification as opened
// @Description Only the recipient can open their own entry; anyone else gets a 404.
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param notificationID path string true "Notification ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /notifications/{notificationID}/opened [put]
func (c *NotificationController) MarkOpened(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteFieldError(w, http.StatusUnauthorized, "auth", "Unauthorized!")
		return
	}
	notificationID := r.PathValue("notificationID")
	if notificationID == "" {
		helpers.WriteFieldError(w, http.StatusBadRequest, "notification", "Must not be empty!")
		return
	}
	if err := c.Service.MarkOpened(r.Context(), notificationID, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteFieldError(w, http.StatusNotFound, "notification", "Error, notification not found!")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteFieldError(w, http.StatusInternalServerError, "error", "Something went wrong!")
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]any{
		"success": "Notification opened!",
	})
}
