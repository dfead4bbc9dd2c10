package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/relayline/relayline/internal/api/models"
	"github.com/relayline/relayline/internal/api/response"
	"github.com/relayline/relayline/internal/degradation"
)

// NotificationsHandler serves user-facing degradation notifications.
type NotificationsHandler struct {
	center *degradation.Center
}

// NewNotificationsHandler creates a new NotificationsHandler.
func NewNotificationsHandler(center *degradation.Center) *NotificationsHandler {
	return &NotificationsHandler{center: center}
}

// ListNotifications handles GET /v1/notifications - active notifications
// rendered in the requested language (?lang=nl, default English).
func (h *NotificationsHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	lang := degradation.Language(r.URL.Query().Get("lang"))
	switch lang {
	case degradation.LangEnglish, degradation.LangDutch:
	case "":
		lang = degradation.LangEnglish
	default:
		// Unknown languages fall back to English rather than erroring.
		lang = degradation.LangEnglish
	}

	notifications := h.center.Active(lang)
	if notifications == nil {
		notifications = []degradation.Notification{}
	}
	response.JSON(w, r, http.StatusOK, models.NotificationsResponse{
		Notifications: notifications,
	})
}

// DismissNotification handles DELETE /v1/notifications/{id}.
func (h *NotificationsHandler) DismissNotification(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.center.Dismiss(id) {
		response.NotFound(w, r, "notification not found or not dismissible: "+id)
		return
	}
	response.NoContent(w, r)
}
