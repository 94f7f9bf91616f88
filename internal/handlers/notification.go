package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/apollorio/rede/internal/models"
)

// NotificationStore is the read side of the notification service.
type NotificationStore interface {
	List(ctx context.Context, accountID uuid.UUID, limit int) ([]models.Notification, error)
	MarkAllRead(ctx context.Context, accountID uuid.UUID) error
}

type NotificationHandler struct {
	notifications NotificationStore
}

func NewNotificationHandler(notifications NotificationStore) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

type NotificationListResponse struct {
	Notifications []models.Notification `json:"notifications"`
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	actor := GetActorFromContext(r.Context())
	if actor == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}

	notifications, err := h.notifications.List(r.Context(), actor.ID, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, NotificationListResponse{Notifications: notifications})
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	actor := GetActorFromContext(r.Context())
	if actor == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	if err := h.notifications.MarkAllRead(r.Context(), actor.ID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Notifications marked read"})
}
