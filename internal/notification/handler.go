package notification

import (
	"encoding/json"
	"net/http"

	"notesync/middleware"
	"notesync/pkg/logger"
)

type Handler struct {
	Repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{Repo: repo}
}

// GetNotifications lists the caller's own share notifications, newest first.
func (h *Handler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(middleware.UserIDKey).(string)

	items, err := h.Repo.ListByUser(userID)
	if err != nil {
		logger.Sugar.Errorf("Failed to list notifications: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []Notification{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(items)
}
