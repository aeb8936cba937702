package http

import (
	"net/http"
	"time"

	"carteira/internal/core"
)

type notificationJSON struct {
	ID         string    `json:"id"`
	Category   string    `json:"category"`
	Limit      moneyJSON `json:"limit"`
	Spent      moneyJSON `json:"spent"`
	Percentage float64   `json:"percentage"`
	Status     string    `json:"status"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}

func writeNotifications(w http.ResponseWriter, list []core.LimitNotification) {
	out := make([]notificationJSON, 0, len(list))
	for _, n := range list {
		out = append(out, notificationJSON{
			ID:         n.ID,
			Category:   n.Category,
			Limit:      moneyOut(n.Limit),
			Spent:      moneyOut(n.Spent),
			Percentage: n.Percentage,
			Status:     string(n.Status),
			Message:    n.Message,
			Timestamp:  n.Timestamp,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	sess.Engine.Sweep()
	writeNotifications(w, sess.Engine.Notifications())
}

func (s *Server) handleDismissNotification(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	if !sess.Engine.Dismiss(r.PathValue("id")) {
		writeError(w, http.StatusNotFound, "notification not found")
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleClearNotifications(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	sess.Engine.ClearAll()
	writeJSON(w, http.StatusNoContent, nil)
}
