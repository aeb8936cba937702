package http

import (
	"errors"
	"net/http"
	"time"

	"carteira/internal/core"
	"carteira/internal/gateway"
	"carteira/internal/limits"
)

type limitJSON struct {
	ID              string    `json:"id"`
	AccountID       string    `json:"account_id"`
	Category        string    `json:"category"`
	Limit           moneyJSON `json:"limit"`
	AlertPercentage int       `json:"alert_percentage"`
	CreatedAt       time.Time `json:"created_at"`
}

func limitOut(l core.CategoryLimit) limitJSON {
	return limitJSON{
		ID:              l.ID,
		AccountID:       l.AccountID,
		Category:        l.Category,
		Limit:           moneyOut(l.Limit),
		AlertPercentage: l.AlertPercentage,
		CreatedAt:       l.CreatedAt,
	}
}

func (s *Server) handleListLimits(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	list, err := sess.Limits.List(r.Context(), r.URL.Query().Get("account_id"))
	if err != nil {
		s.writeServiceError(w, r, err, "could not load limits")
		return
	}
	out := make([]limitJSON, 0, len(list))
	for _, l := range list {
		out = append(out, limitOut(l))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateLimit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccountID       string `json:"account_id"`
		Category        string `json:"category"`
		Limit           string `json:"limit"`
		AlertPercentage int    `json:"alert_percentage"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	sess := currentSession(r)
	created, err := sess.Limits.Create(r.Context(), core.CategoryLimit{
		AccountID:       req.AccountID,
		Category:        req.Category,
		Limit:           core.ParseAmountInput(req.Limit),
		AlertPercentage: req.AlertPercentage,
	})
	if err != nil {
		if errors.Is(err, limits.ErrDuplicateLimit) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		s.writeServiceError(w, r, err, "could not create limit")
		return
	}
	writeJSON(w, http.StatusCreated, limitOut(created))
}

func (s *Server) handleUpdateLimit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Limit           *string `json:"limit"`
		AlertPercentage *int    `json:"alert_percentage"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	var upd gateway.LimitUpdate
	if req.Limit != nil {
		amount := core.ParseAmountInput(*req.Limit)
		upd.Limit = &amount
	}
	upd.AlertPercentage = req.AlertPercentage

	sess := currentSession(r)
	if err := sess.Limits.Update(r.Context(), r.PathValue("id"), upd); err != nil {
		if errors.Is(err, limits.ErrLimitNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.writeServiceError(w, r, err, "could not update limit")
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleDeleteLimit(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	if err := sess.Limits.Delete(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, limits.ErrLimitNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.writeServiceError(w, r, err, "could not delete limit")
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleLimitProgress(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	rows, err := sess.Limits.Progress(r.Context(), r.URL.Query().Get("account_id"))
	if err != nil {
		s.writeServiceError(w, r, err, "could not load limit progress")
		return
	}

	type progressJSON struct {
		limitJSON
		Spent      moneyJSON `json:"spent"`
		Percentage float64   `json:"percentage"`
		Status     string    `json:"status"`
	}
	out := make([]progressJSON, 0, len(rows))
	for _, p := range rows {
		out = append(out, progressJSON{
			limitJSON:  limitOut(p.CategoryLimit),
			Spent:      moneyOut(p.Spent),
			Percentage: p.Percentage,
			Status:     string(p.Status),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleLimitCheck forces an immediate evaluation instead of waiting for
// the engine's next tick, then returns whatever notifications are live.
func (s *Server) handleLimitCheck(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	sess.Engine.CheckNow(r.Context())
	writeNotifications(w, sess.Engine.Notifications())
}
