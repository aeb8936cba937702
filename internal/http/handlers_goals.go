package http

import (
	"net/http"
	"time"

	"carteira/internal/core"
	"carteira/internal/gateway"
)

type goalJSON struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Target     moneyJSON `json:"target"`
	Current    moneyJSON `json:"current"`
	Progress   float64   `json:"progress"`
	Complete   bool      `json:"complete"`
	TargetDate string    `json:"target_date,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func goalOut(g core.Goal) goalJSON {
	out := goalJSON{
		ID:        g.ID,
		Title:     g.Title,
		Target:    moneyOut(g.Target),
		Current:   moneyOut(g.Current),
		Progress:  g.Progress(),
		Complete:  g.IsComplete(),
		CreatedAt: g.CreatedAt,
	}
	if !g.TargetDate.IsZero() {
		out.TargetDate = g.TargetDate.Format(dateLayout)
	}
	return out
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	goals, err := sess.Goals.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, "could not load goals")
		return
	}
	out := make([]goalJSON, 0, len(goals))
	for _, g := range goals {
		out = append(out, goalOut(g))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title      string `json:"title"`
		Target     string `json:"target"`
		TargetDate string `json:"target_date"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	g := core.Goal{
		Title:  req.Title,
		Target: core.ParseAmountInput(req.Target),
	}
	if req.TargetDate != "" {
		when, err := time.ParseInLocation(dateLayout, req.TargetDate, time.Local)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid target_date, expected YYYY-MM-DD")
			return
		}
		g.TargetDate = when
	}

	sess := currentSession(r)
	created, err := sess.Goals.Create(r.Context(), g)
	if err != nil {
		s.writeServiceError(w, r, err, "could not create goal")
		return
	}
	writeJSON(w, http.StatusCreated, goalOut(created))
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title      *string `json:"title"`
		Target     *string `json:"target"`
		TargetDate *string `json:"target_date"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	var upd gateway.GoalUpdate
	upd.Title = req.Title
	if req.Target != nil {
		target := core.ParseAmountInput(*req.Target)
		upd.Target = &target
	}
	if req.TargetDate != nil {
		if *req.TargetDate == "" {
			var zero time.Time
			upd.TargetDate = &zero
		} else {
			when, err := time.ParseInLocation(dateLayout, *req.TargetDate, time.Local)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid target_date, expected YYYY-MM-DD")
				return
			}
			upd.TargetDate = &when
		}
	}

	sess := currentSession(r)
	if err := sess.Goals.Update(r.Context(), r.PathValue("id"), upd); err != nil {
		s.writeServiceError(w, r, err, "could not update goal")
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	if err := sess.Goals.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeServiceError(w, r, err, "could not delete goal")
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleAddContribution(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount string `json:"amount"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	sess := currentSession(r)
	goal, err := sess.Goals.Contribute(r.Context(), r.PathValue("id"), core.ParseAmountInput(req.Amount))
	if err != nil {
		s.writeServiceError(w, r, err, "could not add contribution")
		return
	}
	writeJSON(w, http.StatusOK, goalOut(goal))
}

func (s *Server) handleListContributions(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	contribs, err := sess.Goals.Contributions(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err, "could not load contributions")
		return
	}

	type contributionJSON struct {
		ID        string    `json:"id"`
		Amount    moneyJSON `json:"amount"`
		CreatedAt time.Time `json:"created_at"`
	}
	out := make([]contributionJSON, 0, len(contribs))
	for _, c := range contribs {
		out = append(out, contributionJSON{ID: c.ID, Amount: moneyOut(c.Amount), CreatedAt: c.CreatedAt})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGoalStats(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	stats, err := sess.Goals.Stats(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, "could not compute goal stats")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":     stats.Count,
		"completed": stats.Completed,
		"target":    moneyOut(stats.Target),
		"saved":     moneyOut(stats.Saved),
	})
}
