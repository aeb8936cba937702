package http

import (
	"errors"
	"net/http"
	"time"

	"carteira/internal/core"
	"carteira/internal/log"
	"carteira/internal/services"
)

type accountJSON struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	IsDefault bool      `json:"is_default"`
	Selected  bool      `json:"selected"`
	CreatedAt time.Time `json:"created_at"`
}

func accountOut(a core.Account, selectedID string) accountJSON {
	return accountJSON{
		ID:        a.ID,
		Name:      a.Name,
		IsDefault: a.IsDefault,
		Selected:  a.ID == selectedID,
		CreatedAt: a.CreatedAt,
	}
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	if err := sess.Accounts.Refresh(r.Context()); err != nil {
		s.logger.ErrorContext(r.Context(), "account refresh failed", log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "could not load accounts")
		return
	}

	selected := sess.Accounts.CurrentID()
	list := sess.Accounts.List()
	out := make([]accountJSON, 0, len(list))
	for _, a := range list {
		out = append(out, accountOut(a, selected))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	sess := currentSession(r)
	a, err := sess.Accounts.Create(r.Context(), req.Name)
	if err != nil {
		s.writeServiceError(w, r, err, "could not create account")
		return
	}
	writeJSON(w, http.StatusCreated, accountOut(a, sess.Accounts.CurrentID()))
}

func (s *Server) handleRenameAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	sess := currentSession(r)
	if err := sess.Accounts.Rename(r.Context(), r.PathValue("id"), req.Name); err != nil {
		s.writeServiceError(w, r, err, "could not rename account")
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	if err := sess.Accounts.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeServiceError(w, r, err, "could not delete account")
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleSelectAccount(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	if err := sess.Accounts.Select(r.PathValue("id")); err != nil {
		s.writeServiceError(w, r, err, "could not select account")
		return
	}
	current := sess.Accounts.Current()
	writeJSON(w, http.StatusOK, accountOut(*current, current.ID))
}

type categoryJSON struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

type subcategoryJSON struct {
	ID         string `json:"id"`
	CategoryID string `json:"category_id"`
	Name       string `json:"name"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.categories.ListCategories(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "category list failed", log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "could not load categories")
		return
	}
	out := make([]categoryJSON, 0, len(cats))
	for _, c := range cats {
		out = append(out, categoryJSON{ID: c.ID, Name: c.Name, Color: c.Color})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListSubcategories(w http.ResponseWriter, r *http.Request) {
	subs, err := s.categories.ListSubcategories(r.Context(), r.PathValue("id"))
	if err != nil {
		s.logger.ErrorContext(r.Context(), "subcategory list failed", log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "could not load subcategories")
		return
	}
	out := make([]subcategoryJSON, 0, len(subs))
	for _, sc := range subs {
		out = append(out, subcategoryJSON{ID: sc.ID, CategoryID: sc.CategoryID, Name: sc.Name})
	}
	writeJSON(w, http.StatusOK, out)
}

// writeServiceError maps service-level errors onto HTTP statuses.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrAccountNotFound),
		errors.Is(err, services.ErrTransactionNotFound),
		errors.Is(err, services.ErrGoalNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrDefaultAccountDelete):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrNoAccountSelected),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidKind),
		errors.Is(err, core.ErrEmptyTitle),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrEmptyCategory),
		errors.Is(err, core.ErrFutureDate),
		errors.Is(err, core.ErrInvalidTarget),
		errors.Is(err, core.ErrInvalidAlertPercent),
		errors.Is(err, core.ErrInvalidContribution):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.ErrorContext(r.Context(), fallback, log.FieldError, err)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
