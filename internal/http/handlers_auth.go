package http

import (
	"errors"
	"net/http"

	"carteira/internal/auth"
	"carteira/internal/log"
)

type userJSON struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		FullName string `json:"fullName"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	identity, err := s.auth.Register(r.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		var verr *auth.ValidationError
		switch {
		case errors.As(err, &verr):
			writeValidationError(w, "validation failed", verr.Fields)
		case errors.Is(err, auth.ErrEmailTaken):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			s.logger.ErrorContext(r.Context(), "registration failed", log.FieldError, err)
			writeError(w, http.StatusInternalServerError, "registration failed")
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "account created",
		"user":    userJSON{ID: identity.ID, Email: identity.Email, Name: identity.Name},
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	identity, err := s.auth.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		s.logger.ErrorContext(r.Context(), "login failed", log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	sess, err := s.sessions.Create(r.Context(), identity)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "session creation failed", log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token":      sess.Token,
		"expires_at": sess.ExpiresAt,
		"user":       userJSON{ID: identity.ID, Email: identity.Email, Name: identity.Name},
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	s.sessions.Delete(r.Context(), sess.Token)
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	writeJSON(w, http.StatusOK, map[string]any{
		"user": userJSON{
			ID:    sess.Identity.ID,
			Email: sess.Identity.Email,
			Name:  sess.Identity.Name,
		},
		"session": map[string]any{
			"created_at": sess.CreatedAt,
			"expires_at": sess.ExpiresAt,
		},
	})
}
