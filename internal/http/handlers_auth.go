package http

import (
	"context"
	"net/http"

	"fintrack/internal/auth"
	"fintrack/internal/log"
)

type sessionKey struct{}

func sessionFrom(ctx context.Context) auth.Session {
	sess, _ := ctx.Value(sessionKey{}).(auth.Session)
	return sess
}

// authenticated resolves the bearer token before running next. The session
// username is attached to the request logger.
func (s *Server) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.auth.Resolve(r.Context(), bearerToken(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		logger := log.FromContext(r.Context()).With(log.FieldUsername, sess.Username)
		ctx := context.WithValue(r.Context(), log.LoggerContextKey, logger)
		ctx = context.WithValue(ctx, sessionKey{}, sess)
		next(w, r.WithContext(ctx))
	}
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var in auth.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	in.Username = sanitizeInput(in.Username)
	in.Email = sanitizeInput(in.Email)

	u, err := s.auth.Register(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, userResponse{Username: u.Username, Email: u.Email})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	sess, err := s.auth.Login(r.Context(), sanitizeInput(in.Username), in.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		Token:     sess.Token,
		Username:  sess.Username,
		Email:     sess.Email,
		ExpiresAt: sess.ExpiresAt,
	})
}

// handleLogout succeeds for unknown tokens too.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := bearerToken(r); token != "" {
		if err := s.auth.Logout(r.Context(), token); err != nil {
			writeError(w, r, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
