package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Eduard289/cinematrix-cloud/services/sessions"
)

type sessionService interface {
	Login(password string) (string, error)
	Validate(token string) error
	Logout(token string)
}

var _ sessionService = (*sessions.Service)(nil)

type AuthHandler struct {
	Sessions sessionService
}

func NewAuthHandler(service sessionService) *AuthHandler {
	return &AuthHandler{Sessions: service}
}

// SessionToken extracts the session token from a request. Both the
// Authorization bearer form and the X-Session-Token header are accepted.
func SessionToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return strings.TrimSpace(r.Header.Get("X-Session-Token"))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	token, err := h.Sessions.Login(payload.Password)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, sessions.ErrInvalidPassword) {
			status = http.StatusUnauthorized
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"token": token})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := SessionToken(r)
	if token != "" {
		h.Sessions.Logout(token)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.Validate(SessionToken(r)); err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"authenticated": true})
}
