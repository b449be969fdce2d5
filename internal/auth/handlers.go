package auth

import (
	"encoding/json"
	"errors"
	"net/http"
)

// POST /auth/login  { "username": "...", "password": "..." }
func LoginHandler(s *Service, users *UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		u, err := users.Authenticate(r.Context(), req.Username, req.Password)
		if err != nil {
			if errors.Is(err, ErrBadCredentials) {
				http.Error(w, "invalid credentials", http.StatusUnauthorized)
				return
			}
			http.Error(w, "login failed", http.StatusInternalServerError)
			return
		}
		tok, err := s.IssueJWT(u.ID, u.Role)
		if err != nil {
			http.Error(w, "issue token", http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"access_token": tok,
			"role":         u.Role,
		})
	}
}

// POST /auth/register  { "username": "...", "password": "..." }
// Self-service registration always creates a student account.
func RegisterHandler(s *Service, users *UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		u, err := users.Create(r.Context(), req.Username, req.Password, RoleStudent)
		if err != nil {
			switch {
			case errors.Is(err, ErrUserExists):
				http.Error(w, "username already taken", http.StatusConflict)
			case errors.Is(err, ErrBadCredentials):
				http.Error(w, "username and password are required", http.StatusBadRequest)
			default:
				http.Error(w, "register failed", http.StatusInternalServerError)
			}
			return
		}
		tok, err := s.IssueJWT(u.ID, u.Role)
		if err != nil {
			http.Error(w, "issue token", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"access_token": tok,
			"role":         u.Role,
		})
	}
}
