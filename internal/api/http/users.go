package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/examkit/examkit/internal/auth"
)

// GET /users/me
func MeHandler(users *auth.UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub := auth.SubjectFromContext(r.Context())
		if sub == "" {
			http.Error(w, "missing bearer", http.StatusUnauthorized)
			return
		}
		u, err := users.Get(r.Context(), sub)
		if err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}

// POST /users/me/password  { "old_password": "...", "new_password": "..." }
func ChangePasswordHandler(users *auth.UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub := auth.SubjectFromContext(r.Context())
		if sub == "" {
			http.Error(w, "missing bearer", http.StatusUnauthorized)
			return
		}
		var req struct {
			OldPassword string `json:"old_password"`
			NewPassword string `json:"new_password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := users.ChangePassword(r.Context(), sub, req.OldPassword, req.NewPassword); err != nil {
			if errors.Is(err, auth.ErrBadCredentials) {
				http.Error(w, "invalid credentials", http.StatusUnauthorized)
				return
			}
			httpError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
