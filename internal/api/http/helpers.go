package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/examkit/examkit/internal/auth"
	"github.com/examkit/examkit/internal/course"
	"github.com/examkit/examkit/internal/exam"
	"github.com/examkit/examkit/internal/question"
	"github.com/examkit/examkit/internal/rbac"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// httpError maps the domain sentinels onto status codes so every handler
// reports failures the same way.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, exam.ErrInvalid):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, exam.ErrLoginRequired):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, exam.ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, exam.ErrNotFound),
		errors.Is(err, question.ErrNotFound),
		errors.Is(err, course.ErrNotFound),
		errors.Is(err, auth.ErrUserNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, exam.ErrAlreadySubmitted),
		errors.Is(err, exam.ErrNotFinished),
		errors.Is(err, exam.ErrInUse),
		errors.Is(err, question.ErrInUse),
		errors.Is(err, course.ErrInUse):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// identityFromRequest builds the session identity from whatever the auth
// middleware put into the context. Nil means anonymous.
func identityFromRequest(r *http.Request) *exam.User {
	sub := auth.SubjectFromContext(r.Context())
	if sub == "" {
		return nil
	}
	return &exam.User{ID: sub, Role: rbac.RoleFromContext(r.Context())}
}
