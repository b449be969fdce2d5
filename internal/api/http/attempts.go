package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/examkit/examkit/internal/auth"
	"github.com/examkit/examkit/internal/exam"
)

// POST /attempts/{id}/answer — grade one answer without finalizing anything.
// Safe to call repeatedly during a session.
func CheckAnswerHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ans exam.Answer
		if err := json.NewDecoder(r.Body).Decode(&ans); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		res, err := svc.CheckOne(r.Context(), chi.URLParam(r, "id"), ans)
		if err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// POST /attempts/{id}/submit  { "answers": [ ... ] }
// One shot: a second submit (or the loser of a race) gets 409.
func SubmitAttemptHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Answers []exam.Answer `json:"answers"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		res, err := svc.Submit(r.Context(), chi.URLParam(r, "id"), req.Answers)
		if err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// GET /attempts — the caller's own history, newest first.
func HistoryHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub := auth.SubjectFromContext(r.Context())
		if sub == "" {
			http.Error(w, "missing bearer", http.StatusUnauthorized)
			return
		}
		list, err := svc.History(r.Context(), sub)
		if err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GET /attempts/{id}/review — answer key for a finished attempt, owner or
// admin only, and only when the exam opted in.
func ReviewHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := svc.Review(r.Context(), chi.URLParam(r, "id"), identityFromRequest(r))
		if err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}
