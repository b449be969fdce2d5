package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/examkit/examkit/internal/question"
)

// PUT /questions/{id}  (admin)
func PutQuestionHandler(store question.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var q question.Question
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		q.ID = chi.URLParam(r, "id")
		if err := q.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := store.Put(r.Context(), q); err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, q)
	}
}

// GET /questions/{id}  (admin: the document includes correct answers)
func GetQuestionHandler(store question.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := store.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, q)
	}
}

// GET /questions?limit=50&offset=0  (admin)
func ListQuestionsHandler(store question.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntDefault(r.URL.Query().Get("limit"), 50)
		offset := parseIntDefault(r.URL.Query().Get("offset"), 0)
		list, err := store.List(r.Context(), limit, offset)
		if err != nil {
			httpError(w, err)
			return
		}
		if list == nil {
			list = []question.Question{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// DELETE /questions/{id}  (admin). Refused while an exam references it.
func DeleteQuestionHandler(store question.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			httpError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
