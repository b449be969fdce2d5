package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/examkit/examkit/internal/course"
)

// GET /courses?limit=50&offset=0
func ListCoursesHandler(store course.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntDefault(r.URL.Query().Get("limit"), 50)
		offset := parseIntDefault(r.URL.Query().Get("offset"), 0)
		list, err := store.List(r.Context(), limit, offset)
		if err != nil {
			httpError(w, err)
			return
		}
		if list == nil {
			list = []course.Course{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GET /courses/{id}
func GetCourseHandler(store course.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := store.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

// PUT /courses/{id}  (admin)
func PutCourseHandler(store course.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var c course.Course
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		c.ID = chi.URLParam(r, "id")
		if err := c.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := store.Put(r.Context(), c); err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

// DELETE /courses/{id}  (admin). Refused while exams still reference it.
func DeleteCourseHandler(store course.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			httpError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
