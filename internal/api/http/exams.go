package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/examkit/examkit/internal/course"
	"github.com/examkit/examkit/internal/exam"
)

// GET /exams?course_id=...&limit=50&offset=0
func ListExamsHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListExams(r.Context(), exam.ListOpts{
			CourseID: r.URL.Query().Get("course_id"),
			Limit:    parseIntDefault(r.URL.Query().Get("limit"), 50),
			Offset:   parseIntDefault(r.URL.Query().Get("offset"), 0),
		})
		if err != nil {
			httpError(w, err)
			return
		}
		if list == nil {
			list = []exam.Exam{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GET /exams/free — exams anyone can sit: no course, or a free course.
func ListFreeExamsHandler(svc *exam.Service, courses course.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListExams(r.Context(), exam.ListOpts{
			Limit:  parseIntDefault(r.URL.Query().Get("limit"), 50),
			Offset: parseIntDefault(r.URL.Query().Get("offset"), 0),
		})
		if err != nil {
			httpError(w, err)
			return
		}
		free := make([]exam.Exam, 0, len(list))
		for _, e := range list {
			if e.CourseID == "" {
				free = append(free, e)
				continue
			}
			c, err := courses.Get(r.Context(), e.CourseID)
			if err == nil && c.Free() {
				free = append(free, e)
			}
		}
		writeJSON(w, http.StatusOK, free)
	}
}

// GET /exams/{id}
func GetExamHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := svc.GetExam(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}

// PUT /exams/{id}  (admin)
func PutExamHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var e exam.Exam
		if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		e.ID = chi.URLParam(r, "id")
		if err := svc.SaveExam(r.Context(), e); err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}

// DELETE /exams/{id}  (admin). Refused while questions or attempts remain.
func DeleteExamHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeleteExam(r.Context(), chi.URLParam(r, "id")); err != nil {
			httpError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// POST /exams/{id}/start?mode=training|testing&shuffle=1
// The auth token is optional: anonymous callers can train on anything and
// test on free courses; a paid course in testing mode demands a login.
func StartExamHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mode := exam.Mode(r.URL.Query().Get("mode"))
		shuffleFlag := r.URL.Query().Get("shuffle") == "1" || r.URL.Query().Get("shuffle") == "true"
		view, err := svc.Start(r.Context(), chi.URLParam(r, "id"), mode, shuffleFlag, identityFromRequest(r))
		if err != nil {
			httpError(w, err)
			return
		}
		status := http.StatusOK
		if view.AttemptID != "" {
			status = http.StatusCreated
		}
		writeJSON(w, status, view)
	}
}
