package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	api "github.com/examkit/examkit/internal/api/http"
	"github.com/examkit/examkit/internal/auth"
	"github.com/examkit/examkit/internal/config"
	"github.com/examkit/examkit/internal/course"
	"github.com/examkit/examkit/internal/db"
	"github.com/examkit/examkit/internal/exam"
	"github.com/examkit/examkit/internal/question"
	"github.com/examkit/examkit/internal/rbac"
	"github.com/examkit/examkit/pkg/cache"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	questions := question.NewSQLStore(dbh)
	courses := course.NewSQLStore(dbh)
	examStore := exam.NewSQLStore(dbh)
	users := auth.NewUserStore(dbh)

	if err := users.EnsureAdmin(ctx, cfg.AdminUser, cfg.AdminPassHash); err != nil {
		log.Fatalf("seed admin: %v", err)
	}

	// --- Exam service, optionally with the redis exam cache ---
	var opts []exam.ServiceOption
	if cfg.RedisAddr != "" {
		c, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL)
		if err != nil {
			log.Fatalf("redis connect: %v", err)
		}
		defer c.Close()
		opts = append(opts, exam.WithCache(c))
	}
	svc := exam.NewService(examStore, questions, courses, opts...)

	// --- Auth ---
	authSvc := auth.NewService(cfg.AuthHMACSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc, users))
	r.Post("/auth/register", auth.RegisterHandler(authSvc, users))

	// Public catalog
	r.Get("/courses", api.ListCoursesHandler(courses))
	r.Get("/courses/{id}", api.GetCourseHandler(courses))
	r.Get("/exams", api.ListExamsHandler(svc))
	r.Get("/exams/free", api.ListFreeExamsHandler(svc, courses))
	r.Get("/exams/{id}", api.GetExamHandler(svc))

	// Session start takes an optional token: anonymous training is allowed,
	// and the paywall decision needs the identity when one is present.
	r.With(auth.OptionalJWT(authSvc)).
		Post("/exams/{id}/start", api.StartExamHandler(svc))

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		// Student flow
		pr.With(rbac.Require("attempt:answer")).
			Post("/attempts/{id}/answer", api.CheckAnswerHandler(svc))
		pr.With(rbac.Require("attempt:submit")).
			Post("/attempts/{id}/submit", api.SubmitAttemptHandler(svc))
		pr.With(rbac.Require("attempt:view-own")).
			Get("/attempts", api.HistoryHandler(svc))
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).
			Get("/attempts/{id}/review", api.ReviewHandler(svc))

		// Account
		pr.Get("/users/me", api.MeHandler(users))
		pr.With(rbac.Require("user:change_password")).
			Post("/users/me/password", api.ChangePasswordHandler(users))

		// Admin: content authoring
		pr.With(rbac.Require("question:write")).
			Put("/questions/{id}", api.PutQuestionHandler(questions))
		pr.With(rbac.Require("question:view")).
			Get("/questions", api.ListQuestionsHandler(questions))
		pr.With(rbac.Require("question:view")).
			Get("/questions/{id}", api.GetQuestionHandler(questions))
		pr.With(rbac.Require("question:write")).
			Delete("/questions/{id}", api.DeleteQuestionHandler(questions))

		pr.With(rbac.Require("exam:write")).
			Put("/exams/{id}", api.PutExamHandler(svc))
		pr.With(rbac.Require("exam:write")).
			Delete("/exams/{id}", api.DeleteExamHandler(svc))

		pr.With(rbac.Require("course:write")).
			Put("/courses/{id}", api.PutCourseHandler(courses))
		pr.With(rbac.Require("course:write")).
			Delete("/courses/{id}", api.DeleteCourseHandler(courses))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := dbh.PingContext(r.Context()); err != nil {
			http.Error(w, "db unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(200)
	})

	log.Printf("listening on %s (db=%s)", cfg.HTTPAddr, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
