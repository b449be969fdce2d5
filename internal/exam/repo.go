package exam

import (
	"context"
	"errors"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadySubmitted = errors.New("attempt already submitted")
	ErrNotFinished      = errors.New("attempt not finished")
	ErrLoginRequired    = errors.New("login required for paid course testing mode")
	ErrForbidden        = errors.New("forbidden")
	ErrInUse            = errors.New("exam still has questions or attempts")
)

type ListOpts struct {
	CourseID string
	Limit    int
	Offset   int
}

// HistoryRow is one attempt in a user's history, joined with its exam title.
type HistoryRow struct {
	AttemptID   string
	ExamTitle   string
	Mode        Mode
	Status      string
	Score       int
	Total       int
	StartedAt   int64
	SubmittedAt *int64
}

type Store interface {
	PutExam(ctx context.Context, e Exam) error
	GetExam(ctx context.Context, id string) (Exam, error)
	ListExams(ctx context.Context, opts ListOpts) ([]Exam, error)
	// DeleteExam refuses with ErrInUse while the exam still references
	// questions or has recorded attempts.
	DeleteExam(ctx context.Context, id string) error
	ExamHasAttempts(ctx context.Context, examID string) (bool, error)

	CreateAttempt(ctx context.Context, a *Attempt) error
	GetAttempt(ctx context.Context, id string) (Attempt, error)
	// FinalizeAttempt transitions in-progress -> finished, conditionally on
	// the current status so two racing submissions cannot both win. It
	// reports false when the attempt was already finished.
	FinalizeAttempt(ctx context.Context, id string, score, total int, submittedAt int64) (bool, error)
	ListAttemptsByUser(ctx context.Context, userID string) ([]HistoryRow, error)
}
