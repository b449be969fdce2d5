package exam

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SQLStore persists exams and attempts through database/sql. The attempt
// snapshot and the exam's question id list are stored as JSON document
// columns; both drivers (pgx, modernc sqlite) accept the $n placeholders.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) PutExam(ctx context.Context, e Exam) error {
	if e.CreatedAt == 0 {
		e.CreatedAt = time.Now().Unix()
	}
	ids, err := json.Marshal(e.QuestionIDs)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO exams
		(id,title,description,time_limit_minutes,num_questions,random_order,question_ids_json,course_id,show_answers,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, description=EXCLUDED.description,
			time_limit_minutes=EXCLUDED.time_limit_minutes, num_questions=EXCLUDED.num_questions,
			random_order=EXCLUDED.random_order, question_ids_json=EXCLUDED.question_ids_json,
			course_id=EXCLUDED.course_id, show_answers=EXCLUDED.show_answers`,
		e.ID, e.Title, e.Description, e.TimeLimitMinutes, e.NumQuestions, e.Random,
		string(ids), e.CourseID, e.ShowAnswers, e.CreatedAt)
	return err
}

func (s *SQLStore) GetExam(ctx context.Context, id string) (Exam, error) {
	var e Exam
	var ids string
	err := s.db.QueryRowContext(ctx, `SELECT id,title,description,time_limit_minutes,num_questions,
			random_order,question_ids_json,course_id,show_answers,created_at
		FROM exams WHERE id=$1`, id).
		Scan(&e.ID, &e.Title, &e.Description, &e.TimeLimitMinutes, &e.NumQuestions,
			&e.Random, &ids, &e.CourseID, &e.ShowAnswers, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Exam{}, fmt.Errorf("exam %s: %w", id, ErrNotFound)
		}
		return Exam{}, err
	}
	if err := json.Unmarshal([]byte(ids), &e.QuestionIDs); err != nil {
		e.QuestionIDs = nil
	}
	return e, nil
}

func (s *SQLStore) ListExams(ctx context.Context, opts ListOpts) ([]Exam, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	var (
		rows *sql.Rows
		err  error
	)
	if opts.CourseID != "" {
		rows, err = s.db.QueryContext(ctx, `SELECT id,title,description,time_limit_minutes,num_questions,
				random_order,question_ids_json,course_id,show_answers,created_at
			FROM exams WHERE course_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
			opts.CourseID, limit, opts.Offset)
	} else {
		rows, err = s.db.QueryContext(ctx, `SELECT id,title,description,time_limit_minutes,num_questions,
				random_order,question_ids_json,course_id,show_answers,created_at
			FROM exams ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
			limit, opts.Offset)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Exam
	for rows.Next() {
		var e Exam
		var ids string
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.TimeLimitMinutes, &e.NumQuestions,
			&e.Random, &ids, &e.CourseID, &e.ShowAnswers, &e.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(ids), &e.QuestionIDs); err != nil {
			e.QuestionIDs = nil
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLStore) DeleteExam(ctx context.Context, id string) error {
	e, err := s.GetExam(ctx, id)
	if err != nil {
		return err
	}
	if len(e.QuestionIDs) > 0 {
		return fmt.Errorf("exam %s: %w", id, ErrInUse)
	}
	has, err := s.ExamHasAttempts(ctx, id)
	if err != nil {
		return err
	}
	if has {
		return fmt.Errorf("exam %s: %w", id, ErrInUse)
	}
	_, err = s.db.ExecContext(ctx, `DELETE FROM exams WHERE id=$1`, id)
	return err
}

func (s *SQLStore) ExamHasAttempts(ctx context.Context, examID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM attempts WHERE exam_id=$1 LIMIT 1`, examID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *SQLStore) CreateAttempt(ctx context.Context, a *Attempt) error {
	doc, err := json.Marshal(a.Questions)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO attempts
		(id,exam_id,user_id,mode,questions_json,time_limit_minutes,score,total,started_at,status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		a.ID, a.ExamID, a.UserID, string(a.Mode), string(doc),
		a.TimeLimitMinutes, a.Score, a.Total, a.StartedAt, a.Status)
	return err
}

func (s *SQLStore) GetAttempt(ctx context.Context, id string) (Attempt, error) {
	var a Attempt
	var doc, mode string
	var submittedAt sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT id,exam_id,user_id,mode,questions_json,
			time_limit_minutes,score,total,started_at,submitted_at,status
		FROM attempts WHERE id=$1`, id).
		Scan(&a.ID, &a.ExamID, &a.UserID, &mode, &doc,
			&a.TimeLimitMinutes, &a.Score, &a.Total, &a.StartedAt, &submittedAt, &a.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attempt{}, fmt.Errorf("attempt %s: %w", id, ErrNotFound)
		}
		return Attempt{}, err
	}
	a.Mode = Mode(mode)
	if submittedAt.Valid {
		v := submittedAt.Int64
		a.SubmittedAt = &v
	}
	if err := json.Unmarshal([]byte(doc), &a.Questions); err != nil {
		a.Questions = nil
	}
	return a, nil
}

func (s *SQLStore) FinalizeAttempt(ctx context.Context, id string, score, total int, submittedAt int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE attempts
		SET status=$1, score=$2, total=$3, submitted_at=$4
		WHERE id=$5 AND status=$6`,
		StatusFinished, score, total, submittedAt, id, StatusInProgress)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLStore) ListAttemptsByUser(ctx context.Context, userID string) ([]HistoryRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT a.id, COALESCE(e.title,''), a.mode, a.status,
			a.score, a.total, a.started_at, a.submitted_at
		FROM attempts a LEFT JOIN exams e ON e.id = a.exam_id
		WHERE a.user_id=$1 ORDER BY a.started_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryRow
	for rows.Next() {
		var h HistoryRow
		var mode string
		var submittedAt sql.NullInt64
		if err := rows.Scan(&h.AttemptID, &h.ExamTitle, &mode, &h.Status,
			&h.Score, &h.Total, &h.StartedAt, &submittedAt); err != nil {
			return nil, err
		}
		h.Mode = Mode(mode)
		if submittedAt.Valid {
			v := submittedAt.Int64
			h.SubmittedAt = &v
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
