package question

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound = errors.New("question not found")
	ErrInUse    = errors.New("question is referenced by an exam")
)

type Store interface {
	Put(ctx context.Context, q Question) error
	Get(ctx context.Context, id string) (Question, error)
	// GetMany returns the questions it can find, in no particular order;
	// unknown ids are silently skipped.
	GetMany(ctx context.Context, ids []string) ([]Question, error)
	List(ctx context.Context, limit, offset int) ([]Question, error)
	// Delete refuses with ErrInUse while any exam references the question.
	Delete(ctx context.Context, id string) error
	// AllExist reports whether every id resolves to a stored question.
	AllExist(ctx context.Context, ids []string) (bool, error)
}

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Put(ctx context.Context, q Question) error {
	now := time.Now().Unix()
	if q.CreatedAt == 0 {
		q.CreatedAt = now
	}
	q.UpdatedAt = now
	doc, err := json.Marshal(q)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO questions (id,qtype,doc_json,created_at,updated_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE SET qtype=EXCLUDED.qtype, doc_json=EXCLUDED.doc_json, updated_at=EXCLUDED.updated_at`,
		q.ID, string(q.Type), string(doc), q.CreatedAt, q.UpdatedAt)
	return err
}

func (s *SQLStore) Get(ctx context.Context, id string) (Question, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT doc_json FROM questions WHERE id=$1`, id).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Question{}, fmt.Errorf("%s: %w", id, ErrNotFound)
		}
		return Question{}, err
	}
	var q Question
	if err := json.Unmarshal([]byte(doc), &q); err != nil {
		return Question{}, err
	}
	return q, nil
}

func (s *SQLStore) GetMany(ctx context.Context, ids []string) ([]Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	ph := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		ph[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT doc_json FROM questions WHERE id IN (`+strings.Join(ph, ",")+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Question
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var q Question
		if err := json.Unmarshal([]byte(doc), &q); err != nil {
			continue // a corrupt document must not take down the whole fetch
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *SQLStore) List(ctx context.Context, limit, offset int) ([]Question, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT doc_json FROM questions ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Question
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var q Question
		if err := json.Unmarshal([]byte(doc), &q); err != nil {
			continue
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	// Exams keep their question references as a JSON id array; ids are UUIDs,
	// so a quoted substring match is an exact reference test.
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM exams WHERE question_ids_json LIKE '%"' || $1 || '"%' LIMIT 1`, id).Scan(&one)
	switch {
	case err == nil:
		return fmt.Errorf("%s: %w", id, ErrInUse)
	case !errors.Is(err, sql.ErrNoRows):
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLStore) AllExist(ctx context.Context, ids []string) (bool, error) {
	seen := make(map[string]struct{}, len(ids))
	uniq := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		uniq = append(uniq, id)
	}
	ids = uniq
	if len(ids) == 0 {
		return true, nil
	}
	ph := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		ph[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM questions WHERE id IN (`+strings.Join(ph, ",")+`)`, args...).Scan(&n)
	if err != nil {
		return false, err
	}
	return n == len(ids), nil
}
