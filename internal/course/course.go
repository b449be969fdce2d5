// Package course holds the courses exams belong to. The only part of a
// course the exam core cares about is its price: price 0 means free, and
// paid courses gate testing-mode sessions behind a login.
package course

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound = errors.New("course not found")
	ErrInUse    = errors.New("course still has exams")
)

type Course struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Price            int64  `json:"price"`
	DurationDays     int    `json:"durationDays"`
	IsTrialAvailable bool   `json:"isTrialAvailable"`
	Active           bool   `json:"active"`
	CreatedAt        int64  `json:"created_at,omitempty"`
}

func (c Course) Free() bool { return c.Price <= 0 }

func (c Course) Validate() error {
	if c.Name == "" {
		return errors.New("name is required")
	}
	if c.Price < 0 {
		return errors.New("price must not be negative")
	}
	return nil
}

type Store interface {
	Put(ctx context.Context, c Course) error
	Get(ctx context.Context, id string) (Course, error)
	List(ctx context.Context, limit, offset int) ([]Course, error)
	// Delete refuses with ErrInUse while any exam references the course.
	Delete(ctx context.Context, id string) error
}

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Put(ctx context.Context, c Course) error {
	if c.CreatedAt == 0 {
		c.CreatedAt = time.Now().Unix()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO courses (id,name,price,duration_days,trial_available,active,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, price=EXCLUDED.price,
			duration_days=EXCLUDED.duration_days, trial_available=EXCLUDED.trial_available, active=EXCLUDED.active`,
		c.ID, c.Name, c.Price, c.DurationDays, c.IsTrialAvailable, c.Active, c.CreatedAt)
	return err
}

func (s *SQLStore) Get(ctx context.Context, id string) (Course, error) {
	var c Course
	err := s.db.QueryRowContext(ctx,
		`SELECT id,name,price,duration_days,trial_available,active,created_at FROM courses WHERE id=$1`, id).
		Scan(&c.ID, &c.Name, &c.Price, &c.DurationDays, &c.IsTrialAvailable, &c.Active, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Course{}, fmt.Errorf("%s: %w", id, ErrNotFound)
		}
		return Course{}, err
	}
	return c, nil
}

func (s *SQLStore) List(ctx context.Context, limit, offset int) ([]Course, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,name,price,duration_days,trial_available,active,created_at
		   FROM courses ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Course
	for rows.Next() {
		var c Course
		if err := rows.Scan(&c.ID, &c.Name, &c.Price, &c.DurationDays, &c.IsTrialAvailable, &c.Active, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM exams WHERE course_id=$1 LIMIT 1`, id).Scan(&one)
	switch {
	case err == nil:
		return fmt.Errorf("%s: %w", id, ErrInUse)
	case !errors.Is(err, sql.ErrNoRows):
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM courses WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return nil
}
