package exam

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// memoryStore is a map-backed Store for tests and single-node demos.
type memoryStore struct {
	mu       sync.RWMutex
	exams    map[string]Exam
	attempts map[string]Attempt
	titles   map[string]string // exam id -> title, survives exam deletion for history rows
}

func NewMemoryStore() Store {
	return &memoryStore{
		exams:    make(map[string]Exam),
		attempts: make(map[string]Attempt),
		titles:   make(map[string]string),
	}
}

func (m *memoryStore) PutExam(_ context.Context, e Exam) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.CreatedAt == 0 {
		e.CreatedAt = time.Now().Unix()
	}
	m.exams[e.ID] = e
	m.titles[e.ID] = e.Title
	return nil
}

func (m *memoryStore) GetExam(_ context.Context, id string) (Exam, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.exams[id]
	if !ok {
		return Exam{}, fmt.Errorf("exam %s: %w", id, ErrNotFound)
	}
	return e, nil
}

func (m *memoryStore) ListExams(_ context.Context, opts ListOpts) ([]Exam, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Exam
	for _, e := range m.exams {
		if opts.CourseID != "" && e.CourseID != opts.CourseID {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return nil, nil
		}
		out = out[opts.Offset:]
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryStore) DeleteExam(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.exams[id]
	if !ok {
		return fmt.Errorf("exam %s: %w", id, ErrNotFound)
	}
	if len(e.QuestionIDs) > 0 {
		return fmt.Errorf("exam %s: %w", id, ErrInUse)
	}
	for _, a := range m.attempts {
		if a.ExamID == id {
			return fmt.Errorf("exam %s: %w", id, ErrInUse)
		}
	}
	delete(m.exams, id)
	return nil
}

func (m *memoryStore) ExamHasAttempts(_ context.Context, examID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.attempts {
		if a.ExamID == examID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryStore) CreateAttempt(_ context.Context, a *Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts[a.ID] = *a
	return nil
}

func (m *memoryStore) GetAttempt(_ context.Context, id string) (Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.attempts[id]
	if !ok {
		return Attempt{}, fmt.Errorf("attempt %s: %w", id, ErrNotFound)
	}
	return a, nil
}

func (m *memoryStore) FinalizeAttempt(_ context.Context, id string, score, total int, submittedAt int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[id]
	if !ok {
		return false, fmt.Errorf("attempt %s: %w", id, ErrNotFound)
	}
	if a.Status != StatusInProgress {
		return false, nil
	}
	a.Status = StatusFinished
	a.Score = score
	a.Total = total
	a.SubmittedAt = &submittedAt
	m.attempts[id] = a
	return true, nil
}

func (m *memoryStore) ListAttemptsByUser(_ context.Context, userID string) ([]HistoryRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []HistoryRow
	for _, a := range m.attempts {
		if a.UserID != userID {
			continue
		}
		out = append(out, HistoryRow{
			AttemptID:   a.ID,
			ExamTitle:   m.titles[a.ExamID],
			Mode:        a.Mode,
			Status:      a.Status,
			Score:       a.Score,
			Total:       a.Total,
			StartedAt:   a.StartedAt,
			SubmittedAt: a.SubmittedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt > out[j].StartedAt })
	return out, nil
}
