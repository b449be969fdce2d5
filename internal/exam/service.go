package exam

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/examkit/examkit/internal/course"
	"github.com/examkit/examkit/internal/question"
	"github.com/examkit/examkit/internal/shuffle"
)

// ErrInvalid wraps request validation failures so the transport can map them
// to 400 without inspecting message text.
var ErrInvalid = errors.New("invalid request")

const roleAdmin = "admin"

// DocCache is the optional read-through cache in front of exam lookups.
// Found=false on a miss; implementations must treat cache failures as
// misses rather than surfacing them.
type DocCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, val any) error
	Del(ctx context.Context, keys ...string) error
}

// Service builds exam sessions and runs the attempt lifecycle.
type Service struct {
	store     Store
	questions question.Store
	courses   course.Store

	cache DocCache
	rnd   shuffle.Source
	now   func() int64
}

type ServiceOption func(*Service)

// WithCache puts a read-through cache in front of exam lookups.
func WithCache(c DocCache) ServiceOption { return func(s *Service) { s.cache = c } }

// WithRandom replaces the shuffle source. Tests inject a deterministic one.
func WithRandom(src shuffle.Source) ServiceOption { return func(s *Service) { s.rnd = src } }

// WithClock replaces the unix-seconds clock.
func WithClock(now func() int64) ServiceOption { return func(s *Service) { s.now = now } }

func NewService(store Store, questions question.Store, courses course.Store, opts ...ServiceOption) *Service {
	s := &Service{
		store:     store,
		questions: questions,
		courses:   courses,
		rnd:       shuffle.NewSource(),
		now:       func() int64 { return time.Now().Unix() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func examCacheKey(id string) string { return "exam:" + id }

// GetExam reads an exam, through the cache when one is configured.
func (s *Service) GetExam(ctx context.Context, id string) (Exam, error) {
	if s.cache != nil {
		var e Exam
		if found, err := s.cache.Get(ctx, examCacheKey(id), &e); err == nil && found {
			return e, nil
		}
	}
	e, err := s.store.GetExam(ctx, id)
	if err != nil {
		return Exam{}, err
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, examCacheKey(id), e)
	}
	return e, nil
}

func (s *Service) ListExams(ctx context.Context, opts ListOpts) ([]Exam, error) {
	return s.store.ListExams(ctx, opts)
}

// SaveExam validates and upserts an exam definition, then drops any cached
// copy so sessions never start from a stale definition.
func (s *Service) SaveExam(ctx context.Context, e Exam) error {
	if e.ID == "" {
		return fmt.Errorf("%w: exam id is required", ErrInvalid)
	}
	if e.Title == "" {
		return fmt.Errorf("%w: exam title is required", ErrInvalid)
	}
	if e.NumQuestions < 0 || e.TimeLimitMinutes < 0 {
		return fmt.Errorf("%w: negative limits", ErrInvalid)
	}
	if len(e.QuestionIDs) > 0 {
		ok, err := s.questions.AllExist(ctx, e.QuestionIDs)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: unknown question id in list", ErrInvalid)
		}
	}
	if e.CourseID != "" {
		if _, err := s.courses.Get(ctx, e.CourseID); err != nil {
			return fmt.Errorf("%w: unknown course %s", ErrInvalid, e.CourseID)
		}
	}
	if err := s.store.PutExam(ctx, e); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.Del(ctx, examCacheKey(e.ID))
	}
	return nil
}

func (s *Service) DeleteExam(ctx context.Context, id string) error {
	if err := s.store.DeleteExam(ctx, id); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.Del(ctx, examCacheKey(id))
	}
	return nil
}

// Start materializes a session for one exam. Training mode is stateless;
// testing mode persists an attempt. The caller passes user == nil for
// anonymous requests; a paid course in testing mode refuses those with
// ErrLoginRequired before any row is written.
func (s *Service) Start(ctx context.Context, examID string, mode Mode, shuffleFlag bool, u *User) (SessionView, error) {
	switch mode {
	case "":
		mode = ModeTraining
	case ModeTraining, ModeTesting:
	default:
		return SessionView{}, fmt.Errorf("%w: unknown mode %q", ErrInvalid, mode)
	}

	e, err := s.GetExam(ctx, examID)
	if err != nil {
		return SessionView{}, err
	}

	var courseName string
	if e.CourseID != "" {
		c, err := s.courses.Get(ctx, e.CourseID)
		switch {
		case err == nil:
			courseName = c.Name
			if mode == ModeTesting && !c.Free() && u == nil {
				return SessionView{}, ErrLoginRequired
			}
		case errors.Is(err, course.ErrNotFound):
			// An exam can outlive its course through direct DB edits; a
			// dangling reference degrades to "no course" (free) rather than
			// making the exam unstartable.
		default:
			return SessionView{}, err
		}
	}

	effective := e.Random || shuffleFlag
	ids := e.QuestionIDs
	if effective {
		ids = shuffle.Slice(s.rnd, ids)
	}
	if e.NumQuestions > 0 && len(ids) > e.NumQuestions {
		ids = ids[:e.NumQuestions]
	}

	// GetMany is unordered and skips missing ids; re-sequence to the retained
	// order so the session follows the (possibly shuffled) id list.
	fetched, err := s.questions.GetMany(ctx, ids)
	if err != nil {
		return SessionView{}, err
	}
	byID := make(map[string]question.Question, len(fetched))
	for _, q := range fetched {
		byID[q.ID] = q
	}
	snapshot := make([]AttemptQuestion, 0, len(ids))
	for _, id := range ids {
		q, ok := byID[id]
		if !ok {
			continue
		}
		snapshot = append(snapshot, materializeQuestion(s.rnd, q))
	}

	if effective {
		snapshot = shuffle.Slice(s.rnd, snapshot)
		for i := range snapshot {
			reshuffleUnits(s.rnd, &snapshot[i])
		}
	}

	view := SessionView{
		Course:           courseName,
		ExamTitle:        e.Title,
		Mode:             mode,
		TimeLimitMinutes: e.TimeLimitMinutes,
		Questions:        make([]PublicQuestion, 0, len(snapshot)),
	}
	for _, aq := range snapshot {
		view.Questions = append(view.Questions, aq.Public())
	}

	// Attempts exist only for authenticated testing sessions. Anonymous
	// testing on a free exam still runs, but nothing is recorded and the
	// response carries no attempt id.
	if mode == ModeTesting && u != nil {
		a := Attempt{
			ID:               uuid.NewString(),
			ExamID:           e.ID,
			UserID:           u.ID,
			Mode:             mode,
			Questions:        snapshot,
			TimeLimitMinutes: e.TimeLimitMinutes,
			Total:            len(snapshot),
			StartedAt:        s.now(),
			Status:           StatusInProgress,
		}
		if err := s.store.CreateAttempt(ctx, &a); err != nil {
			return SessionView{}, err
		}
		view.AttemptID = a.ID
	}
	return view, nil
}

// AnswerDetail is the per-question outcome inside a submit response. It
// echoes the normalized selection so the client can render a review screen
// without re-deriving what was actually graded.
type AnswerDetail struct {
	QuestionID     string              `json:"questionId"`
	IsCorrect      bool                `json:"isCorrect"`
	CorrectTokens  []string            `json:"correctTokens,omitempty"`
	SelectedTokens []string            `json:"selectedTokens,omitempty"`
	SelectedPairs  []Pair              `json:"selectedPairs,omitempty"`
	SelectedMatrix []CellRef           `json:"selectedMatrix,omitempty"`
	Mapping        map[string][]string `json:"mapping,omitempty"`
	Reason         string              `json:"reason,omitempty"`
}

type SubmitResult struct {
	CorrectCount   int            `json:"correctCount"`
	Total          int            `json:"total"`
	Score10        float64        `json:"score10"`
	SubmittedAt    int64          `json:"submittedAt"`
	ElapsedSeconds int64          `json:"elapsedSeconds"`
	ElapsedMinutes int64          `json:"elapsedMinutes"`
	Details        []AnswerDetail `json:"details"`
}

// Submit grades every supplied answer against the attempt snapshot and
// finalizes the attempt. Exactly one submission can win: the store's
// conditional finalize reports a lost race as ErrAlreadySubmitted. Answers
// naming questions outside the snapshot are recorded incorrect with a
// reason instead of failing the whole call.
func (s *Service) Submit(ctx context.Context, attemptID string, answers []Answer) (SubmitResult, error) {
	a, err := s.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return SubmitResult{}, err
	}
	if a.Status != StatusInProgress {
		return SubmitResult{}, fmt.Errorf("attempt %s: %w", attemptID, ErrAlreadySubmitted)
	}

	byID := make(map[string]AttemptQuestion, len(a.Questions))
	for _, q := range a.Questions {
		byID[q.QuestionID] = q
	}

	details := make([]AnswerDetail, 0, len(answers))
	graded := make(map[string]bool, len(answers))
	score := 0
	for _, ans := range answers {
		q, ok := byID[ans.QuestionID]
		if !ok {
			details = append(details, AnswerDetail{QuestionID: ans.QuestionID, Reason: "not-in-attempt"})
			continue
		}
		// One grade per snapshot question, first answer wins: a repeated
		// question id must never push score past total.
		if graded[ans.QuestionID] {
			details = append(details, AnswerDetail{QuestionID: ans.QuestionID, Reason: "duplicate"})
			continue
		}
		graded[ans.QuestionID] = true
		sub := normalizeAnswer(q, ans)
		res := gradeQuestion(q, sub)
		if res.Correct {
			score++
		}
		details = append(details, AnswerDetail{
			QuestionID:     ans.QuestionID,
			IsCorrect:      res.Correct,
			CorrectTokens:  res.CorrectTokens,
			SelectedTokens: sub.Tokens,
			SelectedPairs:  sub.Pairs,
			SelectedMatrix: sub.Cells,
			Mapping:        sub.Mapping,
		})
	}

	total := len(a.Questions)
	submittedAt := s.now()
	won, err := s.store.FinalizeAttempt(ctx, attemptID, score, total, submittedAt)
	if err != nil {
		return SubmitResult{}, err
	}
	if !won {
		return SubmitResult{}, fmt.Errorf("attempt %s: %w", attemptID, ErrAlreadySubmitted)
	}

	elapsed := submittedAt - a.StartedAt
	if elapsed < 0 {
		elapsed = 0
	}
	return SubmitResult{
		CorrectCount:   score,
		Total:          total,
		Score10:        score10(score, total),
		SubmittedAt:    submittedAt,
		ElapsedSeconds: elapsed,
		ElapsedMinutes: elapsed / 60,
		Details:        details,
	}, nil
}

type CheckResult struct {
	QuestionID    string   `json:"questionId"`
	IsCorrect     bool     `json:"isCorrect"`
	CorrectTokens []string `json:"correctTokens,omitempty"`
}

// CheckOne grades a single answer without mutating the attempt, so a client
// can re-check during the session. It works on finished attempts too.
func (s *Service) CheckOne(ctx context.Context, attemptID string, ans Answer) (CheckResult, error) {
	a, err := s.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return CheckResult{}, err
	}
	for _, q := range a.Questions {
		if q.QuestionID != ans.QuestionID {
			continue
		}
		res := gradeQuestion(q, normalizeAnswer(q, ans))
		return CheckResult{
			QuestionID:    ans.QuestionID,
			IsCorrect:     res.Correct,
			CorrectTokens: res.CorrectTokens,
		}, nil
	}
	return CheckResult{}, fmt.Errorf("question %s: %w", ans.QuestionID, ErrNotFound)
}

// HistoryEntry is one row of a user's attempt history.
type HistoryEntry struct {
	AttemptID   string  `json:"attemptId"`
	ExamTitle   string  `json:"examTitle"`
	Mode        Mode    `json:"mode"`
	Status      string  `json:"status"`
	Score       int     `json:"score"`
	Total       int     `json:"total"`
	Score10     float64 `json:"score10"`
	StartedAt   int64   `json:"startedAt"`
	SubmittedAt *int64  `json:"submittedAt,omitempty"`
}

func (s *Service) History(ctx context.Context, userID string) ([]HistoryEntry, error) {
	rows, err := s.store.ListAttemptsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]HistoryEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, HistoryEntry{
			AttemptID:   r.AttemptID,
			ExamTitle:   r.ExamTitle,
			Mode:        r.Mode,
			Status:      r.Status,
			Score:       r.Score,
			Total:       r.Total,
			Score10:     score10(r.Score, r.Total),
			StartedAt:   r.StartedAt,
			SubmittedAt: r.SubmittedAt,
		})
	}
	return out, nil
}

// ReviewView is the post-submission answer key: the frozen snapshot with
// correctness intact plus the final tally.
type ReviewView struct {
	AttemptID   string            `json:"attemptId"`
	ExamTitle   string            `json:"examTitle"`
	Score       int               `json:"score"`
	Total       int               `json:"total"`
	Score10     float64           `json:"score10"`
	SubmittedAt *int64            `json:"submittedAt,omitempty"`
	Questions   []AttemptQuestion `json:"questions"`
}

// Review releases the answer key for a finished attempt. Only the attempt's
// owner or an admin may look, and only when the exam opted in to showing
// answers after submission.
func (s *Service) Review(ctx context.Context, attemptID string, u *User) (ReviewView, error) {
	if u == nil {
		return ReviewView{}, ErrLoginRequired
	}
	a, err := s.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return ReviewView{}, err
	}
	if a.UserID != u.ID && u.Role != roleAdmin {
		return ReviewView{}, ErrForbidden
	}
	if a.Status != StatusFinished {
		return ReviewView{}, fmt.Errorf("attempt %s: %w", attemptID, ErrNotFinished)
	}
	e, err := s.GetExam(ctx, a.ExamID)
	if err != nil {
		return ReviewView{}, err
	}
	if !e.ShowAnswers && u.Role != roleAdmin {
		return ReviewView{}, ErrForbidden
	}
	return ReviewView{
		AttemptID:   a.ID,
		ExamTitle:   e.Title,
		Score:       a.Score,
		Total:       a.Total,
		Score10:     score10(a.Score, a.Total),
		SubmittedAt: a.SubmittedAt,
		Questions:   a.Questions,
	}, nil
}

// score10 maps a raw tally onto a 0..10 scale, rounded to two decimals.
// An empty attempt scores zero rather than dividing by zero.
func score10(score, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(score)/float64(total)*10*100) / 100
}
