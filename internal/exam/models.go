package exam

import (
	"sort"

	"github.com/examkit/examkit/internal/question"
)

type Mode string

const (
	ModeTraining Mode = "training"
	ModeTesting  Mode = "testing"
)

const (
	StatusInProgress = "in-progress"
	StatusFinished   = "finished"
)

// Exam is the persisted exam definition: an ordered reference list into the
// question bank plus session policy.
type Exam struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Description      string   `json:"description,omitempty"`
	TimeLimitMinutes int      `json:"timeLimitMinutes"`
	NumQuestions     int      `json:"numQuestions"`
	Random           bool     `json:"random"`
	QuestionIDs      []string `json:"questionIds"`
	CourseID         string   `json:"courseId"`
	ShowAnswers      bool     `json:"showAnswersAfterSubmit"`

	CreatedAt int64 `json:"created_at,omitempty"`
}

// Option is one selectable unit inside an attempt snapshot: a choice, an
// image area, a matrix cell or a draggable, depending on the question type.
// It carries the token the client sees plus the server-only origin index and
// correctness flag; the struct is persisted but never serialized to a
// learner before submission (the public view strips it down).
type Option struct {
	Token     string         `json:"token"`
	Text      string         `json:"text,omitempty"`
	Area      *question.Area `json:"area,omitempty"`
	Row       int            `json:"row"`
	Col       int            `json:"col"`
	OrigIndex int            `json:"origIndex"`
	IsCorrect bool           `json:"isCorrect"`
}

// PairUnit is one drop-match pair inside an attempt snapshot.
type PairUnit struct {
	Token     string `json:"token"`
	Left      string `json:"left"`
	Right     string `json:"right"`
	OrigIndex int    `json:"origIndex"`
}

// Raw is the authoritative, unshuffled correctness payload copied from the
// question bank at materialization time. Grading reads only this block and
// the unit tokens, never the live bank entry, so admin edits after a session
// starts cannot change how that session grades.
type Raw struct {
	Options        []question.Option  `json:"options,omitempty"`
	Pairs          []question.Pair    `json:"pairs,omitempty"`
	Areas          []question.Area    `json:"areas,omitempty"`
	Matrix         *question.Matrix   `json:"matrix,omitempty"`
	Dropzones      []string           `json:"dropzones,omitempty"`
	CorrectMapping []question.Mapping `json:"correctMapping,omitempty"`
}

// AttemptQuestion is the frozen per-question snapshot inside an attempt.
type AttemptQuestion struct {
	QuestionID string        `json:"questionId"`
	Type       question.Type `json:"type"`
	Content    string        `json:"content"`
	ImageURL   string        `json:"imageUrl,omitempty"`
	Options    []Option      `json:"options,omitempty"`
	Pairs      []PairUnit    `json:"pairs,omitempty"`
	Dropzones  []string      `json:"dropzones,omitempty"`
	Raw        Raw           `json:"raw"`
}

// Attempt is one user's one run through a materialized exam instance.
// Status moves in-progress -> finished exactly once.
type Attempt struct {
	ID               string            `json:"id"`
	ExamID           string            `json:"exam_id"`
	UserID           string            `json:"user_id"`
	Mode             Mode              `json:"mode"`
	Questions        []AttemptQuestion `json:"questions"`
	TimeLimitMinutes int               `json:"time_limit_minutes"`
	Score            int               `json:"score"`
	Total            int               `json:"total"`
	StartedAt        int64             `json:"started_at"`
	SubmittedAt      *int64            `json:"submitted_at,omitempty"`
	Status           string            `json:"status"`
}

// User is the identity the surrounding application supplies; nil means
// anonymous. Role "admin" authorizes exam/question mutation.
type User struct {
	ID   string
	Role string
}

// --- client-visible shapes ---

// CellRef addresses one matrix cell.
type CellRef struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// PublicArea is an image-area rectangle with the correctness flag stripped.
type PublicArea struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// PublicOption is the client view of one unit: token plus display content
// only. No correctness, no origin index.
type PublicOption struct {
	Token string      `json:"token"`
	Text  string      `json:"text,omitempty"`
	Area  *PublicArea `json:"area,omitempty"`
	Cell  *CellRef    `json:"cell,omitempty"`
}

// PublicPair shows the left side of a drop-match pair; the candidate right
// values are published separately (and sorted) so the pairing is not leaked.
type PublicPair struct {
	Token string `json:"token"`
	Left  string `json:"left"`
}

// PublicQuestion is the ephemeral client view derived from an
// AttemptQuestion. It is never persisted.
type PublicQuestion struct {
	QuestionID   string         `json:"questionId"`
	Type         question.Type  `json:"type"`
	Content      string         `json:"content"`
	ImageURL     string         `json:"imageUrl,omitempty"`
	Options      []PublicOption `json:"options,omitempty"`
	Pairs        []PublicPair   `json:"pairs,omitempty"`
	RightChoices []string       `json:"rightChoices,omitempty"`
	Rows         []string       `json:"rows,omitempty"`
	Columns      []string       `json:"columns,omitempty"`
	Dropzones    []string       `json:"dropzones,omitempty"`
}

// Public derives the client view, stripping everything the learner must not
// see before submitting.
func (aq AttemptQuestion) Public() PublicQuestion {
	pq := PublicQuestion{
		QuestionID: aq.QuestionID,
		Type:       aq.Type,
		Content:    aq.Content,
		ImageURL:   aq.ImageURL,
	}
	switch aq.Type {
	case question.TypeDropMatch:
		pq.Pairs = make([]PublicPair, 0, len(aq.Pairs))
		rights := make([]string, 0, len(aq.Pairs))
		for _, p := range aq.Pairs {
			pq.Pairs = append(pq.Pairs, PublicPair{Token: p.Token, Left: p.Left})
			rights = append(rights, p.Right)
		}
		sort.Strings(rights)
		pq.RightChoices = rights
	case question.TypeImageArea:
		pq.Options = make([]PublicOption, 0, len(aq.Options))
		for _, o := range aq.Options {
			po := PublicOption{Token: o.Token}
			if o.Area != nil {
				po.Area = &PublicArea{X: o.Area.X, Y: o.Area.Y, Width: o.Area.Width, Height: o.Area.Height}
			}
			pq.Options = append(pq.Options, po)
		}
	case question.TypeMatrix:
		if aq.Raw.Matrix != nil {
			pq.Rows = append([]string(nil), aq.Raw.Matrix.Rows...)
			pq.Columns = append([]string(nil), aq.Raw.Matrix.Columns...)
		}
		pq.Options = make([]PublicOption, 0, len(aq.Options))
		for _, o := range aq.Options {
			pq.Options = append(pq.Options, PublicOption{Token: o.Token, Cell: &CellRef{Row: o.Row, Col: o.Col}})
		}
	case question.TypeDragDrop:
		pq.Dropzones = append([]string(nil), aq.Dropzones...)
		pq.Options = make([]PublicOption, 0, len(aq.Options))
		for _, o := range aq.Options {
			pq.Options = append(pq.Options, PublicOption{Token: o.Token, Text: o.Text})
		}
	default:
		pq.Options = make([]PublicOption, 0, len(aq.Options))
		for _, o := range aq.Options {
			pq.Options = append(pq.Options, PublicOption{Token: o.Token, Text: o.Text})
		}
	}
	return pq
}

// SessionView is the response to a session start. AttemptID is empty in
// training mode.
type SessionView struct {
	AttemptID        string           `json:"attemptId,omitempty"`
	Course           string           `json:"course,omitempty"`
	ExamTitle        string           `json:"examTitle"`
	Mode             Mode             `json:"mode"`
	TimeLimitMinutes int              `json:"timeLimitMinutes"`
	Questions        []PublicQuestion `json:"questions"`
}
