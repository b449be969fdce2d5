// Package question holds the authoring-side question bank: the admin-edited
// documents that carry correctness flags. Exam materialization copies these
// into attempt snapshots; nothing here is ever sent to a learner directly.
package question

import (
	"errors"
	"fmt"
)

type Type string

const (
	TypeSingle    Type = "single"
	TypeMulti     Type = "multi"
	TypeDropMatch Type = "drop-match"
	TypeImageArea Type = "image-area"
	TypeMatrix    Type = "matrix"
	TypeDragDrop  Type = "drag-drop"
)

func (t Type) Valid() bool {
	switch t {
	case TypeSingle, TypeMulti, TypeDropMatch, TypeImageArea, TypeMatrix, TypeDragDrop:
		return true
	}
	return false
}

// Option is one selectable choice for single/multi questions.
type Option struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

// Pair is one drop-match row; Right is the correct partner of Left.
type Pair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// Area is a percentage-based rectangle on the question image.
type Area struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	IsCorrect bool    `json:"isCorrect"`
}

// Matrix is a yes/no grid; Correct is row-major.
type Matrix struct {
	Rows    []string `json:"rows"`
	Columns []string `json:"columns"`
	Correct [][]bool `json:"correct"`
}

// Mapping assigns one draggable to one dropzone. Many-to-one and
// many-to-many assignments are allowed.
type Mapping struct {
	Draggable string `json:"draggable"`
	Dropzone  string `json:"dropzone"`
}

// Question is the persisted authoring document. Only the fields for its Type
// are populated; the rest stay empty.
type Question struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	Type    Type   `json:"type"`

	// single / multi
	Options []Option `json:"options,omitempty"`

	// drop-match
	Pairs []Pair `json:"pairs,omitempty"`

	// image-area
	ImageURL string `json:"imageUrl,omitempty"`
	Areas    []Area `json:"areas,omitempty"`

	// matrix
	Matrix *Matrix `json:"matrix,omitempty"`

	// drag-drop
	Draggables     []string  `json:"draggables,omitempty"`
	Dropzones      []string  `json:"dropzones,omitempty"`
	CorrectMapping []Mapping `json:"correctMapping,omitempty"`

	CreatedAt int64 `json:"created_at,omitempty"`
	UpdatedAt int64 `json:"updated_at,omitempty"`
}

func (q Question) Validate() error {
	if q.Content == "" {
		return errors.New("content is required")
	}
	if !q.Type.Valid() {
		return fmt.Errorf("unknown question type %q", q.Type)
	}
	return nil
}
