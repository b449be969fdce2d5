package exam

import (
	"github.com/examkit/examkit/internal/question"
	"github.com/examkit/examkit/internal/shuffle"
)

// materializeQuestion turns one question bank entry into an attempt snapshot:
// every selectable unit gets a fresh token and the unit order is shuffled,
// except matrix cells whose identity is structural (row/column), not
// positional. The Raw block keeps the original unshuffled correctness data
// so grading never depends on display order.
//
// A bank entry with missing arrays yields an empty but valid unit list;
// grading such a question deterministically reports incorrect instead of
// failing the session.
func materializeQuestion(src shuffle.Source, q question.Question) AttemptQuestion {
	aq := AttemptQuestion{
		QuestionID: q.ID,
		Type:       q.Type,
		Content:    q.Content,
	}

	switch q.Type {
	case question.TypeSingle, question.TypeMulti:
		units := make([]Option, 0, len(q.Options))
		for i, opt := range q.Options {
			units = append(units, Option{
				Token:     shuffle.Token(),
				Text:      opt.Text,
				OrigIndex: i,
				IsCorrect: opt.IsCorrect,
			})
		}
		aq.Options = shuffle.Slice(src, units)
		aq.Raw.Options = append([]question.Option(nil), q.Options...)

	case question.TypeDropMatch:
		units := make([]PairUnit, 0, len(q.Pairs))
		for i, p := range q.Pairs {
			units = append(units, PairUnit{
				Token:     shuffle.Token(),
				Left:      p.Left,
				Right:     p.Right,
				OrigIndex: i,
			})
		}
		aq.Pairs = shuffle.Slice(src, units)
		aq.Raw.Pairs = append([]question.Pair(nil), q.Pairs...)

	case question.TypeImageArea:
		aq.ImageURL = q.ImageURL
		units := make([]Option, 0, len(q.Areas))
		for i := range q.Areas {
			a := q.Areas[i]
			units = append(units, Option{
				Token:     shuffle.Token(),
				Area:      &a,
				OrigIndex: i,
				IsCorrect: a.IsCorrect,
			})
		}
		aq.Options = shuffle.Slice(src, units)
		aq.Raw.Areas = append([]question.Area(nil), q.Areas...)

	case question.TypeMatrix:
		if q.Matrix != nil {
			m := *q.Matrix
			cells := make([]Option, 0, len(m.Rows)*len(m.Columns))
			for r := range m.Rows {
				for c := range m.Columns {
					cells = append(cells, Option{
						Token:     shuffle.Token(),
						Row:       r,
						Col:       c,
						IsCorrect: matrixCell(m.Correct, r, c),
					})
				}
			}
			aq.Options = cells
			aq.Raw.Matrix = &m
		}

	case question.TypeDragDrop:
		units := make([]Option, 0, len(q.Draggables))
		for i, text := range q.Draggables {
			units = append(units, Option{
				Token:     shuffle.Token(),
				Text:      text,
				OrigIndex: i,
				IsCorrect: mappedDraggable(q.CorrectMapping, text),
			})
		}
		aq.Options = shuffle.Slice(src, units)
		aq.Dropzones = append([]string(nil), q.Dropzones...)
		aq.Raw.Dropzones = append([]string(nil), q.Dropzones...)
		aq.Raw.CorrectMapping = append([]question.Mapping(nil), q.CorrectMapping...)

	default:
		// Unknown type: generic tokened options, graded incorrect downstream.
		units := make([]Option, 0, len(q.Options))
		for i, opt := range q.Options {
			units = append(units, Option{
				Token:     shuffle.Token(),
				Text:      opt.Text,
				OrigIndex: i,
				IsCorrect: opt.IsCorrect,
			})
		}
		aq.Options = units
		aq.Raw.Options = append([]question.Option(nil), q.Options...)
	}

	return aq
}

// reshuffleUnits runs the second, session-level shuffle pass over a
// question's internal unit list. Matrix cells keep their order.
func reshuffleUnits(src shuffle.Source, aq *AttemptQuestion) {
	if aq.Type == question.TypeMatrix {
		return
	}
	if len(aq.Options) > 1 {
		aq.Options = shuffle.Slice(src, aq.Options)
	}
	if len(aq.Pairs) > 1 {
		aq.Pairs = shuffle.Slice(src, aq.Pairs)
	}
}

func matrixCell(correct [][]bool, r, c int) bool {
	return r < len(correct) && c < len(correct[r]) && correct[r][c]
}

func mappedDraggable(mapping []question.Mapping, text string) bool {
	for _, m := range mapping {
		if m.Draggable == text {
			return true
		}
	}
	return false
}
