package exam

import (
	"strconv"

	"github.com/examkit/examkit/internal/question"
)

// gradeResult is the outcome of grading one question. CorrectTokens is
// populated only for single/multi, where the client uses it to highlight
// the right choices after submission.
type gradeResult struct {
	Correct       bool
	CorrectTokens []string
}

// gradeQuestion compares a canonical submission against the attempt
// snapshot's correctness data. Pure and idempotent: the check-one and
// submit-all paths share it.
//
// Shared policy for every type: a question with no defined correct-answer
// data grades incorrect, never errors. Malformed bank content must not be
// able to award points or crash a live session.
func gradeQuestion(q AttemptQuestion, sub Submission) gradeResult {
	switch q.Type {
	case question.TypeSingle:
		ct := correctTokens(q.Options)
		ok := len(sub.Tokens) == 1 && containsString(ct, sub.Tokens[0])
		return gradeResult{Correct: ok, CorrectTokens: ct}

	case question.TypeMulti:
		ct := correctTokens(q.Options)
		ok := len(ct) > 0 && stringSetEqual(ct, sub.Tokens)
		return gradeResult{Correct: ok, CorrectTokens: ct}

	case question.TypeDropMatch:
		correct := q.Raw.Pairs
		if len(correct) == 0 {
			return gradeResult{}
		}
		if len(sub.Pairs) != len(correct) {
			return gradeResult{}
		}
		for _, cp := range correct {
			if !containsPair(sub.Pairs, cp.Left, cp.Right) {
				return gradeResult{}
			}
		}
		return gradeResult{Correct: true}

	case question.TypeImageArea:
		// Correct set is the area indices flagged in Raw; submitted tokens
		// resolve to their origin indices. Unresolvable tokens stay in the
		// set as-is so a bogus token can never substitute for a real one.
		correct := make(map[string]struct{})
		for i, a := range q.Raw.Areas {
			if a.IsCorrect {
				correct[strconv.Itoa(i)] = struct{}{}
			}
		}
		if len(correct) == 0 {
			return gradeResult{}
		}
		submitted := make(map[string]struct{})
		for _, tok := range sub.Tokens {
			key := tok
			for _, o := range q.Options {
				if o.Token == tok {
					key = strconv.Itoa(o.OrigIndex)
					break
				}
			}
			submitted[key] = struct{}{}
		}
		return gradeResult{Correct: setEqual(correct, submitted)}

	case question.TypeMatrix:
		if q.Raw.Matrix == nil {
			return gradeResult{}
		}
		correct := make(map[string]struct{})
		for r, row := range q.Raw.Matrix.Correct {
			for c, v := range row {
				if v {
					correct[cellKey(r, c)] = struct{}{}
				}
			}
		}
		if len(correct) == 0 {
			// A matrix with no true cells is ungraded content.
			return gradeResult{}
		}
		submitted := make(map[string]struct{})
		for _, cell := range sub.Cells {
			submitted[cellKey(cell.Row, cell.Col)] = struct{}{}
		}
		return gradeResult{Correct: setEqual(correct, submitted)}

	case question.TypeDragDrop:
		mapping := q.Raw.CorrectMapping
		zones := q.Raw.Dropzones
		if len(mapping) == 0 || len(zones) == 0 {
			return gradeResult{}
		}
		for i, dz := range zones {
			expected := draggablesForZone(mapping, dz)
			if len(expected) == 0 {
				// Zones with no expected draggables are not graded.
				continue
			}
			got := dedup(sub.Mapping[strconv.Itoa(i)])
			if !stringSetEqual(expected, got) {
				return gradeResult{}
			}
		}
		return gradeResult{Correct: true}
	}

	return gradeResult{}
}

func correctTokens(opts []Option) []string {
	var out []string
	for _, o := range opts {
		if o.IsCorrect {
			out = append(out, o.Token)
		}
	}
	return out
}

func draggablesForZone(mapping []question.Mapping, zone string) []string {
	var out []string
	for _, m := range mapping {
		if m.Dropzone == zone {
			out = append(out, m.Draggable)
		}
	}
	return dedup(out)
}

func dedup(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func containsString(arr []string, s string) bool {
	for _, v := range arr {
		if v == s {
			return true
		}
	}
	return false
}

func containsPair(pairs []Pair, left, right string) bool {
	for _, p := range pairs {
		if p.Left == left && p.Right == right {
			return true
		}
	}
	return false
}

func stringSetEqual(a, b []string) bool {
	as := make(map[string]struct{}, len(a))
	for _, s := range a {
		as[s] = struct{}{}
	}
	bs := make(map[string]struct{}, len(b))
	for _, s := range b {
		bs[s] = struct{}{}
	}
	return setEqual(as, bs)
}

func setEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

func cellKey(r, c int) string {
	return strconv.Itoa(r) + "-" + strconv.Itoa(c)
}
