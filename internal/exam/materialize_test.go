package exam

import (
	mrand "math/rand"
	"sort"
	"testing"

	"github.com/examkit/examkit/internal/question"
)

func testSource() *mrand.Rand { return mrand.New(mrand.NewSource(1)) }

func TestMaterializeSingleChoice(t *testing.T) {
	q := question.Question{
		ID:      "q1",
		Type:    question.TypeSingle,
		Content: "pick one",
		Options: []question.Option{
			{Text: "A", IsCorrect: true},
			{Text: "B"},
			{Text: "C"},
		},
	}
	aq := materializeQuestion(testSource(), q)

	if len(aq.Options) != 3 {
		t.Fatalf("got %d options", len(aq.Options))
	}
	seen := make(map[string]struct{})
	correct := 0
	for _, o := range aq.Options {
		if len(o.Token) != 16 {
			t.Fatalf("token %q: want 16 chars", o.Token)
		}
		if _, dup := seen[o.Token]; dup {
			t.Fatalf("duplicate token %q", o.Token)
		}
		seen[o.Token] = struct{}{}
		if o.IsCorrect {
			correct++
			if o.Text != "A" {
				t.Fatalf("correct flag moved to %q", o.Text)
			}
		}
	}
	if correct != 1 {
		t.Fatalf("correct count = %d", correct)
	}
	// Raw keeps the authoring order regardless of the shuffle.
	if len(aq.Raw.Options) != 3 || aq.Raw.Options[0].Text != "A" || !aq.Raw.Options[0].IsCorrect {
		t.Fatalf("raw options altered: %+v", aq.Raw.Options)
	}
}

func TestMaterializeMatrixCellsNotShuffled(t *testing.T) {
	q := question.Question{
		ID:   "qm",
		Type: question.TypeMatrix,
		Matrix: &question.Matrix{
			Rows:    []string{"r0", "r1", "r2"},
			Columns: []string{"c0", "c1"},
			Correct: [][]bool{{true, false}, {false, true}, {false, false}},
		},
	}
	aq := materializeQuestion(testSource(), q)

	if len(aq.Options) != 6 {
		t.Fatalf("got %d cells, want rows*cols=6", len(aq.Options))
	}
	// Row-major order must survive: cell identity is structural.
	i := 0
	for r := 0; r < 3; r++ {
		for c := 0; c < 2; c++ {
			cell := aq.Options[i]
			if cell.Row != r || cell.Col != c {
				t.Fatalf("cell %d is (%d,%d), want (%d,%d)", i, cell.Row, cell.Col, r, c)
			}
			if cell.IsCorrect != q.Matrix.Correct[r][c] {
				t.Fatalf("cell (%d,%d) correctness flipped", r, c)
			}
			i++
		}
	}

	before := make([]string, len(aq.Options))
	for i, o := range aq.Options {
		before[i] = o.Token
	}
	reshuffleUnits(testSource(), &aq)
	for i, o := range aq.Options {
		if o.Token != before[i] {
			t.Fatal("reshuffle must not touch matrix cells")
		}
	}
}

func TestMaterializeDragDrop(t *testing.T) {
	q := question.Question{
		ID:         "qd",
		Type:       question.TypeDragDrop,
		Draggables: []string{"whale", "owl", "rock"},
		Dropzones:  []string{"mammals", "birds"},
		CorrectMapping: []question.Mapping{
			{Draggable: "whale", Dropzone: "mammals"},
			{Draggable: "owl", Dropzone: "birds"},
		},
	}
	aq := materializeQuestion(testSource(), q)

	if len(aq.Dropzones) != 2 || aq.Dropzones[0] != "mammals" || aq.Dropzones[1] != "birds" {
		t.Fatalf("dropzones reordered: %v", aq.Dropzones)
	}
	for _, o := range aq.Options {
		mapped := o.Text == "whale" || o.Text == "owl"
		if o.IsCorrect != mapped {
			t.Fatalf("draggable %q mapped flag = %v", o.Text, o.IsCorrect)
		}
	}
	if len(aq.Raw.CorrectMapping) != 2 {
		t.Fatalf("raw mapping lost: %+v", aq.Raw.CorrectMapping)
	}
}

func TestPublicViewHidesCorrectness(t *testing.T) {
	q := question.Question{
		ID:   "qp",
		Type: question.TypeDropMatch,
		Pairs: []question.Pair{
			{Left: "dog", Right: "bark"},
			{Left: "cat", Right: "meow"},
			{Left: "cow", Right: "moo"},
		},
	}
	aq := materializeQuestion(testSource(), q)
	pub := aq.Public()

	if len(pub.Pairs) != 3 {
		t.Fatalf("got %d public pairs", len(pub.Pairs))
	}
	for _, p := range pub.Pairs {
		if p.Token == "" || p.Left == "" {
			t.Fatalf("public pair incomplete: %+v", p)
		}
	}
	// Right values are published detached and sorted, so the display order
	// of the lefts reveals nothing about the pairing.
	want := []string{"bark", "meow", "moo"}
	if !sort.StringsAreSorted(pub.RightChoices) {
		t.Fatalf("right choices unsorted: %v", pub.RightChoices)
	}
	got := append([]string(nil), pub.RightChoices...)
	sort.Strings(got)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("right choices = %v, want %v", pub.RightChoices, want)
		}
	}
}

func TestPublicViewSingleChoice(t *testing.T) {
	q := question.Question{
		ID:      "qs",
		Type:    question.TypeSingle,
		Content: "pick",
		Options: []question.Option{{Text: "A", IsCorrect: true}, {Text: "B"}},
	}
	pub := materializeQuestion(testSource(), q).Public()
	for _, o := range pub.Options {
		if o.Token == "" || o.Text == "" {
			t.Fatalf("public option incomplete: %+v", o)
		}
	}
	if pub.Rows != nil || pub.Dropzones != nil || pub.Pairs != nil {
		t.Fatalf("foreign fields leaked: %+v", pub)
	}
}

func TestMaterializeEmptyBankEntry(t *testing.T) {
	aq := materializeQuestion(testSource(), question.Question{ID: "qe", Type: question.TypeSingle})
	if len(aq.Options) != 0 {
		t.Fatalf("empty entry produced options: %+v", aq.Options)
	}
	if res := gradeQuestion(aq, Submission{}); res.Correct {
		t.Fatal("empty entry must grade incorrect")
	}
}
