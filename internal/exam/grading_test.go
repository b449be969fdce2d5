package exam

import (
	"testing"

	"github.com/examkit/examkit/internal/question"
)

func singleChoice() AttemptQuestion {
	return AttemptQuestion{
		QuestionID: "q1",
		Type:       question.TypeSingle,
		Options: []Option{
			{Token: "t-b", Text: "B", OrigIndex: 1},
			{Token: "t-a", Text: "A", OrigIndex: 0, IsCorrect: true},
			{Token: "t-c", Text: "C", OrigIndex: 2},
		},
	}
}

func TestGradeSingle(t *testing.T) {
	q := singleChoice()
	tests := []struct {
		name   string
		tokens []string
		want   bool
	}{
		{"correct token", []string{"t-a"}, true},
		{"wrong token", []string{"t-b"}, false},
		{"two tokens", []string{"t-a", "t-b"}, false},
		{"nothing selected", nil, false},
		{"unknown token", []string{"zzzz"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := gradeQuestion(q, Submission{Tokens: tt.tokens})
			if res.Correct != tt.want {
				t.Fatalf("got %v, want %v", res.Correct, tt.want)
			}
			if len(res.CorrectTokens) != 1 || res.CorrectTokens[0] != "t-a" {
				t.Fatalf("correct tokens = %v", res.CorrectTokens)
			}
		})
	}
}

func TestGradeSingleNoCorrectOption(t *testing.T) {
	q := singleChoice()
	for i := range q.Options {
		q.Options[i].IsCorrect = false
	}
	if res := gradeQuestion(q, Submission{Tokens: []string{"t-a"}}); res.Correct {
		t.Fatal("question without a correct option must grade incorrect")
	}
}

func TestGradeMulti(t *testing.T) {
	q := AttemptQuestion{
		Type: question.TypeMulti,
		Options: []Option{
			{Token: "t1", OrigIndex: 0, IsCorrect: true},
			{Token: "t2", OrigIndex: 1},
			{Token: "t3", OrigIndex: 2, IsCorrect: true},
			{Token: "t4", OrigIndex: 3},
		},
	}
	tests := []struct {
		name   string
		tokens []string
		want   bool
	}{
		{"exact set", []string{"t1", "t3"}, true},
		{"order irrelevant", []string{"t3", "t1"}, true},
		{"subset", []string{"t1"}, false},
		{"superset", []string{"t1", "t3", "t2"}, false},
		{"empty", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if res := gradeQuestion(q, Submission{Tokens: tt.tokens}); res.Correct != tt.want {
				t.Fatalf("got %v, want %v", res.Correct, tt.want)
			}
		})
	}
}

func TestGradeMultiEmptyCorrectSet(t *testing.T) {
	q := AttemptQuestion{
		Type:    question.TypeMulti,
		Options: []Option{{Token: "t1"}, {Token: "t2"}},
	}
	// Nothing marked correct and nothing selected: set equality would hold,
	// but ungraded content must never award a point.
	if res := gradeQuestion(q, Submission{}); res.Correct {
		t.Fatal("multi with no correct options must grade incorrect")
	}
}

func TestGradeDropMatch(t *testing.T) {
	q := AttemptQuestion{
		Type: question.TypeDropMatch,
		Raw: Raw{Pairs: []question.Pair{
			{Left: "dog", Right: "bark"},
			{Left: "cat", Right: "meow"},
			{Left: "cow", Right: "moo"},
		}},
	}
	tests := []struct {
		name  string
		pairs []Pair
		want  bool
	}{
		{"all matched", []Pair{{"cat", "meow"}, {"cow", "moo"}, {"dog", "bark"}}, true},
		{"one swapped", []Pair{{"cat", "bark"}, {"cow", "moo"}, {"dog", "meow"}}, false},
		{"missing one", []Pair{{"dog", "bark"}, {"cat", "meow"}}, false},
		{"extra pair", []Pair{{"dog", "bark"}, {"cat", "meow"}, {"cow", "moo"}, {"ox", "low"}}, false},
		{"empty", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if res := gradeQuestion(q, Submission{Pairs: tt.pairs}); res.Correct != tt.want {
				t.Fatalf("got %v, want %v", res.Correct, tt.want)
			}
		})
	}
}

func TestGradeDropMatchNoPairs(t *testing.T) {
	q := AttemptQuestion{Type: question.TypeDropMatch}
	if res := gradeQuestion(q, Submission{}); res.Correct {
		t.Fatal("drop-match without pairs must grade incorrect")
	}
}

func TestGradeImageArea(t *testing.T) {
	q := AttemptQuestion{
		Type: question.TypeImageArea,
		Options: []Option{
			{Token: "a2", OrigIndex: 2},
			{Token: "a0", OrigIndex: 0},
			{Token: "a1", OrigIndex: 1},
		},
		Raw: Raw{Areas: []question.Area{
			{IsCorrect: true},
			{},
			{IsCorrect: true},
		}},
	}
	tests := []struct {
		name   string
		tokens []string
		want   bool
	}{
		{"both correct areas", []string{"a0", "a2"}, true},
		{"one missing", []string{"a0"}, false},
		{"wrong area included", []string{"a0", "a1", "a2"}, false},
		{"bogus token in place of real", []string{"a0", "nope"}, false},
		{"empty", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if res := gradeQuestion(q, Submission{Tokens: tt.tokens}); res.Correct != tt.want {
				t.Fatalf("got %v, want %v", res.Correct, tt.want)
			}
		})
	}
}

func TestGradeMatrix(t *testing.T) {
	q := AttemptQuestion{
		Type: question.TypeMatrix,
		Raw: Raw{Matrix: &question.Matrix{
			Rows:    []string{"r0", "r1"},
			Columns: []string{"c0", "c1"},
			Correct: [][]bool{{true, false}, {false, true}},
		}},
	}
	tests := []struct {
		name  string
		cells []CellRef
		want  bool
	}{
		{"exact cells", []CellRef{{0, 0}, {1, 1}}, true},
		{"order irrelevant", []CellRef{{1, 1}, {0, 0}}, true},
		{"extra cell", []CellRef{{0, 0}, {1, 1}, {0, 1}}, false},
		{"missing cell", []CellRef{{0, 0}}, false},
		{"empty", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if res := gradeQuestion(q, Submission{Cells: tt.cells}); res.Correct != tt.want {
				t.Fatalf("got %v, want %v", res.Correct, tt.want)
			}
		})
	}
}

func TestGradeMatrixNoTrueCells(t *testing.T) {
	q := AttemptQuestion{
		Type: question.TypeMatrix,
		Raw: Raw{Matrix: &question.Matrix{
			Rows:    []string{"r0"},
			Columns: []string{"c0"},
			Correct: [][]bool{{false}},
		}},
	}
	if res := gradeQuestion(q, Submission{}); res.Correct {
		t.Fatal("matrix with no true cells must grade incorrect")
	}
	if res := gradeQuestion(AttemptQuestion{Type: question.TypeMatrix}, Submission{}); res.Correct {
		t.Fatal("matrix without correctness data must grade incorrect")
	}
}

func dragDropQuestion() AttemptQuestion {
	return AttemptQuestion{
		Type: question.TypeDragDrop,
		Raw: Raw{
			Dropzones: []string{"mammals", "birds"},
			CorrectMapping: []question.Mapping{
				{Draggable: "whale", Dropzone: "mammals"},
				{Draggable: "bat", Dropzone: "mammals"},
				{Draggable: "owl", Dropzone: "birds"},
			},
		},
	}
}

func TestGradeDragDrop(t *testing.T) {
	q := dragDropQuestion()
	tests := []struct {
		name    string
		mapping map[string][]string
		want    bool
	}{
		{"exact", map[string][]string{"0": {"whale", "bat"}, "1": {"owl"}}, true},
		{"order within zone irrelevant", map[string][]string{"0": {"bat", "whale"}, "1": {"owl"}}, true},
		{"duplicates collapse", map[string][]string{"0": {"whale", "bat", "bat"}, "1": {"owl"}}, true},
		{"misplaced draggable", map[string][]string{"0": {"whale", "owl"}, "1": {"bat"}}, false},
		{"zone left empty", map[string][]string{"0": {"whale", "bat"}}, false},
		{"empty", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if res := gradeQuestion(q, Submission{Mapping: tt.mapping}); res.Correct != tt.want {
				t.Fatalf("got %v, want %v", res.Correct, tt.want)
			}
		})
	}
}

func TestGradeDragDropUnmappedZoneSkipped(t *testing.T) {
	q := dragDropQuestion()
	q.Raw.Dropzones = append(q.Raw.Dropzones, "reptiles") // nothing maps here
	sub := Submission{Mapping: map[string][]string{"0": {"whale", "bat"}, "1": {"owl"}}}
	if res := gradeQuestion(q, sub); !res.Correct {
		t.Fatal("zone with no expected draggables must not be graded")
	}
}

func TestGradeDragDropNoMappingData(t *testing.T) {
	q := AttemptQuestion{Type: question.TypeDragDrop, Raw: Raw{Dropzones: []string{"z"}}}
	if res := gradeQuestion(q, Submission{Mapping: map[string][]string{"0": {"x"}}}); res.Correct {
		t.Fatal("drag-drop without a correct mapping must grade incorrect")
	}
}

func TestGradeUnknownType(t *testing.T) {
	q := AttemptQuestion{Type: question.Type("essay")}
	if res := gradeQuestion(q, Submission{Tokens: []string{"t"}}); res.Correct {
		t.Fatal("unknown type must grade incorrect")
	}
}
