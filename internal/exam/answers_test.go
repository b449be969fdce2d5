package exam

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/examkit/examkit/internal/question"
)

// decodeAnswer round-trips through encoding/json so the loosely typed fields
// carry the same dynamic types a real request body produces.
func decodeAnswer(t *testing.T, raw string) Answer {
	t.Helper()
	var a Answer
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		t.Fatalf("decode answer: %v", err)
	}
	return a
}

func TestNormalizeTokensPriority(t *testing.T) {
	q := AttemptQuestion{
		Type: question.TypeSingle,
		Options: []Option{
			{Token: "t-b", OrigIndex: 1},
			{Token: "t-a", OrigIndex: 0},
		},
	}
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"token list wins", `{"selectedTokens":["t-a"],"token":"t-b","selectedIndexes":[1]}`, []string{"t-a"}},
		{"scalar token", `{"token":"t-b","selectedIndexes":[0]}`, []string{"t-b"}},
		{"index resolves via origin", `{"selectedIndexes":[0]}`, []string{"t-a"}},
		{"numeric string index", `{"selectedIndexes":["1"]}`, []string{"t-b"}},
		{"fractional index dropped", `{"selectedIndexes":[0.5]}`, nil},
		{"out of range dropped", `{"selectedIndexes":[9]}`, nil},
		{"empty answer", `{}`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := normalizeAnswer(q, decodeAnswer(t, tt.raw))
			if !reflect.DeepEqual(sub.Tokens, tt.want) {
				t.Fatalf("tokens = %v, want %v", sub.Tokens, tt.want)
			}
		})
	}
}

func TestNormalizeIndexPositionalFallback(t *testing.T) {
	// No unit claims OrigIndex 1, so the index falls back to list position.
	q := AttemptQuestion{
		Type: question.TypeSingle,
		Options: []Option{
			{Token: "first", OrigIndex: 5},
			{Token: "second", OrigIndex: 7},
		},
	}
	sub := normalizeAnswer(q, decodeAnswer(t, `{"selectedIndexes":[1]}`))
	if !reflect.DeepEqual(sub.Tokens, []string{"second"}) {
		t.Fatalf("tokens = %v, want [second]", sub.Tokens)
	}
}

func dropMatchAttempt() AttemptQuestion {
	return AttemptQuestion{
		Type: question.TypeDropMatch,
		Pairs: []PairUnit{
			{Token: "p1", Left: "cat", Right: "meow", OrigIndex: 1},
			{Token: "p0", Left: "dog", Right: "bark", OrigIndex: 0},
		},
	}
}

func TestNormalizePairShapes(t *testing.T) {
	q := dropMatchAttempt()
	tests := []struct {
		name string
		raw  string
		want []Pair
	}{
		{
			"object array",
			`{"selectedPairs":[{"left":"dog","right":"bark"},{"left":"cat","right":"meow"}]}`,
			[]Pair{{"dog", "bark"}, {"cat", "meow"}},
		},
		{
			"keyed by left index",
			`{"pairsMap":{"0":"meow","1":"bark"}}`,
			[]Pair{{"cat", "meow"}, {"dog", "bark"}},
		},
		{
			"out of range key keeps the index",
			`{"pairsMap":{"5":"quack"}}`,
			[]Pair{{"5", "quack"}},
		},
		{
			"positional rights",
			`{"pairs":["meow","bark"]}`,
			[]Pair{{"cat", "meow"}, {"dog", "bark"}},
		},
		{
			"numeric rights stringified",
			`{"pairs":[1,2]}`,
			[]Pair{{"cat", "1"}, {"dog", "2"}},
		},
		{"garbage", `{"selectedPairs":"what"}`, nil},
		{"empty array", `{"selectedPairs":[]}`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := normalizeAnswer(q, decodeAnswer(t, tt.raw))
			if !reflect.DeepEqual(sub.Pairs, tt.want) {
				t.Fatalf("pairs = %v, want %v", sub.Pairs, tt.want)
			}
		})
	}
}

func TestNormalizePairsRawFallback(t *testing.T) {
	// Snapshots written before pair units existed only carry Raw.Pairs.
	q := AttemptQuestion{
		Type: question.TypeDropMatch,
		Raw: Raw{Pairs: []question.Pair{
			{Left: "dog", Right: "bark"},
			{Left: "cat", Right: "meow"},
		}},
	}
	sub := normalizeAnswer(q, decodeAnswer(t, `{"pairs":["bark","meow"]}`))
	want := []Pair{{"dog", "bark"}, {"cat", "meow"}}
	if !reflect.DeepEqual(sub.Pairs, want) {
		t.Fatalf("pairs = %v, want %v", sub.Pairs, want)
	}
}

func TestNormalizeCells(t *testing.T) {
	q := AttemptQuestion{Type: question.TypeMatrix}
	sub := normalizeAnswer(q, decodeAnswer(t,
		`{"selectedMatrix":[{"row":0,"col":1},{"row":"2","col":"0"},{"row":1.5,"col":0},"junk",{"col":3}]}`))
	want := []CellRef{{0, 1}, {2, 0}}
	if !reflect.DeepEqual(sub.Cells, want) {
		t.Fatalf("cells = %v, want %v", sub.Cells, want)
	}
}

func TestNormalizeMapping(t *testing.T) {
	q := AttemptQuestion{Type: question.TypeDragDrop}
	sub := normalizeAnswer(q, decodeAnswer(t,
		`{"mapping":{"0":["whale","bat"],"1":[7],"2":"oops"}}`))
	if !reflect.DeepEqual(sub.Mapping["0"], []string{"whale", "bat"}) {
		t.Fatalf("zone 0 = %v", sub.Mapping["0"])
	}
	if !reflect.DeepEqual(sub.Mapping["1"], []string{"7"}) {
		t.Fatalf("zone 1 = %v", sub.Mapping["1"])
	}
	if sub.Mapping["2"] != nil {
		t.Fatalf("zone 2 = %v, want nil", sub.Mapping["2"])
	}
}

func TestAsInt(t *testing.T) {
	tests := []struct {
		in   any
		want int
		ok   bool
	}{
		{float64(3), 3, true},
		{float64(3.5), 0, false},
		{"4", 4, true},
		{" 4 ", 4, true},
		{"x", 0, false},
		{json.Number("5"), 5, true},
		{nil, 0, false},
		{true, 0, false},
	}
	for _, tt := range tests {
		got, ok := asInt(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("asInt(%v) = %d,%v; want %d,%v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
