package shuffle

import (
	mrand "math/rand"
	"testing"
)

func TestTokenShape(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		tok := Token()
		if len(tok) != 16 {
			t.Fatalf("token %q: want 16 hex chars", tok)
		}
		for _, c := range tok {
			if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
				t.Fatalf("token %q: non-hex char %q", tok, c)
			}
		}
		if _, dup := seen[tok]; dup {
			t.Fatalf("token %q issued twice", tok)
		}
		seen[tok] = struct{}{}
	}
}

func TestSliceIsPermutation(t *testing.T) {
	src := mrand.New(mrand.NewSource(42))
	in := []int{1, 2, 3, 4, 5, 6, 7, 8}
	out := Slice(src, in)

	if len(out) != len(in) {
		t.Fatalf("length changed: %d -> %d", len(in), len(out))
	}
	counts := make(map[int]int)
	for _, v := range out {
		counts[v]++
	}
	for _, v := range in {
		if counts[v] != 1 {
			t.Fatalf("element %d appears %d times", v, counts[v])
		}
	}
}

func TestSliceDoesNotMutateInput(t *testing.T) {
	src := mrand.New(mrand.NewSource(7))
	in := []string{"a", "b", "c", "d", "e"}
	want := []string{"a", "b", "c", "d", "e"}
	_ = Slice(src, in)
	for i := range want {
		if in[i] != want[i] {
			t.Fatalf("input mutated at %d: %v", i, in)
		}
	}
}

func TestSliceDeterministicWithSeed(t *testing.T) {
	in := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	a := Slice(mrand.New(mrand.NewSource(99)), in)
	b := Slice(mrand.New(mrand.NewSource(99)), in)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed diverged at %d: %v vs %v", i, a, b)
		}
	}
}

func TestSliceEmptyAndSingle(t *testing.T) {
	src := NewSource()
	if got := Slice(src, []int(nil)); len(got) != 0 {
		t.Fatalf("nil input: got %v", got)
	}
	if got := Slice(src, []int{42}); len(got) != 1 || got[0] != 42 {
		t.Fatalf("single input: got %v", got)
	}
}
