package exam

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/examkit/examkit/internal/question"
)

// Answer is the wire shape of one submitted answer. Clients of different
// vintages send different fields for the same thing, so everything beyond
// QuestionID is optional and loosely typed; normalization reconciles the
// shapes into a Submission. No payload shape causes an error: unrecognized
// input degrades to "nothing answered".
type Answer struct {
	QuestionID string `json:"questionId"`

	// single / multi / image-area
	Token           string   `json:"token,omitempty"`
	SelectedTokens  []string `json:"selectedTokens,omitempty"`
	SelectedIndexes []any    `json:"selectedIndexes,omitempty"`

	// drop-match: array of {left,right}, object keyed by left index, or a
	// positional array of right values
	SelectedPairs any `json:"selectedPairs,omitempty"`
	Pairs         any `json:"pairs,omitempty"`
	PairsMap      any `json:"pairsMap,omitempty"`

	// matrix
	SelectedMatrix []any `json:"selectedMatrix,omitempty"`

	// drag-drop: dropzone index -> draggable identifiers
	Mapping map[string]any `json:"mapping,omitempty"`
}

// Pair is a canonical submitted drop-match pair.
type Pair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// Submission is the canonical per-type representation of a client answer.
// Exactly one field group is populated, matching the question type.
type Submission struct {
	Tokens  []string            `json:"selectedTokens,omitempty"`
	Pairs   []Pair              `json:"selectedPairs,omitempty"`
	Cells   []CellRef           `json:"selectedMatrix,omitempty"`
	Mapping map[string][]string `json:"mapping,omitempty"`
}

// normalizeAnswer reduces a raw client answer to the canonical form for the
// question it targets. Total: never fails, never panics.
func normalizeAnswer(q AttemptQuestion, a Answer) Submission {
	switch q.Type {
	case question.TypeDropMatch:
		units := q.Pairs
		if len(units) == 0 {
			for i, p := range q.Raw.Pairs {
				units = append(units, PairUnit{Left: p.Left, Right: p.Right, OrigIndex: i})
			}
		}
		return Submission{Pairs: normalizePairs(firstPairPayload(a), units)}
	case question.TypeMatrix:
		return Submission{Cells: normalizeCells(a.SelectedMatrix)}
	case question.TypeDragDrop:
		return Submission{Mapping: normalizeMapping(a.Mapping)}
	default:
		return Submission{Tokens: buildTokens(q, a)}
	}
}

// buildTokens resolves single/multi/image-area answers to a token list, in
// priority order: explicit token list, single token scalar, index list. An
// index is matched against stored OrigIndex first and falls back to the
// positional index when no unit claims it.
func buildTokens(q AttemptQuestion, a Answer) []string {
	if len(a.SelectedTokens) > 0 {
		return append([]string(nil), a.SelectedTokens...)
	}
	if a.Token != "" {
		return []string{a.Token}
	}
	var tokens []string
	for _, raw := range a.SelectedIndexes {
		idx, ok := asInt(raw)
		if !ok {
			continue
		}
		if tok, found := tokenByOrigIndex(q.Options, idx); found {
			tokens = append(tokens, tok)
			continue
		}
		if idx >= 0 && idx < len(q.Options) {
			tokens = append(tokens, q.Options[idx].Token)
		}
	}
	return tokens
}

func tokenByOrigIndex(opts []Option, idx int) (string, bool) {
	for _, o := range opts {
		if o.OrigIndex == idx {
			return o.Token, true
		}
	}
	return "", false
}

func firstPairPayload(a Answer) any {
	for _, v := range []any{a.SelectedPairs, a.Pairs, a.PairsMap} {
		if v != nil {
			return v
		}
	}
	return nil
}

// normalizePairs accepts three drop-match payload shapes:
//   - an array of {left,right} objects (passed through, stringified),
//   - an object keyed by left index mapping to a right value,
//   - a plain array of right values positionally aligned to the attempt's
//     pair order.
//
// units is the attempt's (shuffled) pair list, used to resolve left values
// for the index-keyed and positional shapes.
func normalizePairs(payload any, units []PairUnit) []Pair {
	switch v := payload.(type) {
	case []any:
		if len(v) == 0 {
			return nil
		}
		if m, ok := v[0].(map[string]any); ok {
			if _, l := m["left"]; l {
				return pairObjects(v)
			}
			if _, r := m["right"]; r {
				return pairObjects(v)
			}
			return nil
		}
		// positional array of right values
		out := make([]Pair, 0, len(v))
		for i, rv := range v {
			left := strconv.Itoa(i)
			if i < len(units) {
				left = units[i].Left
			}
			out = append(out, Pair{Left: left, Right: asString(rv)})
		}
		return out
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]Pair, 0, len(keys))
		for _, k := range keys {
			left := k
			if idx, err := strconv.Atoi(strings.TrimSpace(k)); err == nil {
				if idx >= 0 && idx < len(units) {
					left = units[idx].Left
				} else {
					left = strconv.Itoa(idx)
				}
			}
			out = append(out, Pair{Left: left, Right: asString(v[k])})
		}
		return out
	default:
		return nil
	}
}

func pairObjects(arr []any) []Pair {
	out := make([]Pair, 0, len(arr))
	for _, e := range arr {
		m, ok := e.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, Pair{Left: asString(m["left"]), Right: asString(m["right"])})
	}
	return out
}

// normalizeCells coerces matrix coordinates to ints; malformed entries are
// dropped silently.
func normalizeCells(raw []any) []CellRef {
	var out []CellRef
	for _, e := range raw {
		m, ok := e.(map[string]any)
		if !ok {
			continue
		}
		row, rok := asInt(m["row"])
		col, cok := asInt(m["col"])
		if !rok || !cok {
			continue
		}
		out = append(out, CellRef{Row: row, Col: col})
	}
	return out
}

// normalizeMapping coerces each dropzone entry to an array of strings;
// non-array values degrade to empty.
func normalizeMapping(raw map[string]any) map[string][]string {
	out := make(map[string][]string, len(raw))
	for k, v := range raw {
		arr, ok := v.([]any)
		if !ok {
			out[k] = nil
			continue
		}
		vals := make([]string, 0, len(arr))
		for _, e := range arr {
			vals = append(vals, asString(e))
		}
		out[k] = vals
	}
	return out
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

func asInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case float64:
		if t != math.Trunc(t) {
			return 0, false
		}
		return int(t), true
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
