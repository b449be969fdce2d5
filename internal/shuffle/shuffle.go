// Package shuffle provides the randomization primitives used when an exam
// session is materialized: a Fisher–Yates permutation over an injectable
// randomness source, and opaque hex tokens that stand in for answer units.
package shuffle

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	mrand "math/rand"
)

// Source yields a uniform int in [0,n). *math/rand.Rand satisfies it, which
// lets tests inject a seeded source while production uses real entropy.
type Source interface {
	Intn(n int) int
}

// NewSource returns a Source seeded from crypto entropy. Shuffles are
// deliberately non-reproducible: re-materializing the same exam yields a
// different order every time.
func NewSource() Source {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return mrand.New(mrand.NewSource(int64(binary.LittleEndian.Uint64(b[:]))))
}

// Slice returns a new uniformly shuffled copy of in. The input is not
// modified.
func Slice[T any](src Source, in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	for i := len(out) - 1; i > 0; i-- {
		j := src.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

const tokenBytes = 8

// Token returns a 16-char hex identifier. Tokens are regenerated on every
// materialization and are the only client-visible handle for an answer unit,
// so the client can reference a unit without learning its stored index.
func Token() string {
	b := make([]byte, tokenBytes)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
