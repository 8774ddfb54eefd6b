package game

import (
	crand "crypto/rand"
	"math/big"
)

// Rand is the source of randomness for draws, shuffles and room codes.
// *math/rand/v2.Rand satisfies it, which keeps tests deterministic.
type Rand interface {
	IntN(n int) int
}

type cryptoRand struct{}

// NewCryptoRand returns a Rand backed by crypto/rand
func NewCryptoRand() Rand {
	return cryptoRand{}
}

func (cryptoRand) IntN(n int) int {
	if n <= 0 {
		panic("game: IntN called with non-positive n")
	}
	num, err := crand.Int(crand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("crypto/rand failure: " + err.Error())
	}
	return int(num.Int64())
}

// Pick returns a uniformly random element of items
func Pick[T any](r Rand, items []T) (T, bool) {
	var zero T
	if len(items) == 0 {
		return zero, false
	}
	return items[r.IntN(len(items))], true
}

// Shuffle permutes items in place (Fisher-Yates)
func Shuffle[T any](r Rand, items []T) {
	for i := len(items) - 1; i > 0; i-- {
		j := r.IntN(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}

// Sample draws k distinct elements by repeated uniform picks without replacement.
// The input slice is not modified.
func Sample[T any](r Rand, items []T, k int) []T {
	pool := make([]T, len(items))
	copy(pool, items)

	picked := make([]T, 0, k)
	for i := 0; i < k && len(pool) > 0; i++ {
		idx := r.IntN(len(pool))
		picked = append(picked, pool[idx])
		pool = append(pool[:idx], pool[idx+1:]...)
	}
	return picked
}
