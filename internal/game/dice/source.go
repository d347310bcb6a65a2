package dice

import (
	"crypto/rand"
	"math/big"
)

// CryptoSource implements Source using crypto/rand.
// It is safe for concurrent use and may be shared across battles.
type CryptoSource struct{}

// NewCryptoSource returns a Source backed by crypto/rand.
func NewCryptoSource() *CryptoSource {
	return &CryptoSource{}
}

// Intn returns a cryptographically secure random int in [0, n).
//
// Precondition: n > 0. Panics with "dice: Intn called with n <= 0" if n <= 0.
func (c *CryptoSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	val, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("dice: crypto/rand failure: " + err.Error())
	}
	return int(val.Int64())
}

// IntRange returns a value in [lo, hi].
func (c *CryptoSource) IntRange(lo, hi int) int {
	return Between(c, lo, hi)
}
