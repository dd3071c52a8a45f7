package infrastructure

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// CryptoRandom draws from the operating system's CSPRNG
type CryptoRandom struct{}

// NewCryptoRandom creates the production random source
func NewCryptoRandom() *CryptoRandom {
	return &CryptoRandom{}
}

// Int63n returns a uniform value in [0, n)
func (CryptoRandom) Int63n(n int64) (int64, error) {
	if n <= 0 {
		return 0, fmt.Errorf("invalid random bound %d", n)
	}
	v, err := rand.Int(rand.Reader, big.NewInt(n))
	if err != nil {
		return 0, fmt.Errorf("failed to read random number: %w", err)
	}
	return v.Int64(), nil
}
