package auth

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/you/accountsvc/domain"
)

const (
	codeMin = 100000
	codeMax = 999999
)

// RandomGenerator draws token values and codes from crypto/rand.
type RandomGenerator struct{}

// NewRandomGenerator creates the production value generator
func NewRandomGenerator() domain.ValueGenerator {
	return RandomGenerator{}
}

// NewToken returns a random UUIDv4 string (122 bits of entropy).
func (RandomGenerator) NewToken() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", oops.Code("TOKEN_GENERATION_FAILED").Wrap(err)
	}
	return id.String(), nil
}

// NewCode returns a six digit code in [100000, 999999].
func (RandomGenerator) NewCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeMax-codeMin+1))
	if err != nil {
		return "", oops.Code("CODE_GENERATION_FAILED").Wrap(err)
	}
	return strconv.FormatInt(n.Int64()+codeMin, 10), nil
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

// Now implements domain.Clock
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
