package auth

import (
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"

	"github.com/you/accountsvc/domain"
)

// Hash algorithms accepted by NewPasswordService.
const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"
)

// PasswordServiceImpl implements domain.PasswordService.
// It hashes with the preferred algorithm and verifies either format, so
// switching algorithms never locks existing users out.
type PasswordServiceImpl struct {
	algorithm string
	cost      int
	argon     *argon2idHasher
}

// NewPasswordService creates a new password service
func NewPasswordService(algorithm string, bcryptCost int) (domain.PasswordService, error) {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		return nil, oops.Code("AUTH_INVALID_COST").With("cost", bcryptCost).Errorf("bcrypt cost out of range")
	}
	switch algorithm {
	case "", AlgorithmBcrypt:
		algorithm = AlgorithmBcrypt
	case AlgorithmArgon2id:
	default:
		return nil, oops.Code("AUTH_UNKNOWN_ALGORITHM").With("algorithm", algorithm).Errorf("unsupported password hash algorithm")
	}
	return &PasswordServiceImpl{
		algorithm: algorithm,
		cost:      bcryptCost,
		argon:     &argon2idHasher{},
	}, nil
}

// Hash implements domain.PasswordService
func (p *PasswordServiceImpl) Hash(password string) (string, error) {
	if p.algorithm == AlgorithmArgon2id {
		return p.argon.Hash(password)
	}
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return "", oops.Code("AUTH_HASH_FAILED").Wrap(err)
	}
	return string(hashedBytes), nil
}

// Verify implements domain.PasswordService
func (p *PasswordServiceImpl) Verify(hashedPassword, password string) bool {
	if isArgon2id(hashedPassword) {
		ok, err := p.argon.Verify(password, hashedPassword)
		return err == nil && ok
	}
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}

// NeedsUpgrade reports hashes produced by another algorithm or a weaker bcrypt cost.
func (p *PasswordServiceImpl) NeedsUpgrade(hashedPassword string) bool {
	if p.algorithm == AlgorithmArgon2id {
		return !isArgon2id(hashedPassword)
	}
	if isArgon2id(hashedPassword) {
		return true
	}
	cost, err := bcrypt.Cost([]byte(hashedPassword))
	if err != nil {
		return false
	}
	return cost < p.cost
}

func isArgon2id(hash string) bool {
	return strings.HasPrefix(hash, "$argon2id$")
}
