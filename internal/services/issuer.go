package services

import (
	"time"

	"github.com/you/accountsvc/domain"
)

// IssuerConfig holds the lifetimes of issued credentials.
type IssuerConfig struct {
	AccessTTL       time.Duration
	RefreshTTL      time.Duration
	VerificationTTL time.Duration
	CodeTTL         time.Duration
}

// DefaultIssuerConfig returns the standard lifetimes.
func DefaultIssuerConfig() IssuerConfig {
	return IssuerConfig{
		AccessTTL:       time.Hour,
		RefreshTTL:      30 * 24 * time.Hour,
		VerificationTTL: 5 * time.Minute,
		CodeTTL:         5 * time.Minute,
	}
}

// Issuer mints tokens and reset codes. Values are only candidates: the
// store enforces uniqueness and callers regenerate on ErrDuplicateKey.
type Issuer struct {
	gen   domain.ValueGenerator
	clock domain.Clock
	cfg   IssuerConfig
}

func NewIssuer(gen domain.ValueGenerator, clock domain.Clock, cfg IssuerConfig) *Issuer {
	return &Issuer{gen: gen, clock: clock, cfg: cfg}
}

// Now reads the injected clock.
func (i *Issuer) Now() time.Time {
	return i.clock.Now()
}

// TTL returns the lifetime of a token type.
func (i *Issuer) TTL(tokenType domain.TokenType) time.Duration {
	switch tokenType {
	case domain.TokenAccess:
		return i.cfg.AccessTTL
	case domain.TokenRefresh:
		return i.cfg.RefreshTTL
	default:
		return i.cfg.VerificationTTL
	}
}

func (i *Issuer) NewToken(userID uint, tokenType domain.TokenType) (*domain.Token, error) {
	value, err := i.gen.NewToken()
	if err != nil {
		return nil, err
	}
	now := i.clock.Now()
	return &domain.Token{
		Value:     value,
		UserID:    userID,
		Type:      tokenType,
		CreatedAt: now,
		ExpiresAt: now.Add(i.TTL(tokenType)),
	}, nil
}

// Rotate refreshes token in place with a new value and a full lifetime.
func (i *Issuer) Rotate(token *domain.Token) error {
	value, err := i.gen.NewToken()
	if err != nil {
		return err
	}
	now := i.clock.Now()
	token.Refresh(value, now, now.Add(i.TTL(token.Type)))
	return nil
}

func (i *Issuer) NewCode(userID uint) (*domain.Code, error) {
	value, err := i.gen.NewCode()
	if err != nil {
		return nil, err
	}
	return &domain.Code{
		Value:     value,
		UserID:    userID,
		CreatedAt: i.clock.Now(),
		TTL:       i.cfg.CodeTTL,
	}, nil
}

// NewPendingToken returns a value for a pending registration.
func (i *Issuer) NewPendingToken() (string, error) {
	return i.gen.NewToken()
}

// CodeTTL is the lifetime of reset codes.
func (i *Issuer) CodeTTL() time.Duration {
	return i.cfg.CodeTTL
}
