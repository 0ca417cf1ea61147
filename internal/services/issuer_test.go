package services

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/accountsvc/domain"
	"github.com/you/accountsvc/internal/mocks"
)

func TestIssuer_Lifetimes(t *testing.T) {
	issuer := NewIssuer(&mocks.MockValueGenerator{}, mocks.NewMockClock(testNow), DefaultIssuerConfig())

	tests := []struct {
		tokenType domain.TokenType
		ttl       time.Duration
	}{
		{domain.TokenAccess, time.Hour},
		{domain.TokenRefresh, 30 * 24 * time.Hour},
		{domain.TokenVerification, 5 * time.Minute},
	}
	for _, tt := range tests {
		t.Run(string(tt.tokenType), func(t *testing.T) {
			token, err := issuer.NewToken(9, tt.tokenType)
			require.NoError(t, err)
			assert.Equal(t, uint(9), token.UserID)
			assert.True(t, token.CreatedAt.Equal(testNow))
			assert.True(t, token.ExpiresAt.Equal(testNow.Add(tt.ttl)))
		})
	}

	code, err := issuer.NewCode(9)
	require.NoError(t, err)
	assert.Len(t, code.Value, 6)
	assert.Equal(t, 5*time.Minute, code.TTL)
}

func TestIssuer_RotateKeepsIdentity(t *testing.T) {
	clock := mocks.NewMockClock(testNow)
	issuer := NewIssuer(&mocks.MockValueGenerator{}, clock, DefaultIssuerConfig())

	token, err := issuer.NewToken(1, domain.TokenRefresh)
	require.NoError(t, err)
	token.ID = 12
	before := token.Value

	clock.Advance(time.Hour)
	require.NoError(t, issuer.Rotate(token))
	assert.Equal(t, uint(12), token.ID)
	assert.Equal(t, domain.TokenRefresh, token.Type)
	assert.NotEqual(t, before, token.Value)
	assert.True(t, token.ExpiresAt.Equal(testNow.Add(time.Hour+30*24*time.Hour)))
}

func TestTemplates(t *testing.T) {
	verify := verificationEmail("https://app.example.com/", "jane@x.com", "Jane Doe", "tok en", 24*time.Hour)
	assert.Equal(t, "Verify Account", verify.subject)
	assert.Contains(t, verify.body, "Hi Jane Doe,")
	assert.Contains(t, verify.body, "https://app.example.com/verify-account?token=tok+en")
	assert.Contains(t, verify.body, "expire in 1440 minutes")

	reset := resetCodeEmail("jane@x.com", "", "123456", 5*time.Minute)
	assert.Equal(t, "Verify Password Reset", reset.subject)
	assert.True(t, strings.HasPrefix(reset.body, "Hi there,"))
	assert.Contains(t, reset.body, "Verification Code: 123456")
	assert.Contains(t, reset.body, "This code will expire in 5 minutes.")
}
