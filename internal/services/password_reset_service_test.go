package services

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/accountsvc/domain"
	"github.com/you/accountsvc/internal/infrastructure/repositories"
)

var codePattern = regexp.MustCompile(`Verification Code: (\d{6})`)

// lastCode pulls the code out of the most recent reset email.
func lastCode(t *testing.T, env *testEnv) string {
	t.Helper()

	msg, ok := env.notifier.Last()
	require.True(t, ok, "no email sent")
	m := codePattern.FindStringSubmatch(msg.Body)
	require.Len(t, m, 2, "no code in %q", msg.Body)
	return m[1]
}

func TestPasswordResetService_Scenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.registerVerified(t, janeRequest())

	delivery, err := env.reset.RequestReset(ctx, "jane@x.com")
	require.NoError(t, err)
	assert.False(t, delivery.Failed())

	msg, _ := env.notifier.Last()
	assert.Equal(t, "Verify Password Reset", msg.Subject)
	assert.Contains(t, msg.Body, "This code will expire in 5 minutes.")
	code := lastCode(t, env)

	_, err = env.reset.VerifyCode(ctx, "000000")
	require.ErrorIs(t, err, domain.ErrCodeNotFound)

	token, err := env.reset.VerifyCode(ctx, code)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	_, err = env.reset.VerifyCode(ctx, code)
	assert.ErrorIs(t, err, domain.ErrCodeNotFound, "codes are single use")

	err = env.reset.Reset(ctx, token, "pw123456")
	require.ErrorIs(t, err, domain.ErrSamePassword)
	assert.Equal(t, domain.KindInvalid, domain.KindOf(err))

	require.NoError(t, env.reset.Reset(ctx, token, "newpass99"))

	err = env.reset.Reset(ctx, token, "another77")
	assert.ErrorIs(t, err, domain.ErrTokenNotFound, "reset tokens are single use")

	stored, err := env.users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "hashed_newpass99", stored.PasswordHash)

	_, err = env.auth.Login(ctx, "jane@x.com", "pw123456")
	assert.ErrorIs(t, err, domain.ErrIncorrectPassword)
	_, err = env.auth.Login(ctx, "jane@x.com", "newpass99")
	assert.NoError(t, err)

	assert.Equal(t, []domain.AuditEventType{
		domain.ResetRequestedEvent, domain.ResetVerifiedEvent, domain.ResetCompletedEvent,
	}, filterResetEvents(env.audit.Types()))
}

func filterResetEvents(types []domain.AuditEventType) []domain.AuditEventType {
	var out []domain.AuditEventType
	for _, tp := range types {
		switch tp {
		case domain.ResetRequestedEvent, domain.ResetVerifiedEvent, domain.ResetCompletedEvent:
			out = append(out, tp)
		}
	}
	return out
}

func TestPasswordResetService_OneCodePerUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.registerVerified(t, janeRequest())

	var codes []string
	for i := 0; i < 3; i++ {
		_, err := env.reset.RequestReset(ctx, "jane@x.com")
		require.NoError(t, err)
		codes = append(codes, lastCode(t, env))

		var perUser int64
		require.NoError(t, env.db.Model(&repositories.DBCode{}).Where("user_id = ?", user.ID).Count(&perUser).Error)
		assert.Equal(t, int64(1), perUser)
	}

	_, err := env.reset.VerifyCode(ctx, codes[0])
	assert.ErrorIs(t, err, domain.ErrCodeNotFound, "earlier codes are gone")
	_, err = env.reset.VerifyCode(ctx, codes[2])
	assert.NoError(t, err)
}

func TestPasswordResetService_ExpiredCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.registerVerified(t, janeRequest())

	_, err := env.reset.RequestReset(ctx, "jane@x.com")
	require.NoError(t, err)
	code := lastCode(t, env)

	env.clock.Advance(5*time.Minute + time.Second)
	_, err = env.reset.VerifyCode(ctx, code)
	require.ErrorIs(t, err, domain.ErrCodeExpired)
	assert.Equal(t, domain.KindExpired, domain.KindOf(err))

	_, err = env.reset.VerifyCode(ctx, code)
	assert.ErrorIs(t, err, domain.ErrCodeNotFound, "the stale code was deleted")
}

func TestPasswordResetService_CodeValidAtExpiryInstant(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.registerVerified(t, janeRequest())

	_, err := env.reset.RequestReset(ctx, "jane@x.com")
	require.NoError(t, err)

	env.clock.Advance(5 * time.Minute)
	_, err = env.reset.VerifyCode(ctx, lastCode(t, env))
	assert.NoError(t, err)
}

func TestPasswordResetService_ExpiredToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.registerVerified(t, janeRequest())

	_, err := env.reset.RequestReset(ctx, "jane@x.com")
	require.NoError(t, err)
	token, err := env.reset.VerifyCode(ctx, lastCode(t, env))
	require.NoError(t, err)

	env.clock.Advance(5*time.Minute + time.Second)
	err = env.reset.Reset(ctx, token, "newpass99")
	require.ErrorIs(t, err, domain.ErrTokenExpired)

	err = env.reset.Reset(ctx, token, "newpass99")
	assert.ErrorIs(t, err, domain.ErrTokenNotFound)
}

func TestPasswordResetService_SessionTokensCannotReset(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.registerVerified(t, janeRequest())
	login, err := env.auth.Login(ctx, "jane@x.com", "pw123456")
	require.NoError(t, err)

	err = env.reset.Reset(ctx, login.Session.AccessToken.Value, "newpass99")
	assert.ErrorIs(t, err, domain.ErrTokenNotFound)
	err = env.reset.Reset(ctx, login.Session.RefreshToken.Value, "newpass99")
	assert.ErrorIs(t, err, domain.ErrTokenNotFound)
}

func TestPasswordResetService_WeakNewPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.registerVerified(t, janeRequest())

	_, err := env.reset.RequestReset(ctx, "jane@x.com")
	require.NoError(t, err)
	token, err := env.reset.VerifyCode(ctx, lastCode(t, env))
	require.NoError(t, err)

	err = env.reset.Reset(ctx, token, "short")
	require.ErrorIs(t, err, domain.ErrWeakPassword)

	assert.NoError(t, env.reset.Reset(ctx, token, "longenough1"), "token survives a rejected password")
}

func TestPasswordResetService_UnknownEmail(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.reset.RequestReset(context.Background(), "nobody@x.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.Empty(t, env.notifier.Sent())
}

func TestPasswordResetService_Throttle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.registerVerified(t, janeRequest())

	var keys []string
	env.throttle.AllowFunc = func(ctx context.Context, key string, window time.Duration) (bool, time.Duration, error) {
		keys = append(keys, key)
		assert.Equal(t, time.Minute, window)
		return len(keys) == 1, 42 * time.Second, nil
	}

	_, err := env.reset.RequestReset(ctx, "Jane@X.com")
	require.NoError(t, err)

	_, err = env.reset.RequestReset(ctx, "jane@x.com")
	require.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, domain.KindRateLimited, domain.KindOf(err))

	var rl *domain.RateLimitError
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, 42*time.Second, rl.RetryAfter)
	assert.Equal(t, []string{"password_reset:jane@x.com", "password_reset:jane@x.com"}, keys)
	assert.Len(t, env.notifier.Sent(), 1)
}

func TestPasswordResetService_ThrottleFailsOpen(t *testing.T) {
	env := newTestEnv(t)
	env.registerVerified(t, janeRequest())
	env.throttle.AllowFunc = func(ctx context.Context, key string, window time.Duration) (bool, time.Duration, error) {
		return false, 0, errors.New("redis: connection refused")
	}

	_, err := env.reset.RequestReset(context.Background(), "jane@x.com")
	assert.NoError(t, err)
}

func TestPasswordResetService_EmailFailureIsReported(t *testing.T) {
	env := newTestEnv(t)
	env.registerVerified(t, janeRequest())
	env.notifier.SendEmailFunc = func(ctx context.Context, to, subject, body string) error {
		return errors.New("mailbox unavailable")
	}

	delivery, err := env.reset.RequestReset(context.Background(), "jane@x.com")
	require.NoError(t, err)
	assert.True(t, delivery.Failed())
	assert.Equal(t, TemplatePasswordReset, delivery.Template)
	assert.Equal(t, int64(1), env.countRows(t, &repositories.DBCode{}), "the code is kept")
}
