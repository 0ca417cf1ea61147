package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/accountsvc/domain"
	"github.com/you/accountsvc/internal/infrastructure/repositories"
	"github.com/you/accountsvc/internal/mocks"
)

func TestRegistrationService_Register(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := janeRequest()
	req.Email = "  Jane@X.com "
	result, err := env.registration.Register(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, domain.RegistrationCreated, result.Outcome)
	assert.Equal(t, "Verification email sent. Please check your inbox.", result.Message())
	assert.False(t, result.Delivery.Failed())

	pending, err := env.pending.FindByEmail(ctx, "jane@x.com")
	require.NoError(t, err)
	assert.Equal(t, "hashed_pw123456", pending.PasswordHash, "password is stored pre-hashed")
	assert.Equal(t, domain.RoleCustomer, pending.Role)
	assert.Equal(t, 24*time.Hour, pending.TTL)
	assert.NotEmpty(t, pending.VerificationToken)

	sent := env.notifier.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "jane@x.com", sent[0].To)
	assert.Equal(t, "Verify Account", sent[0].Subject)
	assert.Contains(t, sent[0].Body, pending.VerificationToken)
	assert.Contains(t, sent[0].Body, "https://app.example.com/verify-account?token="+pending.VerificationToken)
	assert.Contains(t, sent[0].Body, "expire in 1440 minutes")

	assert.Equal(t, []domain.AuditEventType{domain.UserRegistrationEvent}, env.audit.Types())
	assert.Equal(t, 1, env.metrics.Operations["register"])
}

func TestRegistrationService_RegisterTwice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.registration.Register(ctx, janeRequest())
	require.NoError(t, err)
	firstToken := first.Pending.VerificationToken

	_, err = env.registration.Register(ctx, janeRequest())
	require.ErrorIs(t, err, domain.ErrPendingVerificationExists)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))
	assert.Len(t, env.notifier.Sent(), 1, "a rejected signup sends nothing")

	// Exactly at expiry the pending row is still live.
	env.clock.Advance(24 * time.Hour)
	_, err = env.registration.Register(ctx, janeRequest())
	require.ErrorIs(t, err, domain.ErrPendingVerificationExists)

	env.clock.Advance(time.Second)
	renewed, err := env.registration.Register(ctx, janeRequest())
	require.NoError(t, err)
	assert.Equal(t, domain.RegistrationResent, renewed.Outcome)
	assert.Equal(t, "Verification email resent. Please check your inbox.", renewed.Message())
	assert.NotEqual(t, firstToken, renewed.Pending.VerificationToken)
	assert.True(t, renewed.Pending.CreatedAt.Equal(env.clock.Now()))

	assert.Equal(t, int64(1), env.countRows(t, &repositories.DBPendingUser{}))
	assert.Len(t, env.notifier.Sent(), 2)

	status, err := env.registration.CheckStatus(ctx, firstToken)
	require.NoError(t, err)
	assert.Equal(t, domain.VerificationVerified, status.State, "the replaced token no longer resolves")

	status, err = env.registration.CheckStatus(ctx, renewed.Pending.VerificationToken)
	require.NoError(t, err)
	assert.Equal(t, domain.VerificationPending, status.State)
}

func TestRegistrationService_RenewalKeepsFirstCredentials(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.registration.Register(ctx, janeRequest())
	require.NoError(t, err)
	env.clock.Advance(24*time.Hour + time.Second)

	hashes := 0
	env.passwords.HashFunc = func(password string) (string, error) {
		hashes++
		return "hashed_" + password, nil
	}
	again := janeRequest()
	again.FirstName = "Janet"
	again.Password = "other999"
	renewed, err := env.registration.Register(ctx, again)
	require.NoError(t, err)

	assert.Equal(t, domain.RegistrationResent, renewed.Outcome)
	assert.Zero(t, hashes, "renewal does not hash the resubmitted password")
	assert.Equal(t, "hashed_pw123456", renewed.Pending.PasswordHash)
	assert.Equal(t, "Jane", renewed.Pending.FirstName)

	user, err := env.registration.Complete(ctx, "jane@x.com")
	require.NoError(t, err)
	assert.Equal(t, "hashed_pw123456", user.PasswordHash)
}

func TestRegistrationService_HashFailure(t *testing.T) {
	env := newTestEnv(t)
	env.passwords.HashFunc = func(string) (string, error) { return "", errors.New("hasher down") }

	_, err := env.registration.Register(context.Background(), janeRequest())
	require.Error(t, err)
	assert.Zero(t, env.countRows(t, &repositories.DBPendingUser{}))
	assert.Empty(t, env.notifier.Sent())
}

func TestRegistrationService_RegisterExistingUser(t *testing.T) {
	env := newTestEnv(t)
	env.registerVerified(t, janeRequest())

	_, err := env.registration.Register(context.Background(), janeRequest())
	assert.ErrorIs(t, err, domain.ErrAlreadyRegistered)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))
}

func TestRegistrationService_RegisterValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*domain.RegisterRequest)
		wantErr error
	}{
		{name: "missing email", mutate: func(r *domain.RegisterRequest) { r.Email = " " }, wantErr: domain.ErrInvalidInput},
		{name: "unknown role", mutate: func(r *domain.RegisterRequest) { r.Role = "GUEST" }, wantErr: domain.ErrInvalidRole},
		{name: "short password", mutate: func(r *domain.RegisterRequest) { r.Password = "pw1" }, wantErr: domain.ErrWeakPassword},
		{name: "password without digit", mutate: func(r *domain.RegisterRequest) { r.Password = "password" }, wantErr: domain.ErrWeakPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			req := janeRequest()
			tt.mutate(&req)

			_, err := env.registration.Register(context.Background(), req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, domain.KindInvalid, domain.KindOf(err))
			assert.Empty(t, env.notifier.Sent())
		})
	}
}

func TestRegistrationService_RoleIsCaseInsensitive(t *testing.T) {
	env := newTestEnv(t)
	req := janeRequest()
	req.Role = "admin"

	result, err := env.registration.Register(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, result.Pending.Role)
}

func TestRegistrationService_EmailFailureKeepsRegistration(t *testing.T) {
	env := newTestEnv(t)
	env.notifier.SendEmailFunc = func(ctx context.Context, to, subject, body string) error {
		return errors.New("smtp: connection refused")
	}

	result, err := env.registration.Register(context.Background(), janeRequest())
	require.NoError(t, err)
	assert.True(t, result.Delivery.Failed())
	assert.Equal(t, TemplateVerification, result.Delivery.Template)
	assert.Equal(t, 1, env.metrics.EmailFailure[TemplateVerification])

	_, err = env.pending.FindByEmail(context.Background(), "jane@x.com")
	assert.NoError(t, err, "pending registration survives a failed email")
}

func TestRegistrationService_RegenerateOnTokenCollision(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	values := []string{"taken", "taken", "fresh"}
	env.gen.NewTokenFunc = func() (string, error) {
		v := values[0]
		values = values[1:]
		return v, nil
	}

	_, err := env.registration.Register(ctx, janeRequest())
	require.NoError(t, err)

	other := janeRequest()
	other.Email = "john@x.com"
	result, err := env.registration.Register(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, "fresh", result.Pending.VerificationToken)
}

func TestRegistrationService_CheckStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.registration.Register(ctx, janeRequest())
	require.NoError(t, err)
	token := result.Pending.VerificationToken

	status, err := env.registration.CheckStatus(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, domain.VerificationPending, status.State)
	assert.Equal(t, "jane@x.com", status.Email)
	assert.Equal(t, "Jane Doe", status.Name)

	env.clock.Advance(24*time.Hour + time.Second)
	status, err = env.registration.CheckStatus(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, domain.VerificationExpired, status.State)

	_, err = env.pending.FindByToken(ctx, token)
	assert.NoError(t, err, "status polling never deletes")

	status, err = env.registration.CheckStatus(ctx, "never-issued")
	require.NoError(t, err)
	assert.Equal(t, domain.VerificationVerified, status.State)
	assert.Empty(t, status.Email)
}

func TestRegistrationService_Complete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.registration.Register(ctx, janeRequest())
	require.NoError(t, err)

	user, err := env.registration.Complete(ctx, "JANE@x.com")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "hashed_pw123456", user.PasswordHash, "hash copied verbatim")
	assert.Equal(t, domain.RoleCustomer, user.Role)

	assert.Equal(t, int64(1), env.countRows(t, &repositories.DBCustomer{}))
	assert.Equal(t, int64(0), env.countRows(t, &repositories.DBAdmin{}))
	assert.Equal(t, int64(0), env.countRows(t, &repositories.DBPendingUser{}))

	status, err := env.registration.CheckStatus(ctx, result.Pending.VerificationToken)
	require.NoError(t, err)
	assert.Equal(t, domain.VerificationVerified, status.State)

	_, err = env.registration.Complete(ctx, "jane@x.com")
	assert.ErrorIs(t, err, domain.ErrPendingUserNotFound)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestRegistrationService_CompleteIsAtomic(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.registration.Register(ctx, janeRequest())
	require.NoError(t, err)

	boom := errors.New("profile insert failed")
	env.profiles = &mocks.MockProfileRepository{
		CreateForFunc: func(ctx context.Context, user *domain.User) error { return boom },
	}
	env.build()

	_, err = env.registration.Complete(ctx, "jane@x.com")
	require.ErrorIs(t, err, boom)

	assert.Equal(t, int64(0), env.countRows(t, &repositories.DBUser{}), "no user without a profile")
	assert.Equal(t, int64(1), env.countRows(t, &repositories.DBPendingUser{}))
}
