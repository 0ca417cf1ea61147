package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/you/accountsvc/domain"
	"github.com/you/accountsvc/internal/infrastructure/repositories"
	"github.com/you/accountsvc/internal/mocks"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// testEnv wires every service over an in-memory SQLite store with a
// settable clock and predictable token values.
type testEnv struct {
	db        *gorm.DB
	clock     *mocks.MockClock
	gen       *mocks.MockValueGenerator
	passwords *mocks.MockPasswordService
	notifier  *mocks.MockNotificationService
	audit     *mocks.MockAuditLogger
	metrics   *mocks.MockMetricsRecorder
	throttle  *mocks.MockThrottle

	users    domain.UserRepository
	pending  domain.PendingUserRepository
	profiles domain.ProfileRepository
	tokens   domain.TokenRepository
	codes    domain.CodeRepository
	sessRepo domain.SessionRepository
	tx       domain.Transactor

	issuer       *Issuer
	sessions     domain.SessionManager
	registration domain.RegistrationService
	auth         domain.AuthService
	reset        domain.PasswordResetService
	admin        domain.AccountAdminService
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(repositories.Models()...))
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := setupTestDB(t)
	env := &testEnv{
		db:        db,
		clock:     mocks.NewMockClock(testNow),
		gen:       &mocks.MockValueGenerator{},
		passwords: mocks.NewMockPasswordService(),
		notifier:  mocks.NewMockNotificationService(),
		audit:     &mocks.MockAuditLogger{},
		metrics:   mocks.NewMockMetricsRecorder(),
		throttle:  &mocks.MockThrottle{},

		users:    repositories.NewUserRepository(db),
		pending:  repositories.NewPendingUserRepository(db),
		profiles: repositories.NewProfileRepository(db),
		tokens:   repositories.NewTokenRepository(db),
		codes:    repositories.NewCodeRepository(db),
		sessRepo: repositories.NewSessionRepository(db),
		tx:       repositories.NewTransactor(db),
	}
	env.build()
	return env
}

// build (re)creates the services from the current collaborators.
func (e *testEnv) build() {
	obs := Observers{Audit: e.audit, Metrics: e.metrics, Log: zerolog.Nop()}

	e.issuer = NewIssuer(e.gen, e.clock, DefaultIssuerConfig())
	e.sessions = NewSessionManager(e.sessRepo, e.tx, e.issuer)
	e.registration = NewRegistrationService(
		e.users, e.pending, e.profiles, e.tx, e.passwords, e.notifier, e.issuer,
		RegistrationConfig{PendingTTL: 24 * time.Hour, VerifyBaseURL: "https://app.example.com"},
		obs,
	)
	e.auth = NewAuthService(e.users, e.pending, e.sessions, e.passwords, e.clock, obs)
	e.reset = NewPasswordResetService(
		e.users, e.codes, e.tokens, e.tx, e.passwords, e.notifier, e.throttle, e.issuer,
		PasswordResetConfig{ThrottleWindow: time.Minute},
		obs,
	)
	e.admin = NewAccountAdminService(e.users, e.sessRepo, e.tx, e.clock, obs)
}

func janeRequest() domain.RegisterRequest {
	return domain.RegisterRequest{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "jane@x.com",
		Password:  "pw123456",
		Role:      domain.RoleCustomer,
	}
}

// registerVerified runs signup and verification for req.
func (e *testEnv) registerVerified(t *testing.T, req domain.RegisterRequest) *domain.User {
	t.Helper()

	ctx := context.Background()
	_, err := e.registration.Register(ctx, req)
	require.NoError(t, err)
	user, err := e.registration.Complete(ctx, req.Email)
	require.NoError(t, err)
	return user
}

func (e *testEnv) countRows(t *testing.T, model interface{}) int64 {
	t.Helper()

	var n int64
	require.NoError(t, e.db.Model(model).Count(&n).Error)
	return n
}
