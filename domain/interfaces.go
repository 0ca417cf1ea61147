package domain

import (
	"context"
	"time"
)

// UserRepository defines credential store operations
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id uint) (*User, error)
	UpdatePassword(ctx context.Context, userID uint, passwordHash string) error
	UpdateLastLogin(ctx context.Context, userID uint, at time.Time) error
	SetBanned(ctx context.Context, userID uint, banned bool) error
}

// ProfileRepository creates the role profile that accompanies a user
type ProfileRepository interface {
	CreateFor(ctx context.Context, user *User) error
}

// PendingUserRepository defines pending registration operations
type PendingUserRepository interface {
	Create(ctx context.Context, pending *PendingUser) error
	FindByEmail(ctx context.Context, email string) (*PendingUser, error)
	FindByToken(ctx context.Context, token string) (*PendingUser, error)
	Update(ctx context.Context, pending *PendingUser) error
	Delete(ctx context.Context, id uint) error
}

// TokenRepository defines token persistence. Values are unique.
type TokenRepository interface {
	Create(ctx context.Context, token *Token) error
	FindByValue(ctx context.Context, value string, tokenType TokenType) (*Token, error)
	Update(ctx context.Context, token *Token) error
	Delete(ctx context.Context, id uint) error
	DeleteExpired(ctx context.Context, tokenType TokenType, now time.Time) (int64, error)
}

// CodeRepository defines reset code persistence. Values are unique.
type CodeRepository interface {
	Create(ctx context.Context, code *Code) error
	FindByValue(ctx context.Context, value string) (*Code, error)
	Delete(ctx context.Context, id uint) error
	DeleteByUser(ctx context.Context, userID uint) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// SessionRepository persists sessions together with their two tokens.
// The store rejects a second session for the same user with ErrDuplicateKey.
type SessionRepository interface {
	Create(ctx context.Context, session *Session) error
	FindByUserID(ctx context.Context, userID uint) (*Session, error)
	FindByAccessToken(ctx context.Context, value string) (*Session, error)
	FindByRefreshToken(ctx context.Context, value string) (*Session, error)
	Save(ctx context.Context, session *Session) error
	SetActive(ctx context.Context, sessionID uint, active bool) error
	DeleteStale(ctx context.Context, refreshExpiredBefore time.Time) (int64, error)
}

// Transactor runs fn inside a transaction carried on the context.
type Transactor interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// PasswordService defines password operations
type PasswordService interface {
	Hash(password string) (string, error)
	Verify(hashedPassword, password string) bool
	NeedsUpgrade(hashedPassword string) bool
}

// NotificationService defines email dispatch
type NotificationService interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// Clock is the time source used for every expiry comparison.
type Clock interface {
	Now() time.Time
}

// ValueGenerator produces unguessable token values and reset codes.
type ValueGenerator interface {
	NewToken() (string, error)
	NewCode() (string, error)
}

// Throttle limits how often a keyed action may happen.
type Throttle interface {
	Allow(ctx context.Context, key string, window time.Duration) (bool, time.Duration, error)
}

// MetricsRecorder receives operation outcomes.
type MetricsRecorder interface {
	OperationCompleted(operation string, err error)
	EmailFailed(template string)
}

// RegistrationService defines the pending registration flow
type RegistrationService interface {
	Register(ctx context.Context, req RegisterRequest) (*RegistrationResult, error)
	CheckStatus(ctx context.Context, token string) (*VerificationStatus, error)
	Complete(ctx context.Context, email string) (*User, error)
}

// SessionManager binds users to token pairs
type SessionManager interface {
	Establish(ctx context.Context, user *User) (*Session, error)
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	Validate(ctx context.Context, accessToken string) (*Session, error)
	Revoke(ctx context.Context, session *Session) error
}

// AuthService defines authentication business logic
type AuthService interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	ValidateSession(ctx context.Context, authorizationHeader string) (*Session, error)
	Authenticate(ctx context.Context, authorizationHeader string) (*Principal, error)
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	Logout(ctx context.Context, session *Session) error
	CurrentUser(ctx context.Context, userID uint) (*User, error)
}

// PasswordResetService defines the reset code flow
type PasswordResetService interface {
	RequestReset(ctx context.Context, email string) (*Delivery, error)
	VerifyCode(ctx context.Context, code string) (string, error)
	Reset(ctx context.Context, token, newPassword string) error
}

// AccountAdminService defines administrative account operations
type AccountAdminService interface {
	GetUser(ctx context.Context, userID uint) (*User, error)
	SetBanned(ctx context.Context, userID uint, banned bool) (*User, error)
}

// PolicyService defines authorization policy operations
type PolicyService interface {
	AddPolicy(subject, resource, action string) error
	RemovePolicy(subject, resource, action string) error
	CheckPermission(subject, resource, action string) (bool, error)
	GetPolicies() ([][]string, error)
}

// CasbinEnforcer interface defines the methods we need from Casbin enforcer
type CasbinEnforcer interface {
	AddPolicy(params ...interface{}) (bool, error)
	RemovePolicy(params ...interface{}) (bool, error)
	Enforce(rvals ...interface{}) (bool, error)
	GetPolicy() ([][]string, error)
	SavePolicy() error
}
