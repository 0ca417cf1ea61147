package domain

import (
	"context"
	"strings"
	"time"
	"unicode"
)

// Role is the closed set of account roles.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleCustomer Role = "CUSTOMER"
)

// Capability is an action a role may be granted.
type Capability string

const (
	CapabilityManageUsers    Capability = "manage_users"
	CapabilityManagePolicies Capability = "manage_policies"
	CapabilityReserve        Capability = "reserve"
)

// ParseRole accepts the role names case-insensitively.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleCustomer:
		return RoleCustomer, nil
	default:
		return "", ErrInvalidRole
	}
}

// Capabilities returns what the role is allowed to do.
func (r Role) Capabilities() []Capability {
	switch r {
	case RoleAdmin:
		return []Capability{CapabilityManageUsers, CapabilityManagePolicies}
	case RoleCustomer:
		return []Capability{CapabilityReserve}
	default:
		return nil
	}
}

// Can reports whether the role carries the capability.
func (r Role) Can(c Capability) bool {
	for _, have := range r.Capabilities() {
		if have == c {
			return true
		}
	}
	return false
}

// PolicySubject is the casbin subject used for the role.
func (r Role) PolicySubject() string {
	switch r {
	case RoleAdmin:
		return "role_admin"
	case RoleCustomer:
		return "role_customer"
	default:
		return "role_anonymous"
	}
}

// User represents an active account
type User struct {
	ID           uint
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Role         Role
	Banned       bool
	CreatedAt    time.Time
	LastLogin    *time.Time
}

// FullName joins first and last name.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Admin is the role profile created for ADMIN users.
type Admin struct {
	ID        uint
	UserID    uint
	CreatedAt time.Time
}

// Customer is the role profile created for CUSTOMER users.
type Customer struct {
	ID        uint
	UserID    uint
	CreatedAt time.Time
}

// PendingUser is a signup that has not been verified yet
type PendingUser struct {
	ID                uint
	FirstName         string
	LastName          string
	Email             string
	PasswordHash      string
	Role              Role
	VerificationToken string
	CreatedAt         time.Time
	TTL               time.Duration
}

// ExpiresAt is the moment the verification token lapses.
func (p *PendingUser) ExpiresAt() time.Time {
	return p.CreatedAt.Add(p.TTL)
}

// IsExpiredAt is false at the exact expiry instant.
func (p *PendingUser) IsExpiredAt(now time.Time) bool {
	return now.After(p.ExpiresAt())
}

// Renew replaces the verification token and restarts the TTL.
func (p *PendingUser) Renew(token string, now time.Time) {
	p.VerificationToken = token
	p.CreatedAt = now
}

// FullName joins first and last name.
func (p *PendingUser) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// TokenType distinguishes what a token authorizes.
type TokenType string

const (
	TokenAccess       TokenType = "ACCESS"
	TokenRefresh      TokenType = "REFRESH"
	TokenVerification TokenType = "VERIFICATION"
)

// Token is an opaque credential persisted by value
type Token struct {
	ID        uint
	Value     string
	UserID    uint
	Type      TokenType
	CreatedAt time.Time
	ExpiresAt time.Time
}

// IsExpiredAt is false at the exact expiry instant.
func (t *Token) IsExpiredAt(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// Refresh rotates the token in place. The row identity is kept.
func (t *Token) Refresh(value string, now, expiresAt time.Time) {
	t.Value = value
	t.CreatedAt = now
	t.ExpiresAt = expiresAt
}

// Code is a six digit password reset code
type Code struct {
	ID        uint
	Value     string
	UserID    uint
	CreatedAt time.Time
	TTL       time.Duration
}

// ExpiresAt is the moment the code lapses.
func (c *Code) ExpiresAt() time.Time {
	return c.CreatedAt.Add(c.TTL)
}

// IsExpiredAt is false at the exact expiry instant.
func (c *Code) IsExpiredAt(now time.Time) bool {
	return now.After(c.ExpiresAt())
}

// Session binds one user to an access/refresh token pair.
// There is at most one session per user.
type Session struct {
	ID           uint
	UserID       uint
	AccessToken  Token
	RefreshToken Token
	Active       bool
	CreatedAt    time.Time
}

// RegisterRequest carries the signup form.
type RegisterRequest struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      Role
}

// RegistrationOutcome tells a fresh signup apart from a renewed one.
type RegistrationOutcome string

const (
	RegistrationCreated RegistrationOutcome = "created"
	RegistrationResent  RegistrationOutcome = "resent"
)

// Delivery reports the email side effect of an operation. A failed
// delivery never undoes the state change that triggered it.
type Delivery struct {
	Template string
	Err      error
}

// Failed reports whether the email could not be sent.
func (d Delivery) Failed() bool {
	return d.Err != nil
}

// RegistrationResult is returned by a successful signup
type RegistrationResult struct {
	Outcome  RegistrationOutcome
	Pending  *PendingUser
	Delivery Delivery
}

// Message is the user-facing status line.
func (r *RegistrationResult) Message() string {
	if r.Outcome == RegistrationResent {
		return "Verification email resent. Please check your inbox."
	}
	return "Verification email sent. Please check your inbox."
}

// VerificationState is the polled state of a verification token.
type VerificationState string

const (
	VerificationPending  VerificationState = "Pending"
	VerificationExpired  VerificationState = "Expired"
	VerificationVerified VerificationState = "Verified"
)

// Message is the user-facing description of the state.
func (s VerificationState) Message() string {
	switch s {
	case VerificationPending:
		return "Awaiting verification"
	case VerificationExpired:
		return "Token has expired"
	default:
		return "Token not found or already used"
	}
}

// VerificationStatus is the result of polling a verification token.
// Email and Name are empty for the Verified state.
type VerificationStatus struct {
	State VerificationState
	Email string
	Name  string
}

// LoginResult carries the authenticated user and their session
type LoginResult struct {
	User    *User
	Session *Session
}

// Principal is the authenticated caller resolved from a bearer token.
type Principal struct {
	User    *User
	Session *Session
}

type principalKey struct{}

// ContextWithPrincipal stores the principal on ctx.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal stored on ctx, if any.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// ValidatePassword requires MinPasswordLength characters and a digit.
func ValidatePassword(password string) error {
	if len([]rune(password)) < MinPasswordLength {
		return ErrWeakPassword
	}
	for _, r := range password {
		if unicode.IsDigit(r) {
			return nil
		}
	}
	return ErrWeakPassword
}
