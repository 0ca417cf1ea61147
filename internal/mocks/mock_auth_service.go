package mocks

import (
	"context"

	"github.com/you/accountsvc/domain"
)

// MockAuthService implements domain.AuthService interface for testing
type MockAuthService struct {
	LoginFunc           func(ctx context.Context, email, password string) (*domain.LoginResult, error)
	ValidateSessionFunc func(ctx context.Context, header string) (*domain.Session, error)
	AuthenticateFunc    func(ctx context.Context, header string) (*domain.Principal, error)
	RefreshFunc         func(ctx context.Context, refreshToken string) (*domain.Session, error)
	LogoutFunc          func(ctx context.Context, session *domain.Session) error
	CurrentUserFunc     func(ctx context.Context, userID uint) (*domain.User, error)
}

// NewMockAuthService creates a new MockAuthService with default behaviors
func NewMockAuthService() *MockAuthService {
	return &MockAuthService{}
}

// Login authenticates a user
func (m *MockAuthService) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password)
	}
	return nil, domain.ErrUserNotFound
}

// ValidateSession checks a bearer header
func (m *MockAuthService) ValidateSession(ctx context.Context, header string) (*domain.Session, error) {
	if m.ValidateSessionFunc != nil {
		return m.ValidateSessionFunc(ctx, header)
	}
	return nil, domain.ErrMissingHeader
}

// Authenticate resolves a bearer header to a principal
func (m *MockAuthService) Authenticate(ctx context.Context, header string) (*domain.Principal, error) {
	if m.AuthenticateFunc != nil {
		return m.AuthenticateFunc(ctx, header)
	}
	return nil, domain.ErrMissingHeader
}

// Refresh rotates the access token
func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (*domain.Session, error) {
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx, refreshToken)
	}
	return nil, domain.ErrInvalidRefreshToken
}

// Logout deactivates the session
func (m *MockAuthService) Logout(ctx context.Context, session *domain.Session) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, session)
	}
	return nil
}

// CurrentUser loads the caller's account
func (m *MockAuthService) CurrentUser(ctx context.Context, userID uint) (*domain.User, error) {
	if m.CurrentUserFunc != nil {
		return m.CurrentUserFunc(ctx, userID)
	}
	return nil, domain.ErrUserNotFound
}

// Compile-time interface compliance verification
var _ domain.AuthService = (*MockAuthService)(nil)
