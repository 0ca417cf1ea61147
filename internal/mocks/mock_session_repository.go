package mocks

import (
	"context"
	"time"

	"github.com/you/accountsvc/domain"
)

// MockSessionRepository implements domain.SessionRepository interface for testing
type MockSessionRepository struct {
	CreateFunc             func(ctx context.Context, session *domain.Session) error
	FindByUserIDFunc       func(ctx context.Context, userID uint) (*domain.Session, error)
	FindByAccessTokenFunc  func(ctx context.Context, value string) (*domain.Session, error)
	FindByRefreshTokenFunc func(ctx context.Context, value string) (*domain.Session, error)
	SaveFunc               func(ctx context.Context, session *domain.Session) error
	SetActiveFunc          func(ctx context.Context, sessionID uint, active bool) error
	DeleteStaleFunc        func(ctx context.Context, refreshExpiredBefore time.Time) (int64, error)
}

// NewMockSessionRepository creates a new MockSessionRepository with default behaviors
func NewMockSessionRepository() *MockSessionRepository {
	return &MockSessionRepository{}
}

// Create stores a new session
func (m *MockSessionRepository) Create(ctx context.Context, session *domain.Session) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, session)
	}
	return nil
}

// FindByUserID finds the session owned by a user
func (m *MockSessionRepository) FindByUserID(ctx context.Context, userID uint) (*domain.Session, error) {
	if m.FindByUserIDFunc != nil {
		return m.FindByUserIDFunc(ctx, userID)
	}
	return nil, domain.ErrSessionNotFound
}

// FindByAccessToken finds a session by access token value
func (m *MockSessionRepository) FindByAccessToken(ctx context.Context, value string) (*domain.Session, error) {
	if m.FindByAccessTokenFunc != nil {
		return m.FindByAccessTokenFunc(ctx, value)
	}
	return nil, domain.ErrSessionNotFound
}

// FindByRefreshToken finds a session by refresh token value
func (m *MockSessionRepository) FindByRefreshToken(ctx context.Context, value string) (*domain.Session, error) {
	if m.FindByRefreshTokenFunc != nil {
		return m.FindByRefreshTokenFunc(ctx, value)
	}
	return nil, domain.ErrSessionNotFound
}

// Save persists rotated tokens and the active flag
func (m *MockSessionRepository) Save(ctx context.Context, session *domain.Session) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, session)
	}
	return nil
}

// SetActive flips the active flag
func (m *MockSessionRepository) SetActive(ctx context.Context, sessionID uint, active bool) error {
	if m.SetActiveFunc != nil {
		return m.SetActiveFunc(ctx, sessionID, active)
	}
	return nil
}

// DeleteStale removes sessions with long expired refresh tokens
func (m *MockSessionRepository) DeleteStale(ctx context.Context, refreshExpiredBefore time.Time) (int64, error) {
	if m.DeleteStaleFunc != nil {
		return m.DeleteStaleFunc(ctx, refreshExpiredBefore)
	}
	return 0, nil
}

// Compile-time interface compliance verification
var _ domain.SessionRepository = (*MockSessionRepository)(nil)
