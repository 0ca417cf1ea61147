package mocks

import (
	"context"
	"time"

	"github.com/you/accountsvc/domain"
)

// MockUserRepository implements domain.UserRepository interface for testing
type MockUserRepository struct {
	CreateFunc          func(ctx context.Context, user *domain.User) error
	FindByEmailFunc     func(ctx context.Context, email string) (*domain.User, error)
	FindByIDFunc        func(ctx context.Context, id uint) (*domain.User, error)
	UpdatePasswordFunc  func(ctx context.Context, userID uint, passwordHash string) error
	UpdateLastLoginFunc func(ctx context.Context, userID uint, at time.Time) error
	SetBannedFunc       func(ctx context.Context, userID uint, banned bool) error
}

// NewMockUserRepository creates a new MockUserRepository with default behaviors
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{}
}

// Create creates a new user
func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil
}

// FindByEmail finds a user by email
func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.FindByEmailFunc != nil {
		return m.FindByEmailFunc(ctx, email)
	}
	// Default behavior: not found
	return nil, domain.ErrUserNotFound
}

// FindByID finds a user by ID
func (m *MockUserRepository) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, domain.ErrUserNotFound
}

// UpdatePassword stores a new hash
func (m *MockUserRepository) UpdatePassword(ctx context.Context, userID uint, passwordHash string) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, userID, passwordHash)
	}
	return nil
}

// UpdateLastLogin stamps the login time
func (m *MockUserRepository) UpdateLastLogin(ctx context.Context, userID uint, at time.Time) error {
	if m.UpdateLastLoginFunc != nil {
		return m.UpdateLastLoginFunc(ctx, userID, at)
	}
	return nil
}

// SetBanned toggles the banned flag
func (m *MockUserRepository) SetBanned(ctx context.Context, userID uint, banned bool) error {
	if m.SetBannedFunc != nil {
		return m.SetBannedFunc(ctx, userID, banned)
	}
	return nil
}

// Compile-time interface compliance verification
var _ domain.UserRepository = (*MockUserRepository)(nil)

// MockProfileRepository implements domain.ProfileRepository interface for testing
type MockProfileRepository struct {
	CreateForFunc func(ctx context.Context, user *domain.User) error
}

// CreateFor creates the role profile
func (m *MockProfileRepository) CreateFor(ctx context.Context, user *domain.User) error {
	if m.CreateForFunc != nil {
		return m.CreateForFunc(ctx, user)
	}
	return nil
}

var _ domain.ProfileRepository = (*MockProfileRepository)(nil)
