package mocks

import (
	"context"
	"time"

	"github.com/you/accountsvc/domain"
)

// MockPendingUserRepository implements domain.PendingUserRepository interface for testing
type MockPendingUserRepository struct {
	CreateFunc      func(ctx context.Context, pending *domain.PendingUser) error
	FindByEmailFunc func(ctx context.Context, email string) (*domain.PendingUser, error)
	FindByTokenFunc func(ctx context.Context, token string) (*domain.PendingUser, error)
	UpdateFunc      func(ctx context.Context, pending *domain.PendingUser) error
	DeleteFunc      func(ctx context.Context, id uint) error
}

func (m *MockPendingUserRepository) Create(ctx context.Context, pending *domain.PendingUser) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, pending)
	}
	return nil
}

func (m *MockPendingUserRepository) FindByEmail(ctx context.Context, email string) (*domain.PendingUser, error) {
	if m.FindByEmailFunc != nil {
		return m.FindByEmailFunc(ctx, email)
	}
	return nil, domain.ErrPendingUserNotFound
}

func (m *MockPendingUserRepository) FindByToken(ctx context.Context, token string) (*domain.PendingUser, error) {
	if m.FindByTokenFunc != nil {
		return m.FindByTokenFunc(ctx, token)
	}
	return nil, domain.ErrPendingUserNotFound
}

func (m *MockPendingUserRepository) Update(ctx context.Context, pending *domain.PendingUser) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, pending)
	}
	return nil
}

func (m *MockPendingUserRepository) Delete(ctx context.Context, id uint) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockTokenRepository implements domain.TokenRepository interface for testing
type MockTokenRepository struct {
	CreateFunc        func(ctx context.Context, token *domain.Token) error
	FindByValueFunc   func(ctx context.Context, value string, tokenType domain.TokenType) (*domain.Token, error)
	UpdateFunc        func(ctx context.Context, token *domain.Token) error
	DeleteFunc        func(ctx context.Context, id uint) error
	DeleteExpiredFunc func(ctx context.Context, tokenType domain.TokenType, now time.Time) (int64, error)
}

func (m *MockTokenRepository) Create(ctx context.Context, token *domain.Token) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, token)
	}
	return nil
}

func (m *MockTokenRepository) FindByValue(ctx context.Context, value string, tokenType domain.TokenType) (*domain.Token, error) {
	if m.FindByValueFunc != nil {
		return m.FindByValueFunc(ctx, value, tokenType)
	}
	return nil, domain.ErrTokenNotFound
}

func (m *MockTokenRepository) Update(ctx context.Context, token *domain.Token) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, token)
	}
	return nil
}

func (m *MockTokenRepository) Delete(ctx context.Context, id uint) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockTokenRepository) DeleteExpired(ctx context.Context, tokenType domain.TokenType, now time.Time) (int64, error) {
	if m.DeleteExpiredFunc != nil {
		return m.DeleteExpiredFunc(ctx, tokenType, now)
	}
	return 0, nil
}

// MockCodeRepository implements domain.CodeRepository interface for testing
type MockCodeRepository struct {
	CreateFunc        func(ctx context.Context, code *domain.Code) error
	FindByValueFunc   func(ctx context.Context, value string) (*domain.Code, error)
	DeleteFunc        func(ctx context.Context, id uint) error
	DeleteByUserFunc  func(ctx context.Context, userID uint) (int64, error)
	DeleteExpiredFunc func(ctx context.Context, now time.Time) (int64, error)
}

func (m *MockCodeRepository) Create(ctx context.Context, code *domain.Code) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, code)
	}
	return nil
}

func (m *MockCodeRepository) FindByValue(ctx context.Context, value string) (*domain.Code, error) {
	if m.FindByValueFunc != nil {
		return m.FindByValueFunc(ctx, value)
	}
	return nil, domain.ErrCodeNotFound
}

func (m *MockCodeRepository) Delete(ctx context.Context, id uint) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockCodeRepository) DeleteByUser(ctx context.Context, userID uint) (int64, error) {
	if m.DeleteByUserFunc != nil {
		return m.DeleteByUserFunc(ctx, userID)
	}
	return 0, nil
}

func (m *MockCodeRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	if m.DeleteExpiredFunc != nil {
		return m.DeleteExpiredFunc(ctx, now)
	}
	return 0, nil
}

// MockTransactor runs the callback inline without a real transaction.
type MockTransactor struct {
	Calls int
}

func (m *MockTransactor) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.Calls++
	return fn(ctx)
}

// Compile-time interface compliance verification
var (
	_ domain.PendingUserRepository = (*MockPendingUserRepository)(nil)
	_ domain.TokenRepository       = (*MockTokenRepository)(nil)
	_ domain.CodeRepository        = (*MockCodeRepository)(nil)
	_ domain.Transactor            = (*MockTransactor)(nil)
)
