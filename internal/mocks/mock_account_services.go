package mocks

import (
	"context"

	"github.com/you/accountsvc/domain"
)

// MockRegistrationService implements domain.RegistrationService interface for testing
type MockRegistrationService struct {
	RegisterFunc    func(ctx context.Context, req domain.RegisterRequest) (*domain.RegistrationResult, error)
	CheckStatusFunc func(ctx context.Context, token string) (*domain.VerificationStatus, error)
	CompleteFunc    func(ctx context.Context, email string) (*domain.User, error)
}

func (m *MockRegistrationService) Register(ctx context.Context, req domain.RegisterRequest) (*domain.RegistrationResult, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, req)
	}
	return &domain.RegistrationResult{
		Outcome:  domain.RegistrationCreated,
		Pending:  &domain.PendingUser{Email: req.Email, FirstName: req.FirstName, LastName: req.LastName, Role: req.Role},
		Delivery: domain.Delivery{Template: "verification"},
	}, nil
}

func (m *MockRegistrationService) CheckStatus(ctx context.Context, token string) (*domain.VerificationStatus, error) {
	if m.CheckStatusFunc != nil {
		return m.CheckStatusFunc(ctx, token)
	}
	return &domain.VerificationStatus{State: domain.VerificationVerified}, nil
}

func (m *MockRegistrationService) Complete(ctx context.Context, email string) (*domain.User, error) {
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, email)
	}
	return nil, domain.ErrPendingUserNotFound
}

// MockPasswordResetService implements domain.PasswordResetService interface for testing
type MockPasswordResetService struct {
	RequestResetFunc func(ctx context.Context, email string) (*domain.Delivery, error)
	VerifyCodeFunc   func(ctx context.Context, code string) (string, error)
	ResetFunc        func(ctx context.Context, token, newPassword string) error
}

func (m *MockPasswordResetService) RequestReset(ctx context.Context, email string) (*domain.Delivery, error) {
	if m.RequestResetFunc != nil {
		return m.RequestResetFunc(ctx, email)
	}
	return &domain.Delivery{Template: "password_reset"}, nil
}

func (m *MockPasswordResetService) VerifyCode(ctx context.Context, code string) (string, error) {
	if m.VerifyCodeFunc != nil {
		return m.VerifyCodeFunc(ctx, code)
	}
	return "", domain.ErrCodeNotFound
}

func (m *MockPasswordResetService) Reset(ctx context.Context, token, newPassword string) error {
	if m.ResetFunc != nil {
		return m.ResetFunc(ctx, token, newPassword)
	}
	return nil
}

// MockAccountAdminService implements domain.AccountAdminService interface for testing
type MockAccountAdminService struct {
	GetUserFunc   func(ctx context.Context, userID uint) (*domain.User, error)
	SetBannedFunc func(ctx context.Context, userID uint, banned bool) (*domain.User, error)
}

func (m *MockAccountAdminService) GetUser(ctx context.Context, userID uint) (*domain.User, error) {
	if m.GetUserFunc != nil {
		return m.GetUserFunc(ctx, userID)
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockAccountAdminService) SetBanned(ctx context.Context, userID uint, banned bool) (*domain.User, error) {
	if m.SetBannedFunc != nil {
		return m.SetBannedFunc(ctx, userID, banned)
	}
	return &domain.User{ID: userID, Banned: banned}, nil
}

// Compile-time interface compliance verification
var (
	_ domain.RegistrationService  = (*MockRegistrationService)(nil)
	_ domain.PasswordResetService = (*MockPasswordResetService)(nil)
	_ domain.AccountAdminService  = (*MockAccountAdminService)(nil)
)
