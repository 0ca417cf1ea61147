package services

import (
	"context"
	"errors"
	"time"

	"github.com/you/accountsvc/domain"
)

// PasswordResetConfig tunes the reset flow.
type PasswordResetConfig struct {
	// ThrottleWindow is the minimum gap between reset requests per email.
	ThrottleWindow time.Duration
}

// PasswordResetServiceImpl implements domain.PasswordResetService
type PasswordResetServiceImpl struct {
	userRepo    domain.UserRepository
	codeRepo    domain.CodeRepository
	tokenRepo   domain.TokenRepository
	tx          domain.Transactor
	passwordSvc domain.PasswordService
	notifier    domain.NotificationService
	throttle    domain.Throttle
	issuer      *Issuer
	cfg         PasswordResetConfig
	obs         Observers
}

// NewPasswordResetService creates a new password reset service.
// throttle may be nil.
func NewPasswordResetService(
	userRepo domain.UserRepository,
	codeRepo domain.CodeRepository,
	tokenRepo domain.TokenRepository,
	tx domain.Transactor,
	passwordSvc domain.PasswordService,
	notifier domain.NotificationService,
	throttle domain.Throttle,
	issuer *Issuer,
	cfg PasswordResetConfig,
	obs Observers,
) domain.PasswordResetService {
	return &PasswordResetServiceImpl{
		userRepo:    userRepo,
		codeRepo:    codeRepo,
		tokenRepo:   tokenRepo,
		tx:          tx,
		passwordSvc: passwordSvc,
		notifier:    notifier,
		throttle:    throttle,
		issuer:      issuer,
		cfg:         cfg,
		obs:         obs,
	}
}

// RequestReset implements domain.PasswordResetService
func (s *PasswordResetServiceImpl) RequestReset(ctx context.Context, email string) (*domain.Delivery, error) {
	email = domain.NormalizeEmail(email)

	delivery, userID, err := s.requestReset(ctx, email)
	s.obs.record("request_password_reset", err)
	if err != nil {
		return nil, err
	}

	s.obs.audit(ctx, domain.NewAuditEvent(domain.ResetRequestedEvent, userID, s.issuer.Now()).WithEmail(email))
	return delivery, nil
}

func (s *PasswordResetServiceImpl) requestReset(ctx context.Context, email string) (*domain.Delivery, uint, error) {
	if err := s.checkThrottle(ctx, email); err != nil {
		return nil, 0, err
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, 0, err
	}

	var code *domain.Code
	err = withConflictRetry(ctx, func(ctx context.Context) error {
		return s.tx.InTransaction(ctx, func(ctx context.Context) error {
			if _, err := s.codeRepo.DeleteByUser(ctx, user.ID); err != nil {
				return err
			}
			issued, err := s.issuer.NewCode(user.ID)
			if err != nil {
				return err
			}
			if err := s.codeRepo.Create(ctx, issued); err != nil {
				return err
			}
			code = issued
			return nil
		})
	})
	if err != nil {
		return nil, 0, err
	}

	delivery := s.obs.deliver(ctx, s.notifier, resetCodeEmail(user.Email, user.FullName(), code.Value, code.TTL))
	return &delivery, user.ID, nil
}

// checkThrottle fails open when the throttle backend is unavailable.
func (s *PasswordResetServiceImpl) checkThrottle(ctx context.Context, email string) error {
	if s.throttle == nil || s.cfg.ThrottleWindow <= 0 {
		return nil
	}
	allowed, retryAfter, err := s.throttle.Allow(ctx, "password_reset:"+email, s.cfg.ThrottleWindow)
	if err != nil {
		s.obs.Log.Warn().Ctx(ctx).Err(err).Msg("reset throttle unavailable")
		return nil
	}
	if !allowed {
		return &domain.RateLimitError{RetryAfter: retryAfter}
	}
	return nil
}

// VerifyCode implements domain.PasswordResetService. The code is single use
// and is exchanged for a short lived VERIFICATION token.
func (s *PasswordResetServiceImpl) VerifyCode(ctx context.Context, value string) (string, error) {
	token, err := s.verifyCode(ctx, value)
	s.obs.record("verify_reset_code", err)
	if err != nil {
		return "", err
	}

	s.obs.audit(ctx, domain.NewAuditEvent(domain.ResetVerifiedEvent, token.UserID, s.issuer.Now()))
	return token.Value, nil
}

func (s *PasswordResetServiceImpl) verifyCode(ctx context.Context, value string) (*domain.Token, error) {
	code, err := s.codeRepo.FindByValue(ctx, value)
	if err != nil {
		return nil, err
	}

	if code.IsExpiredAt(s.issuer.Now()) {
		if err := s.codeRepo.Delete(ctx, code.ID); err != nil && !errors.Is(err, domain.ErrCodeNotFound) {
			return nil, err
		}
		return nil, domain.ErrCodeExpired
	}

	var token *domain.Token
	err = withConflictRetry(ctx, func(ctx context.Context) error {
		return s.tx.InTransaction(ctx, func(ctx context.Context) error {
			issued, err := s.issuer.NewToken(code.UserID, domain.TokenVerification)
			if err != nil {
				return err
			}
			if err := s.tokenRepo.Create(ctx, issued); err != nil {
				return err
			}
			// A concurrent verify of the same code loses here.
			if err := s.codeRepo.Delete(ctx, code.ID); err != nil {
				return err
			}
			token = issued
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return token, nil
}

// Reset implements domain.PasswordResetService
func (s *PasswordResetServiceImpl) Reset(ctx context.Context, value, newPassword string) error {
	userID, err := s.reset(ctx, value, newPassword)
	s.obs.record("reset_password", err)
	if err != nil {
		return err
	}

	s.obs.audit(ctx, domain.NewAuditEvent(domain.ResetCompletedEvent, userID, s.issuer.Now()))
	return nil
}

func (s *PasswordResetServiceImpl) reset(ctx context.Context, value, newPassword string) (uint, error) {
	token, err := s.tokenRepo.FindByValue(ctx, value, domain.TokenVerification)
	if err != nil {
		return 0, err
	}

	if token.IsExpiredAt(s.issuer.Now()) {
		if err := s.tokenRepo.Delete(ctx, token.ID); err != nil && !errors.Is(err, domain.ErrTokenNotFound) {
			return 0, err
		}
		return 0, domain.ErrTokenExpired
	}

	user, err := s.userRepo.FindByID(ctx, token.UserID)
	if err != nil {
		return 0, err
	}
	if s.passwordSvc.Verify(user.PasswordHash, newPassword) {
		return 0, domain.ErrSamePassword
	}
	if err := domain.ValidatePassword(newPassword); err != nil {
		return 0, err
	}

	hashed, err := s.passwordSvc.Hash(newPassword)
	if err != nil {
		return 0, err
	}

	err = s.tx.InTransaction(ctx, func(ctx context.Context) error {
		if err := s.tokenRepo.Delete(ctx, token.ID); err != nil {
			return err
		}
		return s.userRepo.UpdatePassword(ctx, user.ID, hashed)
	})
	if err != nil {
		return 0, err
	}
	return user.ID, nil
}
