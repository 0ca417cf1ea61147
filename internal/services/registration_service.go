package services

import (
	"context"
	"errors"
	"time"

	"github.com/you/accountsvc/domain"
)

// RegistrationConfig tunes pending registrations.
type RegistrationConfig struct {
	PendingTTL time.Duration
	// VerifyBaseURL prefixes the link sent in verification emails.
	VerifyBaseURL string
}

// RegistrationServiceImpl implements domain.RegistrationService
type RegistrationServiceImpl struct {
	userRepo    domain.UserRepository
	pendingRepo domain.PendingUserRepository
	profileRepo domain.ProfileRepository
	tx          domain.Transactor
	passwordSvc domain.PasswordService
	notifier    domain.NotificationService
	issuer      *Issuer
	cfg         RegistrationConfig
	obs         Observers
}

// NewRegistrationService creates a new registration service
func NewRegistrationService(
	userRepo domain.UserRepository,
	pendingRepo domain.PendingUserRepository,
	profileRepo domain.ProfileRepository,
	tx domain.Transactor,
	passwordSvc domain.PasswordService,
	notifier domain.NotificationService,
	issuer *Issuer,
	cfg RegistrationConfig,
	obs Observers,
) domain.RegistrationService {
	return &RegistrationServiceImpl{
		userRepo:    userRepo,
		pendingRepo: pendingRepo,
		profileRepo: profileRepo,
		tx:          tx,
		passwordSvc: passwordSvc,
		notifier:    notifier,
		issuer:      issuer,
		cfg:         cfg,
		obs:         obs,
	}
}

// Register implements domain.RegistrationService
func (s *RegistrationServiceImpl) Register(ctx context.Context, req domain.RegisterRequest) (*domain.RegistrationResult, error) {
	result, err := s.register(ctx, req)
	s.obs.record("register", err)
	if err != nil {
		return nil, err
	}

	eventType := domain.UserRegistrationEvent
	if result.Outcome == domain.RegistrationResent {
		eventType = domain.VerificationResentEvent
	}
	event := domain.NewAuditEvent(eventType, 0, s.issuer.Now()).
		WithEmail(result.Pending.Email).
		WithMetadata("role", string(result.Pending.Role))
	if result.Delivery.Failed() {
		event.WithMetadata("email_delivery", "failed")
	}
	s.obs.audit(ctx, event)
	return result, nil
}

func (s *RegistrationServiceImpl) register(ctx context.Context, req domain.RegisterRequest) (*domain.RegistrationResult, error) {
	req.Email = domain.NormalizeEmail(req.Email)
	if req.Email == "" {
		return nil, domain.ErrInvalidInput
	}
	role, err := domain.ParseRole(string(req.Role))
	if err != nil {
		return nil, err
	}
	if err := domain.ValidatePassword(req.Password); err != nil {
		return nil, err
	}

	var (
		pending *domain.PendingUser
		outcome domain.RegistrationOutcome
		hashed  string
	)
	// A duplicate on retry means a concurrent signup won; the re-read then
	// reports it as PendingVerificationExists.
	err = withConflictRetry(ctx, func(ctx context.Context) error {
		if _, err := s.userRepo.FindByEmail(ctx, req.Email); err == nil {
			return domain.ErrAlreadyRegistered
		} else if !errors.Is(err, domain.ErrUserNotFound) {
			return err
		}

		token, err := s.issuer.NewPendingToken()
		if err != nil {
			return err
		}
		now := s.issuer.Now()

		existing, err := s.pendingRepo.FindByEmail(ctx, req.Email)
		switch {
		case err == nil:
			if !existing.IsExpiredAt(now) {
				return domain.ErrPendingVerificationExists
			}
			// Renewal only rotates the token; the first signup's details stand.
			existing.Renew(token, now)
			if err := s.pendingRepo.Update(ctx, existing); err != nil {
				return err
			}
			pending, outcome = existing, domain.RegistrationResent
			return nil
		case errors.Is(err, domain.ErrPendingUserNotFound):
			// Hashed once; a conflict retry reuses it.
			if hashed == "" {
				if hashed, err = s.passwordSvc.Hash(req.Password); err != nil {
					return err
				}
			}
			created := &domain.PendingUser{
				FirstName:         req.FirstName,
				LastName:          req.LastName,
				Email:             req.Email,
				PasswordHash:      hashed,
				Role:              role,
				VerificationToken: token,
				CreatedAt:         now,
				TTL:               s.cfg.PendingTTL,
			}
			if err := s.pendingRepo.Create(ctx, created); err != nil {
				return err
			}
			pending, outcome = created, domain.RegistrationCreated
			return nil
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}

	msg := verificationEmail(s.cfg.VerifyBaseURL, pending.Email, pending.FullName(), pending.VerificationToken, pending.TTL)
	return &domain.RegistrationResult{
		Outcome:  outcome,
		Pending:  pending,
		Delivery: s.obs.deliver(ctx, s.notifier, msg),
	}, nil
}

// CheckStatus implements domain.RegistrationService. It never mutates state;
// an unknown token reads as Verified.
func (s *RegistrationServiceImpl) CheckStatus(ctx context.Context, token string) (*domain.VerificationStatus, error) {
	pending, err := s.pendingRepo.FindByToken(ctx, token)
	if errors.Is(err, domain.ErrPendingUserNotFound) {
		return &domain.VerificationStatus{State: domain.VerificationVerified}, nil
	}
	if err != nil {
		return nil, err
	}

	state := domain.VerificationPending
	if pending.IsExpiredAt(s.issuer.Now()) {
		state = domain.VerificationExpired
	}
	return &domain.VerificationStatus{State: state, Email: pending.Email, Name: pending.FullName()}, nil
}

// Complete implements domain.RegistrationService. User, role profile and
// pending removal commit together.
func (s *RegistrationServiceImpl) Complete(ctx context.Context, email string) (*domain.User, error) {
	email = domain.NormalizeEmail(email)

	var user *domain.User
	err := s.tx.InTransaction(ctx, func(ctx context.Context) error {
		pending, err := s.pendingRepo.FindByEmail(ctx, email)
		if err != nil {
			return err
		}

		user = &domain.User{
			FirstName:    pending.FirstName,
			LastName:     pending.LastName,
			Email:        pending.Email,
			PasswordHash: pending.PasswordHash,
			Role:         pending.Role,
			CreatedAt:    s.issuer.Now(),
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			if errors.Is(err, domain.ErrDuplicateKey) {
				return domain.ErrAlreadyRegistered
			}
			return err
		}
		if err := s.profileRepo.CreateFor(ctx, user); err != nil {
			return err
		}
		return s.pendingRepo.Delete(ctx, pending.ID)
	})
	s.obs.record("complete_verification", err)
	if err != nil {
		return nil, err
	}

	s.obs.audit(ctx, domain.NewAuditEvent(domain.VerificationCompletedEvent, user.ID, s.issuer.Now()).
		WithEmail(user.Email))
	return user, nil
}
