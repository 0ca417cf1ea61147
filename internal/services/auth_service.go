package services

import (
	"context"
	"errors"
	"strings"

	"github.com/you/accountsvc/domain"
)

// AuthServiceImpl implements domain.AuthService
type AuthServiceImpl struct {
	userRepo    domain.UserRepository
	pendingRepo domain.PendingUserRepository
	sessions    domain.SessionManager
	passwordSvc domain.PasswordService
	clock       domain.Clock
	obs         Observers
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo domain.UserRepository,
	pendingRepo domain.PendingUserRepository,
	sessions domain.SessionManager,
	passwordSvc domain.PasswordService,
	clock domain.Clock,
	obs Observers,
) domain.AuthService {
	return &AuthServiceImpl{
		userRepo:    userRepo,
		pendingRepo: pendingRepo,
		sessions:    sessions,
		passwordSvc: passwordSvc,
		clock:       clock,
		obs:         obs,
	}
}

// Login implements domain.AuthService
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	email = domain.NormalizeEmail(email)

	result, err := s.login(ctx, email, password)
	s.obs.record("login", err)
	if err != nil {
		s.obs.audit(ctx, domain.NewAuditEvent(domain.UserLoginFailureEvent, 0, s.clock.Now()).
			WithEmail(email).WithError(err))
		return nil, err
	}

	s.obs.audit(ctx, domain.NewAuditEvent(domain.UserLoginEvent, result.User.ID, s.clock.Now()).
		WithEmail(email).WithSession(result.Session.ID))
	return result, nil
}

func (s *AuthServiceImpl) login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	// An unverified signup blocks login even if the password would match.
	if _, err := s.pendingRepo.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrNotVerified
	} else if !errors.Is(err, domain.ErrPendingUserNotFound) {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if !s.passwordSvc.Verify(user.PasswordHash, password) {
		return nil, domain.ErrIncorrectPassword
	}

	if user.Banned {
		return nil, domain.ErrAccountBanned
	}

	if s.passwordSvc.NeedsUpgrade(user.PasswordHash) {
		s.upgradeHash(ctx, user, password)
	}

	session, err := s.sessions.Establish(ctx, user)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LastLogin = &now

	return &domain.LoginResult{User: user, Session: session}, nil
}

// upgradeHash re-hashes with the current algorithm. Failure keeps the old hash.
func (s *AuthServiceImpl) upgradeHash(ctx context.Context, user *domain.User, password string) {
	hashed, err := s.passwordSvc.Hash(password)
	if err == nil {
		err = s.userRepo.UpdatePassword(ctx, user.ID, hashed)
	}
	if err != nil {
		s.obs.Log.Warn().Ctx(ctx).Err(err).Uint("user_id", user.ID).Msg("password hash upgrade failed")
		return
	}
	user.PasswordHash = hashed
}

// ValidateSession implements domain.AuthService
func (s *AuthServiceImpl) ValidateSession(ctx context.Context, authorizationHeader string) (*domain.Session, error) {
	token, err := bearerToken(authorizationHeader)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.Validate(ctx, token)
	if err != nil {
		return nil, err
	}
	if !session.Active {
		return nil, domain.ErrSessionInactive
	}
	return session, nil
}

// Authenticate implements domain.AuthService
func (s *AuthServiceImpl) Authenticate(ctx context.Context, authorizationHeader string) (*domain.Principal, error) {
	session, err := s.ValidateSession(ctx, authorizationHeader)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	if user.Banned {
		return nil, domain.ErrAccountBanned
	}
	return &domain.Principal{User: user, Session: session}, nil
}

// Refresh implements domain.AuthService
func (s *AuthServiceImpl) Refresh(ctx context.Context, refreshToken string) (*domain.Session, error) {
	session, err := s.sessions.Refresh(ctx, refreshToken)
	s.obs.record("refresh", err)
	if err != nil {
		return nil, err
	}

	s.obs.audit(ctx, domain.NewAuditEvent(domain.TokenRefreshEvent, session.UserID, s.clock.Now()).
		WithSession(session.ID))
	return session, nil
}

// Logout implements domain.AuthService
func (s *AuthServiceImpl) Logout(ctx context.Context, session *domain.Session) error {
	err := s.sessions.Revoke(ctx, session)
	s.obs.record("logout", err)
	if err != nil {
		return err
	}

	s.obs.audit(ctx, domain.NewAuditEvent(domain.UserLogoutEvent, session.UserID, s.clock.Now()).
		WithSession(session.ID))
	return nil
}

// CurrentUser implements domain.AuthService
func (s *AuthServiceImpl) CurrentUser(ctx context.Context, userID uint) (*domain.User, error) {
	return s.userRepo.FindByID(ctx, userID)
}

// bearerToken extracts the token from "Bearer <token>".
func bearerToken(header string) (string, error) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", domain.ErrMissingHeader
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", domain.ErrMissingHeader
	}
	return token, nil
}
