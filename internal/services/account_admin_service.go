package services

import (
	"context"
	"errors"

	"github.com/you/accountsvc/domain"
)

// AccountAdminServiceImpl implements domain.AccountAdminService
type AccountAdminServiceImpl struct {
	userRepo    domain.UserRepository
	sessionRepo domain.SessionRepository
	tx          domain.Transactor
	clock       domain.Clock
	obs         Observers
}

// NewAccountAdminService creates a new account administration service
func NewAccountAdminService(
	userRepo domain.UserRepository,
	sessionRepo domain.SessionRepository,
	tx domain.Transactor,
	clock domain.Clock,
	obs Observers,
) domain.AccountAdminService {
	return &AccountAdminServiceImpl{userRepo: userRepo, sessionRepo: sessionRepo, tx: tx, clock: clock, obs: obs}
}

// GetUser implements domain.AccountAdminService
func (s *AccountAdminServiceImpl) GetUser(ctx context.Context, userID uint) (*domain.User, error) {
	return s.userRepo.FindByID(ctx, userID)
}

// SetBanned implements domain.AccountAdminService. Banning also
// deactivates the user's session.
func (s *AccountAdminServiceImpl) SetBanned(ctx context.Context, userID uint, banned bool) (*domain.User, error) {
	err := s.tx.InTransaction(ctx, func(ctx context.Context) error {
		if err := s.userRepo.SetBanned(ctx, userID, banned); err != nil {
			return err
		}
		if !banned {
			return nil
		}
		session, err := s.sessionRepo.FindByUserID(ctx, userID)
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return s.sessionRepo.SetActive(ctx, session.ID, false)
	})
	s.obs.record("set_banned", err)
	if err != nil {
		return nil, err
	}

	event := domain.NewAuditEvent(domain.UserBanChangedEvent, userID, s.clock.Now()).WithMetadata("banned", banned)
	if p, ok := domain.PrincipalFromContext(ctx); ok {
		event.WithMetadata("actor_id", p.User.ID)
	}
	s.obs.audit(ctx, event)

	return s.userRepo.FindByID(ctx, userID)
}
