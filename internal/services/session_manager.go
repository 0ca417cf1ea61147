package services

import (
	"context"
	"errors"

	"github.com/you/accountsvc/domain"
)

// SessionManagerImpl implements domain.SessionManager
type SessionManagerImpl struct {
	sessions domain.SessionRepository
	tx       domain.Transactor
	issuer   *Issuer
}

// NewSessionManager creates a new session manager
func NewSessionManager(sessions domain.SessionRepository, tx domain.Transactor, issuer *Issuer) domain.SessionManager {
	return &SessionManagerImpl{sessions: sessions, tx: tx, issuer: issuer}
}

// Establish implements domain.SessionManager. The user's existing session
// is rotated in place; otherwise a new one is inserted. A concurrent insert
// for the same user loses on the unique user_id index and retries as a rotation.
func (m *SessionManagerImpl) Establish(ctx context.Context, user *domain.User) (*domain.Session, error) {
	var session *domain.Session
	err := withConflictRetry(ctx, func(ctx context.Context) error {
		return m.tx.InTransaction(ctx, func(ctx context.Context) error {
			existing, err := m.sessions.FindByUserID(ctx, user.ID)
			switch {
			case err == nil:
				if err := m.rotate(existing); err != nil {
					return err
				}
				existing.Active = true
				if err := m.sessions.Save(ctx, existing); err != nil {
					return err
				}
				session = existing
				return nil
			case errors.Is(err, domain.ErrSessionNotFound):
				created, err := m.newSession(user.ID)
				if err != nil {
					return err
				}
				if err := m.sessions.Create(ctx, created); err != nil {
					return err
				}
				session = created
				return nil
			default:
				return err
			}
		})
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Refresh implements domain.SessionManager. Only the access token is
// rotated; an expired refresh token is reported and left untouched.
func (m *SessionManagerImpl) Refresh(ctx context.Context, refreshToken string) (*domain.Session, error) {
	var session *domain.Session
	err := withConflictRetry(ctx, func(ctx context.Context) error {
		found, err := m.sessions.FindByRefreshToken(ctx, refreshToken)
		if errors.Is(err, domain.ErrSessionNotFound) {
			return domain.ErrInvalidRefreshToken
		}
		if err != nil {
			return err
		}
		if found.RefreshToken.IsExpiredAt(m.issuer.Now()) {
			return domain.ErrRefreshTokenExpired
		}
		if err := m.issuer.Rotate(&found.AccessToken); err != nil {
			return err
		}
		if err := m.sessions.Save(ctx, found); err != nil {
			return err
		}
		session = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Validate implements domain.SessionManager. It does not look at the
// active flag.
func (m *SessionManagerImpl) Validate(ctx context.Context, accessToken string) (*domain.Session, error) {
	session, err := m.sessions.FindByAccessToken(ctx, accessToken)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return nil, domain.ErrInvalidAccessToken
	}
	if err != nil {
		return nil, err
	}
	if session.AccessToken.IsExpiredAt(m.issuer.Now()) {
		return nil, domain.ErrAccessTokenExpired
	}
	return session, nil
}

// Revoke implements domain.SessionManager. Tokens stay in place.
func (m *SessionManagerImpl) Revoke(ctx context.Context, session *domain.Session) error {
	if err := m.sessions.SetActive(ctx, session.ID, false); err != nil {
		return err
	}
	session.Active = false
	return nil
}

func (m *SessionManagerImpl) rotate(session *domain.Session) error {
	if err := m.issuer.Rotate(&session.AccessToken); err != nil {
		return err
	}
	return m.issuer.Rotate(&session.RefreshToken)
}

func (m *SessionManagerImpl) newSession(userID uint) (*domain.Session, error) {
	access, err := m.issuer.NewToken(userID, domain.TokenAccess)
	if err != nil {
		return nil, err
	}
	refresh, err := m.issuer.NewToken(userID, domain.TokenRefresh)
	if err != nil {
		return nil, err
	}
	return &domain.Session{
		UserID:       userID,
		AccessToken:  *access,
		RefreshToken: *refresh,
		Active:       true,
		CreatedAt:    m.issuer.Now(),
	}, nil
}
