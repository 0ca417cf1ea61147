package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/you/accountsvc/domain"
)

// DBSession references its two tokens. Every foreign key carries a unique
// index, so a user can own one session and a token can back one session.
type DBSession struct {
	ID             uint `gorm:"primaryKey"`
	UserID         uint `gorm:"uniqueIndex;not null"`
	AccessTokenID  uint `gorm:"uniqueIndex;not null"`
	RefreshTokenID uint `gorm:"uniqueIndex;not null"`
	Active         bool `gorm:"not null"`
	CreatedAt      time.Time
}

func (DBSession) TableName() string { return "sessions" }

// SessionRepositoryImpl implements domain.SessionRepository using GORM
type SessionRepositoryImpl struct {
	db *gorm.DB
	tx *Transactor
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *gorm.DB) domain.SessionRepository {
	return &SessionRepositoryImpl{db: db, tx: NewTransactor(db)}
}

// Create inserts both tokens and the session row atomically.
// A concurrent session for the same user surfaces as domain.ErrDuplicateKey.
func (r *SessionRepositoryImpl) Create(ctx context.Context, session *domain.Session) error {
	return r.tx.InTransaction(ctx, func(ctx context.Context) error {
		db := dbFrom(ctx, r.db)

		access := tokenToDB(&session.AccessToken)
		if err := db.Create(access).Error; err != nil {
			return translateError(err, "session.create_access_token")
		}
		refresh := tokenToDB(&session.RefreshToken)
		if err := db.Create(refresh).Error; err != nil {
			return translateError(err, "session.create_refresh_token")
		}

		row := &DBSession{
			UserID:         session.UserID,
			AccessTokenID:  access.ID,
			RefreshTokenID: refresh.ID,
			Active:         session.Active,
			CreatedAt:      session.CreatedAt,
		}
		if err := db.Create(row).Error; err != nil {
			return translateError(err, "session.create")
		}

		session.ID = row.ID
		session.CreatedAt = row.CreatedAt
		session.AccessToken.ID = access.ID
		session.RefreshToken.ID = refresh.ID
		return nil
	})
}

// FindByUserID implements domain.SessionRepository
func (r *SessionRepositoryImpl) FindByUserID(ctx context.Context, userID uint) (*domain.Session, error) {
	return r.findBy(ctx, "user_id = ?", userID)
}

// FindByAccessToken implements domain.SessionRepository
func (r *SessionRepositoryImpl) FindByAccessToken(ctx context.Context, value string) (*domain.Session, error) {
	id, err := r.tokenID(ctx, value, domain.TokenAccess)
	if err != nil {
		return nil, err
	}
	return r.findBy(ctx, "access_token_id = ?", id)
}

// FindByRefreshToken implements domain.SessionRepository
func (r *SessionRepositoryImpl) FindByRefreshToken(ctx context.Context, value string) (*domain.Session, error) {
	id, err := r.tokenID(ctx, value, domain.TokenRefresh)
	if err != nil {
		return nil, err
	}
	return r.findBy(ctx, "refresh_token_id = ?", id)
}

// Save persists the active flag and both rotated tokens.
func (r *SessionRepositoryImpl) Save(ctx context.Context, session *domain.Session) error {
	return r.tx.InTransaction(ctx, func(ctx context.Context) error {
		db := dbFrom(ctx, r.db)
		if err := updateToken(db, &session.AccessToken); err != nil {
			return err
		}
		if err := updateToken(db, &session.RefreshToken); err != nil {
			return err
		}
		return r.SetActive(ctx, session.ID, session.Active)
	})
}

// SetActive implements domain.SessionRepository
func (r *SessionRepositoryImpl) SetActive(ctx context.Context, sessionID uint, active bool) error {
	res := dbFrom(ctx, r.db).Model(&DBSession{}).Where("id = ?", sessionID).Update("active", active)
	if res.Error != nil {
		return translateError(res.Error, "session.set_active")
	}
	if res.RowsAffected == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

// DeleteStale removes sessions whose refresh token expired before the
// cutoff, together with the tokens they own.
func (r *SessionRepositoryImpl) DeleteStale(ctx context.Context, refreshExpiredBefore time.Time) (int64, error) {
	var deleted int64
	err := r.tx.InTransaction(ctx, func(ctx context.Context) error {
		db := dbFrom(ctx, r.db)

		var refreshIDs []uint
		err := db.Model(&DBToken{}).
			Where("type = ? AND expires_at < ?", string(domain.TokenRefresh), refreshExpiredBefore).
			Pluck("id", &refreshIDs).Error
		if err != nil {
			return translateError(err, "session.find_stale")
		}
		if len(refreshIDs) == 0 {
			return nil
		}

		var rows []DBSession
		if err := db.Where("refresh_token_id IN ?", refreshIDs).Find(&rows).Error; err != nil {
			return translateError(err, "session.find_stale")
		}
		if len(rows) == 0 {
			return nil
		}

		sessionIDs := make([]uint, 0, len(rows))
		tokenIDs := make([]uint, 0, 2*len(rows))
		for _, row := range rows {
			sessionIDs = append(sessionIDs, row.ID)
			tokenIDs = append(tokenIDs, row.AccessTokenID, row.RefreshTokenID)
		}

		res := db.Where("id IN ?", sessionIDs).Delete(&DBSession{})
		if res.Error != nil {
			return translateError(res.Error, "session.delete_stale")
		}
		if err := db.Where("id IN ?", tokenIDs).Delete(&DBToken{}).Error; err != nil {
			return translateError(err, "session.delete_stale_tokens")
		}
		deleted = res.RowsAffected
		return nil
	})
	return deleted, err
}

func (r *SessionRepositoryImpl) tokenID(ctx context.Context, value string, tokenType domain.TokenType) (uint, error) {
	var row DBToken
	err := dbFrom(ctx, r.db).Select("id").Where("value = ? AND type = ?", value, string(tokenType)).First(&row).Error
	if err != nil {
		if isNotFound(err) {
			return 0, domain.ErrSessionNotFound
		}
		return 0, translateError(err, "session.find_token")
	}
	return row.ID, nil
}

func (r *SessionRepositoryImpl) findBy(ctx context.Context, query string, arg interface{}) (*domain.Session, error) {
	db := dbFrom(ctx, r.db)

	var row DBSession
	if err := db.Where(query, arg).First(&row).Error; err != nil {
		if isNotFound(err) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, translateError(err, "session.find")
	}

	var tokens []DBToken
	if err := db.Where("id IN ?", []uint{row.AccessTokenID, row.RefreshTokenID}).Find(&tokens).Error; err != nil {
		return nil, translateError(err, "session.load_tokens")
	}

	session := &domain.Session{
		ID:        row.ID,
		UserID:    row.UserID,
		Active:    row.Active,
		CreatedAt: row.CreatedAt,
	}
	found := 0
	for i := range tokens {
		switch tokens[i].ID {
		case row.AccessTokenID:
			session.AccessToken = *tokenToDomain(&tokens[i])
			found++
		case row.RefreshTokenID:
			session.RefreshToken = *tokenToDomain(&tokens[i])
			found++
		}
	}
	if found != 2 {
		return nil, translateError(gorm.ErrRecordNotFound, "session.load_tokens")
	}
	return session, nil
}
