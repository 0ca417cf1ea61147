package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/you/accountsvc/domain"
)

// DBToken is a persisted opaque token. Value carries a unique index.
type DBToken struct {
	ID        uint   `gorm:"primaryKey"`
	Value     string `gorm:"uniqueIndex;size:64;not null"`
	UserID    uint   `gorm:"index;not null"`
	Type      string `gorm:"index;size:16;not null"`
	CreatedAt time.Time
	ExpiresAt time.Time `gorm:"index;not null"`
}

func (DBToken) TableName() string { return "tokens" }

// TokenRepositoryImpl implements domain.TokenRepository
type TokenRepositoryImpl struct {
	db *gorm.DB
}

// NewTokenRepository creates a new token repository
func NewTokenRepository(db *gorm.DB) domain.TokenRepository {
	return &TokenRepositoryImpl{db: db}
}

// Create implements domain.TokenRepository
func (r *TokenRepositoryImpl) Create(ctx context.Context, token *domain.Token) error {
	row := tokenToDB(token)
	if err := dbFrom(ctx, r.db).Create(row).Error; err != nil {
		return translateError(err, "token.create")
	}
	token.ID = row.ID
	return nil
}

// FindByValue implements domain.TokenRepository
func (r *TokenRepositoryImpl) FindByValue(ctx context.Context, value string, tokenType domain.TokenType) (*domain.Token, error) {
	var row DBToken
	err := dbFrom(ctx, r.db).Where("value = ? AND type = ?", value, string(tokenType)).First(&row).Error
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, translateError(err, "token.find_by_value")
	}
	return tokenToDomain(&row), nil
}

// Update implements domain.TokenRepository
func (r *TokenRepositoryImpl) Update(ctx context.Context, token *domain.Token) error {
	return updateToken(dbFrom(ctx, r.db), token)
}

// Delete implements domain.TokenRepository
func (r *TokenRepositoryImpl) Delete(ctx context.Context, id uint) error {
	res := dbFrom(ctx, r.db).Delete(&DBToken{}, id)
	if res.Error != nil {
		return translateError(res.Error, "token.delete")
	}
	if res.RowsAffected == 0 {
		return domain.ErrTokenNotFound
	}
	return nil
}

// DeleteExpired implements domain.TokenRepository
func (r *TokenRepositoryImpl) DeleteExpired(ctx context.Context, tokenType domain.TokenType, now time.Time) (int64, error) {
	res := dbFrom(ctx, r.db).Where("type = ? AND expires_at < ?", string(tokenType), now).Delete(&DBToken{})
	if res.Error != nil {
		return 0, translateError(res.Error, "token.delete_expired")
	}
	return res.RowsAffected, nil
}

// updateToken rewrites the rotating columns of an existing row.
func updateToken(db *gorm.DB, token *domain.Token) error {
	res := db.Model(&DBToken{}).Where("id = ?", token.ID).Updates(map[string]interface{}{
		"value":      token.Value,
		"created_at": token.CreatedAt,
		"expires_at": token.ExpiresAt,
	})
	if res.Error != nil {
		return translateError(res.Error, "token.update")
	}
	if res.RowsAffected == 0 {
		return domain.ErrTokenNotFound
	}
	return nil
}

func tokenToDB(t *domain.Token) *DBToken {
	return &DBToken{
		ID:        t.ID,
		Value:     t.Value,
		UserID:    t.UserID,
		Type:      string(t.Type),
		CreatedAt: t.CreatedAt,
		ExpiresAt: t.ExpiresAt,
	}
}

func tokenToDomain(row *DBToken) *domain.Token {
	return &domain.Token{
		ID:        row.ID,
		Value:     row.Value,
		UserID:    row.UserID,
		Type:      domain.TokenType(row.Type),
		CreatedAt: row.CreatedAt,
		ExpiresAt: row.ExpiresAt,
	}
}
