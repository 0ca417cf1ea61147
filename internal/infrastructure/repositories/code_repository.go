package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/you/accountsvc/domain"
)

// DBCode is a reset code row. The TTL is stored in seconds and the
// expiry is denormalized so the janitor can sweep by index.
type DBCode struct {
	ID         uint   `gorm:"primaryKey"`
	Value      string `gorm:"uniqueIndex;size:6;not null"`
	UserID     uint   `gorm:"index;not null"`
	CreatedAt  time.Time
	TTLSeconds int64     `gorm:"column:ttl_seconds;not null"`
	ExpiresAt  time.Time `gorm:"index;not null"`
}

func (DBCode) TableName() string { return "codes" }

// CodeRepositoryImpl implements domain.CodeRepository
type CodeRepositoryImpl struct {
	db *gorm.DB
}

// NewCodeRepository creates a new code repository
func NewCodeRepository(db *gorm.DB) domain.CodeRepository {
	return &CodeRepositoryImpl{db: db}
}

// Create implements domain.CodeRepository
func (r *CodeRepositoryImpl) Create(ctx context.Context, code *domain.Code) error {
	row := &DBCode{
		Value:      code.Value,
		UserID:     code.UserID,
		CreatedAt:  code.CreatedAt,
		TTLSeconds: ttlSeconds(code.TTL),
		ExpiresAt:  code.ExpiresAt(),
	}
	if err := dbFrom(ctx, r.db).Create(row).Error; err != nil {
		return translateError(err, "code.create")
	}
	code.ID = row.ID
	return nil
}

// FindByValue implements domain.CodeRepository
func (r *CodeRepositoryImpl) FindByValue(ctx context.Context, value string) (*domain.Code, error) {
	var row DBCode
	if err := dbFrom(ctx, r.db).Where("value = ?", value).First(&row).Error; err != nil {
		if isNotFound(err) {
			return nil, domain.ErrCodeNotFound
		}
		return nil, translateError(err, "code.find_by_value")
	}
	return &domain.Code{
		ID:        row.ID,
		Value:     row.Value,
		UserID:    row.UserID,
		CreatedAt: row.CreatedAt,
		TTL:       time.Duration(row.TTLSeconds) * time.Second,
	}, nil
}

// Delete implements domain.CodeRepository
func (r *CodeRepositoryImpl) Delete(ctx context.Context, id uint) error {
	res := dbFrom(ctx, r.db).Delete(&DBCode{}, id)
	if res.Error != nil {
		return translateError(res.Error, "code.delete")
	}
	if res.RowsAffected == 0 {
		return domain.ErrCodeNotFound
	}
	return nil
}

// DeleteByUser implements domain.CodeRepository
func (r *CodeRepositoryImpl) DeleteByUser(ctx context.Context, userID uint) (int64, error) {
	res := dbFrom(ctx, r.db).Where("user_id = ?", userID).Delete(&DBCode{})
	if res.Error != nil {
		return 0, translateError(res.Error, "code.delete_by_user")
	}
	return res.RowsAffected, nil
}

// DeleteExpired implements domain.CodeRepository
func (r *CodeRepositoryImpl) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := dbFrom(ctx, r.db).Where("expires_at < ?", now).Delete(&DBCode{})
	if res.Error != nil {
		return 0, translateError(res.Error, "code.delete_expired")
	}
	return res.RowsAffected, nil
}

// ttlSeconds rounds sub-second remainders up so a stored lifetime is never
// shorter than the one issued.
func ttlSeconds(ttl time.Duration) int64 {
	secs := int64(ttl / time.Second)
	if ttl%time.Second > 0 {
		secs++
	}
	return secs
}
