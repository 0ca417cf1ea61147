package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/you/accountsvc/domain"
)

// DBPendingUser is an unverified signup row. The TTL is stored in seconds.
type DBPendingUser struct {
	ID                uint   `gorm:"primaryKey"`
	FirstName         string `gorm:"size:100"`
	LastName          string `gorm:"size:100"`
	Email             string `gorm:"uniqueIndex;size:255;not null"`
	PasswordHash      string `gorm:"column:password;not null"`
	Role              string `gorm:"size:16;not null"`
	VerificationToken string `gorm:"uniqueIndex;size:64;not null"`
	CreatedAt         time.Time
	TTLSeconds        int64 `gorm:"column:ttl_seconds;not null"`
}

func (DBPendingUser) TableName() string { return "pending_users" }

// PendingUserRepositoryImpl implements domain.PendingUserRepository
type PendingUserRepositoryImpl struct {
	db *gorm.DB
}

// NewPendingUserRepository creates a new pending user repository
func NewPendingUserRepository(db *gorm.DB) domain.PendingUserRepository {
	return &PendingUserRepositoryImpl{db: db}
}

// Create implements domain.PendingUserRepository
func (r *PendingUserRepositoryImpl) Create(ctx context.Context, pending *domain.PendingUser) error {
	row := pendingToDB(pending)
	if err := dbFrom(ctx, r.db).Create(row).Error; err != nil {
		return translateError(err, "pending_user.create")
	}
	pending.ID = row.ID
	return nil
}

// FindByEmail implements domain.PendingUserRepository
func (r *PendingUserRepositoryImpl) FindByEmail(ctx context.Context, email string) (*domain.PendingUser, error) {
	return r.findOne(ctx, "email = ?", email, "pending_user.find_by_email")
}

// FindByToken implements domain.PendingUserRepository
func (r *PendingUserRepositoryImpl) FindByToken(ctx context.Context, token string) (*domain.PendingUser, error) {
	return r.findOne(ctx, "verification_token = ?", token, "pending_user.find_by_token")
}

func (r *PendingUserRepositoryImpl) findOne(ctx context.Context, query string, arg interface{}, operation string) (*domain.PendingUser, error) {
	var row DBPendingUser
	if err := dbFrom(ctx, r.db).Where(query, arg).First(&row).Error; err != nil {
		if isNotFound(err) {
			return nil, domain.ErrPendingUserNotFound
		}
		return nil, translateError(err, operation)
	}
	return pendingToDomain(&row), nil
}

// Update implements domain.PendingUserRepository
func (r *PendingUserRepositoryImpl) Update(ctx context.Context, pending *domain.PendingUser) error {
	res := dbFrom(ctx, r.db).Model(&DBPendingUser{}).Where("id = ?", pending.ID).Updates(map[string]interface{}{
		"first_name":         pending.FirstName,
		"last_name":          pending.LastName,
		"password":           pending.PasswordHash,
		"role":               string(pending.Role),
		"verification_token": pending.VerificationToken,
		"created_at":         pending.CreatedAt,
		"ttl_seconds":        ttlSeconds(pending.TTL),
	})
	if res.Error != nil {
		return translateError(res.Error, "pending_user.update")
	}
	if res.RowsAffected == 0 {
		return domain.ErrPendingUserNotFound
	}
	return nil
}

// Delete implements domain.PendingUserRepository
func (r *PendingUserRepositoryImpl) Delete(ctx context.Context, id uint) error {
	res := dbFrom(ctx, r.db).Delete(&DBPendingUser{}, id)
	if res.Error != nil {
		return translateError(res.Error, "pending_user.delete")
	}
	if res.RowsAffected == 0 {
		return domain.ErrPendingUserNotFound
	}
	return nil
}

func pendingToDB(p *domain.PendingUser) *DBPendingUser {
	return &DBPendingUser{
		ID:                p.ID,
		FirstName:         p.FirstName,
		LastName:          p.LastName,
		Email:             p.Email,
		PasswordHash:      p.PasswordHash,
		Role:              string(p.Role),
		VerificationToken: p.VerificationToken,
		CreatedAt:         p.CreatedAt,
		TTLSeconds:        ttlSeconds(p.TTL),
	}
}

func pendingToDomain(row *DBPendingUser) *domain.PendingUser {
	return &domain.PendingUser{
		ID:                row.ID,
		FirstName:         row.FirstName,
		LastName:          row.LastName,
		Email:             row.Email,
		PasswordHash:      row.PasswordHash,
		Role:              domain.Role(row.Role),
		VerificationToken: row.VerificationToken,
		CreatedAt:         row.CreatedAt,
		TTL:               time.Duration(row.TTLSeconds) * time.Second,
	}
}
