package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/you/accountsvc/domain"
)

// DBAdmin is the admin profile row.
type DBAdmin struct {
	ID        uint `gorm:"primaryKey"`
	UserID    uint `gorm:"uniqueIndex;not null"`
	CreatedAt time.Time
}

func (DBAdmin) TableName() string { return "admins" }

// DBCustomer is the customer profile row.
type DBCustomer struct {
	ID        uint `gorm:"primaryKey"`
	UserID    uint `gorm:"uniqueIndex;not null"`
	CreatedAt time.Time
}

func (DBCustomer) TableName() string { return "customers" }

// ProfileRepositoryImpl implements domain.ProfileRepository
type ProfileRepositoryImpl struct {
	db *gorm.DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *gorm.DB) domain.ProfileRepository {
	return &ProfileRepositoryImpl{db: db}
}

// CreateFor inserts the profile matching the user's role.
func (r *ProfileRepositoryImpl) CreateFor(ctx context.Context, user *domain.User) error {
	var row interface{}
	switch user.Role {
	case domain.RoleAdmin:
		row = &DBAdmin{UserID: user.ID, CreatedAt: user.CreatedAt}
	case domain.RoleCustomer:
		row = &DBCustomer{UserID: user.ID, CreatedAt: user.CreatedAt}
	default:
		return domain.ErrInvalidRole
	}
	return translateError(dbFrom(ctx, r.db).Create(row).Error, "profile.create")
}
