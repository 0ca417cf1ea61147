package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/you/accountsvc/domain"
)

// UserRepositoryImpl implements domain.UserRepository using GORM
type UserRepositoryImpl struct {
	db *gorm.DB
}

// DBUser represents the database model for User (with GORM tags)
type DBUser struct {
	ID           uint   `gorm:"primaryKey"`
	FirstName    string `gorm:"size:100"`
	LastName     string `gorm:"size:100"`
	Email        string `gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string `gorm:"column:password;not null"`
	Role         string `gorm:"index;size:16;not null"`
	Banned       bool   `gorm:"not null;default:false"`
	CreatedAt    time.Time
	LastLogin    *time.Time
}

// TableName returns the table name for GORM
func (DBUser) TableName() string {
	return "users"
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) domain.UserRepository {
	return &UserRepositoryImpl{db: db}
}

// Create implements domain.UserRepository
func (r *UserRepositoryImpl) Create(ctx context.Context, user *domain.User) error {
	dbUser := r.domainToDB(user)
	if err := dbFrom(ctx, r.db).Create(dbUser).Error; err != nil {
		return translateError(err, "user.create")
	}
	user.ID = dbUser.ID
	user.CreatedAt = dbUser.CreatedAt
	return nil
}

// FindByEmail implements domain.UserRepository
func (r *UserRepositoryImpl) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var dbUser DBUser
	err := dbFrom(ctx, r.db).Where("email = ?", email).First(&dbUser).Error
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, translateError(err, "user.find_by_email")
	}
	return r.dbToDomain(&dbUser), nil
}

// FindByID implements domain.UserRepository
func (r *UserRepositoryImpl) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	var dbUser DBUser
	err := dbFrom(ctx, r.db).Where("id = ?", id).First(&dbUser).Error
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, translateError(err, "user.find_by_id")
	}
	return r.dbToDomain(&dbUser), nil
}

// UpdatePassword implements domain.UserRepository
func (r *UserRepositoryImpl) UpdatePassword(ctx context.Context, userID uint, passwordHash string) error {
	return r.updateColumn(ctx, userID, "password", passwordHash, "user.update_password")
}

// UpdateLastLogin implements domain.UserRepository
func (r *UserRepositoryImpl) UpdateLastLogin(ctx context.Context, userID uint, at time.Time) error {
	return r.updateColumn(ctx, userID, "last_login", at, "user.update_last_login")
}

// SetBanned implements domain.UserRepository
func (r *UserRepositoryImpl) SetBanned(ctx context.Context, userID uint, banned bool) error {
	return r.updateColumn(ctx, userID, "banned", banned, "user.set_banned")
}

func (r *UserRepositoryImpl) updateColumn(ctx context.Context, userID uint, column string, value interface{}, operation string) error {
	res := dbFrom(ctx, r.db).Model(&DBUser{}).Where("id = ?", userID).Update(column, value)
	if res.Error != nil {
		return translateError(res.Error, operation)
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// domainToDB converts domain user to database user
func (r *UserRepositoryImpl) domainToDB(user *domain.User) *DBUser {
	return &DBUser{
		ID:           user.ID,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Role:         string(user.Role),
		Banned:       user.Banned,
		CreatedAt:    user.CreatedAt,
		LastLogin:    user.LastLogin,
	}
}

// dbToDomain converts database user to domain user
func (r *UserRepositoryImpl) dbToDomain(dbUser *DBUser) *domain.User {
	return &domain.User{
		ID:           dbUser.ID,
		FirstName:    dbUser.FirstName,
		LastName:     dbUser.LastName,
		Email:        dbUser.Email,
		PasswordHash: dbUser.PasswordHash,
		Role:         domain.Role(dbUser.Role),
		Banned:       dbUser.Banned,
		CreatedAt:    dbUser.CreatedAt,
		LastLogin:    dbUser.LastLogin,
	}
}
