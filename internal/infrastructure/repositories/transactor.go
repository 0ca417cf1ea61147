package repositories

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"
	"gorm.io/gorm"

	"github.com/you/accountsvc/domain"
)

type txKey struct{}

// Transactor implements domain.Transactor with gorm.
// The active *gorm.DB transaction travels on the context so that every
// repository method called with that context joins it.
type Transactor struct {
	db *gorm.DB
}

// NewTransactor creates a Transactor for db.
func NewTransactor(db *gorm.DB) *Transactor {
	return &Transactor{db: db}
}

// InTransaction commits when fn returns nil and rolls back otherwise.
// A nested call joins the outer transaction.
func (t *Transactor) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// dbFrom returns the transaction on ctx, or db when there is none.
func dbFrom(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// translateError maps store failures onto domain errors. Unique violations
// become domain.ErrDuplicateKey so services can retry.
func translateError(err error, operation string) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return oops.Code("DUPLICATE_KEY").With("operation", operation).Wrap(domain.ErrDuplicateKey)
	}
	return oops.Code("STORE_FAILURE").With("operation", operation).Wrap(err)
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
