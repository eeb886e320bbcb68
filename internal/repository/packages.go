package repository

import (
	"context"

	"github.com/jmehdipour/unit-notifier/internal/model"
	"github.com/jmoiron/sqlx"
)

// PackagesRepository reads and consumes a customer's message packages.
// Creation order is ascending id.
type PackagesRepository interface {
	ListByCustomer(ctx context.Context, customerID int64) ([]model.MessagePackage, error)
	// IncrementFirstOpen adds n to the first package that still has room.
	// Only one package is touched per call.
	IncrementFirstOpen(ctx context.Context, customerID, n int64) (bool, error)
}

type PackagesRepositoryImpl struct {
	db *sqlx.DB
}

func NewPackagesRepository(db *sqlx.DB) *PackagesRepositoryImpl {
	return &PackagesRepositoryImpl{db: db}
}

var _ PackagesRepository = (*PackagesRepositoryImpl)(nil)

func (r *PackagesRepositoryImpl) ListByCustomer(ctx context.Context, customerID int64) ([]model.MessagePackage, error) {
	var rows []model.MessagePackage
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, customer_id, messages_count, messages_limit, price, created_at
		  FROM message_packages
		 WHERE customer_id = ?
		 ORDER BY id ASC
	`, customerID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *PackagesRepositoryImpl) IncrementFirstOpen(ctx context.Context, customerID, n int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE message_packages
		   SET messages_count = messages_count + ?
		 WHERE customer_id = ? AND messages_count < messages_limit
		 ORDER BY id ASC
		 LIMIT 1
	`, n, customerID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
