package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmehdipour/unit-notifier/internal/model"
	"github.com/jmoiron/sqlx"
)

type CustomersRepository interface {
	GetByUserID(ctx context.Context, userID int64) (*model.Customer, error)
	// IncrementMessages adds n to messages_count only while the customer is
	// under its limit. It reports whether a row was updated.
	IncrementMessages(ctx context.Context, customerID, n int64) (bool, error)
}

type CustomersRepositoryImpl struct {
	db *sqlx.DB
}

func NewCustomersRepository(db *sqlx.DB) *CustomersRepositoryImpl {
	return &CustomersRepositoryImpl{db: db}
}

var _ CustomersRepository = (*CustomersRepositoryImpl)(nil)

func (r *CustomersRepositoryImpl) GetByUserID(ctx context.Context, userID int64) (*model.Customer, error) {
	var c model.Customer
	err := r.db.GetContext(ctx, &c, `
		SELECT id, user_id, messages_count, messages_limit, subscription_status,
		       wialon_token, date_format, created_at, updated_at
		  FROM customers
		 WHERE user_id = ? LIMIT 1
	`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// IncrementMessages is a single conditional UPDATE so concurrent commits never
// lose an increment.
func (r *CustomersRepositoryImpl) IncrementMessages(ctx context.Context, customerID, n int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE customers
		   SET messages_count = messages_count + ?, updated_at = NOW()
		 WHERE id = ? AND messages_count < messages_limit
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
