package repository

import (
	"context"
	"fmt"

	"github.com/jmehdipour/unit-notifier/internal/model"
	"github.com/jmoiron/sqlx"
)

// DeliveriesRepository stores and lists delivery rows in ClickHouse.
type DeliveriesRepository interface {
	InsertBatch(ctx context.Context, rows []model.Delivery) error
	ListByCustomer(ctx context.Context, customerID int64, phone string, status model.DeliveryStatus, limit, offset int) ([]model.Delivery, error)
}

type chDeliveriesRepository struct {
	ch *sqlx.DB // ClickHouse connection
}

func NewDeliveriesRepository(ch *sqlx.DB) DeliveriesRepository {
	return &chDeliveriesRepository{ch: ch}
}

// InsertBatch writes rows in one ClickHouse batch (prepare + exec per row + commit).
func (r *chDeliveriesRepository) InsertBatch(ctx context.Context, rows []model.Delivery) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := r.ch.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO notifier.deliveries
		    (id, customer_id, unit_id, phone, method, status, provider_message_id, error, created_at)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}
	defer stmt.Close()

	for _, d := range rows {
		if _, err := stmt.ExecContext(ctx,
			d.ID, d.CustomerID, d.UnitID, d.Phone, d.Method, d.Status.String(),
			d.ProviderMessageID, d.Error, d.CreatedAt,
		); err != nil {
			return fmt.Errorf("append %s: %w", d.ID, err)
		}
	}

	return tx.Commit()
}

func (r *chDeliveriesRepository) ListByCustomer(ctx context.Context, customerID int64, phone string, status model.DeliveryStatus, limit, offset int) ([]model.Delivery, error) {
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	q := `
		SELECT id, customer_id, unit_id, phone, method, status, provider_message_id, error, created_at
		FROM notifier.deliveries
		WHERE customer_id = ?
	`
	args := []any{customerID}

	if status != "" {
		q += " AND status = ?"
		args = append(args, status.String())
	}
	if phone != "" {
		q += " AND phone = ?"
		args = append(args, phone)
	}

	q += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	var rows []model.Delivery
	if err := r.ch.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	return rows, nil
}
