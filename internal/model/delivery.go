package model

import "time"

type DeliveryStatus string

const (
	DeliverySent   DeliveryStatus = "sent"
	DeliveryFailed DeliveryStatus = "failed"
	DeliveryDryRun DeliveryStatus = "dry_run"
)

func (s DeliveryStatus) String() string {
	return string(s)
}

func (s DeliveryStatus) Valid() bool {
	return s == DeliverySent || s == DeliveryFailed || s == DeliveryDryRun
}

// Delivery is one destination's attempt, as stored in the reporting store.
type Delivery struct {
	ID                string         `db:"id" json:"id"`
	CustomerID        int64          `db:"customer_id" json:"customer_id"`
	UnitID            int64          `db:"unit_id" json:"unit_id"`
	Phone             string         `db:"phone" json:"phone"`
	Method            string         `db:"method" json:"method"`
	Status            DeliveryStatus `db:"status" json:"status"`
	ProviderMessageID string         `db:"provider_message_id" json:"provider_message_id"`
	Error             string         `db:"error" json:"error"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
}
