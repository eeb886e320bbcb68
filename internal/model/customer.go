package model

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionInactive SubscriptionStatus = "inactive"
	SubscriptionNone     SubscriptionStatus = "none"
)

const DefaultDateFormat = "%Y-%m-%d %H:%M:%S"

// Customer is a notification tenant. MessagesCount only grows through the quota ledger.
type Customer struct {
	ID            int64          `db:"id"`
	UserID        int64          `db:"user_id"`
	MessagesCount int64          `db:"messages_count"`
	MessagesLimit int64          `db:"messages_limit"`
	Subscription  sql.NullString `db:"subscription_status"` // active|inactive|none, nullable
	WialonToken   sql.NullString `db:"wialon_token"`        // nullable
	DateFormat    string         `db:"date_format"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

// SubscriptionStatus returns none when the customer has no subscription.
func (c Customer) SubscriptionStatus() SubscriptionStatus {
	if !c.Subscription.Valid || c.Subscription.String == "" {
		return SubscriptionNone
	}
	return SubscriptionStatus(c.Subscription.String)
}

// Token returns the fleet backend credential, if any.
func (c Customer) Token() (string, bool) {
	if !c.WialonToken.Valid || c.WialonToken.String == "" {
		return "", false
	}
	return c.WialonToken.String, true
}

func (c Customer) HasRoom() bool { return c.MessagesCount < c.MessagesLimit }

// MessagePackage is a purchased top-up consumed after the base quota is exhausted.
type MessagePackage struct {
	ID         int64           `db:"id"`
	CustomerID int64           `db:"customer_id"`
	Count      int64           `db:"messages_count"`
	Limit      int64           `db:"messages_limit"`
	Price      decimal.Decimal `db:"price"`
	CreatedAt  time.Time       `db:"created_at"`
}

func (p MessagePackage) HasRoom() bool { return p.Count < p.Limit }
