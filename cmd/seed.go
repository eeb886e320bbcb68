package cmd

import (
	"fmt"

	"github.com/jmehdipour/unit-notifier/internal/config"
	"github.com/jmehdipour/unit-notifier/internal/db"
	"github.com/jmehdipour/unit-notifier/internal/logger"
	"github.com/jmehdipour/unit-notifier/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with demo api clients, customers and packages",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		lg := logger.Init(cfg.Log.Level)

		sqlDB, err := db.OpenMySQL(cfg.MySQL)
		if err != nil {
			return fmt.Errorf("mysql connect: %w", err)
		}
		defer sqlDB.Close()

		if err := seedAPIClients(sqlDB); err != nil {
			return err
		}
		if err := seedCustomers(sqlDB); err != nil {
			return err
		}
		if err := seedPackages(sqlDB); err != nil {
			return err
		}

		lg.Info("seed completed")
		return nil
	},
}

// seedAPIClients upserts deterministic demo callers by api_key.
func seedAPIClients(dbx *sqlx.DB) error {
	clients := []model.APIClient{
		{Name: "Fleet Webhooks", APIKey: "11111111111111111111111111111111", Status: "active", RateLimitRPS: intptr(50)},
		{Name: "Dispatch Desk", APIKey: "22222222222222222222222222222222", Status: "active", Staff: true, RateLimitRPS: intptr(20)},
		{Name: "Suspended Partner", APIKey: "44444444444444444444444444444444", Status: "suspended"},
	}

	const q = `
INSERT INTO api_clients
    (name, api_key, status, staff, rate_limit_rps)
VALUES
    (?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
    name           = VALUES(name),
    status         = VALUES(status),
    staff          = VALUES(staff),
    rate_limit_rps = VALUES(rate_limit_rps)
`
	tx, err := dbx.Beginx()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, c := range clients {
		if _, err := tx.Exec(q, c.Name, c.APIKey, c.Status, c.Staff, c.RateLimitRPS); err != nil {
			return fmt.Errorf("insert api client %q: %w", c.Name, err)
		}
	}
	return tx.Commit()
}

type seedCustomer struct {
	userID       int64
	count, limit int64
	subscription *string
	token        *string
	dateFormat   string
}

// seedCustomers covers the entitlement paths: active, inactive, no
// subscription, exhausted base quota and missing fleet token.
func seedCustomers(dbx *sqlx.DB) error {
	customers := []seedCustomer{
		{userID: 1001, limit: 500, subscription: strptr("active"), token: strptr("demo-token-1001"), dateFormat: model.DefaultDateFormat},
		{userID: 1002, limit: 500, subscription: strptr("inactive"), token: strptr("demo-token-1002"), dateFormat: model.DefaultDateFormat},
		{userID: 1003, limit: 500, token: strptr("demo-token-1003"), dateFormat: "%d/%m/%Y %H:%M"},
		{userID: 1004, count: 500, limit: 500, subscription: strptr("active"), token: strptr("demo-token-1004"), dateFormat: model.DefaultDateFormat},
		{userID: 1005, limit: 500, subscription: strptr("active"), dateFormat: model.DefaultDateFormat},
	}

	const q = `
INSERT INTO customers
    (user_id, messages_count, messages_limit, subscription_status, wialon_token, date_format)
VALUES
    (?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
    messages_count      = VALUES(messages_count),
    messages_limit      = VALUES(messages_limit),
    subscription_status = VALUES(subscription_status),
    wialon_token        = VALUES(wialon_token),
    date_format         = VALUES(date_format)
`
	tx, err := dbx.Beginx()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, c := range customers {
		if _, err := tx.Exec(q, c.userID, c.count, c.limit, c.subscription, c.token, c.dateFormat); err != nil {
			return fmt.Errorf("insert customer %d: %w", c.userID, err)
		}
	}
	return tx.Commit()
}

// seedPackages gives the exhausted customer one used-up and one open top-up.
func seedPackages(dbx *sqlx.DB) error {
	var customerID int64
	if err := dbx.Get(&customerID, `SELECT id FROM customers WHERE user_id = ?`, 1004); err != nil {
		return fmt.Errorf("lookup customer 1004: %w", err)
	}

	if _, err := dbx.Exec(`DELETE FROM message_packages WHERE customer_id = ?`, customerID); err != nil {
		return fmt.Errorf("reset packages: %w", err)
	}

	packages := []model.MessagePackage{
		{CustomerID: customerID, Count: 100, Limit: 100, Price: decimal.RequireFromString("9.99")},
		{CustomerID: customerID, Count: 0, Limit: 250, Price: decimal.RequireFromString("19.99")},
	}
	for _, p := range packages {
		if _, err := dbx.Exec(
			`INSERT INTO message_packages (customer_id, messages_count, messages_limit, price) VALUES (?, ?, ?, ?)`,
			p.CustomerID, p.Count, p.Limit, p.Price,
		); err != nil {
			return fmt.Errorf("insert package: %w", err)
		}
		logger.Log.Debug("package seeded", zap.Int64("customer_id", p.CustomerID), zap.String("price", p.Price.StringFixed(2)))
	}
	return nil
}

func intptr(i int) *int { return &i }

func strptr(s string) *string { return &s }
