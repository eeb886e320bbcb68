package ledger

import (
	"context"
	"fmt"

	"github.com/jmehdipour/unit-notifier/internal/metrics"
	"github.com/jmehdipour/unit-notifier/internal/model"
	"github.com/jmehdipour/unit-notifier/internal/repository"
	"go.uber.org/zap"
)

type Precedence string

const (
	CustomerFirst Precedence = "customer_first"
	PackageFirst  Precedence = "package_first"
)

func ParsePrecedence(s string) (Precedence, error) {
	switch p := Precedence(s); p {
	case CustomerFirst, PackageFirst:
		return p, nil
	case "":
		return CustomerFirst, nil
	default:
		return "", fmt.Errorf("invalid quota precedence %q", s)
	}
}

// Ledger books consumed messages against the customer counter or the first
// package with room. Every write is a single conditional increment.
type Ledger struct {
	customers  repository.CustomersRepository
	packages   repository.PackagesRepository
	precedence Precedence
	log        *zap.Logger
}

func New(customers repository.CustomersRepository, packages repository.PackagesRepository, precedence Precedence, log *zap.Logger) *Ledger {
	if log == nil {
		log = zap.NewNop()
	}
	if precedence == "" {
		precedence = CustomerFirst
	}
	return &Ledger{customers: customers, packages: packages, precedence: precedence, log: log.Named("ledger")}
}

// Commit adds n to exactly one target. Failures are logged, never returned:
// the messages have already gone out.
func (l *Ledger) Commit(ctx context.Context, customer *model.Customer, n int) {
	if customer == nil || n <= 0 {
		return
	}

	target, err := l.commit(ctx, customer.ID, int64(n))
	if err != nil {
		metrics.LedgerCommitsTotal.WithLabelValues("error").Inc()
		l.log.Error("quota commit failed",
			zap.Int64("customer_id", customer.ID),
			zap.Int("messages", n),
			zap.Error(err))
		return
	}

	metrics.LedgerCommitsTotal.WithLabelValues(target).Inc()
	if target == "none" {
		l.log.Warn("no quota target had room",
			zap.Int64("customer_id", customer.ID),
			zap.Int("messages", n))
		return
	}
	l.log.Debug("quota committed",
		zap.Int64("customer_id", customer.ID),
		zap.Int("messages", n),
		zap.String("target", target))
}

func (l *Ledger) commit(ctx context.Context, customerID, n int64) (string, error) {
	type step struct {
		target string
		inc    func(context.Context, int64, int64) (bool, error)
	}
	customer := step{"customer", l.customers.IncrementMessages}
	pkg := step{"package", l.packages.IncrementFirstOpen}

	steps := []step{customer, pkg}
	if l.precedence == PackageFirst {
		steps = []step{pkg, customer}
	}

	for _, s := range steps {
		ok, err := s.inc(ctx, customerID, n)
		if err != nil {
			return "", fmt.Errorf("%s increment: %w", s.target, err)
		}
		if ok {
			return s.target, nil
		}
	}
	return "none", nil
}
