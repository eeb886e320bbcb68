package entitlement

import (
	"context"
	"fmt"

	"github.com/jmehdipour/unit-notifier/internal/model"
	"github.com/jmehdipour/unit-notifier/internal/repository"
)

// Gate answers whether a customer may send. It never writes.
type Gate struct {
	packages repository.PackagesRepository
}

func NewGate(packages repository.PackagesRepository) *Gate {
	return &Gate{packages: packages}
}

// CheckSubscription passes staff callers unconditionally, otherwise only
// customers with an active subscription.
func (g *Gate) CheckSubscription(customer *model.Customer, staff bool) bool {
	if staff {
		return true
	}
	return customer != nil && customer.SubscriptionStatus() == model.SubscriptionActive
}

// CheckQuota reports whether the base quota or any package still has room.
func (g *Gate) CheckQuota(ctx context.Context, customer *model.Customer) (bool, error) {
	if customer == nil {
		return false, nil
	}
	if customer.HasRoom() {
		return true, nil
	}

	pkgs, err := g.packages.ListByCustomer(ctx, customer.ID)
	if err != nil {
		return false, fmt.Errorf("list packages: %w", err)
	}
	for _, p := range pkgs {
		if p.HasRoom() {
			return true, nil
		}
	}
	return false, nil
}
