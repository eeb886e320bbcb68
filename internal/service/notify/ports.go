package notify

import (
	"context"

	"github.com/jmehdipour/unit-notifier/internal/fleet"
	"github.com/jmehdipour/unit-notifier/internal/model"
	"github.com/jmehdipour/unit-notifier/internal/resolver"
)

type CustomerStore interface {
	GetByUserID(ctx context.Context, userID int64) (*model.Customer, error)
}

type Gate interface {
	CheckSubscription(customer *model.Customer, staff bool) bool
	CheckQuota(ctx context.Context, customer *model.Customer) (bool, error)
}

// FleetSession is a request-scoped backend session.
type FleetSession interface {
	resolver.Session
	Close(ctx context.Context) error
}

type Fleet interface {
	Open(ctx context.Context, token string) (FleetSession, error)
}

type PhoneResolver interface {
	Resolve(ctx context.Context, unitID int64, session resolver.Session) ([]model.Phone, error)
}

type Dispatcher interface {
	DispatchAll(ctx context.Context, phones []model.Phone, message string, method model.Method, dryRun bool) (model.DispatchResult, error)
}

type QuotaLedger interface {
	Commit(ctx context.Context, customer *model.Customer, n int)
}

// DeliveryPublisher ships per-destination delivery rows to reporting.
type DeliveryPublisher interface {
	Publish(ctx context.Context, deliveries []model.Delivery) error
}

type fleetClient struct{ c *fleet.Client }

// FleetClient adapts a fleet.Client to Fleet.
func FleetClient(c *fleet.Client) Fleet { return fleetClient{c: c} }

func (f fleetClient) Open(ctx context.Context, token string) (FleetSession, error) {
	s, err := f.c.Login(ctx, token)
	if err != nil {
		return nil, err
	}
	return s, nil
}
