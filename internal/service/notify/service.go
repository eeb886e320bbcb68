package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jmehdipour/unit-notifier/internal/metrics"
	"github.com/jmehdipour/unit-notifier/internal/model"
	"github.com/jmehdipour/unit-notifier/internal/render"
	"github.com/jmehdipour/unit-notifier/internal/util"
	"go.uber.org/zap"
)

const MaxMessageRunes = 1024

const (
	sessionCloseTimeout = 5 * time.Second
	// bookkeeping after dispatch outlives the caller's connection
	accountingTimeout = 10 * time.Second
)

// Principal is the authenticated caller.
type Principal struct {
	ClientID int64
	Staff    bool
}

// Outcome is what the caller gets back. Outcomes is keyed by destination.
type Outcome struct {
	State    State                         `json:"state"`
	Sent     int                           `json:"sent"`
	Failed   int                           `json:"failed"`
	Outcomes map[model.Phone]model.Outcome `json:"outcomes,omitempty"`
	Rejected []model.Phone                 `json:"rejected,omitempty"`
}

type Deps struct {
	Customers  CustomerStore
	Gate       Gate
	Fleet      Fleet
	Resolver   PhoneResolver
	Dispatcher Dispatcher
	Ledger     QuotaLedger
	Publisher  DeliveryPublisher // optional
	Log        *zap.Logger
}

type Service struct {
	Deps
	now func() time.Time
}

func New(d Deps) *Service {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	d.Log = d.Log.Named("notify")
	return &Service{Deps: d, now: time.Now}
}

// Notify runs one request through validation, entitlement, resolution,
// rendering, dispatch and quota accounting.
func (s *Service) Notify(ctx context.Context, p Principal, req model.DispatchRequest) (out Outcome, err error) {
	out.State = StateReceived
	defer func() { metrics.RequestsTotal.WithLabelValues(out.State.String()).Inc() }()

	if err := validate(req); err != nil {
		if errors.Is(err, model.ErrInvalidMethod) {
			out.State = StateRejectedInvalidMethod
		} else {
			out.State = StateRejectedInvalidInput
		}
		return out, err
	}
	out.State = StateValidated

	customer, err := s.Customers.GetByUserID(ctx, req.UserID)
	if err != nil {
		return out, fmt.Errorf("load customer %d: %w", req.UserID, err)
	}
	if customer == nil {
		out.State = StateRejectedInvalidInput
		return out, fmt.Errorf("%w: user %d", ErrUnknownCustomer, req.UserID)
	}

	if !s.Gate.CheckSubscription(customer, p.Staff) {
		out.State = StateRejectedUnauthorized
		return out, ErrNoSubscription
	}
	ok, err := s.Gate.CheckQuota(ctx, customer)
	if err != nil {
		return out, err
	}
	if !ok {
		out.State = StateRejectedUnauthorized
		return out, ErrQuotaExhausted
	}
	out.State = StateEntitled

	phones, err := s.phones(ctx, customer, req)
	if err != nil {
		if errors.Is(err, ErrMissingCredential) {
			out.State = StateRejectedInvalidInput
		} else {
			out.State = StateFailedUpstream
		}
		return out, err
	}

	valid, rejected := util.FilterE164(phones)
	out.Rejected = rejected
	if len(rejected) > 0 {
		s.Log.Info("dropped non E.164 phones", zap.Int64("user_id", req.UserID), zap.Any("phones", rejected))
	}
	if len(valid) == 0 {
		out.State = StateRejectedNoRecipients
		s.Log.Info("no recipients", zap.Int64("user_id", req.UserID), zap.Int64("unit_id", req.UnitID))
		return out, nil
	}
	out.State = StatePhonesResolved

	message, err := render.Render(req.Message, customer, render.Context{
		Time:     req.MessageTime,
		Location: req.Location,
		UnitName: req.UnitName,
	})
	if err != nil {
		out.State = StateRejectedInvalidInput
		return out, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	out.State = StateRendered

	res, err := s.Dispatcher.DispatchAll(ctx, valid, message, req.Method, req.DryRun)
	if err != nil {
		if errors.Is(err, model.ErrInvalidMethod) {
			out.State = StateRejectedInvalidMethod
		}
		return out, err
	}
	out.State = StateDispatched
	out.Sent, out.Failed, out.Outcomes = res.SuccessCount, res.FailureCount, res.Outcomes

	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), accountingTimeout)
	defer cancel()

	if res.SuccessCount > 0 && !req.DryRun {
		s.Ledger.Commit(actx, customer, res.SuccessCount)
		out.State = StateCommitted
	}

	s.publish(actx, customer, req, res)

	s.Log.Info("notification dispatched",
		zap.Int64("user_id", req.UserID),
		zap.Int64("unit_id", req.UnitID),
		zap.String("method", req.Method.String()),
		zap.Bool("dry_run", req.DryRun),
		zap.Int("sent", res.SuccessCount),
		zap.Int("failed", res.FailureCount))

	return out, nil
}

func validate(req model.DispatchRequest) error {
	if !req.Method.Valid() {
		return fmt.Errorf("%w: %q", model.ErrInvalidMethod, req.Method)
	}
	if req.UserID <= 0 {
		return fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	hasUnit, hasPhones := req.UnitID > 0, len(req.PhoneNumbers) > 0
	if hasUnit == hasPhones {
		return fmt.Errorf("%w: exactly one of unit_id or phone_number is required", ErrInvalidInput)
	}
	if strings.TrimSpace(req.Message) == "" {
		return fmt.Errorf("%w: message is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(req.Message) > MaxMessageRunes {
		return fmt.Errorf("%w: message longer than %d characters", ErrInvalidInput, MaxMessageRunes)
	}
	return nil
}

// phones returns the raw destination list. Raw numbers skip the fleet backend
// and do not need a credential.
func (s *Service) phones(ctx context.Context, customer *model.Customer, req model.DispatchRequest) ([]model.Phone, error) {
	if len(req.PhoneNumbers) > 0 {
		out := make([]model.Phone, 0, len(req.PhoneNumbers))
		seen := make(map[model.Phone]struct{}, len(req.PhoneNumbers))
		for _, p := range req.PhoneNumbers {
			n := model.Phone(util.NormalizePhone(p.String()))
			if _, dup := seen[n]; dup {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, n)
		}
		return out, nil
	}

	token, ok := customer.Token()
	if !ok {
		return nil, ErrMissingCredential
	}

	session, err := s.Fleet.Open(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("open fleet session: %w", err)
	}
	defer func() {
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sessionCloseTimeout)
		defer cancel()
		if err := session.Close(cctx); err != nil {
			s.Log.Warn("close fleet session", zap.Error(err))
		}
	}()

	return s.Resolver.Resolve(ctx, req.UnitID, session)
}

func (s *Service) publish(ctx context.Context, customer *model.Customer, req model.DispatchRequest, res model.DispatchResult) {
	if s.Publisher == nil || len(res.Outcomes) == 0 {
		return
	}

	now := s.now().UTC()
	rows := make([]model.Delivery, 0, len(res.Outcomes))
	for phone, o := range res.Outcomes {
		status := model.DeliveryFailed
		switch {
		case o.Delivered && req.DryRun:
			status = model.DeliveryDryRun
		case o.Delivered:
			status = model.DeliverySent
		}
		rows = append(rows, model.Delivery{
			ID:                util.NewID(),
			CustomerID:        customer.ID,
			UnitID:            req.UnitID,
			Phone:             phone.String(),
			Method:            req.Method.String(),
			Status:            status,
			ProviderMessageID: o.ProviderMessageID,
			Error:             o.Error,
			CreatedAt:         now,
		})
	}

	if err := s.Publisher.Publish(ctx, rows); err != nil {
		s.Log.Warn("publish deliveries", zap.Int("count", len(rows)), zap.Error(err))
	}
}
