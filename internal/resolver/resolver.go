package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/jmehdipour/unit-notifier/internal/fleet"
	"github.com/jmehdipour/unit-notifier/internal/metrics"
	"github.com/jmehdipour/unit-notifier/internal/model"
	"github.com/jmehdipour/unit-notifier/internal/util"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// customFieldKey is the custom field holding a comma separated phone list.
const customFieldKey = "to_number"

// Session is the part of a fleet session the resolver reads from.
type Session interface {
	UnitDrivers(ctx context.Context, unitID int64) ([]fleet.Driver, error)
	UnitCustomFields(ctx context.Context, unitID int64) ([]fleet.CustomField, error)
}

var _ Session = (*fleet.Session)(nil)

type Resolver struct {
	cache  Cache
	strict bool
	log    *zap.Logger
}

// New builds a resolver. With strict set, Resolve fails when every source
// fails instead of returning an empty set.
func New(cache Cache, strict bool, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{cache: cache, strict: strict, log: log.Named("resolver")}
}

// Resolve returns the unit's deduplicated phones in discovery order, drivers
// first. A failing source contributes nothing.
func (r *Resolver) Resolve(ctx context.Context, unitID int64, session Session) ([]model.Phone, error) {
	sources := []Source{SourceDriver, SourceCustomField}
	results := make([][]model.Phone, len(sources))
	errs := make([]error, len(sources))

	var g errgroup.Group
	for i, src := range sources {
		g.Go(func() error {
			results[i], errs[i] = r.fromSource(ctx, unitID, src, session)
			return nil
		})
	}
	_ = g.Wait()

	var merr *multierror.Error
	failed := 0
	for i, err := range errs {
		if err != nil {
			failed++
			merr = multierror.Append(merr, fmt.Errorf("%s: %w", sources[i], err))
		}
	}
	if merr != nil {
		r.log.Warn("phone source failed",
			zap.Int64("unit_id", unitID),
			zap.Int("failed_sources", failed),
			zap.Error(merr))
		if r.strict && failed == len(sources) {
			return nil, merr.ErrorOrNil()
		}
	}

	seen := make(map[model.Phone]struct{})
	var out []model.Phone
	for _, phones := range results {
		for _, p := range phones {
			if _, dup := seen[p]; dup {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *Resolver) fromSource(ctx context.Context, unitID int64, src Source, session Session) ([]model.Phone, error) {
	phones, hit, err := r.cache.Get(ctx, unitID, src)
	if err != nil {
		r.log.Warn("phone cache read failed", zap.Int64("unit_id", unitID), zap.String("source", string(src)), zap.Error(err))
	}
	if err == nil && hit {
		metrics.PhoneCacheTotal.WithLabelValues(string(src), "hit").Inc()
		return phones, nil
	}
	metrics.PhoneCacheTotal.WithLabelValues(string(src), "miss").Inc()

	switch src {
	case SourceDriver:
		phones, err = driverPhones(ctx, unitID, session)
	case SourceCustomField:
		phones, err = customFieldPhones(ctx, unitID, session)
	default:
		return nil, fmt.Errorf("unknown source %q", src)
	}
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, unitID, src, phones); err != nil {
		r.log.Warn("phone cache write failed", zap.Int64("unit_id", unitID), zap.String("source", string(src)), zap.Error(err))
	}
	return phones, nil
}

func driverPhones(ctx context.Context, unitID int64, session Session) ([]model.Phone, error) {
	drivers, err := session.UnitDrivers(ctx, unitID)
	if err != nil {
		return nil, err
	}
	phones := make([]model.Phone, 0, len(drivers))
	for _, d := range drivers {
		if ph := strings.TrimSpace(d.Phone); ph != "" {
			phones = append(phones, model.Phone(ph))
		}
	}
	return phones, nil
}

func customFieldPhones(ctx context.Context, unitID int64, session Session) ([]model.Phone, error) {
	fields, err := session.UnitCustomFields(ctx, unitID)
	if err != nil {
		return nil, err
	}
	var phones []model.Phone
	for _, f := range fields {
		if f.Name != customFieldKey {
			continue
		}
		for _, p := range util.SplitPhones(f.Value) {
			phones = append(phones, model.Phone(p))
		}
	}
	return phones, nil
}
