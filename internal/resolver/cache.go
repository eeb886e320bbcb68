package resolver

import (
	"context"
	"fmt"

	"github.com/jmehdipour/unit-notifier/internal/model"
)

// Source identifies where a unit's phone numbers came from.
type Source string

const (
	SourceDriver      Source = "driver"
	SourceCustomField Source = "custom_field"
)

// Cache stores resolved phones per (unit, source). A miss is (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, unitID int64, source Source) ([]model.Phone, bool, error)
	Set(ctx context.Context, unitID int64, source Source, phones []model.Phone) error
}

func cacheKey(unitID int64, source Source) string {
	return fmt.Sprintf("phones:%d:%s", unitID, source)
}
