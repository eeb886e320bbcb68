package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/jmehdipour/unit-notifier/internal/model"
	"github.com/lestrrat-go/strftime"
)

// Context carries the optional segments prepended to a message.
type Context struct {
	Time     *time.Time
	Location string
	UnitName string
}

// Render builds "[time] [location] [unit] base", dropping absent segments.
// Without segments the base is returned as is, minus trailing newlines.
func Render(base string, customer *model.Customer, rc Context) (string, error) {
	var segments []string

	if rc.Time != nil {
		layout := model.DefaultDateFormat
		if customer != nil && strings.TrimSpace(customer.DateFormat) != "" {
			layout = customer.DateFormat
		}
		ts, err := strftime.Format(layout, rc.Time.UTC())
		if err != nil {
			return "", fmt.Errorf("date format %q: %w", layout, err)
		}
		segments = append(segments, ts)
	}
	if loc := strings.TrimSpace(rc.Location); loc != "" {
		segments = append(segments, loc)
	}
	if name := strings.TrimSpace(rc.UnitName); name != "" {
		segments = append(segments, name)
	}

	if len(segments) == 0 {
		return strings.TrimRight(base, "\r\n"), nil
	}

	var b strings.Builder
	for _, s := range segments {
		b.WriteString("[")
		b.WriteString(s)
		b.WriteString("] ")
	}
	b.WriteString(base)
	return strings.TrimRight(b.String(), "\r\n"), nil
}
