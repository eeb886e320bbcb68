package render

import (
	"testing"
	"time"

	"github.com/jmehdipour/unit-notifier/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	ts := time.Date(2025, 3, 4, 5, 6, 7, 0, time.FixedZone("CST", -6*3600))
	plain := &model.Customer{}
	custom := &model.Customer{DateFormat: "%d/%m/%Y"}

	cases := []struct {
		name     string
		base     string
		customer *model.Customer
		ctx      Context
		want     string
	}{
		{name: "no segments", base: "Ignition on", customer: plain, want: "Ignition on"},
		{name: "trailing newline", base: "Ignition on\n", customer: plain, want: "Ignition on"},
		{name: "all segments", base: "Speeding", customer: plain,
			ctx:  Context{Time: &ts, Location: "Houston", UnitName: "Truck 7"},
			want: "[2025-03-04 11:06:07] [Houston] [Truck 7] Speeding"},
		{name: "location only", base: "Geofence exit", customer: plain,
			ctx:  Context{Location: "Depot"},
			want: "[Depot] Geofence exit"},
		{name: "unit only", base: "Low fuel", customer: nil,
			ctx:  Context{UnitName: "Van 2"},
			want: "[Van 2] Low fuel"},
		{name: "customer date format", base: "Idle", customer: custom,
			ctx:  Context{Time: &ts},
			want: "[04/03/2025] Idle"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Render(tc.base, tc.customer, tc.ctx)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
