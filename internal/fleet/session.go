package fleet

import (
	"context"
	"sort"
	"strconv"
)

// flagUnitCustomFields asks core/search_item for the unit's custom fields.
const flagUnitCustomFields = 0x8

type Driver struct {
	ID    int64  `json:"id"`
	Name  string `json:"n"`
	Phone string `json:"ph"`
}

type CustomField struct {
	ID    int64  `json:"id"`
	Name  string `json:"n"`
	Value string `json:"v"`
}

// Session is an authenticated backend session. It is scoped to one request.
type Session struct {
	client *Client
	sid    string
}

// UnitDrivers returns the drivers bound to the unit across all resources.
func (s *Session) UnitDrivers(ctx context.Context, unitID int64) ([]Driver, error) {
	// {"<resourceId>": [driver, ...], ...}
	var out map[string][]Driver
	if err := s.client.call(ctx, "resource/get_unit_drivers", s.sid, map[string]any{"unitId": unitID}, &out); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(out))
	for k := range out {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var drivers []Driver
	for _, k := range keys {
		drivers = append(drivers, out[k]...)
	}
	return drivers, nil
}

// UnitCustomFields returns the unit's custom fields ordered by field id.
func (s *Session) UnitCustomFields(ctx context.Context, unitID int64) ([]CustomField, error) {
	var out struct {
		Item struct {
			Fields map[string]CustomField `json:"flds"`
		} `json:"item"`
	}
	params := map[string]any{"id": unitID, "flags": flagUnitCustomFields}
	if err := s.client.call(ctx, "core/search_item", s.sid, params, &out); err != nil {
		return nil, err
	}

	fields := make([]CustomField, 0, len(out.Item.Fields))
	for k, f := range out.Item.Fields {
		if f.ID == 0 {
			f.ID, _ = strconv.ParseInt(k, 10, 64)
		}
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].ID < fields[j].ID })
	return fields, nil
}

// Close logs the session out. It is safe to call more than once.
func (s *Session) Close(ctx context.Context) error {
	if s == nil || s.sid == "" {
		return nil
	}
	err := s.client.call(ctx, "core/logout", s.sid, map[string]any{}, nil)
	s.sid = ""
	return err
}
