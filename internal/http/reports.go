package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/jmehdipour/unit-notifier/internal/http/middleware"
	"github.com/jmehdipour/unit-notifier/internal/model"
	"github.com/jmehdipour/unit-notifier/internal/repository"
	"github.com/jmehdipour/unit-notifier/internal/util"
	echo "github.com/labstack/echo/v4"
)

// listDeliveriesHandler serves delivery history for one customer. Staff only.
func listDeliveriesHandler(chRepo repository.DeliveriesRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !middleware.StaffFromCtx(c) {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
		}

		custID, err := strconv.ParseInt(c.QueryParam("customer_id"), 10, 64)
		if err != nil || custID <= 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "customer_id is required"})
		}

		limit := 50
		offset := 0
		if v := c.QueryParam("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
				limit = n
			}
		}
		if v := c.QueryParam("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				offset = n
			}
		}

		var st model.DeliveryStatus
		if raw := strings.TrimSpace(c.QueryParam("status")); raw != "" {
			if tmp := model.DeliveryStatus(raw); tmp.Valid() {
				st = tmp
			}
		}

		var phone string
		if raw := strings.TrimSpace(c.QueryParam("phone")); raw != "" {
			phone = util.NormalizePhone(raw)
		}

		rows, err := chRepo.ListByCustomer(c.Request().Context(), custID, phone, st, limit, offset)
		if err != nil {
			c.Logger().Errorf("clickhouse list failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "query failed"})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"limit":   limit,
			"offset":  offset,
			"count":   len(rows),
			"results": rows,
		})
	}
}
