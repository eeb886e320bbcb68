package middleware

import (
	"net/http"
	"strings"

	"github.com/jmehdipour/unit-notifier/internal/repository"
	echo "github.com/labstack/echo/v4"
)

const (
	ctxClientID  = "api_client_id"
	ctxClientRPS = "api_client_rps"
	ctxStaff     = "api_client_staff"
)

// ClientIDFromCtx extracts the authenticated api client id set by APIKeyMiddleware.
func ClientIDFromCtx(c echo.Context) (int64, bool) {
	id, ok := c.Get(ctxClientID).(int64)
	return id, ok
}

// StaffFromCtx reports whether the caller is a staff client.
func StaffFromCtx(c echo.Context) bool {
	staff, _ := c.Get(ctxStaff).(bool)
	return staff
}

// APIKeyMiddleware authenticates requests using the X-API-Key header (or the
// api_key query parameter, for fleet webhooks that cannot set headers).
// Suspended clients are rejected.
func APIKeyMiddleware(clients repository.APIClientsRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := strings.TrimSpace(c.Request().Header.Get("X-API-Key"))
			if key == "" {
				key = strings.TrimSpace(c.QueryParam("api_key"))
			}
			if key == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing api key"})
			}
			cl, err := clients.GetByAPIKey(c.Request().Context(), key)
			if err != nil {
				c.Logger().Errorf("api key lookup failed: %v", err)
				return c.JSON(http.StatusInternalServerError, map[string]string{"error": "auth error"})
			}
			if cl == nil || cl.Status != "active" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid api key"})
			}
			c.Set(ctxClientID, cl.ID)
			c.Set(ctxStaff, cl.Staff)
			if cl.RateLimitRPS != nil {
				c.Set(ctxClientRPS, *cl.RateLimitRPS)
			}
			return next(c)
		}
	}
}
