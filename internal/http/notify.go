package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/jmehdipour/unit-notifier/internal/dispatcher"
	"github.com/jmehdipour/unit-notifier/internal/fleet"
	"github.com/jmehdipour/unit-notifier/internal/http/middleware"
	"github.com/jmehdipour/unit-notifier/internal/model"
	"github.com/jmehdipour/unit-notifier/internal/service/notify"
	"github.com/jmehdipour/unit-notifier/internal/util"
	"github.com/labstack/echo/v4"
)

// Notifier is the pipeline behind the notify endpoint.
type Notifier interface {
	Notify(ctx context.Context, p notify.Principal, req model.DispatchRequest) (notify.Outcome, error)
}

// notifyReq binds from the query string on GET and from the body on POST.
type notifyReq struct {
	UnitID      int64  `query:"unit_id" json:"unit_id" form:"unit_id"`
	PhoneNumber string `query:"phone_number" json:"phone_number" form:"phone_number"`
	UserID      int64  `query:"user_id" json:"user_id" form:"user_id"`
	Message     string `query:"message" json:"message" form:"message"`
	DryRun      bool   `query:"dry_run" json:"dry_run" form:"dry_run"`
	Location    string `query:"location" json:"location" form:"location"`
	UnitName    string `query:"unit_name" json:"unit_name" form:"unit_name"`
	MsgTimeInt  int64  `query:"msg_time_int" json:"msg_time_int" form:"msg_time_int"` // unix seconds
}

func (r notifyReq) toDispatch(method model.Method) model.DispatchRequest {
	req := model.DispatchRequest{
		UnitID:   r.UnitID,
		UserID:   r.UserID,
		Message:  strings.TrimSpace(r.Message),
		Method:   method,
		DryRun:   r.DryRun,
		Location: strings.TrimSpace(r.Location),
		UnitName: strings.TrimSpace(r.UnitName),
	}
	for _, p := range util.SplitPhones(r.PhoneNumber) {
		req.PhoneNumbers = append(req.PhoneNumbers, model.Phone(p))
	}
	if r.MsgTimeInt > 0 {
		ts := time.Unix(r.MsgTimeInt, 0).UTC()
		req.MessageTime = &ts
	}
	return req
}

func notifyHandler(svc Notifier) echo.HandlerFunc {
	return func(c echo.Context) error {
		method, err := model.ParseMethod(c.Param("method"))
		if err != nil {
			return c.JSON(http.StatusNotAcceptable, map[string]string{"error": "invalid notification method"})
		}

		var req notifyReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		principal := notify.Principal{Staff: middleware.StaffFromCtx(c)}
		principal.ClientID, _ = middleware.ClientIDFromCtx(c)

		out, err := svc.Notify(c.Request().Context(), principal, req.toDispatch(method))
		if err != nil {
			status := statusFor(err)
			if status == http.StatusInternalServerError || status == http.StatusBadGateway {
				c.Logger().Errorf("notify failed: %v", err)
			}
			return c.JSON(status, map[string]any{
				"error": err.Error(),
				"state": out.State,
			})
		}

		return c.JSON(http.StatusOK, out)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidMethod):
		return http.StatusNotAcceptable
	case errors.Is(err, notify.ErrInvalidInput),
		errors.Is(err, notify.ErrUnknownCustomer),
		errors.Is(err, notify.ErrMissingCredential):
		return http.StatusBadRequest
	case errors.Is(err, notify.ErrNoSubscription),
		errors.Is(err, notify.ErrQuotaExhausted):
		return http.StatusForbidden
	case errors.Is(err, dispatcher.ErrNoRecipients):
		return http.StatusOK
	case errors.Is(err, fleet.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
