package fleet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jmehdipour/unit-notifier/internal/config"
	"go.uber.org/zap"
)

// ErrUpstream wraps every failure reported by the fleet backend or the
// transport in front of it.
var ErrUpstream = errors.New("fleet upstream error")

const ajaxPath = "/wialon/ajax.html"

// Client talks to the Wialon Remote API.
type Client struct {
	baseURL     string
	http        *http.Client
	timeout     time.Duration
	maxAttempts int
	backoff     time.Duration
	log         *zap.Logger
}

func NewClient(cfg config.FleetConfig, log *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		http:        &http.Client{},
		timeout:     timeout,
		maxAttempts: 3,
		backoff:     200 * time.Millisecond,
		log:         log.Named("fleet"),
	}
}

// apiError is the {"error": N} body the backend returns on failure.
type apiError struct {
	Code   int    `json:"error"`
	Reason string `json:"reason"`
}

func (e *apiError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("wialon error %d: %s", e.Code, e.Reason)
	}
	return fmt.Sprintf("wialon error %d", e.Code)
}

type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

// Login exchanges a customer token for a session. The caller must Close it.
func (c *Client) Login(ctx context.Context, token string) (*Session, error) {
	var out struct {
		EID string `json:"eid"`
	}
	if err := c.call(ctx, "token/login", "", map[string]any{"token": token}, &out); err != nil {
		return nil, err
	}
	if out.EID == "" {
		return nil, fmt.Errorf("%w: token/login returned no session id", ErrUpstream)
	}
	return &Session{client: c, sid: out.EID}, nil
}

// call runs one svc request with its own timeout and decodes the result into out.
func (c *Client) call(ctx context.Context, svc, sid string, params any, out any) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("encode %s params: %w", svc, err)
	}

	form := url.Values{}
	form.Set("svc", svc)
	form.Set("params", string(raw))
	if sid != "" {
		form.Set("sid", sid)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ajaxPath, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUpstream, svc, err)
	}

	// Failures come back as 200 with an error code.
	var ae apiError
	if json.Unmarshal(body, &ae) == nil && ae.Code != 0 {
		return fmt.Errorf("%w: %s: %v", ErrUpstream, svc, &ae)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrUpstream, svc, err)
	}
	return nil
}

// doWithRetry retries network errors and 429/5xx responses with exponential
// backoff while the context allows it.
func (c *Client) doWithRetry(ctx context.Context, makeReq func() (*http.Request, error)) ([]byte, error) {
	backoff := c.backoff
	var lastErr error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := makeReq()
		if err != nil {
			return nil, fmt.Errorf("make request: %w", err)
		}

		body, err := c.do(req)
		if err == nil {
			return body, nil
		}
		lastErr = err

		retry := false
		var he *httpStatusError
		if errors.As(err, &he) {
			switch he.Code {
			case 429, 500, 502, 503, 504:
				retry = true
			}
		}
		var netErr net.Error
		if !retry && errors.As(err, &netErr) {
			retry = true
		}

		if !retry || attempt == c.maxAttempts {
			return nil, lastErr
		}

		c.log.Debug("retrying fleet call", zap.Int("attempt", attempt), zap.Error(err))

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
	}

	return nil, lastErr
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, &httpStatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	return b, nil
}
