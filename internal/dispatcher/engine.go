package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jmehdipour/unit-notifier/internal/config"
	"github.com/jmehdipour/unit-notifier/internal/metrics"
	"github.com/jmehdipour/unit-notifier/internal/model"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrNoRecipients is returned when DispatchAll gets an empty phone set.
var ErrNoRecipients = errors.New("no recipients")

// Engine fans one message out to many destinations concurrently.
type Engine struct {
	transport      Transport
	maxConcurrency int
	attemptTimeout time.Duration
	voice          VoiceParams
	log            *zap.Logger
}

func NewEngine(t Transport, cfg config.DispatcherConfig, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{
		transport:      t,
		maxConcurrency: cfg.MaxConcurrency,
		attemptTimeout: cfg.AttemptTimeout,
		voice:          VoiceParams{VoiceID: cfg.VoiceID, TextType: cfg.VoiceTextType},
		log:            log.Named("dispatcher"),
	}
	if e.maxConcurrency <= 0 {
		e.maxConcurrency = 16
	}
	if e.attemptTimeout <= 0 {
		e.attemptTimeout = 10 * time.Second
	}
	return e
}

// DispatchAll attempts every phone once. A failed attempt never affects the
// others; only an invalid method or an empty set fails the call.
func (e *Engine) DispatchAll(ctx context.Context, phones []model.Phone, message string, method model.Method, dryRun bool) (model.DispatchResult, error) {
	if !method.Valid() {
		return model.DispatchResult{}, fmt.Errorf("%w: %q", model.ErrInvalidMethod, method)
	}
	if len(phones) == 0 {
		return model.DispatchResult{}, ErrNoRecipients
	}

	res := model.DispatchResult{Outcomes: make(map[model.Phone]model.Outcome, len(phones))}
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(e.maxConcurrency)
	seen := make(map[model.Phone]struct{}, len(phones))
	for _, phone := range phones {
		if _, dup := seen[phone]; dup {
			continue
		}
		seen[phone] = struct{}{}
		g.Go(func() error {
			out := e.attempt(ctx, phone, message, method, dryRun)

			mu.Lock()
			res.Outcomes[phone] = out
			if out.Delivered {
				res.SuccessCount++
			} else {
				res.FailureCount++
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return res, nil
}

func (e *Engine) attempt(ctx context.Context, phone model.Phone, message string, method model.Method, dryRun bool) model.Outcome {
	ctx, cancel := context.WithTimeout(ctx, e.attemptTimeout)
	defer cancel()

	id, err := e.send(ctx, phone, message, method, dryRun)
	if err == nil && id == "" {
		err = errEmptyMessageID
	}

	if err != nil {
		metrics.DeliveriesTotal.WithLabelValues(method.String(), "failed").Inc()
		e.log.Warn("delivery failed",
			zap.String("phone", phone.String()),
			zap.String("method", method.String()),
			zap.Bool("dry_run", dryRun),
			zap.Error(err))
		return model.Outcome{Error: err.Error()}
	}

	metrics.DeliveriesTotal.WithLabelValues(method.String(), "delivered").Inc()
	return model.Outcome{Delivered: true, ProviderMessageID: id}
}

// send runs one transport call. A panicking transport is turned into an error
// for this destination only.
func (e *Engine) send(ctx context.Context, phone model.Phone, message string, method model.Method, dryRun bool) (id string, err error) {
	defer func() {
		if r := recover(); r != nil {
			id, err = "", fmt.Errorf("transport panic: %v", r)
		}
	}()

	switch method {
	case model.MethodSMS:
		return e.transport.SendSMS(ctx, phone.String(), message, dryRun)
	case model.MethodVoice:
		return e.transport.SendVoice(ctx, phone.String(), message, e.voice, dryRun)
	}
	return "", fmt.Errorf("%w: %q", model.ErrInvalidMethod, method)
}
