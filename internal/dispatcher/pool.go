package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
)

var (
	ErrNoHealthy = errors.New("no healthy providers")
	ErrNoAcquire = errors.New("provider not acquired")
)

// Pool spreads sends over healthy providers round-robin. A send moves on to
// another pick, up to maxAttempts times, only when nothing can have been
// delivered yet: no provider was available or the last one rejected it.
type Pool struct {
	providers         []Provider
	roundRobinCounter atomic.Uint64
	maxAttempts       int
}

func NewPool(provs []Provider, maxAttempts int) *Pool {
	if maxAttempts < 1 {
		maxAttempts = 2
	}

	return &Pool{providers: provs, maxAttempts: maxAttempts}
}

var _ Transport = (*Pool)(nil)

func (p *Pool) selectProvider() (Provider, error) {
	healthy := make([]Provider, 0, len(p.providers))
	for _, pr := range p.providers {
		if pr.Ready() {
			healthy = append(healthy, pr)
		}
	}

	if len(healthy) == 0 {
		return nil, ErrNoHealthy
	}

	x := p.roundRobinCounter.Add(1)
	idx := int((x - 1) % uint64(len(healthy)))

	return healthy[idx], nil
}

func (p *Pool) SendSMS(ctx context.Context, to, body string, dryRun bool) (string, error) {
	return p.send(ctx, "sms", func(pr Provider) (string, error) {
		return pr.SendSMS(ctx, to, body, dryRun)
	})
}

func (p *Pool) SendVoice(ctx context.Context, to, body string, voice VoiceParams, dryRun bool) (string, error) {
	return p.send(ctx, "voice", func(pr Provider) (string, error) {
		return pr.SendVoice(ctx, to, body, voice, dryRun)
	})
}

func (p *Pool) send(ctx context.Context, kind string, fn func(Provider) (string, error)) (string, error) {
	var last error
	for i := 0; i < p.maxAttempts; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		pr, err := p.selectProvider()
		if err != nil {
			last = err
			continue
		}
		if !pr.Acquire() {
			last = ErrNoAcquire
			continue
		}

		id, err := fn(pr)
		if err == nil {
			return id, nil
		}
		last = fmt.Errorf("%s: %w", pr.Name(), err)
		if !errors.Is(err, ErrRejected) {
			break
		}
	}

	if last == nil {
		last = fmt.Errorf("send %s failed", kind)
	}

	return "", last
}
