package dispatcher

import (
	"context"
	"time"

	"github.com/jmehdipour/unit-notifier/internal/config"
)

// Provider is a Transport behind a circuit breaker, selectable by the Pool.
type Provider interface {
	Transport
	Name() string
	Ready() bool
	Acquire() bool
}

type guardedProvider struct {
	name string
	t    Transport
	br   *MicroBreaker
}

// Guard puts t behind br. An empty message id counts as a failure.
func Guard(name string, t Transport, br *MicroBreaker) Provider {
	return &guardedProvider{name: name, t: t, br: br}
}

// GuardFromConfig builds the breaker from the provider's config block.
func GuardFromConfig(pc config.ProviderConfig, t Transport) Provider {
	return Guard(pc.Name, t, NewMicroBreaker(
		pc.Breaker.FailThreshold,
		time.Duration(pc.Breaker.OpenForMs)*time.Millisecond,
	))
}

func (p *guardedProvider) Name() string  { return p.name }
func (p *guardedProvider) Ready() bool   { return p.br.Ready() }
func (p *guardedProvider) Acquire() bool { return p.br.TryAcquire() }

func (p *guardedProvider) SendSMS(ctx context.Context, to, body string, dryRun bool) (string, error) {
	return p.record(p.t.SendSMS(ctx, to, body, dryRun))
}

func (p *guardedProvider) SendVoice(ctx context.Context, to, body string, voice VoiceParams, dryRun bool) (string, error) {
	return p.record(p.t.SendVoice(ctx, to, body, voice, dryRun))
}

func (p *guardedProvider) record(id string, err error) (string, error) {
	if err == nil && id == "" {
		err = errEmptyMessageID
	}
	if err != nil {
		p.br.OnFailure()
		return "", err
	}
	p.br.OnSuccess()
	return id, nil
}
