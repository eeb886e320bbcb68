package dispatcher

import (
	"context"
	"sync"
)

type sendCall struct {
	to     string
	body   string
	voice  VoiceParams
	dryRun bool
	sms    bool
}

// fakeTransport records calls and answers from fn.
type fakeTransport struct {
	mu    sync.Mutex
	calls []sendCall
	fn    func(to string) (string, error)
}

func (f *fakeTransport) record(c sendCall) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
	if f.fn == nil {
		return "id-" + c.to, nil
	}
	return f.fn(c.to)
}

func (f *fakeTransport) SendSMS(_ context.Context, to, body string, dryRun bool) (string, error) {
	return f.record(sendCall{to: to, body: body, dryRun: dryRun, sms: true})
}

func (f *fakeTransport) SendVoice(_ context.Context, to, body string, voice VoiceParams, dryRun bool) (string, error) {
	return f.record(sendCall{to: to, body: body, voice: voice, dryRun: dryRun})
}

func (f *fakeTransport) Calls() []sendCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sendCall(nil), f.calls...)
}
