package dispatcher

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jmehdipour/unit-notifier/internal/config"
	"github.com/jmehdipour/unit-notifier/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t Transport) *Engine {
	return NewEngine(t, config.DispatcherConfig{
		MaxConcurrency: 4,
		AttemptTimeout: time.Second,
		VoiceID:        "MATTHEW",
		VoiceTextType:  "TEXT",
	}, nil)
}

func TestDispatchAllPartialFailure(t *testing.T) {
	ft := &fakeTransport{fn: func(to string) (string, error) {
		if to == "+15550000002" {
			return "", errors.New("throttled")
		}
		return "id-" + to, nil
	}}
	phones := []model.Phone{"+15550000001", "+15550000002", "+15550000003"}

	res, err := newEngine(ft).DispatchAll(context.Background(), phones, "hello", model.MethodSMS, false)
	require.NoError(t, err)
	assert.Equal(t, 2, res.SuccessCount)
	assert.Equal(t, 1, res.FailureCount)
	assert.True(t, res.Outcomes["+15550000001"].Delivered)
	assert.Equal(t, "id-+15550000003", res.Outcomes["+15550000003"].ProviderMessageID)
	assert.False(t, res.Outcomes["+15550000002"].Delivered)
	assert.Equal(t, "throttled", res.Outcomes["+15550000002"].Error)
}

func TestDispatchAllIsolatesPanickingTransport(t *testing.T) {
	ft := &fakeTransport{fn: func(to string) (string, error) {
		if to == "+15550000002" {
			var m map[string]int
			m[to]++
		}
		return "id-" + to, nil
	}}
	phones := []model.Phone{"+15550000001", "+15550000002", "+15550000003"}

	res, err := newEngine(ft).DispatchAll(context.Background(), phones, "hello", model.MethodVoice, false)
	require.NoError(t, err)
	assert.Equal(t, 2, res.SuccessCount)
	assert.Equal(t, 1, res.FailureCount)
	assert.False(t, res.Outcomes["+15550000002"].Delivered)
	assert.Contains(t, res.Outcomes["+15550000002"].Error, "transport panic")
	assert.True(t, res.Outcomes["+15550000003"].Delivered)
}

func TestDispatchAllInvalidMethod(t *testing.T) {
	ft := &fakeTransport{}

	_, err := newEngine(ft).DispatchAll(context.Background(), []model.Phone{"+17130000000"}, "x", model.Method("carrier_pigeon"), false)
	require.ErrorIs(t, err, model.ErrInvalidMethod)
	assert.Empty(t, ft.Calls())
}

func TestDispatchAllNoRecipients(t *testing.T) {
	ft := &fakeTransport{}

	_, err := newEngine(ft).DispatchAll(context.Background(), nil, "x", model.MethodSMS, false)
	require.ErrorIs(t, err, ErrNoRecipients)
	assert.Empty(t, ft.Calls())
}

func TestDispatchAllThreadsDryRunAndVoice(t *testing.T) {
	ft := &fakeTransport{}

	res, err := newEngine(ft).DispatchAll(context.Background(), []model.Phone{"+15550000001"}, "call me", model.MethodVoice, true)
	require.NoError(t, err)
	assert.Equal(t, 1, res.SuccessCount)

	calls := ft.Calls()
	require.Len(t, calls, 1)
	assert.True(t, calls[0].dryRun)
	assert.False(t, calls[0].sms)
	assert.Equal(t, VoiceParams{VoiceID: "MATTHEW", TextType: "TEXT"}, calls[0].voice)
}

func TestDispatchAllEmptyIDIsFailure(t *testing.T) {
	ft := &fakeTransport{fn: func(string) (string, error) { return "", nil }}

	res, err := newEngine(ft).DispatchAll(context.Background(), []model.Phone{"+15550000001"}, "x", model.MethodSMS, false)
	require.NoError(t, err)
	assert.Equal(t, 0, res.SuccessCount)
	assert.Equal(t, 1, res.FailureCount)
}

func TestDispatchAllDedupsPhones(t *testing.T) {
	ft := &fakeTransport{}

	res, err := newEngine(ft).DispatchAll(context.Background(), []model.Phone{"+15550000001", "+15550000001"}, "x", model.MethodSMS, false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.SuccessCount)
	assert.Len(t, ft.Calls(), 1)
}

type slowTransport struct {
	fakeTransport
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (s *slowTransport) SendSMS(ctx context.Context, to, body string, dryRun bool) (string, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(10 * time.Millisecond)
	return "id-" + to, nil
}

func TestDispatchAllBoundsConcurrency(t *testing.T) {
	st := &slowTransport{}
	e := NewEngine(st, config.DispatcherConfig{MaxConcurrency: 2, AttemptTimeout: time.Second}, nil)

	phones := []model.Phone{"+15550000001", "+15550000002", "+15550000003", "+15550000004", "+15550000005"}
	res, err := e.DispatchAll(context.Background(), phones, "x", model.MethodSMS, false)
	require.NoError(t, err)
	assert.Equal(t, 5, res.SuccessCount)
	assert.LessOrEqual(t, st.peak.Load(), int32(2))
}

type blockingTransport struct{ fakeTransport }

func (b *blockingTransport) SendSMS(ctx context.Context, _, _ string, _ bool) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestDispatchAllAttemptTimeout(t *testing.T) {
	e := NewEngine(&blockingTransport{}, config.DispatcherConfig{AttemptTimeout: 20 * time.Millisecond}, nil)

	res, err := e.DispatchAll(context.Background(), []model.Phone{"+15550000001"}, "x", model.MethodSMS, false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.FailureCount)
	assert.Contains(t, res.Outcomes["+15550000001"].Error, "deadline")
}
