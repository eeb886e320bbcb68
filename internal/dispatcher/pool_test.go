package dispatcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolRoundRobin(t *testing.T) {
	a := &fakeTransport{fn: func(string) (string, error) { return "a", nil }}
	b := &fakeTransport{fn: func(string) (string, error) { return "b", nil }}
	pool := NewPool([]Provider{
		Guard("a", a, NewMicroBreaker(3, time.Minute)),
		Guard("b", b, NewMicroBreaker(3, time.Minute)),
	}, 2)

	var got []string
	for i := 0; i < 4; i++ {
		id, err := pool.SendSMS(context.Background(), "+15550000001", "x", false)
		require.NoError(t, err)
		got = append(got, id)
	}
	assert.Equal(t, []string{"a", "b", "a", "b"}, got)
}

func TestPoolRetriesRejectedOnAnotherProvider(t *testing.T) {
	bad := &fakeTransport{fn: func(string) (string, error) { return "", rejected(errors.New("status=400")) }}
	good := &fakeTransport{fn: func(string) (string, error) { return "ok", nil }}
	pool := NewPool([]Provider{
		Guard("bad", bad, NewMicroBreaker(3, time.Minute)),
		Guard("good", good, NewMicroBreaker(3, time.Minute)),
	}, 2)

	id, err := pool.SendVoice(context.Background(), "+15550000001", "x", VoiceParams{}, true)
	require.NoError(t, err)
	assert.Equal(t, "ok", id)
	require.Len(t, bad.Calls(), 1)
	require.Len(t, good.Calls(), 1)
	assert.True(t, good.Calls()[0].dryRun)
}

func TestPoolDoesNotRetryAmbiguousFailure(t *testing.T) {
	slow := &fakeTransport{fn: func(string) (string, error) { return "", context.DeadlineExceeded }}
	other := &fakeTransport{}
	pool := NewPool([]Provider{
		Guard("slow", slow, NewMicroBreaker(3, time.Minute)),
		Guard("other", other, NewMicroBreaker(3, time.Minute)),
	}, 2)

	_, err := pool.SendSMS(context.Background(), "+15550000001", "x", false)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Len(t, slow.Calls(), 1)
	assert.Empty(t, other.Calls())
}

func TestPoolSkipsOpenProviders(t *testing.T) {
	bad := &fakeTransport{fn: func(string) (string, error) { return "", errors.New("boom") }}
	good := &fakeTransport{}
	badP := Guard("bad", bad, NewMicroBreaker(1, time.Hour))
	pool := NewPool([]Provider{badP, Guard("good", good, NewMicroBreaker(1, time.Hour))}, 1)

	// first call hits bad and trips its breaker
	_, err := pool.SendSMS(context.Background(), "+15550000001", "x", false)
	require.Error(t, err)
	assert.False(t, badP.Ready())

	for i := 0; i < 3; i++ {
		_, err := pool.SendSMS(context.Background(), "+15550000001", "x", false)
		require.NoError(t, err)
	}
	assert.Len(t, bad.Calls(), 1)
	assert.Len(t, good.Calls(), 3)
}

func TestPoolNoHealthy(t *testing.T) {
	_, err := NewPool(nil, 2).SendSMS(context.Background(), "+15550000001", "x", false)
	require.ErrorIs(t, err, ErrNoHealthy)
}

func TestGuardEmptyIDTripsBreaker(t *testing.T) {
	ft := &fakeTransport{fn: func(string) (string, error) { return "", nil }}
	p := Guard("empty", ft, NewMicroBreaker(1, time.Hour))

	_, err := p.SendSMS(context.Background(), "+15550000001", "x", false)
	require.ErrorIs(t, err, errEmptyMessageID)
	assert.False(t, p.Ready())
}
