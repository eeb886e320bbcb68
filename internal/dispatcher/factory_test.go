package dispatcher

import (
	"testing"

	"github.com/jmehdipour/unit-notifier/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPoolFromConfig(t *testing.T) {
	cfg := config.Config{
		Providers: []config.ProviderConfig{
			{Name: "hook", Kind: "http", Enabled: true, BaseURL: "http://127.0.0.1:9", SMSPath: "/sms"},
			{Name: "off", Kind: "twilio", Enabled: false},
		},
		Dispatcher: config.DispatcherConfig{MaxRetryAttempts: 3},
	}

	pool, err := NewPoolFromConfig(cfg, nil)
	require.NoError(t, err)
	require.Len(t, pool.providers, 1)
	assert.Equal(t, "hook", pool.providers[0].Name())
	assert.Equal(t, 3, pool.maxAttempts)
}

func TestNewPoolFromConfigErrors(t *testing.T) {
	_, err := NewPoolFromConfig(config.Config{}, nil)
	require.ErrorContains(t, err, "no providers")

	_, err = NewPoolFromConfig(config.Config{Providers: []config.ProviderConfig{
		{Name: "x", Kind: "pigeon", Enabled: true},
	}}, nil)
	require.ErrorContains(t, err, "unknown kind")

	_, err = NewPoolFromConfig(config.Config{Providers: []config.ProviderConfig{
		{Name: "t", Kind: "twilio", Enabled: true},
	}}, nil)
	require.ErrorContains(t, err, "twilio")
}
