package dispatcher

import (
	"fmt"
	"strings"

	"github.com/jmehdipour/unit-notifier/internal/config"
	"go.uber.org/zap"
)

// NewPoolFromConfig builds every enabled provider, each behind its own breaker.
func NewPoolFromConfig(cfg config.Config, log *zap.Logger) (*Pool, error) {
	if log == nil {
		log = zap.NewNop()
	}

	var provs []Provider
	for _, pc := range cfg.Providers {
		if !pc.Enabled {
			continue
		}

		var (
			t   Transport
			err error
		)
		switch strings.ToLower(pc.Kind) {
		case "pinpoint":
			t, err = NewPinpointProviderFromConfig(cfg.Pinpoint)
		case "twilio":
			t, err = NewTwilioProvider(cfg.Twilio)
		case "http":
			if strings.TrimSpace(pc.BaseURL) == "" {
				err = fmt.Errorf("empty base_url")
				break
			}
			t = NewHTTPProvider(pc.Name, pc.BaseURL, pc.SMSPath, pc.VoicePath, pc.TimeoutMs)
		default:
			err = fmt.Errorf("unknown kind %q", pc.Kind)
		}
		if err != nil {
			return nil, fmt.Errorf("provider %s: %w", pc.Name, err)
		}

		provs = append(provs, GuardFromConfig(pc, t))
		log.Info("provider enabled", zap.String("name", pc.Name), zap.String("kind", pc.Kind))
	}
	if len(provs) == 0 {
		return nil, fmt.Errorf("no providers enabled in config")
	}

	return NewPool(provs, cfg.Dispatcher.MaxRetryAttempts), nil
}
