package dispatcher

import (
	"context"
	"errors"
	"fmt"
)

// VoiceParams controls text-to-speech for voice calls.
type VoiceParams struct {
	VoiceID  string // e.g. MATTHEW
	TextType string // TEXT|SSML
}

// Transport delivers one message to one destination and returns the
// provider's message id.
type Transport interface {
	SendSMS(ctx context.Context, to, body string, dryRun bool) (string, error)
	SendVoice(ctx context.Context, to, body string, voice VoiceParams, dryRun bool) (string, error)
}

var errEmptyMessageID = errors.New("provider returned no message id")

// ErrRejected marks errors where the provider provably did not accept the
// message (4xx answer, connection never established). Only these are retried
// on another provider; timeouts and 5xx may already have delivered.
var ErrRejected = errors.New("rejected by provider")

func rejected(err error) error {
	return fmt.Errorf("%w: %w", ErrRejected, err)
}
