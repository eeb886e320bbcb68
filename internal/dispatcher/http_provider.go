package dispatcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// HTTPProvider posts messages as JSON to a webhook-style gateway.
type HTTPProvider struct {
	name      string
	baseURL   string
	smsPath   string
	voicePath string
	client    *http.Client
}

func NewHTTPProvider(name, baseURL, smsPath, voicePath string, timeoutMs int) *HTTPProvider {
	if timeoutMs <= 0 {
		timeoutMs = 3000
	}

	return &HTTPProvider{
		name:      name,
		baseURL:   strings.TrimRight(baseURL, "/"),
		smsPath:   smsPath,
		voicePath: voicePath,
		client:    &http.Client{Timeout: time.Duration(timeoutMs) * time.Millisecond},
	}
}

var _ Transport = (*HTTPProvider)(nil)

type httpSendRequest struct {
	To       string `json:"to"`
	Body     string `json:"body"`
	DryRun   bool   `json:"dry_run"`
	VoiceID  string `json:"voice_id,omitempty"`
	TextType string `json:"text_type,omitempty"`
}

// Gateways answer with either message_id or messageId.
type httpSendResponse struct {
	MessageID      string `json:"message_id"`
	MessageIDCamel string `json:"messageId"`
}

func (p *HTTPProvider) SendSMS(ctx context.Context, to, body string, dryRun bool) (string, error) {
	return p.post(ctx, p.smsPath, httpSendRequest{To: to, Body: body, DryRun: dryRun})
}

func (p *HTTPProvider) SendVoice(ctx context.Context, to, body string, voice VoiceParams, dryRun bool) (string, error) {
	return p.post(ctx, p.voicePath, httpSendRequest{
		To:       to,
		Body:     body,
		DryRun:   dryRun,
		VoiceID:  voice.VoiceID,
		TextType: voice.TextType,
	})
}

func (p *HTTPProvider) post(ctx context.Context, path string, payload httpSendRequest) (string, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")

	res, err := p.client.Do(req)
	if err != nil {
		var opErr *net.OpError
		if errors.As(err, &opErr) && opErr.Op == "dial" {
			return "", rejected(err)
		}
		return "", err
	}

	defer res.Body.Close()

	body, _ := io.ReadAll(res.Body)
	if res.StatusCode/100 != 2 {
		err := fmt.Errorf("provider=%s path=%s status=%d", p.name, path, res.StatusCode)
		if res.StatusCode/100 == 4 {
			return "", rejected(err)
		}
		return "", err
	}

	var sr httpSendResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return "", fmt.Errorf("provider=%s decode response: %w", p.name, err)
	}
	if sr.MessageID != "" {
		return sr.MessageID, nil
	}
	return sr.MessageIDCamel, nil
}
