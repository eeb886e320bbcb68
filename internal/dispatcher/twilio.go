package dispatcher

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"strings"

	"github.com/jmehdipour/unit-notifier/internal/config"
	"github.com/jmehdipour/unit-notifier/internal/util"
	"github.com/twilio/twilio-go"
	twilioClient "github.com/twilio/twilio-go/client"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// twilioAPI is the subset of the Twilio REST API used here.
type twilioAPI interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
	CreateCall(params *twilioApi.CreateCallParams) (*twilioApi.ApiV2010Call, error)
}

// TwilioProvider sends SMS and TwiML <Say> calls. Twilio has no dry-run
// mode, so dry runs return a synthetic id without calling the API.
type TwilioProvider struct {
	api  twilioAPI
	from string
}

func NewTwilioProvider(cfg config.TwilioConfig) (*TwilioProvider, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.FromNumber == "" {
		return nil, errors.New("twilio: account_sid, auth_token and from_number are required")
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &TwilioProvider{api: client.Api, from: cfg.FromNumber}, nil
}

var _ Transport = (*TwilioProvider)(nil)

func (p *TwilioProvider) SendSMS(ctx context.Context, to, body string, dryRun bool) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if dryRun {
		return dryRunID(), nil
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(p.from)
	params.SetBody(body)

	msg, err := p.api.CreateMessage(params)
	if err != nil {
		return "", classifyTwilio(err)
	}
	if msg == nil || msg.Sid == nil {
		return "", nil
	}
	return *msg.Sid, nil
}

func (p *TwilioProvider) SendVoice(ctx context.Context, to, body string, voice VoiceParams, dryRun bool) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	twiml, err := sayTwiML(body, voice)
	if err != nil {
		return "", err
	}
	if dryRun {
		return dryRunID(), nil
	}

	params := &twilioApi.CreateCallParams{}
	params.SetTo(to)
	params.SetFrom(p.from)
	params.SetTwiml(twiml)

	call, err := p.api.CreateCall(params)
	if err != nil {
		return "", classifyTwilio(err)
	}
	if call == nil || call.Sid == nil {
		return "", nil
	}
	return *call.Sid, nil
}

// sayTwiML wraps body in <Response><Say>. SSML bodies are passed through
// unescaped; plain text is XML-escaped.
func sayTwiML(body string, voice VoiceParams) (string, error) {
	var b bytes.Buffer
	b.WriteString("<Response><Say")
	if voice.VoiceID != "" {
		b.WriteString(` voice="Polly.`)
		b.WriteString(pollyVoice(voice.VoiceID))
		b.WriteString(`"`)
	}
	b.WriteString(">")
	if strings.EqualFold(voice.TextType, "SSML") {
		b.WriteString(body)
	} else if err := xml.EscapeText(&b, []byte(body)); err != nil {
		return "", err
	}
	b.WriteString("</Say></Response>")
	return b.String(), nil
}

// pollyVoice turns MATTHEW into Matthew.
func pollyVoice(id string) string {
	id = strings.ToLower(id)
	return strings.ToUpper(id[:1]) + id[1:]
}

// classifyTwilio marks 4xx REST errors (bad number, auth, rate limit) as rejected.
func classifyTwilio(err error) error {
	var re *twilioClient.TwilioRestError
	if errors.As(err, &re) && re.Status >= 400 && re.Status < 500 {
		return rejected(err)
	}
	return err
}

func dryRunID() string { return "dryrun-" + util.NewID() }
