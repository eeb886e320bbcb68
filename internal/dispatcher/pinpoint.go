package dispatcher

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/pinpointsmsvoicev2"
	"github.com/aws/aws-sdk-go/service/pinpointsmsvoicev2/pinpointsmsvoicev2iface"
	"github.com/jmehdipour/unit-notifier/internal/config"
)

// PinpointProvider sends through AWS Pinpoint SMS and Voice v2.
type PinpointProvider struct {
	api pinpointsmsvoicev2iface.PinpointSMSVoiceV2API
	cfg config.PinpointConfig
}

func NewPinpointProvider(api pinpointsmsvoicev2iface.PinpointSMSVoiceV2API, cfg config.PinpointConfig) *PinpointProvider {
	return &PinpointProvider{api: api, cfg: cfg}
}

// NewPinpointProviderFromConfig uses the default AWS credential chain.
func NewPinpointProviderFromConfig(cfg config.PinpointConfig) (*PinpointProvider, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(cfg.Region)})
	if err != nil {
		return nil, err
	}
	return NewPinpointProvider(pinpointsmsvoicev2.New(sess), cfg), nil
}

var _ Transport = (*PinpointProvider)(nil)

func (p *PinpointProvider) SendSMS(ctx context.Context, to, body string, dryRun bool) (string, error) {
	in := &pinpointsmsvoicev2.SendTextMessageInput{
		DestinationPhoneNumber: aws.String(to),
		MessageBody:            aws.String(body),
		DryRun:                 aws.Bool(dryRun),
	}
	if p.cfg.MessageType != "" {
		in.MessageType = aws.String(p.cfg.MessageType)
	}
	if p.cfg.TTLSeconds > 0 {
		in.TimeToLive = aws.Int64(p.cfg.TTLSeconds)
	}
	if p.cfg.MaxPriceSMS != "" {
		in.MaxPrice = aws.String(p.cfg.MaxPriceSMS)
	}
	if p.cfg.PoolARN != "" {
		in.OriginationIdentity = aws.String(p.cfg.PoolARN)
	}
	if p.cfg.ConfigurationSetARN != "" {
		in.ConfigurationSetName = aws.String(p.cfg.ConfigurationSetARN)
	}
	if p.cfg.ProtectConfigurationID != "" {
		in.ProtectConfigurationId = aws.String(p.cfg.ProtectConfigurationID)
	}

	out, err := p.api.SendTextMessageWithContext(ctx, in)
	if err != nil {
		return "", classifyAWS(err)
	}
	return aws.StringValue(out.MessageId), nil
}

func (p *PinpointProvider) SendVoice(ctx context.Context, to, body string, voice VoiceParams, dryRun bool) (string, error) {
	in := &pinpointsmsvoicev2.SendVoiceMessageInput{
		DestinationPhoneNumber: aws.String(to),
		MessageBody:            aws.String(body),
		DryRun:                 aws.Bool(dryRun),
		OriginationIdentity:    aws.String(p.cfg.PoolARN),
	}
	if voice.VoiceID != "" {
		in.VoiceId = aws.String(voice.VoiceID)
	}
	if voice.TextType != "" {
		in.MessageBodyTextType = aws.String(voice.TextType)
	}
	if p.cfg.TTLSeconds > 0 {
		in.TimeToLive = aws.Int64(p.cfg.TTLSeconds)
	}
	if p.cfg.MaxPriceVoicePerMinute != "" {
		in.MaxPricePerMinute = aws.String(p.cfg.MaxPriceVoicePerMinute)
	}
	if p.cfg.ConfigurationSetARN != "" {
		in.ConfigurationSetName = aws.String(p.cfg.ConfigurationSetARN)
	}
	if p.cfg.ProtectConfigurationID != "" {
		in.ProtectConfigurationId = aws.String(p.cfg.ProtectConfigurationID)
	}

	out, err := p.api.SendVoiceMessageWithContext(ctx, in)
	if err != nil {
		return "", classifyAWS(err)
	}
	return aws.StringValue(out.MessageId), nil
}

// classifyAWS marks 4xx service errors (validation, throttling, access) as rejected.
func classifyAWS(err error) error {
	var rf awserr.RequestFailure
	if errors.As(err, &rf) && rf.StatusCode() >= 400 && rf.StatusCode() < 500 {
		return rejected(err)
	}
	return err
}
