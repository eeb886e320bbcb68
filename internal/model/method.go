package model

import (
	"errors"
	"strings"
)

// Method is the delivery channel used for a notification.
type Method string

const (
	MethodSMS   Method = "sms"
	MethodVoice Method = "voice"
)

var ErrInvalidMethod = errors.New("invalid notification method")

func (m Method) String() string { return string(m) }

// ParseMethod normalizes input. Only "sms" and "voice" are accepted.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sms":
		return MethodSMS, nil
	case "voice":
		return MethodVoice, nil
	default:
		return "", ErrInvalidMethod
	}
}

func (m Method) Valid() bool {
	return m == MethodSMS || m == MethodVoice
}
