package notify

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnknownCustomer   = errors.New("unknown customer")
	ErrMissingCredential = errors.New("customer has no fleet credential")
	ErrNoSubscription    = errors.New("no active subscription")
	ErrQuotaExhausted    = errors.New("message quota exhausted")
)
