package model

import "time"

// Phone is an E.164 destination number.
type Phone string

func (p Phone) String() string { return string(p) }

// DispatchRequest is one inbound notification. Exactly one of UnitID or PhoneNumbers is set.
type DispatchRequest struct {
	UnitID       int64
	PhoneNumbers []Phone
	UserID       int64
	Message      string
	Method       Method
	DryRun       bool
	Location     string
	UnitName     string
	MessageTime  *time.Time
}

// Outcome is the result of one delivery attempt.
type Outcome struct {
	Delivered         bool   `json:"delivered"`
	ProviderMessageID string `json:"provider_message_id,omitempty"`
	Error             string `json:"error,omitempty"`
}

type DispatchResult struct {
	Outcomes     map[Phone]Outcome
	SuccessCount int
	FailureCount int
}
