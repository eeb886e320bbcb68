package notify

// State is where a request ended up.
type State string

const (
	StateReceived       State = "received"
	StateValidated      State = "validated"
	StateEntitled       State = "entitled"
	StatePhonesResolved State = "phones_resolved"
	StateRendered       State = "rendered"
	StateDispatched     State = "dispatched"
	StateCommitted      State = "committed"

	StateRejectedInvalidInput  State = "rejected_invalid_input"
	StateRejectedUnauthorized  State = "rejected_unauthorized"
	StateRejectedNoRecipients  State = "rejected_no_recipients"
	StateRejectedInvalidMethod State = "rejected_invalid_method"
	StateFailedUpstream        State = "failed_upstream"
)

func (s State) String() string { return string(s) }
