package provider

// Processor-side order statuses seen on the wire.
const (
	// StatusInit is the only creation response status treated as success.
	StatusInit = "INIT"
)

// OrderResult is the parsed processor view of an order, shared by the
// creation response and the status query.
type OrderResult struct {
	Status       string
	AcquiringURL string
}

// Accepted reports whether the processor accepted the payment request: the
// order is in INIT and a hosted payment page exists for the buyer.
func (r OrderResult) Accepted() bool {
	return r.Status == StatusInit && r.AcquiringURL != ""
}

// Notification is the payload of an authenticated callback.
type Notification struct {
	ExternalOrderID string
	Status          string
}

// ErrorKind classifies gateway failures. All of them are recoverable from
// the buyer's perspective and leave the order untouched.
type ErrorKind string

const (
	// ErrUnavailable covers transport failures and timeouts.
	ErrUnavailable ErrorKind = "unavailable"
	// ErrMalformedResponse covers empty or unparseable gateway payloads.
	ErrMalformedResponse ErrorKind = "malformed_response"
	// ErrRejected means the processor answered with a non-INIT status.
	ErrRejected ErrorKind = "rejected"
)

// GatewayError is the explicit result kind for expected gateway failures,
// replacing exception-style signalling for recoverable conditions.
type GatewayError struct {
	Kind   ErrorKind
	Status string // processor status for ErrRejected, if any
	Err    error
}

func (e *GatewayError) Error() string {
	msg := "gateway " + string(e.Kind)
	if e.Status != "" {
		msg += " (status " + e.Status + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *GatewayError) Unwrap() error { return e.Err }

// Unavailable builds a transport-level gateway error.
func Unavailable(err error) *GatewayError {
	return &GatewayError{Kind: ErrUnavailable, Err: err}
}

// MalformedResponse builds a parse-level gateway error.
func MalformedResponse(err error) *GatewayError {
	return &GatewayError{Kind: ErrMalformedResponse, Err: err}
}

// Rejected builds a gateway error for a non-INIT creation status.
func Rejected(status string) *GatewayError {
	return &GatewayError{Kind: ErrRejected, Status: status}
}
