package webhook

import (
	"strings"
	"time"
)

// ReportedStatus is the outcome claimed by the processor in a callback.
type ReportedStatus string

const (
	ReportedComplete ReportedStatus = "COMPLETE"
	ReportedDeclined ReportedStatus = "DECLINED"
)

// Recognized reports whether the claimed status maps to a terminal
// transition. Anything else is ignored and logged.
func (s ReportedStatus) Recognized() bool {
	return s == ReportedComplete || s == ReportedDeclined
}

// Normalize trims and upper-cases a raw status string from the wire.
func Normalize(raw string) ReportedStatus {
	return ReportedStatus(strings.ToUpper(strings.TrimSpace(raw)))
}

// OutcomeKind classifies what handling a delivery did to the order.
type OutcomeKind string

const (
	// Applied means a terminal transition was committed by this delivery.
	OutcomeApplied OutcomeKind = "applied"
	// The order already reached a terminal state; delivery is a no-op.
	OutcomeIgnoredAlreadyTerminal OutcomeKind = "ignored_already_terminal"
	// The order exists but has not been initiated yet.
	OutcomeIgnoredNotPending OutcomeKind = "ignored_not_pending"
	// The claimed status is not COMPLETE or DECLINED.
	OutcomeIgnoredUnrecognizedStatus OutcomeKind = "ignored_unrecognized_status"
	OutcomeRejectedInvalidSignature  OutcomeKind = "rejected_invalid_signature"
	OutcomeRejectedMalformedPayload  OutcomeKind = "rejected_malformed_payload"
	OutcomeRejectedUnknownOrder      OutcomeKind = "rejected_unknown_order"
)

// Rejected reports whether the delivery never reached the state machine.
func (k OutcomeKind) Rejected() bool {
	switch k {
	case OutcomeRejectedInvalidSignature, OutcomeRejectedMalformedPayload, OutcomeRejectedUnknownOrder:
		return true
	}
	return false
}

// Outcome is the result of handling one callback delivery.
type Outcome struct {
	Kind     OutcomeKind
	OrderID  string
	Reported ReportedStatus
}

// Delivery is the audit record persisted for every authenticated callback.
// Raw payloads are kept so deliveries can be replayed through the processor,
// which is safe because handling is idempotent.
type Delivery struct {
	ID         int64
	OrderID    string
	Reported   ReportedStatus
	Outcome    OutcomeKind
	RawJSON    []byte
	ReceivedAt time.Time
}

// NewDelivery builds an audit record for an authenticated callback.
func NewDelivery(orderID string, reported ReportedStatus, outcome OutcomeKind, raw []byte) *Delivery {
	return &Delivery{
		OrderID:    orderID,
		Reported:   reported,
		Outcome:    outcome,
		RawJSON:    raw,
		ReceivedAt: time.Now(),
	}
}
