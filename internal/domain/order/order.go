package order

import (
	"fmt"
	"strings"
	"time"
)

// Order is a store order flowing through the crypto payment lifecycle.
// The ID is assigned by the store's checkout flow before this service
// ever sees the order and doubles as the idempotency key for callbacks.
type Order struct {
	ID           string
	UserID       string
	Amount       Money
	Currency     Currency
	Status       Status
	AcquiringURL string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	PaidAt       *time.Time
}

// Money is a monetary amount in the smallest currency unit (cents).
type Money int64

// Decimal renders the amount the way the processor API expects it,
// e.g. 1000 -> "10.00".
func (m Money) Decimal() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// Currency is an ISO 4217 currency code.
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	UAH Currency = "UAH"
)

// Status represents the order payment status.
type Status string

const (
	StatusCreated        Status = "created"
	StatusPendingPayment Status = "pending_payment"
	StatusCompleted      Status = "completed"
	StatusFailed         Status = "failed"
	StatusExpired        Status = "expired"
)

// IsTerminal reports whether no further outcome transition is accepted.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusExpired
}

// CanTransitionTo reports whether the state machine allows moving to next.
// Terminal states transition nowhere: the first valid terminal delivery wins.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusCreated:
		return next == StatusPendingPayment
	case StatusPendingPayment:
		return next == StatusCompleted || next == StatusFailed || next == StatusExpired
	default:
		return false
	}
}

// New creates an order in its initial state with validation.
func New(id, userID string, amount Money, currency Currency) (*Order, error) {
	if strings.TrimSpace(id) == "" {
		return nil, DomainError{Code: ErrInvalidOrder, Message: "order ID is required"}
	}
	if amount <= 0 {
		return nil, DomainError{Code: ErrInvalidAmount, Message: fmt.Sprintf("amount must be positive: %d", amount)}
	}
	if strings.TrimSpace(string(currency)) == "" {
		return nil, DomainError{Code: ErrInvalidCurrency, Message: "currency is required"}
	}
	now := time.Now()
	return &Order{
		ID:        strings.TrimSpace(id),
		UserID:    strings.TrimSpace(userID),
		Amount:    amount,
		Currency:  currency,
		Status:    StatusCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsCompleted checks if the order reached the paid terminal state.
func (o *Order) IsCompleted() bool {
	return o.Status == StatusCompleted
}

// AwaitingPayment checks if the order is waiting for a processor outcome.
func (o *Order) AwaitingPayment() bool {
	return o.Status == StatusPendingPayment
}

// Note is a persisted annotation on an order, e.g. the configured
// payment-succeeded text.
type Note struct {
	ID        int64
	OrderID   string
	Text      string
	CreatedAt time.Time
}

// DomainError represents a domain-level error.
type DomainError struct {
	Code    string
	Message string
}

func (e DomainError) Error() string {
	return fmt.Sprintf("domain error [%s]: %s", e.Code, e.Message)
}

// Domain error codes
const (
	ErrInvalidOrder    = "INVALID_ORDER"
	ErrInvalidAmount   = "INVALID_AMOUNT"
	ErrInvalidCurrency = "INVALID_CURRENCY"
	ErrInvalidStatus   = "INVALID_STATUS"
)
