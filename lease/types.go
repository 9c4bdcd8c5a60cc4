/*
Package lease provides the lease lifecycle and payment-timing rules engine.

PURPOSE:
  This package holds the deterministic business rules of the rental platform,
  separated from storage and transport. Everything here is a pure function over
  immutable inputs: callers supply leases and payments, the rules answer.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: decimal amount (never float)
  - Lease: the agreement between one landlord and one tenant
  - Payment: a single due amount on a lease, PENDING or PAID
  - Enums: lease status, payment type/status, timing status, behavior

RULES (other files):
  - timing.go:   Timing Classifier (ON_TIME / LATE / ADVANCE)
  - gate.go:     Lease Action Gate (which actions a lease status permits)
  - behavior.go: Behavior Aggregator (GOOD / HAS_1_LATE / HAS_MULTIPLE_LATE)
  - progress.go: Lease progress and payment summary for dashboards

INVARIANTS:
  1. Payment.TimingStatus is non-nil iff Payment.Status == PAID
  2. Lease status moves only forward; terminal statuses have no exits
  3. Payments of a closed lease are immutable

SEE ALSO:
  - store.go: Persistence interfaces
  - errors.go: Error taxonomy
*/
package lease

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY
// =============================================================================

type Money = decimal.Decimal

func NewMoney(value float64) Money { return decimal.NewFromFloat(value) }

// ParseMoney parses a decimal string such as "12500.00".
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: amount %q", ErrInvalidInput, s)
	}
	return d, nil
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type LeaseID string
type PaymentID string

// =============================================================================
// LEASE STATUS
// =============================================================================

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusActive     Status = "ACTIVE"
	StatusCompleted  Status = "COMPLETED"
	StatusTerminated Status = "TERMINATED"
	StatusCancelled  Status = "CANCELLED"
)

// IsTerminal reports whether the status has no outgoing transitions.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusTerminated || s == StatusCancelled
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusCompleted, StatusTerminated, StatusCancelled:
		return true
	}
	return false
}

func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("%w: lease status %q", ErrInvalidInput, s)
	}
	return st, nil
}

// =============================================================================
// LEASE TYPE / INTERVAL
// =============================================================================

type Type string

const (
	TypeStandard  Type = "STANDARD"
	TypeShortTerm Type = "SHORT_TERM"
	TypeLongTerm  Type = "LONG_TERM"
	TypeFixedTerm Type = "FIXED_TERM"
)

func (t Type) Valid() bool {
	switch t {
	case TypeStandard, TypeShortTerm, TypeLongTerm, TypeFixedTerm:
		return true
	}
	return false
}

type Interval string

// Rent is always billed monthly.
const IntervalMonthly Interval = "MONTHLY"

// =============================================================================
// PAYMENT ENUMS
// =============================================================================

type PaymentType string

const (
	PaymentRent           PaymentType = "RENT"
	PaymentPrepayment     PaymentType = "PREPAYMENT"
	PaymentAdvancePayment PaymentType = "ADVANCE_PAYMENT"
	PaymentPenalty        PaymentType = "PENALTY"
	PaymentAdjustment     PaymentType = "ADJUSTMENT"
)

func (t PaymentType) Valid() bool {
	switch t {
	case PaymentRent, PaymentPrepayment, PaymentAdvancePayment, PaymentPenalty, PaymentAdjustment:
		return true
	}
	return false
}

// IsAdvanceByDefinition reports whether the type is pre-due by construction.
func (t PaymentType) IsAdvanceByDefinition() bool {
	return t == PaymentPrepayment || t == PaymentAdvancePayment
}

func ParsePaymentType(s string) (PaymentType, error) {
	t := PaymentType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: payment type %q", ErrInvalidInput, s)
	}
	return t, nil
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
)

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch st := PaymentStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case PaymentPending, PaymentPaid:
		return st, nil
	}
	return "", fmt.Errorf("%w: payment status %q", ErrInvalidInput, s)
}

type TimingStatus string

const (
	TimingOnTime  TimingStatus = "ON_TIME"
	TimingLate    TimingStatus = "LATE"
	TimingAdvance TimingStatus = "ADVANCE"
)

// ParseTimingStatus also accepts "ONTIME", the spelling older records use.
func ParseTimingStatus(s string) (TimingStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ON_TIME", "ONTIME":
		return TimingOnTime, nil
	case "LATE":
		return TimingLate, nil
	case "ADVANCE":
		return TimingAdvance, nil
	}
	return "", fmt.Errorf("%w: timing status %q", ErrInvalidInput, s)
}

// =============================================================================
// PAYMENT
// =============================================================================

type Payment struct {
	ID            PaymentID
	LeaseID       LeaseID
	Amount        Money
	DueDate       Date
	PaidAt        *Date
	Method        string
	Type          PaymentType
	Status        PaymentStatus
	TimingStatus  *TimingStatus
	ReminderStage int
	Note          string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (p Payment) IsPaid() bool { return p.Status == PaymentPaid }

// Validate checks the record-level invariants of a payment.
func (p Payment) Validate() error {
	if p.DueDate.IsZero() {
		return &ValidationError{Field: "due_date", Message: "is required"}
	}
	if !p.Type.Valid() {
		return &ValidationError{Field: "type", Message: fmt.Sprintf("unknown payment type %q", p.Type)}
	}
	if p.Amount.IsNegative() {
		return &ValidationError{Field: "amount", Message: "must not be negative"}
	}
	switch p.Status {
	case PaymentPaid:
		if p.TimingStatus == nil {
			return &ValidationError{Field: "timing_status", Message: "is required for a paid payment"}
		}
		if p.PaidAt == nil {
			return &ValidationError{Field: "paid_at", Message: "is required for a paid payment"}
		}
	case PaymentPending:
		if p.TimingStatus != nil {
			return &ValidationError{Field: "timing_status", Message: "must be empty for a pending payment"}
		}
	default:
		return &ValidationError{Field: "status", Message: fmt.Sprintf("unknown payment status %q", p.Status)}
	}
	return nil
}

// =============================================================================
// LEASE
// =============================================================================

type Lease struct {
	ID              LeaseID
	LandlordID      string
	TenantID        string
	PropertyID      string
	UnitID          string
	Nickname        string
	Type            Type
	Status          Status
	StartDate       Date
	EndDate         *Date
	RentAmount      Money
	DueDay          int
	Interval        Interval
	SecurityDeposit *Money
	DocumentURL     string
	Payments        []Payment
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Permissions returns what the lease currently allows as of today.
func (l Lease) Permissions(today Date) ActionSet {
	return Permissions(l.Status, l.EndDate, today)
}

// IsClosed reports whether the lease and its payments are frozen.
func (l Lease) IsClosed() bool { return l.Status.IsTerminal() }

// EffectiveDueDay falls back to the start day when no due day was set.
func (l Lease) EffectiveDueDay() int {
	if l.DueDay >= 1 && l.DueDay <= 31 {
		return l.DueDay
	}
	return l.StartDate.Day()
}
