/*
Package factory converts client JSON into lease records and payment schedules.

PURPOSE:
  Lease terms arrive as JSON from the landlord portal. The factory validates
  them, applies defaults and produces lease.Lease values the service can
  store. On tenant acceptance it also builds the monthly payment schedule.

JSON SCHEMA:
  {
    "property_id": "prop-1",
    "unit_id": "unit-3",
    "tenant_id": "tenant-7",
    "lease_nickname": "Unit 3 2025",
    "lease_type": "STANDARD",
    "start_date": "2025-01-01",
    "end_date": "2025-12-31",
    "rent_amount": "12500.00",
    "due_day": 5,
    "security_deposit": "25000",
    "lease_document_url": "https://files.example.com/lease.pdf"
  }

DEFAULTS:
  - lease_type: STANDARD
  - due_day: day of month of start_date
  - end_date: none (open-ended lease)

USAGE:
  f := factory.NewLeaseFactory()
  l, err := f.ParseLease("landlord-1", body, time.Now())

SEE ALSO:
  - schedule.go: Payment schedule generation
  - leasing/service.go: Uses the factory for create and edit
*/
package factory

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/lease-engine/lease"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// TermsJSON is the JSON representation of lease terms.
type TermsJSON struct {
	PropertyID      string           `json:"property_id" validate:"required"`
	UnitID          string           `json:"unit_id" validate:"required"`
	TenantID        string           `json:"tenant_id" validate:"required"`
	Nickname        string           `json:"lease_nickname,omitempty" validate:"max=120"`
	LeaseType       string           `json:"lease_type,omitempty" validate:"omitempty,oneof=STANDARD SHORT_TERM LONG_TERM FIXED_TERM"`
	StartDate       string           `json:"start_date" validate:"required"`
	EndDate         string           `json:"end_date,omitempty"`
	RentAmount      decimal.Decimal  `json:"rent_amount"`
	DueDay          int              `json:"due_day,omitempty" validate:"omitempty,min=1,max=31"`
	SecurityDeposit *decimal.Decimal `json:"security_deposit,omitempty"`
	DocumentURL     string           `json:"lease_document_url,omitempty" validate:"omitempty,url"`
}

// =============================================================================
// LEASE FACTORY
// =============================================================================

// LeaseFactory converts JSON terms to leases.
type LeaseFactory struct {
	validate *validator.Validate
	newID    func() string
}

// NewLeaseFactory creates a factory that assigns random UUIDs.
func NewLeaseFactory() *LeaseFactory {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)
	return &LeaseFactory{validate: v, newID: uuid.NewString}
}

// WithIDs replaces the id generator. Used by tests and demo scenarios.
func (f *LeaseFactory) WithIDs(newID func() string) *LeaseFactory {
	f.newID = newID
	return f
}

// ParseLease decodes and validates terms, returning a PENDING lease.
func (f *LeaseFactory) ParseLease(landlordID string, data []byte, now time.Time) (lease.Lease, error) {
	var terms TermsJSON
	if err := json.Unmarshal(data, &terms); err != nil {
		return lease.Lease{}, fmt.Errorf("%w: invalid lease JSON: %v", lease.ErrInvalidInput, err)
	}
	return f.NewLease(landlordID, terms, now)
}

// NewLease validates terms and returns a PENDING lease owned by landlordID.
func (f *LeaseFactory) NewLease(landlordID string, terms TermsJSON, now time.Time) (lease.Lease, error) {
	if strings.TrimSpace(landlordID) == "" {
		return lease.Lease{}, &lease.ValidationError{Field: "landlord_id", Message: "is required"}
	}
	l := lease.Lease{
		ID:         lease.LeaseID(f.newID()),
		LandlordID: landlordID,
		Status:     lease.StatusPending,
		Interval:   lease.IntervalMonthly,
		CreatedAt:  now,
	}
	return f.ApplyTerms(l, terms, now)
}

// ApplyTerms overwrites the negotiable fields of l with terms. Identity,
// ownership, status and creation time are kept.
func (f *LeaseFactory) ApplyTerms(l lease.Lease, terms TermsJSON, now time.Time) (lease.Lease, error) {
	if err := f.Validate(terms); err != nil {
		return lease.Lease{}, err
	}

	start, err := lease.ParseDate(terms.StartDate)
	if err != nil {
		return lease.Lease{}, &lease.ValidationError{Field: "start_date", Message: "must be YYYY-MM-DD"}
	}
	var end *lease.Date
	if terms.EndDate != "" {
		e, err := lease.ParseDate(terms.EndDate)
		if err != nil {
			return lease.Lease{}, &lease.ValidationError{Field: "end_date", Message: "must be YYYY-MM-DD"}
		}
		if e.Before(start) {
			return lease.Lease{}, &lease.ValidationError{Field: "end_date", Message: "must not be before start_date"}
		}
		end = &e
	}

	leaseType := lease.TypeStandard
	if terms.LeaseType != "" {
		leaseType = lease.Type(terms.LeaseType)
	}
	dueDay := terms.DueDay
	if dueDay == 0 {
		dueDay = start.Day()
	}

	l.TenantID = terms.TenantID
	l.PropertyID = terms.PropertyID
	l.UnitID = terms.UnitID
	l.Nickname = terms.Nickname
	l.Type = leaseType
	l.StartDate = start
	l.EndDate = end
	l.RentAmount = terms.RentAmount
	l.DueDay = dueDay
	l.SecurityDeposit = terms.SecurityDeposit
	l.DocumentURL = terms.DocumentURL
	l.UpdatedAt = now
	return l, nil
}

// Validate checks struct tags and the numeric rules tags cannot express.
func (f *LeaseFactory) Validate(terms TermsJSON) error {
	if err := f.validate.Struct(terms); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &lease.ValidationError{Field: fe.Field(), Message: describeTag(fe)}
		}
		return fmt.Errorf("%w: %v", lease.ErrInvalidInput, err)
	}
	if !terms.RentAmount.IsPositive() {
		return &lease.ValidationError{Field: "rent_amount", Message: "must be positive"}
	}
	if terms.SecurityDeposit != nil && terms.SecurityDeposit.IsNegative() {
		return &lease.ValidationError{Field: "security_deposit", Message: "must not be negative"}
	}
	return nil
}

// TermsOf renders a lease back into its JSON terms.
func TermsOf(l lease.Lease) TermsJSON {
	t := TermsJSON{
		PropertyID:      l.PropertyID,
		UnitID:          l.UnitID,
		TenantID:        l.TenantID,
		Nickname:        l.Nickname,
		LeaseType:       string(l.Type),
		StartDate:       l.StartDate.String(),
		RentAmount:      l.RentAmount,
		DueDay:          l.DueDay,
		SecurityDeposit: l.SecurityDeposit,
		DocumentURL:     l.DocumentURL,
	}
	if l.EndDate != nil {
		t.EndDate = l.EndDate.String()
	}
	return t
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "url":
		return "must be a URL"
	}
	return "failed " + fe.Tag() + " validation"
}
