/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Leases:
    LeaseDTO, DetailsDTO, AcceptResponse, TenantActionRequest
    (lease terms requests use factory.TermsJSON directly)

  Payments:
    PaymentDTO, RecordPaymentRequest, MarkPaidRequest

  Rules:
    ClassifyRequest, ClassifyResponse, BehaviorRequest

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

WIRE FORMATS:
  - Money is a decimal string ("12500.00")
  - Dates are YYYY-MM-DD, null when absent
  - timing_status is ON_TIME | LATE | ADVANCE; "ONTIME" is accepted on input

SEE ALSO:
  - handlers.go: Uses these types
  - factory/lease.go: TermsJSON type
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/lease-engine/lease"
	"github.com/warp/lease-engine/leasing"
)

// =============================================================================
// LEASES
// =============================================================================

// LeaseDTO represents a lease in API responses.
type LeaseDTO struct {
	ID              string           `json:"id"`
	LandlordID      string           `json:"landlord_id"`
	TenantID        string           `json:"tenant_id"`
	PropertyID      string           `json:"property_id"`
	UnitID          string           `json:"unit_id"`
	Nickname        string           `json:"lease_nickname,omitempty"`
	LeaseType       string           `json:"lease_type"`
	Status          string           `json:"lease_status"`
	StartDate       lease.Date       `json:"start_date"`
	EndDate         *lease.Date      `json:"end_date"`
	RentAmount      decimal.Decimal  `json:"rent_amount"`
	DueDay          int              `json:"due_day"`
	Interval        string           `json:"interval"`
	SecurityDeposit *decimal.Decimal `json:"security_deposit,omitempty"`
	DocumentURL     string           `json:"lease_document_url,omitempty"`
	Payments        []PaymentDTO     `json:"payments,omitempty"`
	CreatedAt       string           `json:"created_at,omitempty"`
	UpdatedAt       string           `json:"updated_at,omitempty"`
}

// DetailsDTO is the lease page: the lease, its payments and everything
// derived from them as of today. Permissions are only sent to the landlord.
type DetailsDTO struct {
	Lease          LeaseDTO              `json:"lease"`
	Role           string                `json:"role"`
	Today          lease.Date            `json:"today"`
	Permissions    *lease.ActionSet      `json:"permissions,omitempty"`
	AllowedActions []string              `json:"allowed_actions,omitempty"`
	Behavior       lease.BehaviorMetrics `json:"behavior"`
	Progress       lease.Progress        `json:"progress"`
	Summary        lease.PaymentSummary  `json:"summary"`
	NextDueDate    *lease.Date           `json:"next_due_date"`
}

// TenantActionRequest is the tenant's answer to a pending lease.
type TenantActionRequest struct {
	Action string `json:"action"` // "accept" or "reject"
}

// AcceptResponse is returned when a tenant accepts a lease.
type AcceptResponse struct {
	Lease           LeaseDTO `json:"lease"`
	PaymentsCreated int      `json:"payments_created"`
}

// =============================================================================
// PAYMENTS
// =============================================================================

// PaymentDTO represents a payment in API responses.
type PaymentDTO struct {
	ID            string          `json:"id"`
	LeaseID       string          `json:"lease_id"`
	Amount        decimal.Decimal `json:"amount"`
	DueDate       lease.Date      `json:"due_date"`
	PaidAt        *lease.Date     `json:"paid_at"`
	Method        string          `json:"method,omitempty"`
	Type          string          `json:"payment_type"`
	Status        string          `json:"payment_status"`
	TimingStatus  *string         `json:"timing_status"`
	ReminderStage int             `json:"reminder_stage"`
	Note          string          `json:"note,omitempty"`
	CreatedAt     string          `json:"created_at,omitempty"`
	UpdatedAt     string          `json:"updated_at,omitempty"`
}

// RecordPaymentRequest is the request to add a payment to an active lease.
type RecordPaymentRequest struct {
	Amount       decimal.Decimal `json:"amount"`
	DueDate      lease.Date      `json:"due_date"`
	PaidAt       *lease.Date     `json:"paid_at,omitempty"`
	Method       string          `json:"method,omitempty"`
	Type         string          `json:"payment_type,omitempty"`   // default RENT
	Status       string          `json:"payment_status,omitempty"` // default PENDING
	TimingStatus string          `json:"timing_status,omitempty"`  // override, PAID only
	Note         string          `json:"note,omitempty"`
}

// MarkPaidRequest is the request to settle a pending payment.
type MarkPaidRequest struct {
	PaidAt       lease.Date       `json:"paid_at"`
	Method       string           `json:"method"`
	Type         string           `json:"payment_type,omitempty"`
	TimingStatus string           `json:"timing_status,omitempty"`
	Amount       *decimal.Decimal `json:"amount,omitempty"`
}

// =============================================================================
// RULES
// =============================================================================

// ClassifyRequest asks for the timing status of a payment.
type ClassifyRequest struct {
	DueDate        lease.Date `json:"due_date"`
	PaidDate       lease.Date `json:"paid_date"`
	Type           string     `json:"payment_type,omitempty"`
	TimingOverride string     `json:"timing_override,omitempty"`
}

// TimingPreviewDTO is the classifier's default for paying a stored payment
// on PaidAt.
type TimingPreviewDTO struct {
	PaymentID    string     `json:"payment_id"`
	PaidAt       lease.Date `json:"paid_at"`
	TimingStatus string     `json:"timing_status"`
}

// ClassifyResponse carries the default and the effective timing status.
type ClassifyResponse struct {
	TimingStatus string `json:"timing_status"`
	Default      string `json:"default"`
	Overridden   bool   `json:"overridden"`
}

// BehaviorRequest is a set of payments to aggregate. Only PAID ones count.
type BehaviorRequest struct {
	Payments []BehaviorPaymentDTO `json:"payments"`
}

type BehaviorPaymentDTO struct {
	Status       string `json:"payment_status"`
	TimingStatus string `json:"timing_status,omitempty"`
}

// =============================================================================
// SCENARIOS / ERRORS
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ReminderRunDTO reports a reminder pass.
type ReminderRunDTO struct {
	Today  lease.Date `json:"today"`
	Sent   int        `json:"sent"`
	Failed int        `json:"failed"`
}

// ReminderStatusDTO describes the reminder scheduler. LastRun is null until
// a pass has completed.
type ReminderStatusDTO struct {
	Enabled       bool            `json:"enabled"`
	Running       bool            `json:"running"`
	CheckInterval string          `json:"check_interval"`
	LastRun       *ReminderRunDTO `json:"last_run"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toLeaseDTO(l lease.Lease) LeaseDTO {
	dto := LeaseDTO{
		ID:              string(l.ID),
		LandlordID:      l.LandlordID,
		TenantID:        l.TenantID,
		PropertyID:      l.PropertyID,
		UnitID:          l.UnitID,
		Nickname:        l.Nickname,
		LeaseType:       string(l.Type),
		Status:          string(l.Status),
		StartDate:       l.StartDate,
		EndDate:         l.EndDate,
		RentAmount:      l.RentAmount,
		DueDay:          l.EffectiveDueDay(),
		Interval:        string(l.Interval),
		SecurityDeposit: l.SecurityDeposit,
		DocumentURL:     l.DocumentURL,
		CreatedAt:       formatTimestamp(l.CreatedAt),
		UpdatedAt:       formatTimestamp(l.UpdatedAt),
	}
	if len(l.Payments) > 0 {
		dto.Payments = toPaymentDTOs(l.Payments)
	}
	return dto
}

func toReminderRunDTO(run leasing.ReminderRun) ReminderRunDTO {
	return ReminderRunDTO{Today: run.Today, Sent: run.Sent, Failed: run.Failed}
}

func toLeaseDTOs(leases []lease.Lease) []LeaseDTO {
	dtos := make([]LeaseDTO, len(leases))
	for i, l := range leases {
		dtos[i] = toLeaseDTO(l)
	}
	return dtos
}

func toPaymentDTO(p lease.Payment) PaymentDTO {
	dto := PaymentDTO{
		ID:            string(p.ID),
		LeaseID:       string(p.LeaseID),
		Amount:        p.Amount,
		DueDate:       p.DueDate,
		PaidAt:        p.PaidAt,
		Method:        p.Method,
		Type:          string(p.Type),
		Status:        string(p.Status),
		ReminderStage: p.ReminderStage,
		Note:          p.Note,
		CreatedAt:     formatTimestamp(p.CreatedAt),
		UpdatedAt:     formatTimestamp(p.UpdatedAt),
	}
	if p.TimingStatus != nil {
		ts := string(*p.TimingStatus)
		dto.TimingStatus = &ts
	}
	return dto
}

func toPaymentDTOs(payments []lease.Payment) []PaymentDTO {
	dtos := make([]PaymentDTO, len(payments))
	for i, p := range payments {
		dtos[i] = toPaymentDTO(p)
	}
	return dtos
}

func toDetailsDTO(d *leasing.Details) DetailsDTO {
	dto := DetailsDTO{
		Lease:       toLeaseDTO(d.Lease),
		Role:        d.Role,
		Today:       d.Today,
		Behavior:    d.Behavior,
		Progress:    d.Progress,
		Summary:     d.Summary,
		NextDueDate: d.NextDueDate,
	}
	if d.Role == leasing.RoleLandlord {
		perms := d.Permissions
		dto.Permissions = &perms
		for _, a := range perms.Allowed() {
			dto.AllowedActions = append(dto.AllowedActions, string(a))
		}
	}
	return dto
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
