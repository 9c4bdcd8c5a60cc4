/*
handlers.go - HTTP API handlers for the lease engine

PURPOSE:
  Exposes the lease service via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the leasing service.

ENDPOINTS:
  Landlord:
    POST   /api/landlord/leases                  Create lease (PENDING)
    GET    /api/landlord/leases                  List own leases
    PUT    /api/landlord/leases/{id}             Edit terms (PENDING only)
    POST   /api/landlord/leases/{id}/cancel      PENDING -> CANCELLED
    POST   /api/landlord/leases/{id}/terminate   ACTIVE -> TERMINATED (before end)
    POST   /api/landlord/leases/{id}/complete    ACTIVE -> COMPLETED (end reached)
    POST   /api/landlord/leases/{id}/payments    Record payment
    PATCH  /api/landlord/payments/{id}/mark-paid Mark payment paid
    GET    /api/landlord/payments/{id}/timing    Default timing if paid on ?paid_at
    GET    /api/landlord/payments                List payments (?scope=month|year|all)

  Tenant:
    GET    /api/tenant/leases                    List leases offered to the tenant
    PATCH  /api/tenant/leases/{id}/action        {"action": "accept"|"reject"}

  Either party:
    GET    /api/leases/{id}                      Lease details with derived view

CALLER IDENTITY:
  Every lease and payment route reads the caller from the X-Actor header.
  Authentication happens upstream; the service only checks that the actor
  is the lease's landlord or tenant.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 401: Missing X-Actor header
  - 403: Actor is not a party to the lease
  - 404: Lease or payment not found
  - 409: Action not permitted in the lease's status, lease closed, already paid
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - rules.go: Stateless rule endpoints
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/warp/lease-engine/factory"
	"github.com/warp/lease-engine/lease"
	"github.com/warp/lease-engine/leasing"
)

// ActorHeader carries the caller's user id.
const ActorHeader = "X-Actor"

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service   *leasing.Service
	Reminders *ReminderScheduler

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler around the lease service.
func NewHandler(svc *leasing.Service) *Handler {
	return &Handler{
		Service:   svc,
		Reminders: NewReminderScheduler(svc, leasing.LogNotifier{}),
	}
}

// =============================================================================
// LANDLORD: LEASES
// =============================================================================

// CreateLease creates a PENDING lease from JSON terms.
func (h *Handler) CreateLease(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var terms factory.TermsJSON
	if err := decodeJSON(r, &terms); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	l, err := h.Service.CreateLease(r.Context(), actor, terms)
	if err != nil {
		handleServiceError(w, "Failed to create lease", err)
		return
	}
	writeJSON(w, http.StatusCreated, toLeaseDTO(*l))
}

// ListLandlordLeases returns the caller's leases, newest first.
func (h *Handler) ListLandlordLeases(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	leases, err := h.Service.ListLeases(r.Context(), actor)
	if err != nil {
		handleServiceError(w, "Failed to list leases", err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaseDTOs(leases))
}

// EditLease replaces the terms of a PENDING lease.
func (h *Handler) EditLease(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var terms factory.TermsJSON
	if err := decodeJSON(r, &terms); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	l, err := h.Service.EditTerms(r.Context(), actor, leaseID(r), terms)
	if err != nil {
		handleServiceError(w, "Failed to edit lease", err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaseDTO(*l))
}

// LeaseAction returns a handler applying a status-changing action.
func (h *Handler) LeaseAction(action lease.Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}

		l, err := h.Service.TransitionLease(r.Context(), actor, leaseID(r), action)
		if err != nil {
			handleServiceError(w, fmt.Sprintf("Failed to %s lease", action), err)
			return
		}
		writeJSON(w, http.StatusOK, toLeaseDTO(*l))
	}
}

// =============================================================================
// LANDLORD: PAYMENTS
// =============================================================================

// RecordPayment adds a payment to an ACTIVE lease.
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req RecordPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	in := leasing.PaymentInput{
		Amount:  req.Amount,
		DueDate: req.DueDate,
		PaidAt:  req.PaidAt,
		Method:  req.Method,
		Note:    req.Note,
	}
	var err error
	if req.Type != "" {
		if in.Type, err = lease.ParsePaymentType(req.Type); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid payment_type", err)
			return
		}
	}
	if req.Status != "" {
		if in.Status, err = lease.ParsePaymentStatus(req.Status); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid payment_status", err)
			return
		}
	}
	if in.TimingStatus, err = parseTimingOverride(req.TimingStatus); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid timing_status", err)
		return
	}

	p, err := h.Service.RecordPayment(r.Context(), actor, leaseID(r), in)
	if err != nil {
		handleServiceError(w, "Failed to record payment", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPaymentDTO(*p))
}

// MarkPaid settles a PENDING payment.
func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req MarkPaidRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	in := leasing.MarkPaidInput{
		PaidAt: req.PaidAt,
		Method: req.Method,
		Amount: req.Amount,
	}
	var err error
	if req.Type != "" {
		if in.Type, err = lease.ParsePaymentType(req.Type); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid payment_type", err)
			return
		}
	}
	if in.TimingStatus, err = parseTimingOverride(req.TimingStatus); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid timing_status", err)
		return
	}

	id := lease.PaymentID(chi.URLParam(r, "id"))
	p, err := h.Service.MarkPaid(r.Context(), actor, id, in)
	if err != nil {
		handleServiceError(w, "Failed to mark payment paid", err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentDTO(*p))
}

// PreviewTiming returns the timing status a PENDING payment would get if it
// were paid on ?paid_at=YYYY-MM-DD, before any override.
func (h *Handler) PreviewTiming(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	paidAt, err := lease.ParseDate(r.URL.Query().Get("paid_at"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid paid_at", err)
		return
	}

	id := lease.PaymentID(chi.URLParam(r, "id"))
	ts, err := h.Service.PreviewTiming(r.Context(), actor, id, paidAt)
	if err != nil {
		handleServiceError(w, "Failed to preview timing", err)
		return
	}
	writeJSON(w, http.StatusOK, TimingPreviewDTO{PaymentID: string(id), PaidAt: paidAt, TimingStatus: string(ts)})
}

// ListPayments returns the caller's payments across leases.
// Query: scope=month|year|all (default month), month=1..12, year=YYYY.
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	q := leasing.PaymentQuery{Scope: leasing.Scope(r.URL.Query().Get("scope"))}
	if v := r.URL.Query().Get("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid month", err)
			return
		}
		q.Month = time.Month(m)
	}
	if v := r.URL.Query().Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid year", err)
			return
		}
		q.Year = y
	}

	payments, err := h.Service.ListPayments(r.Context(), actor, q)
	if err != nil {
		handleServiceError(w, "Failed to list payments", err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentDTOs(payments))
}

// =============================================================================
// TENANT
// =============================================================================

// ListTenantLeases returns leases offered to the caller.
func (h *Handler) ListTenantLeases(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	leases, err := h.Service.ListTenantLeases(r.Context(), actor)
	if err != nil {
		handleServiceError(w, "Failed to list leases", err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaseDTOs(leases))
}

// TenantAction accepts or rejects a PENDING lease.
func (h *Handler) TenantAction(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req TenantActionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	switch strings.ToLower(strings.TrimSpace(req.Action)) {
	case "accept":
		res, err := h.Service.AcceptLease(r.Context(), actor, leaseID(r))
		if err != nil {
			handleServiceError(w, "Failed to accept lease", err)
			return
		}
		writeJSON(w, http.StatusOK, AcceptResponse{
			Lease:           toLeaseDTO(*res.Lease),
			PaymentsCreated: res.PaymentsCreated,
		})
	case "reject":
		l, err := h.Service.RejectLease(r.Context(), actor, leaseID(r))
		if err != nil {
			handleServiceError(w, "Failed to reject lease", err)
			return
		}
		writeJSON(w, http.StatusOK, toLeaseDTO(*l))
	default:
		writeError(w, http.StatusBadRequest, `action must be "accept" or "reject"`, nil)
	}
}

// =============================================================================
// EITHER PARTY
// =============================================================================

// GetLease returns the lease details as seen by the caller.
func (h *Handler) GetLease(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	d, err := h.Service.Details(r.Context(), actor, leaseID(r))
	if err != nil {
		handleServiceError(w, "Failed to get lease", err)
		return
	}
	writeJSON(w, http.StatusOK, toDetailsDTO(d))
}

// =============================================================================
// ADMIN
// =============================================================================

// RunReminders triggers a reminder pass immediately.
func (h *Handler) RunReminders(w http.ResponseWriter, r *http.Request) {
	run, err := h.Reminders.RunNow(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to send reminders", err)
		return
	}
	writeJSON(w, http.StatusOK, toReminderRunDTO(run))
}

// ReminderStatus reports the scheduler state and its last completed pass.
func (h *Handler) ReminderStatus(w http.ResponseWriter, r *http.Request) {
	resp := ReminderStatusDTO{
		Enabled:       h.Reminders.Enabled,
		Running:       h.Reminders.Running(),
		CheckInterval: h.Reminders.CheckInterval.String(),
	}
	if last := h.Reminders.LastRun(); !last.Today.IsZero() {
		dto := toReminderRunDTO(last)
		resp.LastRun = &dto
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// handleServiceError maps lease errors to status codes.
func handleServiceError(w http.ResponseWriter, message string, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		log.Printf("[API] %s: %v", message, err)
	}
	resp := ErrorResponse{Error: message, Code: errorCode(err), Details: err.Error()}
	writeJSON(w, status, resp)
}

func errorStatus(err error) int {
	switch {
	case lease.IsClientError(err):
		return http.StatusBadRequest
	case lease.IsForbidden(err):
		return http.StatusForbidden
	case lease.IsNotFound(err):
		return http.StatusNotFound
	case lease.IsConflict(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, lease.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, lease.ErrForbidden):
		return "forbidden"
	case errors.Is(err, lease.ErrLeaseNotFound):
		return "lease_not_found"
	case errors.Is(err, lease.ErrPaymentNotFound):
		return "payment_not_found"
	case errors.Is(err, lease.ErrAlreadyPaid):
		return "already_paid"
	case errors.Is(err, lease.ErrLeaseClosed):
		return "lease_closed"
	case errors.Is(err, lease.ErrActionNotPermitted):
		return "action_not_permitted"
	}
	return ""
}

// requireActor reads X-Actor, writing 401 when it is missing.
func requireActor(w http.ResponseWriter, r *http.Request) (string, bool) {
	actor := strings.TrimSpace(r.Header.Get(ActorHeader))
	if actor == "" {
		writeError(w, http.StatusUnauthorized, "Missing "+ActorHeader+" header", nil)
		return "", false
	}
	return actor, true
}

func leaseID(r *http.Request) lease.LeaseID {
	return lease.LeaseID(chi.URLParam(r, "id"))
}

// decodeJSON rejects unknown fields and trailing data.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

func parseTimingOverride(s string) (*lease.TimingStatus, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	ts, err := lease.ParseTimingStatus(s)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}
