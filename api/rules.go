package api

import (
	"net/http"

	"github.com/warp/lease-engine/lease"
)

// =============================================================================
// RULE ENDPOINTS - stateless, no X-Actor required
// =============================================================================

// Classify returns the timing status for a due date, paid date and type.
//
//	POST /api/rules/classify
//	{"due_date": "2024-01-15", "paid_date": "2024-01-17", "payment_type": "RENT"}
func (h *Handler) Classify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.DueDate.IsZero() || req.PaidDate.IsZero() {
		writeError(w, http.StatusBadRequest, "due_date and paid_date are required", nil)
		return
	}

	typ := lease.PaymentRent
	if req.Type != "" {
		t, err := lease.ParsePaymentType(req.Type)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid payment_type", err)
			return
		}
		typ = t
	}
	override, err := parseTimingOverride(req.TimingOverride)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid timing_override", err)
		return
	}

	sel := lease.SelectTiming(req.DueDate, req.PaidDate, typ, override)
	writeJSON(w, http.StatusOK, ClassifyResponse{
		TimingStatus: string(sel.Effective()),
		Default:      string(sel.Default),
		Overridden:   sel.IsOverridden(),
	})
}

// Behavior aggregates a tenant's payment behavior from a list of payments.
//
//	POST /api/rules/behavior
//	{"payments": [{"payment_status": "PAID", "timing_status": "LATE"}, ...]}
func (h *Handler) Behavior(w http.ResponseWriter, r *http.Request) {
	var req BehaviorRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	payments := make([]lease.Payment, 0, len(req.Payments))
	for _, in := range req.Payments {
		status, err := lease.ParsePaymentStatus(in.Status)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid payment_status", err)
			return
		}
		p := lease.Payment{Status: status}
		if status == lease.PaymentPaid {
			ts, err := lease.ParseTimingStatus(in.TimingStatus)
			if err != nil {
				writeError(w, http.StatusBadRequest, "Paid payments need a timing_status", err)
				return
			}
			p.TimingStatus = &ts
		}
		payments = append(payments, p)
	}

	writeJSON(w, http.StatusOK, lease.Aggregate(lease.PaidPayments(payments)))
}
