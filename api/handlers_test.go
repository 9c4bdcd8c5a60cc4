/*
handlers_test.go - Unit tests for API handlers

Tests for:
- Caller identity (X-Actor) and ownership
- Lease lifecycle: create, accept/reject, cancel, terminate, complete
- Payments: record, mark paid, list
- Status code mapping for refused actions
- Stateless rule endpoints
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testLandlord = "landlord-1"
	testTenant   = "tenant-1"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func setupRouter(t *testing.T) (*Handler, *chi.Mux) {
	t.Helper()
	h := setupTestHandler(t)
	return h, NewRouter(h, nil)
}

func do(t *testing.T, router http.Handler, method, path, actor, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if actor != "" {
		req.Header.Set(ActorHeader, actor)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// leaseBody is a six month lease running 2025-03-01..2025-08-31, rent due on the 5th.
const leaseBody = `{
	"property_id": "prop-1",
	"unit_id": "unit-1",
	"tenant_id": "tenant-1",
	"start_date": "2025-03-01",
	"end_date": "2025-08-31",
	"rent_amount": "1000",
	"due_day": 5
}`

func createLease(t *testing.T, router http.Handler) LeaseDTO {
	t.Helper()
	rec := do(t, router, http.MethodPost, "/api/landlord/leases", testLandlord, leaseBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[LeaseDTO](t, rec)
}

func acceptLease(t *testing.T, router http.Handler, id string) AcceptResponse {
	t.Helper()
	rec := do(t, router, http.MethodPatch, "/api/tenant/leases/"+id+"/action", testTenant, `{"action":"accept"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[AcceptResponse](t, rec)
}

// =============================================================================
// IDENTITY
// =============================================================================

func TestHandlers_MissingActorIsUnauthorized(t *testing.T) {
	// GIVEN: A router
	_, router := setupRouter(t)

	// WHEN: Calling a lease route without X-Actor
	rec := do(t, router, http.MethodGet, "/api/landlord/leases", "", "")

	// THEN: 401
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Error, ActorHeader)
}

func TestHandlers_StrangerIsForbidden(t *testing.T) {
	// GIVEN: A lease between landlord-1 and tenant-1
	_, router := setupRouter(t)
	l := createLease(t, router)

	// WHEN: Someone else reads it
	rec := do(t, router, http.MethodGet, "/api/leases/"+l.ID, "someone-else", "")

	// THEN: 403 with the forbidden code
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", decode[ErrorResponse](t, rec).Code)
}

func TestHandlers_UnknownLeaseIsNotFound(t *testing.T) {
	_, router := setupRouter(t)

	rec := do(t, router, http.MethodGet, "/api/leases/missing", testLandlord, "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "lease_not_found", decode[ErrorResponse](t, rec).Code)
}

// =============================================================================
// LEASE LIFECYCLE
// =============================================================================

func TestHandlers_CreateLease(t *testing.T) {
	// GIVEN: A router
	_, router := setupRouter(t)

	// WHEN: The landlord creates a lease
	l := createLease(t, router)

	// THEN: It is PENDING and visible to both parties
	assert.Equal(t, "PENDING", l.Status)
	assert.Equal(t, testLandlord, l.LandlordID)
	assert.Equal(t, 5, l.DueDay)
	assert.Equal(t, "MONTHLY", l.Interval)

	mine := decode[[]LeaseDTO](t, do(t, router, http.MethodGet, "/api/landlord/leases", testLandlord, ""))
	assert.Len(t, mine, 1)
	offered := decode[[]LeaseDTO](t, do(t, router, http.MethodGet, "/api/tenant/leases", testTenant, ""))
	assert.Len(t, offered, 1)
}

func TestHandlers_CreateLeaseRejectsBadInput(t *testing.T) {
	_, router := setupRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"unknown field", `{"property_id":"p","unit_id":"u","tenant_id":"t","start_date":"2025-03-01","rent_amount":"1","colour":"red"}`},
		{"missing tenant", `{"property_id":"p","unit_id":"u","start_date":"2025-03-01","rent_amount":"1"}`},
		{"zero rent", `{"property_id":"p","unit_id":"u","tenant_id":"t","start_date":"2025-03-01","rent_amount":"0"}`},
		{"end before start", `{"property_id":"p","unit_id":"u","tenant_id":"t","start_date":"2025-03-01","end_date":"2025-02-01","rent_amount":"1"}`},
		{"two objects", `{} {}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/api/landlord/leases", testLandlord, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestHandlers_EditLeaseOnlyWhilePending(t *testing.T) {
	// GIVEN: A pending lease
	_, router := setupRouter(t)
	l := createLease(t, router)

	// WHEN: Editing it
	edited := `{"property_id":"prop-1","unit_id":"unit-2","tenant_id":"tenant-1","start_date":"2025-03-01","end_date":"2025-08-31","rent_amount":"1200","due_day":5}`
	rec := do(t, router, http.MethodPut, "/api/landlord/leases/"+l.ID, testLandlord, edited)

	// THEN: The new terms are saved
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "unit-2", decode[LeaseDTO](t, rec).UnitID)

	// WHEN: Editing after acceptance
	acceptLease(t, router, l.ID)
	rec = do(t, router, http.MethodPut, "/api/landlord/leases/"+l.ID, testLandlord, edited)

	// THEN: 409
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "action_not_permitted", decode[ErrorResponse](t, rec).Code)
}

func TestHandlers_AcceptCreatesSchedule(t *testing.T) {
	// GIVEN: A pending lease
	_, router := setupRouter(t)
	l := createLease(t, router)

	// WHEN: The tenant accepts
	res := acceptLease(t, router, l.ID)

	// THEN: The lease is ACTIVE with one payment per month
	assert.Equal(t, "ACTIVE", res.Lease.Status)
	assert.Equal(t, 6, res.PaymentsCreated)
	require.Len(t, res.Lease.Payments, 6)
	assert.Equal(t, "2025-03-05", res.Lease.Payments[0].DueDate.String())
	assert.Equal(t, "PENDING", res.Lease.Payments[0].Status)
	assert.Nil(t, res.Lease.Payments[0].TimingStatus)

	// AND: Accepting again is refused
	rec := do(t, router, http.MethodPatch, "/api/tenant/leases/"+l.ID+"/action", testTenant, `{"action":"accept"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandlers_TenantActionChecks(t *testing.T) {
	_, router := setupRouter(t)
	l := createLease(t, router)

	// Only the tenant named on the lease may answer it
	rec := do(t, router, http.MethodPatch, "/api/tenant/leases/"+l.ID+"/action", "tenant-2", `{"action":"accept"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, router, http.MethodPatch, "/api/tenant/leases/"+l.ID+"/action", testTenant, `{"action":"maybe"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPatch, "/api/tenant/leases/"+l.ID+"/action", testTenant, `{"action":"reject"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "CANCELLED", decode[LeaseDTO](t, rec).Status)
}

func TestHandlers_StatusActions(t *testing.T) {
	// Today is 2025-06-15: the 2025-08-31 lease has not ended.
	tests := []struct {
		name       string
		accept     bool
		action     string
		wantStatus int
		wantLease  string
		wantCode   string
	}{
		{"cancel pending", false, "cancel", http.StatusOK, "CANCELLED", ""},
		{"terminate pending", false, "terminate", http.StatusConflict, "", "action_not_permitted"},
		{"terminate active before end", true, "terminate", http.StatusOK, "TERMINATED", ""},
		{"complete active before end", true, "complete", http.StatusConflict, "", "action_not_permitted"},
		{"cancel active", true, "cancel", http.StatusConflict, "", "action_not_permitted"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, router := setupRouter(t)
			l := createLease(t, router)
			if tt.accept {
				acceptLease(t, router, l.ID)
			}

			rec := do(t, router, http.MethodPost, "/api/landlord/leases/"+l.ID+"/"+tt.action, testLandlord, "")

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantLease != "" {
				assert.Equal(t, tt.wantLease, decode[LeaseDTO](t, rec).Status)
			} else {
				assert.Equal(t, tt.wantCode, decode[ErrorResponse](t, rec).Code)
			}
		})
	}
}

func TestHandlers_ClosedLeaseRefusesEverything(t *testing.T) {
	// GIVEN: A terminated lease
	_, router := setupRouter(t)
	l := createLease(t, router)
	res := acceptLease(t, router, l.ID)
	rec := do(t, router, http.MethodPost, "/api/landlord/leases/"+l.ID+"/terminate", testLandlord, "")
	require.Equal(t, http.StatusOK, rec.Code)

	// WHEN/THEN: Every mutation answers 409 lease_closed
	requests := []struct{ method, path, body string }{
		{http.MethodPost, "/api/landlord/leases/" + l.ID + "/cancel", ""},
		{http.MethodPost, "/api/landlord/leases/" + l.ID + "/terminate", ""},
		{http.MethodPost, "/api/landlord/leases/" + l.ID + "/complete", ""},
		{http.MethodPost, "/api/landlord/leases/" + l.ID + "/payments", `{"amount":"100","due_date":"2025-07-01"}`},
		{http.MethodPatch, "/api/landlord/payments/" + res.Lease.Payments[0].ID + "/mark-paid", `{"paid_at":"2025-03-05","method":"cash"}`},
	}
	for _, r := range requests {
		rec := do(t, router, r.method, r.path, testLandlord, r.body)
		assert.Equal(t, http.StatusConflict, rec.Code, r.path)
		assert.Equal(t, "lease_closed", decode[ErrorResponse](t, rec).Code, r.path)
	}

	// AND: Details still work and offer no actions
	d := decode[DetailsDTO](t, do(t, router, http.MethodGet, "/api/leases/"+l.ID, testLandlord, ""))
	assert.Empty(t, d.AllowedActions)
	assert.Nil(t, d.NextDueDate)
}

// =============================================================================
// PAYMENTS
// =============================================================================

func TestHandlers_MarkPaid(t *testing.T) {
	// GIVEN: An active lease with its first payment due 2025-03-05
	_, router := setupRouter(t)
	l := createLease(t, router)
	first := acceptLease(t, router, l.ID).Lease.Payments[0]

	// WHEN: It is marked paid two days late
	rec := do(t, router, http.MethodPatch, "/api/landlord/payments/"+first.ID+"/mark-paid", testLandlord,
		`{"paid_at":"2025-03-07","method":"bank transfer"}`)

	// THEN: It is PAID and LATE
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	p := decode[PaymentDTO](t, rec)
	assert.Equal(t, "PAID", p.Status)
	require.NotNil(t, p.TimingStatus)
	assert.Equal(t, "LATE", *p.TimingStatus)

	// AND: Marking it again is a conflict
	rec = do(t, router, http.MethodPatch, "/api/landlord/payments/"+first.ID+"/mark-paid", testLandlord,
		`{"paid_at":"2025-03-07","method":"bank transfer"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_paid", decode[ErrorResponse](t, rec).Code)
}

func TestHandlers_PreviewTiming(t *testing.T) {
	// GIVEN: An active lease with its first payment due 2025-03-05
	_, router := setupRouter(t)
	l := createLease(t, router)
	first := acceptLease(t, router, l.ID).Lease.Payments[0]
	path := "/api/landlord/payments/" + first.ID + "/timing"

	tests := []struct {
		paidAt string
		want   string
	}{
		{"2025-03-02", "ADVANCE"},
		{"2025-03-05", "ON_TIME"},
		{"2025-03-10", "LATE"},
	}
	for _, tt := range tests {
		t.Run(tt.paidAt, func(t *testing.T) {
			// WHEN: Previewing a payment on that day
			rec := do(t, router, http.MethodGet, path+"?paid_at="+tt.paidAt, testLandlord, "")

			// THEN: The classifier's default comes back
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			preview := decode[TimingPreviewDTO](t, rec)
			assert.Equal(t, first.ID, preview.PaymentID)
			assert.Equal(t, tt.paidAt, preview.PaidAt.String())
			assert.Equal(t, tt.want, preview.TimingStatus)
		})
	}

	// AND: The payment is still pending, and bad requests are refused
	rec := do(t, router, http.MethodGet, "/api/leases/"+l.ID, testLandlord, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, countPaid(decode[DetailsDTO](t, rec).Lease.Payments))

	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, path, testLandlord, "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, path+"?paid_at=soon", testLandlord, "").Code)
	assert.Equal(t, http.StatusForbidden, do(t, router, http.MethodGet, path+"?paid_at=2025-03-05", "landlord-2", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/api/landlord/payments/missing/timing?paid_at=2025-03-05", testLandlord, "").Code)
}

func countPaid(payments []PaymentDTO) int {
	n := 0
	for _, p := range payments {
		if p.Status == "PAID" {
			n++
		}
	}
	return n
}

func TestHandlers_MarkPaidOverride(t *testing.T) {
	// GIVEN: An active lease
	_, router := setupRouter(t)
	l := createLease(t, router)
	second := acceptLease(t, router, l.ID).Lease.Payments[1]

	// WHEN: A late payment is marked with the legacy ONTIME override
	rec := do(t, router, http.MethodPatch, "/api/landlord/payments/"+second.ID+"/mark-paid", testLandlord,
		`{"paid_at":"2025-04-09","method":"cash","timing_status":"ONTIME"}`)

	// THEN: The override wins and is written in canonical form
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	p := decode[PaymentDTO](t, rec)
	require.NotNil(t, p.TimingStatus)
	assert.Equal(t, "ON_TIME", *p.TimingStatus)
}

func TestHandlers_MarkPaidValidation(t *testing.T) {
	_, router := setupRouter(t)
	l := createLease(t, router)
	first := acceptLease(t, router, l.ID).Lease.Payments[0]
	path := "/api/landlord/payments/" + first.ID + "/mark-paid"

	tests := []struct {
		name  string
		actor string
		body  string
		want  int
	}{
		{"missing method", testLandlord, `{"paid_at":"2025-03-05"}`, http.StatusBadRequest},
		{"missing paid_at", testLandlord, `{"method":"cash"}`, http.StatusBadRequest},
		{"bad timing", testLandlord, `{"paid_at":"2025-03-05","method":"cash","timing_status":"SOON"}`, http.StatusBadRequest},
		{"other landlord", "landlord-2", `{"paid_at":"2025-03-05","method":"cash"}`, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPatch, path, tt.actor, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}

	rec := do(t, router, http.MethodPatch, "/api/landlord/payments/missing/mark-paid", testLandlord, `{"paid_at":"2025-03-05","method":"cash"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "payment_not_found", decode[ErrorResponse](t, rec).Code)
}

func TestHandlers_RecordPayment(t *testing.T) {
	// GIVEN: An active lease
	_, router := setupRouter(t)
	l := createLease(t, router)
	acceptLease(t, router, l.ID)
	path := "/api/landlord/leases/" + l.ID + "/payments"

	// WHEN: Recording a paid prepayment
	rec := do(t, router, http.MethodPost, path, testLandlord,
		`{"amount":"2000","due_date":"2025-07-05","paid_at":"2025-07-10","method":"cash","payment_type":"PREPAYMENT","payment_status":"PAID"}`)

	// THEN: Prepayments are ADVANCE whatever the dates say
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	p := decode[PaymentDTO](t, rec)
	require.NotNil(t, p.TimingStatus)
	assert.Equal(t, "ADVANCE", *p.TimingStatus)

	// WHEN: Recording a pending payment with defaults
	rec = do(t, router, http.MethodPost, path, testLandlord, `{"amount":"50","due_date":"2025-07-20","note":"Water"}`)

	// THEN: It is a pending RENT payment without timing
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	p = decode[PaymentDTO](t, rec)
	assert.Equal(t, "RENT", p.Type)
	assert.Equal(t, "PENDING", p.Status)
	assert.Nil(t, p.TimingStatus)

	// AND: A pending payment cannot carry a timing status
	rec = do(t, router, http.MethodPost, path, testLandlord, `{"amount":"50","due_date":"2025-07-20","timing_status":"LATE"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlers_ListPayments(t *testing.T) {
	// GIVEN: An active lease with payments March through August 2025
	_, router := setupRouter(t)
	l := createLease(t, router)
	acceptLease(t, router, l.ID)

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"default is this month", "", 1},
		{"explicit month", "?scope=month&month=3&year=2025", 1},
		{"year", "?scope=year&year=2025", 6},
		{"all", "?scope=all", 6},
		{"other year", "?scope=year&year=2024", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodGet, "/api/landlord/payments"+tt.query, testLandlord, "")
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Len(t, decode[[]PaymentDTO](t, rec), tt.want)
		})
	}

	rec := do(t, router, http.MethodGet, "/api/landlord/payments?scope=week", testLandlord, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, router, http.MethodGet, "/api/landlord/payments?month=13", testLandlord, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Another landlord sees nothing
	rec = do(t, router, http.MethodGet, "/api/landlord/payments?scope=all", "landlord-2", "")
	assert.Empty(t, decode[[]PaymentDTO](t, rec))
}

// =============================================================================
// DETAILS
// =============================================================================

func TestHandlers_DetailsPerRole(t *testing.T) {
	// GIVEN: An active lease with one on-time and one late payment
	_, router := setupRouter(t)
	l := createLease(t, router)
	payments := acceptLease(t, router, l.ID).Lease.Payments
	do(t, router, http.MethodPatch, "/api/landlord/payments/"+payments[0].ID+"/mark-paid", testLandlord, `{"paid_at":"2025-03-05","method":"cash"}`)
	do(t, router, http.MethodPatch, "/api/landlord/payments/"+payments[1].ID+"/mark-paid", testLandlord, `{"paid_at":"2025-04-08","method":"cash"}`)

	// WHEN: The landlord reads it
	landlordView := decode[DetailsDTO](t, do(t, router, http.MethodGet, "/api/leases/"+l.ID, testLandlord, ""))

	// THEN: Permissions and behavior are included
	assert.Equal(t, "landlord", landlordView.Role)
	require.NotNil(t, landlordView.Permissions)
	assert.True(t, landlordView.Permissions.CanTerminate)
	assert.Equal(t, []string{"terminate", "record-payment", "mark-paid"}, landlordView.AllowedActions)
	require.NotNil(t, landlordView.Behavior.PaymentBehavior)
	assert.Equal(t, "HAS_1_LATE", string(*landlordView.Behavior.PaymentBehavior))
	assert.InDelta(t, 0.5, *landlordView.Behavior.PaymentReliability, 1e-9)
	require.NotNil(t, landlordView.NextDueDate)
	assert.Equal(t, "2025-05-05", landlordView.NextDueDate.String())

	// WHEN: The tenant reads it
	tenantView := decode[DetailsDTO](t, do(t, router, http.MethodGet, "/api/leases/"+l.ID, testTenant, ""))

	// THEN: Same behavior, no permissions
	assert.Equal(t, "tenant", tenantView.Role)
	assert.Nil(t, tenantView.Permissions)
	assert.Empty(t, tenantView.AllowedActions)
	assert.Equal(t, landlordView.Behavior, tenantView.Behavior)
}

// =============================================================================
// RULES
// =============================================================================

func TestHandlers_Classify(t *testing.T) {
	_, router := setupRouter(t)

	tests := []struct {
		name       string
		body       string
		want       string
		overridden bool
	}{
		{"late", `{"due_date":"2024-01-15","paid_date":"2024-01-17"}`, "LATE", false},
		{"on time", `{"due_date":"2024-01-15","paid_date":"2024-01-15"}`, "ON_TIME", false},
		{"advance", `{"due_date":"2024-01-15","paid_date":"2024-01-10"}`, "ADVANCE", false},
		{"prepayment paid late", `{"due_date":"2024-01-15","paid_date":"2024-01-20","payment_type":"PREPAYMENT"}`, "ADVANCE", false},
		{"override", `{"due_date":"2024-01-15","paid_date":"2024-01-20","timing_override":"ON_TIME"}`, "ON_TIME", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/api/rules/classify", "", tt.body)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			resp := decode[ClassifyResponse](t, rec)
			assert.Equal(t, tt.want, resp.TimingStatus)
			assert.Equal(t, tt.overridden, resp.Overridden)
		})
	}

	rec := do(t, router, http.MethodPost, "/api/rules/classify", "", `{"due_date":"2024-01-15"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlers_Behavior(t *testing.T) {
	_, router := setupRouter(t)

	tests := []struct {
		name     string
		body     string
		behavior any
	}{
		{"no paid payments", `{"payments":[{"payment_status":"PENDING"}]}`, nil},
		{"all good", `{"payments":[{"payment_status":"PAID","timing_status":"ON_TIME"},{"payment_status":"PAID","timing_status":"ADVANCE"}]}`, "GOOD"},
		{"one late", `{"payments":[{"payment_status":"PAID","timing_status":"LATE"},{"payment_status":"PAID","timing_status":"ONTIME"}]}`, "HAS_1_LATE"},
		{"two late", `{"payments":[{"payment_status":"PAID","timing_status":"LATE"},{"payment_status":"PAID","timing_status":"LATE"},{"payment_status":"PENDING"}]}`, "HAS_MULTIPLE_LATE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/api/rules/behavior", "", tt.body)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			resp := decode[map[string]any](t, rec)
			assert.Equal(t, tt.behavior, resp["payment_behavior"])
		})
	}

	rec := do(t, router, http.MethodPost, "/api/rules/behavior", "", `{"payments":[{"payment_status":"PAID"}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// ADMIN
// =============================================================================

func TestHandlers_RunReminders(t *testing.T) {
	// GIVEN: The late payer scenario, whose late fee is due in two days
	h, router := setupRouter(t)
	require.NoError(t, h.loadLatePayerScenario(context.Background()))
	notifier := &recordingNotifier{}
	h.Reminders.Notifier = notifier

	// WHEN: Running reminders twice
	first := decode[ReminderRunDTO](t, do(t, router, http.MethodPost, "/api/admin/reminders", "", ""))
	second := decode[ReminderRunDTO](t, do(t, router, http.MethodPost, "/api/admin/reminders", "", ""))

	// THEN: The fee is reminded once
	assert.Equal(t, scenarioToday, first.Today.String())
	assert.Equal(t, 1, first.Sent)
	assert.Zero(t, second.Sent)
	assert.Equal(t, 1, notifier.count())
}

func TestHandlers_ReminderStatus(t *testing.T) {
	// GIVEN: A handler whose scheduler has never run
	h, router := setupRouter(t)
	require.NoError(t, h.loadLatePayerScenario(context.Background()))
	h.Reminders.Notifier = &recordingNotifier{}

	rec := do(t, router, http.MethodGet, "/api/admin/reminders", "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	status := decode[ReminderStatusDTO](t, rec)
	assert.True(t, status.Enabled)
	assert.False(t, status.Running)
	assert.Equal(t, "1h0m0s", status.CheckInterval)
	assert.Nil(t, status.LastRun)

	// WHEN: A manual pass runs
	rec = do(t, router, http.MethodPost, "/api/admin/reminders", "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// THEN: The status reports it as the last run
	status = decode[ReminderStatusDTO](t, do(t, router, http.MethodGet, "/api/admin/reminders", "", ""))
	require.NotNil(t, status.LastRun)
	assert.Equal(t, scenarioToday, status.LastRun.Today.String())
	assert.Equal(t, 1, status.LastRun.Sent)
	assert.Zero(t, status.LastRun.Failed)
}
