/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario creates leases through the
	lease service, so every record passes the same rules as real traffic.

AVAILABLE SCENARIOS:

	new-lease:      A PENDING lease waiting for the tenant to accept
	good-tenant:    ACTIVE lease, every past payment on time or early
	late-payer:     ACTIVE lease with several late payments
	ending-lease:   ACTIVE lease whose end date is today (complete allowed)
	closed-leases:  One COMPLETED, one TERMINATED, one CANCELLED lease
	portfolio:      All of the above for one landlord

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Landlord creates leases via the service
 3. Tenants accept (payment schedules are generated)
 4. Past-due payments are marked paid on chosen days

DATES:

	Dates are relative to the service's "today" so a scenario looks the
	same whenever it is loaded.

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "late-payer"}

	Then browse as the landlord:
	curl -H 'X-Actor: landlord-demo' localhost:8080/api/landlord/leases

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Lease endpoints
  - leasing/service.go: Operations the loaders call
*/
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/warp/lease-engine/factory"
	"github.com/warp/lease-engine/lease"
	"github.com/warp/lease-engine/leasing"
)

// Demo actors
const (
	DemoLandlord = "landlord-demo"
	DemoAlice    = "tenant-alice"
	DemoBob      = "tenant-bob"
	DemoCarol    = "tenant-carol"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "new-lease",
		Name:        "New Lease",
		Description: "A pending one-year lease waiting for the tenant to accept or reject",
	},
	{
		ID:          "good-tenant",
		Name:        "Good Tenant",
		Description: "Active lease where every past payment was on time or early",
	},
	{
		ID:          "late-payer",
		Name:        "Late Payer",
		Description: "Active lease with several late payments and one pending",
	},
	{
		ID:          "ending-lease",
		Name:        "Ending Lease",
		Description: "Active lease whose end date is today; it can be completed, not terminated",
	},
	{
		ID:          "closed-leases",
		Name:        "Closed Leases",
		Description: "Completed, terminated and cancelled leases; no actions are allowed",
	},
	{
		ID:          "portfolio",
		Name:        "Portfolio",
		Description: "Every scenario above under one landlord",
	},
}

type scenarioLoader func(h *Handler, ctx context.Context) error

var scenarioLoaders = map[string]scenarioLoader{
	"new-lease":     (*Handler).loadNewLeaseScenario,
	"good-tenant":   (*Handler).loadGoodTenantScenario,
	"late-payer":    (*Handler).loadLatePayerScenario,
	"ending-lease":  (*Handler).loadEndingLeaseScenario,
	"closed-leases": (*Handler).loadClosedLeasesScenario,
	"portfolio":     (*Handler).loadPortfolioScenario,
}

// resetter is implemented by stores that can be wiped for demos.
type resetter interface {
	Reset(ctx context.Context) error
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current})
}

// LoadScenario resets the database and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	load, ok := scenarioLoaders[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ctx := r.Context()
	store, ok := h.Service.Store.(resetter)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Store does not support reset", nil)
		return
	}
	if err := store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	if err := load(h, ctx); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}
	h.currentScenario = req.ScenarioID

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadNewLeaseScenario(ctx context.Context) error {
	today := h.Service.Today()
	start := firstOfMonth(today).AddMonths(1)
	end := start.AddMonths(12).AddDays(-1)

	_, err := h.Service.CreateLease(ctx, DemoLandlord, demoTerms(DemoAlice, "Unit 1A", start, &end, 5, 12000))
	return err
}

func (h *Handler) loadGoodTenantScenario(ctx context.Context) error {
	today := h.Service.Today()
	start := firstOfMonth(today).AddMonths(-5)
	end := start.AddMonths(12).AddDays(-1)

	l, err := h.createAndAccept(ctx, DemoAlice, "Unit 2A", start, &end, 5, 15000)
	if err != nil {
		return err
	}

	// Alternate paying on the day and three days early.
	return h.payPastDue(ctx, l, func(i int, due lease.Date) lease.Date {
		if i%2 == 0 {
			return due
		}
		return due.AddDays(-3)
	})
}

func (h *Handler) loadLatePayerScenario(ctx context.Context) error {
	today := h.Service.Today()
	start := firstOfMonth(today).AddMonths(-4)
	end := start.AddMonths(12).AddDays(-1)

	l, err := h.createAndAccept(ctx, DemoBob, "Unit 3B", start, &end, 1, 9500)
	if err != nil {
		return err
	}

	// First month on time, every later month a week late.
	if err := h.payPastDue(ctx, l, func(i int, due lease.Date) lease.Date {
		if i == 0 {
			return due
		}
		return due.AddDays(7)
	}); err != nil {
		return err
	}

	// A late fee still outstanding.
	_, err = h.Service.RecordPayment(ctx, DemoLandlord, l.ID, leasing.PaymentInput{
		Amount:  decimal.NewFromInt(500),
		DueDate: today.AddDays(2),
		Type:    lease.PaymentPenalty,
		Note:    "Late fee",
	})
	return err
}

func (h *Handler) loadEndingLeaseScenario(ctx context.Context) error {
	today := h.Service.Today()
	start := today.AddMonths(-6)

	l, err := h.createAndAccept(ctx, DemoCarol, "Unit 4C", start, &today, start.Day(), 11000)
	if err != nil {
		return err
	}
	return h.payPastDue(ctx, l, func(_ int, due lease.Date) lease.Date { return due })
}

func (h *Handler) loadClosedLeasesScenario(ctx context.Context) error {
	today := h.Service.Today()

	// Completed: a one-year lease that ended yesterday.
	end := today.AddDays(-1)
	start := end.AddMonths(-12).AddDays(1)
	completed, err := h.createAndAccept(ctx, DemoAlice, "Unit 5A", start, &end, start.Day(), 10000)
	if err != nil {
		return err
	}
	if err := h.payPastDue(ctx, completed, func(_ int, due lease.Date) lease.Date { return due }); err != nil {
		return err
	}
	if _, err := h.Service.CompleteLease(ctx, DemoLandlord, completed.ID); err != nil {
		return err
	}

	// Terminated: ended early, three months in.
	start = firstOfMonth(today).AddMonths(-3)
	end = start.AddMonths(12).AddDays(-1)
	terminated, err := h.createAndAccept(ctx, DemoBob, "Unit 5B", start, &end, 10, 10500)
	if err != nil {
		return err
	}
	if err := h.payPastDue(ctx, terminated, func(_ int, due lease.Date) lease.Date { return due.AddDays(2) }); err != nil {
		return err
	}
	if _, err := h.Service.TerminateLease(ctx, DemoLandlord, terminated.ID); err != nil {
		return err
	}

	// Cancelled: offered and rejected by the tenant.
	start = firstOfMonth(today).AddMonths(1)
	end = start.AddMonths(6).AddDays(-1)
	offered, err := h.Service.CreateLease(ctx, DemoLandlord, demoTerms(DemoCarol, "Unit 5C", start, &end, 1, 8000))
	if err != nil {
		return err
	}
	_, err = h.Service.RejectLease(ctx, DemoCarol, offered.ID)
	return err
}

func (h *Handler) loadPortfolioScenario(ctx context.Context) error {
	for _, load := range []scenarioLoader{
		(*Handler).loadNewLeaseScenario,
		(*Handler).loadGoodTenantScenario,
		(*Handler).loadLatePayerScenario,
		(*Handler).loadEndingLeaseScenario,
		(*Handler).loadClosedLeasesScenario,
	} {
		if err := load(h, ctx); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func demoTerms(tenantID, unit string, start lease.Date, end *lease.Date, dueDay int, rent int64) factory.TermsJSON {
	terms := factory.TermsJSON{
		PropertyID: "prop-sunrise",
		UnitID:     unit,
		TenantID:   tenantID,
		Nickname:   unit + " " + start.String()[:4],
		StartDate:  start.String(),
		RentAmount: decimal.NewFromInt(rent),
		DueDay:     dueDay,
	}
	if end != nil {
		terms.EndDate = end.String()
	}
	return terms
}

func (h *Handler) createAndAccept(ctx context.Context, tenantID, unit string, start lease.Date, end *lease.Date, dueDay int, rent int64) (*lease.Lease, error) {
	l, err := h.Service.CreateLease(ctx, DemoLandlord, demoTerms(tenantID, unit, start, end, dueDay, rent))
	if err != nil {
		return nil, err
	}
	res, err := h.Service.AcceptLease(ctx, tenantID, l.ID)
	if err != nil {
		return nil, err
	}
	return res.Lease, nil
}

// payPastDue marks every payment due before today paid on the day paidOn picks.
func (h *Handler) payPastDue(ctx context.Context, l *lease.Lease, paidOn func(i int, due lease.Date) lease.Date) error {
	today := h.Service.Today()
	for i, p := range l.Payments {
		if !p.DueDate.Before(today) {
			continue
		}
		paid := paidOn(i, p.DueDate)
		if paid.After(today) {
			paid = today
		}
		if _, err := h.Service.MarkPaid(ctx, DemoLandlord, p.ID, leasing.MarkPaidInput{
			PaidAt: paid,
			Method: "bank transfer",
		}); err != nil {
			return fmt.Errorf("pay %s: %w", p.ID, err)
		}
	}
	return nil
}

func firstOfMonth(d lease.Date) lease.Date {
	return lease.NewDate(d.Year(), d.Month(), 1)
}
