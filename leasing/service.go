/*
Package leasing implements the lease service: the operations landlords and
tenants perform on leases and payments, each one gated by the lease rules.

PURPOSE:
  The lease package answers "is this allowed?" and "how was this paid?".
  This package does the asking, then persists the outcome:

    handler ──▶ Service ──▶ lease.Permissions / lease.Classify ──▶ Store

OPERATIONS:
  Landlord:  CreateLease, EditTerms, CancelLease, TerminateLease,
             CompleteLease, RecordPayment, MarkPaid, ListLeases, ListPayments
  Tenant:    AcceptLease, RejectLease, ListTenantLeases
  Either:    Details

OWNERSHIP:
  Landlord operations require the actor to be the lease's landlord, tenant
  operations its tenant. Anyone else gets lease.ErrForbidden.

TODAY:
  The service never reads the wall clock directly. Now and Location are
  injected so "today" is explicit and tests can pin it.

ATOMICITY:
  Every mutation reads the lease (or payment), checks it against the gate and
  writes the result inside one WithTx call, so the check always sees the row
  it overwrites. AcceptLease also writes the whole payment schedule there.

SEE ALSO:
  - payments.go: RecordPayment, MarkPaid, ListPayments
  - reminders.go: Payment reminder stages
  - lease/gate.go: The permission table every mutation checks
*/
package leasing

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/warp/lease-engine/factory"
	"github.com/warp/lease-engine/lease"
)

// =============================================================================
// SERVICE
// =============================================================================

type Service struct {
	Store     lease.TxStore
	Leases    *factory.LeaseFactory
	Schedules *factory.ScheduleFactory

	// Location decides which calendar day "today" is.
	Location *time.Location
	Now      func() time.Time
	NewID    func() string
}

// NewService wires a service with UUID ids and the wall clock.
func NewService(store lease.TxStore, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	leases := factory.NewLeaseFactory()
	schedules := factory.NewScheduleFactory()
	return &Service{
		Store:     store,
		Leases:    leases,
		Schedules: schedules,
		Location:  loc,
		Now:       time.Now,
		NewID:     uuid.NewString,
	}
}

// Today is the current calendar day in the service's location.
func (s *Service) Today() lease.Date {
	return lease.DateOf(s.Now(), s.Location)
}

// =============================================================================
// LANDLORD: CREATE / EDIT
// =============================================================================

// CreateLease stores a new PENDING lease owned by landlordID.
func (s *Service) CreateLease(ctx context.Context, landlordID string, terms factory.TermsJSON) (*lease.Lease, error) {
	l, err := s.Leases.NewLease(landlordID, terms, s.Now())
	if err != nil {
		return nil, err
	}
	if err := s.Store.SaveLease(ctx, l); err != nil {
		return nil, fmt.Errorf("save lease: %w", err)
	}
	log.Printf("[Leasing] lease %s created by %s for tenant %s", l.ID, landlordID, l.TenantID)
	return &l, nil
}

// EditTerms replaces the terms of a PENDING lease.
func (s *Service) EditTerms(ctx context.Context, landlordID string, id lease.LeaseID, terms factory.TermsJSON) (*lease.Lease, error) {
	var updated lease.Lease
	err := s.Store.WithTx(ctx, func(tx lease.Store) error {
		l, err := s.landlordLease(ctx, tx, landlordID, id)
		if err != nil {
			return err
		}
		if err := lease.Require(*l, lease.ActionEdit, s.Today()); err != nil {
			return err
		}

		updated, err = s.Leases.ApplyTerms(*l, terms, s.Now())
		if err != nil {
			return err
		}
		if err := tx.SaveLease(ctx, updated); err != nil {
			return fmt.Errorf("save lease: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// =============================================================================
// LANDLORD: STATUS ACTIONS
// =============================================================================

func (s *Service) CancelLease(ctx context.Context, landlordID string, id lease.LeaseID) (*lease.Lease, error) {
	return s.transition(ctx, landlordID, id, lease.ActionCancel)
}

func (s *Service) TerminateLease(ctx context.Context, landlordID string, id lease.LeaseID) (*lease.Lease, error) {
	return s.transition(ctx, landlordID, id, lease.ActionTerminate)
}

func (s *Service) CompleteLease(ctx context.Context, landlordID string, id lease.LeaseID) (*lease.Lease, error) {
	return s.transition(ctx, landlordID, id, lease.ActionComplete)
}

// TransitionLease applies a named status action. Used by the HTTP layer.
func (s *Service) TransitionLease(ctx context.Context, landlordID string, id lease.LeaseID, action lease.Action) (*lease.Lease, error) {
	return s.transition(ctx, landlordID, id, action)
}

func (s *Service) transition(ctx context.Context, landlordID string, id lease.LeaseID, action lease.Action) (*lease.Lease, error) {
	var (
		l    *lease.Lease
		from lease.Status
	)
	err := s.Store.WithTx(ctx, func(tx lease.Store) error {
		var err error
		l, err = s.landlordLease(ctx, tx, landlordID, id)
		if err != nil {
			return err
		}
		// Checked against the row as it is inside the transaction, so a
		// status change committed after the caller looked cannot be undone.
		target, err := lease.Transition(*l, action, s.Today())
		if err != nil {
			return err
		}

		from = l.Status
		l.Status = target
		l.UpdatedAt = s.Now()
		if err := tx.SaveLease(ctx, *l); err != nil {
			return fmt.Errorf("save lease: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[Leasing] lease %s %s -> %s (%s by %s)", l.ID, from, l.Status, action, landlordID)
	return l, nil
}

// =============================================================================
// TENANT: ACCEPT / REJECT
// =============================================================================

// AcceptResult reports what acceptance created.
type AcceptResult struct {
	Lease           *lease.Lease
	PaymentsCreated int
}

// AcceptLease activates a PENDING lease and creates its payment schedule.
func (s *Service) AcceptLease(ctx context.Context, tenantID string, id lease.LeaseID) (*AcceptResult, error) {
	var result AcceptResult
	err := s.Store.WithTx(ctx, func(tx lease.Store) error {
		l, err := s.tenantLease(ctx, tx, tenantID, id)
		if err != nil {
			return err
		}
		if l.Status != lease.StatusPending {
			return &lease.ActionError{LeaseID: l.ID, Action: "accept", Status: l.Status, Reason: "lease is not pending"}
		}

		now := s.Now()
		payments, err := s.Schedules.Build(*l, now)
		if err != nil {
			return err
		}
		l.Status = lease.StatusActive
		l.UpdatedAt = now
		if err := tx.SaveLease(ctx, *l); err != nil {
			return fmt.Errorf("save lease: %w", err)
		}
		if err := tx.SavePayments(ctx, payments); err != nil {
			return fmt.Errorf("save schedule: %w", err)
		}
		l.Payments = payments
		result = AcceptResult{Lease: l, PaymentsCreated: len(payments)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[Leasing] lease %s accepted by %s, %d payments scheduled", id, tenantID, result.PaymentsCreated)
	return &result, nil
}

// RejectLease cancels a PENDING lease on the tenant's behalf.
func (s *Service) RejectLease(ctx context.Context, tenantID string, id lease.LeaseID) (*lease.Lease, error) {
	var l *lease.Lease
	err := s.Store.WithTx(ctx, func(tx lease.Store) error {
		var err error
		l, err = s.tenantLease(ctx, tx, tenantID, id)
		if err != nil {
			return err
		}
		if l.Status != lease.StatusPending {
			return &lease.ActionError{LeaseID: l.ID, Action: "reject", Status: l.Status, Reason: "lease is not pending"}
		}

		l.Status = lease.StatusCancelled
		l.UpdatedAt = s.Now()
		if err := tx.SaveLease(ctx, *l); err != nil {
			return fmt.Errorf("save lease: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[Leasing] lease %s rejected by tenant %s", l.ID, tenantID)
	return l, nil
}

// =============================================================================
// READS
// =============================================================================

// Details is everything the lease page shows, derived as of today.
type Details struct {
	Lease       lease.Lease
	Role        string
	Today       lease.Date
	Permissions lease.ActionSet
	Behavior    lease.BehaviorMetrics
	Progress    lease.Progress
	Summary     lease.PaymentSummary
	NextDueDate *lease.Date
}

const (
	RoleLandlord = "landlord"
	RoleTenant   = "tenant"
)

// Details loads a lease for either party and derives its view.
func (s *Service) Details(ctx context.Context, actorID string, id lease.LeaseID) (*Details, error) {
	l, err := s.Store.GetLease(ctx, id)
	if err != nil {
		return nil, err
	}

	var role string
	switch actorID {
	case l.LandlordID:
		role = RoleLandlord
	case l.TenantID:
		role = RoleTenant
	default:
		return nil, fmt.Errorf("%w: %s is not a party to lease %s", lease.ErrForbidden, actorID, id)
	}

	today := s.Today()
	d := &Details{
		Lease:    *l,
		Role:     role,
		Today:    today,
		Behavior: lease.LeaseBehavior(*l),
		Progress: lease.LeaseProgress(*l, today),
		Summary:  lease.Summarize(l.Payments),
	}
	if role == RoleLandlord {
		d.Permissions = l.Permissions(today)
	}
	if l.Status == lease.StatusActive {
		d.NextDueDate = nextDue(*l)
	}
	return d, nil
}

// nextDue is the earliest PENDING due date, or when nothing is pending the
// first scheduled due date after the latest rent payment on record.
func nextDue(l lease.Lease) *lease.Date {
	var earliest *lease.Date
	for i := range l.Payments {
		p := l.Payments[i]
		if p.Status == lease.PaymentPending && (earliest == nil || p.DueDate.Before(*earliest)) {
			due := p.DueDate
			earliest = &due
		}
	}
	if earliest != nil {
		return earliest
	}

	after := l.StartDate.AddDays(-1)
	for _, p := range l.Payments {
		if p.Type == lease.PaymentRent && p.DueDate.After(after) {
			after = p.DueDate
		}
	}
	next, ok := factory.NextDueDate(l, after)
	if !ok {
		return nil
	}
	return &next
}

func (s *Service) ListLeases(ctx context.Context, landlordID string) ([]lease.Lease, error) {
	return s.Store.ListLeases(ctx, landlordID, "")
}

func (s *Service) ListTenantLeases(ctx context.Context, tenantID string) ([]lease.Lease, error) {
	return s.Store.ListLeases(ctx, "", tenantID)
}

// =============================================================================
// OWNERSHIP
// =============================================================================

func (s *Service) landlordLease(ctx context.Context, st lease.Store, landlordID string, id lease.LeaseID) (*lease.Lease, error) {
	l, err := st.GetLease(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.LandlordID != landlordID {
		return nil, fmt.Errorf("%w: lease %s belongs to another landlord", lease.ErrForbidden, id)
	}
	return l, nil
}

func (s *Service) tenantLease(ctx context.Context, st lease.Store, tenantID string, id lease.LeaseID) (*lease.Lease, error) {
	l, err := st.GetLease(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.TenantID != tenantID {
		return nil, fmt.Errorf("%w: lease %s is offered to another tenant", lease.ErrForbidden, id)
	}
	return l, nil
}
