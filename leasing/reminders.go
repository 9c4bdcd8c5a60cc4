package leasing

import (
	"context"
	"fmt"
	"log"

	"github.com/warp/lease-engine/lease"
)

// =============================================================================
// REMINDER STAGES
// =============================================================================
//
//   stage 0 ──(due in 2 days)──▶ stage 1 ──(due today)──▶ stage 2
//      └────────────────(due today)───────────────────────▶ stage 2
//
// A payment that missed its two-day reminder goes straight to stage 2 so the
// tenant is only told once on the due date.

type ReminderKind string

const (
	ReminderUpcoming ReminderKind = "upcoming"
	ReminderDueToday ReminderKind = "due_today"
)

const (
	StageNone     = 0
	StageUpcoming = 1
	StageDueToday = 2

	upcomingLeadDays = 2
)

// ReminderFor decides whether p needs a reminder today and the stage it
// moves to once sent. Only PENDING payments are reminded.
func ReminderFor(p lease.Payment, today lease.Date) (kind ReminderKind, nextStage int, ok bool) {
	if p.Status != lease.PaymentPending {
		return "", p.ReminderStage, false
	}
	switch {
	case p.DueDate.Equal(today) && p.ReminderStage < StageDueToday:
		return ReminderDueToday, StageDueToday, true
	case p.DueDate.Equal(today.AddDays(upcomingLeadDays)) && p.ReminderStage == StageNone:
		return ReminderUpcoming, StageUpcoming, true
	}
	return "", p.ReminderStage, false
}

// Reminder is one notification to a tenant.
type Reminder struct {
	Kind    ReminderKind
	Payment lease.Payment
	Lease   lease.Lease
}

// Notifier delivers reminders. Delivery is outside this service.
type Notifier interface {
	Notify(ctx context.Context, r Reminder) error
}

// LogNotifier writes reminders to the process log.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, r Reminder) error {
	log.Printf("[Reminders] %s: tenant %s, lease %s, payment %s of %s due %s",
		r.Kind, r.Lease.TenantID, r.Lease.ID, r.Payment.ID, r.Payment.Amount.StringFixed(2), r.Payment.DueDate)
	return nil
}

// ReminderRun summarizes one pass.
type ReminderRun struct {
	Today  lease.Date
	Sent   int
	Failed int
}

// SendReminders notifies tenants of payments due today or in two days and
// advances their reminder stage. The stage only advances after a successful
// Notify, so failures are retried on the next pass. A payment whose lease
// cannot be loaded counts as failed and the pass moves on.
func (s *Service) SendReminders(ctx context.Context, n Notifier) (ReminderRun, error) {
	today := s.Today()
	run := ReminderRun{Today: today}

	pending, err := s.Store.ListPayments(ctx, lease.PaymentFilter{
		Status:  lease.PaymentPending,
		DueFrom: today,
		DueTo:   today.AddDays(upcomingLeadDays),
	})
	if err != nil {
		return run, fmt.Errorf("list pending payments: %w", err)
	}

	leases := make(map[lease.LeaseID]*lease.Lease)
	for _, p := range pending {
		kind, stage, ok := ReminderFor(p, today)
		if !ok {
			continue
		}

		l, cached := leases[p.LeaseID]
		if !cached {
			l, err = s.Store.GetLease(ctx, p.LeaseID)
			if err != nil {
				run.Failed++
				log.Printf("[Reminders] payment %s: load lease %s: %v", p.ID, p.LeaseID, err)
				continue
			}
			leases[p.LeaseID] = l
		}
		if l.Status != lease.StatusActive {
			continue
		}

		if err := n.Notify(ctx, Reminder{Kind: kind, Payment: p, Lease: *l}); err != nil {
			run.Failed++
			log.Printf("[Reminders] payment %s: notify failed: %v", p.ID, err)
			continue
		}
		run.Sent++

		advanced, err := s.advanceStage(ctx, p, stage)
		if err != nil {
			return run, fmt.Errorf("advance reminder stage: %w", err)
		}
		if !advanced {
			log.Printf("[Reminders] payment %s changed while its reminder was sent, stage left as is", p.ID)
		}
	}
	return run, nil
}

// advanceStage moves the payment seen by the pass to stage, unless it was
// paid or reminded by someone else after the pass listed it.
func (s *Service) advanceStage(ctx context.Context, seen lease.Payment, stage int) (bool, error) {
	advanced := false
	err := s.Store.WithTx(ctx, func(tx lease.Store) error {
		current, err := tx.GetPayment(ctx, seen.ID)
		if err != nil {
			return err
		}
		if current.Status != lease.PaymentPending || current.ReminderStage != seen.ReminderStage {
			return nil
		}
		current.ReminderStage = stage
		current.UpdatedAt = s.Now()
		if err := tx.SavePayments(ctx, []lease.Payment{*current}); err != nil {
			return err
		}
		advanced = true
		return nil
	})
	return advanced, err
}
