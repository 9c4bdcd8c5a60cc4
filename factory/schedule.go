package factory

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/teambition/rrule-go"
	"github.com/warp/lease-engine/lease"
)

// =============================================================================
// PAYMENT SCHEDULE
// =============================================================================

// ScheduleFactory builds the PENDING rent payments created when a tenant
// accepts a lease.
//
// A lease with an end date gets one payment per calendar month from the start
// month through the end month inclusive. An open-ended lease gets only the
// first month; later months are recorded by the landlord as they come due.
// Months shorter than the due day fall due on their last day.
type ScheduleFactory struct {
	newID func() string
}

func NewScheduleFactory() *ScheduleFactory {
	return &ScheduleFactory{newID: uuid.NewString}
}

// WithIDs replaces the id generator.
func (f *ScheduleFactory) WithIDs(newID func() string) *ScheduleFactory {
	f.newID = newID
	return f
}

// Build returns the schedule for l, stamped with now.
func (f *ScheduleFactory) Build(l lease.Lease, now time.Time) ([]lease.Payment, error) {
	if l.StartDate.IsZero() {
		return nil, &lease.ValidationError{Field: "start_date", Message: "is required to build a schedule"}
	}
	months := 1
	if l.EndDate != nil && !l.EndDate.IsZero() {
		months = lease.MonthsSpanned(l.StartDate, *l.EndDate)
	}

	rule, err := MonthlyRule(l.StartDate, l.EffectiveDueDay(), months)
	if err != nil {
		return nil, err
	}

	occurrences := rule.All()
	payments := make([]lease.Payment, 0, len(occurrences))
	for _, at := range occurrences {
		payments = append(payments, lease.Payment{
			ID:        lease.PaymentID(f.newID()),
			LeaseID:   l.ID,
			Amount:    l.RentAmount,
			DueDate:   lease.DateOf(at, time.UTC),
			Type:      lease.PaymentRent,
			Status:    lease.PaymentPending,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return payments, nil
}

// MonthlyRule is the recurrence of due dates: dueDay of every month starting
// in start's month, count occurrences. Days past 28 use
// BYMONTHDAY=28..dueDay;BYSETPOS=-1 so short months clamp to their last day.
func MonthlyRule(start lease.Date, dueDay, count int) (*rrule.RRule, error) {
	if dueDay < 1 || dueDay > 31 {
		return nil, &lease.ValidationError{Field: "due_day", Message: fmt.Sprintf("must be 1..31, got %d", dueDay)}
	}
	if count < 1 {
		return nil, &lease.ValidationError{Field: "end_date", Message: "must not be before start_date"}
	}

	opt := rrule.ROption{
		Freq:       rrule.MONTHLY,
		Dtstart:    time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC),
		Count:      count,
		Bymonthday: []int{dueDay},
	}
	if dueDay > 28 {
		opt.Bymonthday = nil
		for d := 28; d <= dueDay; d++ {
			opt.Bymonthday = append(opt.Bymonthday, d)
		}
		opt.Bysetpos = []int{-1}
	}

	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, fmt.Errorf("%w: schedule rule: %v", lease.ErrInvalidInput, err)
	}
	return rule, nil
}

// NextDueDate returns the first due date of l strictly after the given day,
// following the lease's monthly rule. ok is false past the end date.
func NextDueDate(l lease.Lease, after lease.Date) (next lease.Date, ok bool) {
	months := lease.MonthsSpanned(l.StartDate, after) + 1
	if l.EndDate != nil && !l.EndDate.IsZero() {
		months = lease.MonthsSpanned(l.StartDate, *l.EndDate)
	}
	if months < 1 {
		months = 1
	}
	rule, err := MonthlyRule(l.StartDate, l.EffectiveDueDay(), months)
	if err != nil {
		return lease.Date{}, false
	}
	at := rule.After(after.Time(), false)
	if at.IsZero() {
		return lease.Date{}, false
	}
	return lease.DateOf(at, time.UTC), true
}
