package leasing

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/warp/lease-engine/lease"
)

// =============================================================================
// RECORD PAYMENT
// =============================================================================

// PaymentInput is a landlord-entered payment on an ACTIVE lease.
// TimingStatus, when set, overrides the classifier for a PAID payment.
type PaymentInput struct {
	Amount       lease.Money
	DueDate      lease.Date
	PaidAt       *lease.Date
	Method       string
	Type         lease.PaymentType
	Status       lease.PaymentStatus
	TimingStatus *lease.TimingStatus
	Note         string
}

// RecordPayment adds a payment to an ACTIVE lease.
func (s *Service) RecordPayment(ctx context.Context, landlordID string, id lease.LeaseID, in PaymentInput) (*lease.Payment, error) {
	if in.Type == "" {
		in.Type = lease.PaymentRent
	}
	if in.Status == "" {
		in.Status = lease.PaymentPending
	}
	if !in.Amount.IsPositive() {
		return nil, &lease.ValidationError{Field: "amount", Message: "must be positive"}
	}

	var (
		p   lease.Payment
		sel lease.TimingSelection
	)
	err := s.Store.WithTx(ctx, func(tx lease.Store) error {
		l, err := s.landlordLease(ctx, tx, landlordID, id)
		if err != nil {
			return err
		}
		if err := lease.Require(*l, lease.ActionRecordPayment, s.Today()); err != nil {
			return err
		}

		now := s.Now()
		p = lease.Payment{
			ID:        lease.PaymentID(s.NewID()),
			LeaseID:   l.ID,
			Amount:    in.Amount,
			DueDate:   in.DueDate,
			PaidAt:    in.PaidAt,
			Method:    strings.TrimSpace(in.Method),
			Type:      in.Type,
			Status:    in.Status,
			Note:      in.Note,
			CreatedAt: now,
			UpdatedAt: now,
		}

		switch in.Status {
		case lease.PaymentPaid:
			sel, err = lease.SelectPaymentTiming(p, in.TimingStatus)
			if err != nil {
				return err
			}
			effective := sel.Effective()
			paidAt := *in.PaidAt
			p.PaidAt = &paidAt
			p.TimingStatus = &effective
		case lease.PaymentPending:
			if in.TimingStatus != nil || in.PaidAt != nil {
				return &lease.ValidationError{Field: "status", Message: "pending payments take no paid_at or timing_status"}
			}
		}

		if err := p.Validate(); err != nil {
			return err
		}
		if err := tx.SavePayments(ctx, []lease.Payment{p}); err != nil {
			return fmt.Errorf("save payment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logOverride(p, sel)
	return &p, nil
}

// =============================================================================
// MARK PAID
// =============================================================================

// MarkPaidInput settles a PENDING payment. Type and Amount keep the stored
// values when empty.
type MarkPaidInput struct {
	PaidAt       lease.Date
	Method       string
	Type         lease.PaymentType
	TimingStatus *lease.TimingStatus
	Amount       *lease.Money
}

// MarkPaid moves a PENDING payment on an ACTIVE lease to PAID.
func (s *Service) MarkPaid(ctx context.Context, landlordID string, id lease.PaymentID, in MarkPaidInput) (*lease.Payment, error) {
	var (
		p   *lease.Payment
		sel lease.TimingSelection
	)
	err := s.Store.WithTx(ctx, func(tx lease.Store) error {
		var err error
		p, err = s.landlordPayment(ctx, tx, landlordID, id, lease.ActionMarkPaid)
		if err != nil {
			return err
		}
		if strings.TrimSpace(in.Method) == "" {
			return &lease.ValidationError{Field: "method", Message: "is required"}
		}

		if in.Type != "" {
			p.Type = in.Type
		}
		if in.Amount != nil {
			if !in.Amount.IsPositive() {
				return &lease.ValidationError{Field: "amount", Message: "must be positive"}
			}
			p.Amount = *in.Amount
		}

		paidAt := in.PaidAt
		p.PaidAt = &paidAt
		sel, err = lease.SelectPaymentTiming(*p, in.TimingStatus)
		if err != nil {
			return err
		}
		effective := sel.Effective()
		p.Method = strings.TrimSpace(in.Method)
		p.Status = lease.PaymentPaid
		p.TimingStatus = &effective
		p.UpdatedAt = s.Now()

		if err := p.Validate(); err != nil {
			return err
		}
		if err := tx.SavePayments(ctx, []lease.Payment{*p}); err != nil {
			return fmt.Errorf("save payment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logOverride(*p, sel)
	return p, nil
}

// PreviewTiming is the default a mark-paid form starts from: what the
// classifier says about paying the PENDING payment id on paidAt.
func (s *Service) PreviewTiming(ctx context.Context, landlordID string, id lease.PaymentID, paidAt lease.Date) (lease.TimingStatus, error) {
	p, err := s.landlordPayment(ctx, s.Store, landlordID, id, lease.ActionMarkPaid)
	if err != nil {
		return "", err
	}
	p.PaidAt = &paidAt
	sel, err := lease.SelectPaymentTiming(*p, nil)
	if err != nil {
		return "", err
	}
	return sel.Default, nil
}

// landlordPayment loads a PENDING payment of one of landlordID's leases and
// checks the lease allows action on it.
func (s *Service) landlordPayment(ctx context.Context, st lease.Store, landlordID string, id lease.PaymentID, action lease.Action) (*lease.Payment, error) {
	p, err := st.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	l, err := s.landlordLease(ctx, st, landlordID, p.LeaseID)
	if err != nil {
		return nil, err
	}
	if err := lease.Require(*l, action, s.Today()); err != nil {
		return nil, err
	}
	if p.IsPaid() {
		return nil, fmt.Errorf("%w: %s", lease.ErrAlreadyPaid, p.ID)
	}
	return p, nil
}

func logOverride(p lease.Payment, sel lease.TimingSelection) {
	if sel.IsOverridden() {
		log.Printf("[Leasing] payment %s timing overridden: %s -> %s", p.ID, sel.Default, sel.Effective())
	}
}

// =============================================================================
// LIST PAYMENTS
// =============================================================================

type Scope string

const (
	ScopeMonth Scope = "month"
	ScopeYear  Scope = "year"
	ScopeAll   Scope = "all"
)

// PaymentQuery selects the landlord's payments by due date. Month and Year
// default to today's when zero.
type PaymentQuery struct {
	Scope Scope
	Month time.Month
	Year  int
}

// ListPayments returns the landlord's payments across all leases.
func (s *Service) ListPayments(ctx context.Context, landlordID string, q PaymentQuery) ([]lease.Payment, error) {
	f, err := s.paymentFilter(landlordID, q)
	if err != nil {
		return nil, err
	}
	return s.Store.ListPayments(ctx, f)
}

func (s *Service) paymentFilter(landlordID string, q PaymentQuery) (lease.PaymentFilter, error) {
	today := s.Today()
	if q.Year == 0 {
		q.Year = today.Year()
	}
	if q.Month == 0 {
		q.Month = today.Month()
	}
	if q.Month < time.January || q.Month > time.December {
		return lease.PaymentFilter{}, &lease.ValidationError{Field: "month", Message: "must be 1..12"}
	}

	f := lease.PaymentFilter{LandlordID: landlordID}
	switch q.Scope {
	case ScopeMonth, "":
		f.DueFrom = lease.NewDate(q.Year, q.Month, 1)
		f.DueTo = lease.EndOfMonth(q.Year, q.Month)
	case ScopeYear:
		f.DueFrom = lease.NewDate(q.Year, time.January, 1)
		f.DueTo = lease.NewDate(q.Year, time.December, 31)
	case ScopeAll:
	default:
		return lease.PaymentFilter{}, &lease.ValidationError{Field: "scope", Message: "must be month, year or all"}
	}
	return f, nil
}
