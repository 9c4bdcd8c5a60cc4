package lease

import (
	"math"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PROGRESS - How far through its term a lease is
// =============================================================================

type Progress struct {
	Percent       float64 `json:"percent"`
	TermDays      int     `json:"term_days"`
	DaysRemaining *int    `json:"days_remaining"`
}

// LeaseProgress measures l against today. Open-ended leases measure against
// today itself, so they read 100% once started and have no term length.
func LeaseProgress(l Lease, today Date) Progress {
	end := today
	var p Progress
	if l.EndDate != nil && !l.EndDate.IsZero() {
		end = *l.EndDate
		p.TermDays = DaysBetween(l.StartDate, end)
		remaining := DaysBetween(today, end)
		if remaining < 0 {
			remaining = 0
		}
		p.DaysRemaining = &remaining
	}

	switch {
	case today.Before(l.StartDate):
		p.Percent = 0
	case today.After(end), !end.After(l.StartDate):
		p.Percent = 100
	default:
		total := float64(DaysBetween(l.StartDate, end))
		elapsed := float64(DaysBetween(l.StartDate, today))
		p.Percent = math.Min(100, math.Max(0, elapsed/total*100))
	}
	return p
}

// =============================================================================
// PAYMENT SUMMARY - Dashboard counters
// =============================================================================

type PaymentSummary struct {
	TotalPayments int   `json:"total_payments"`
	PaidAmount    Money `json:"paid_amount"`
	PendingCount  int   `json:"pending_count"`
	OnTimeRate    int   `json:"on_time_rate"`
}

// Summarize counts payments. OnTimeRate is the rounded percentage of paid
// payments that were exactly ON_TIME, 0 when nothing is paid.
func Summarize(payments []Payment) PaymentSummary {
	s := PaymentSummary{TotalPayments: len(payments), PaidAmount: decimal.Zero}
	paid, onTime := 0, 0
	for _, p := range payments {
		switch p.Status {
		case PaymentPaid:
			paid++
			s.PaidAmount = s.PaidAmount.Add(p.Amount)
			if p.TimingStatus != nil && *p.TimingStatus == TimingOnTime {
				onTime++
			}
		case PaymentPending:
			s.PendingCount++
		}
	}
	if paid > 0 {
		s.OnTimeRate = int(math.Round(float64(onTime) / float64(paid) * 100))
	}
	return s
}
