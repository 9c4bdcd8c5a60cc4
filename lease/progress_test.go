package lease_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/lease-engine/lease"
)

func TestLeaseProgress(t *testing.T) {
	l := lease.Lease{
		StartDate: date(2024, time.January, 1),
		EndDate:   endOn(date(2024, time.January, 11)),
	}

	p := lease.LeaseProgress(l, date(2023, time.December, 31))
	assert.Equal(t, 0.0, p.Percent)
	assert.Equal(t, 10, p.TermDays)

	p = lease.LeaseProgress(l, date(2024, time.January, 6))
	assert.InDelta(t, 50.0, p.Percent, 1e-9)
	require.NotNil(t, p.DaysRemaining)
	assert.Equal(t, 5, *p.DaysRemaining)

	p = lease.LeaseProgress(l, date(2024, time.February, 1))
	assert.Equal(t, 100.0, p.Percent)
	assert.Equal(t, 0, *p.DaysRemaining)
}

func TestLeaseProgress_OpenEnded(t *testing.T) {
	l := lease.Lease{StartDate: date(2024, time.January, 1)}

	p := lease.LeaseProgress(l, date(2024, time.March, 1))
	assert.Equal(t, 100.0, p.Percent)
	assert.Equal(t, 0, p.TermDays)
	assert.Nil(t, p.DaysRemaining)

	p = lease.LeaseProgress(l, date(2023, time.March, 1))
	assert.Equal(t, 0.0, p.Percent)
}

func TestSummarize(t *testing.T) {
	payments := []lease.Payment{
		paid(lease.TimingOnTime),
		paid(lease.TimingLate),
		paid(lease.TimingAdvance),
		{DueDate: date(2024, time.April, 15), Amount: lease.NewMoney(1000), Type: lease.PaymentRent, Status: lease.PaymentPending},
	}

	s := lease.Summarize(payments)
	assert.Equal(t, 4, s.TotalPayments)
	assert.Equal(t, 1, s.PendingCount)
	assert.True(t, s.PaidAmount.Equal(lease.NewMoney(3000)), "paid amount %s", s.PaidAmount)
	assert.Equal(t, 33, s.OnTimeRate)

	assert.Equal(t, 0, lease.Summarize(nil).OnTimeRate)
}

func TestPayment_ValidateTimingInvariant(t *testing.T) {
	p := paid(lease.TimingOnTime)
	require.NoError(t, p.Validate())

	p.TimingStatus = nil
	assert.ErrorIs(t, p.Validate(), lease.ErrInvalidInput)

	pending := lease.Payment{DueDate: date(2024, time.May, 1), Type: lease.PaymentRent, Status: lease.PaymentPending,
		TimingStatus: timing(lease.TimingLate)}
	assert.ErrorIs(t, pending.Validate(), lease.ErrInvalidInput)
}

func TestMonthsSpanned(t *testing.T) {
	assert.Equal(t, 1, lease.MonthsSpanned(date(2024, time.January, 1), date(2024, time.January, 31)))
	assert.Equal(t, 12, lease.MonthsSpanned(date(2024, time.January, 15), date(2024, time.December, 1)))
	assert.Equal(t, 3, lease.MonthsSpanned(date(2024, time.November, 30), date(2025, time.January, 2)))
}
