package lease_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/lease-engine/lease"
)

func TestAggregate_EmptyIsInsufficientData(t *testing.T) {
	m := lease.Aggregate(nil)
	assert.Nil(t, m.PaymentBehavior)
	assert.Nil(t, m.PaymentReliability)

	m = lease.Aggregate([]lease.Payment{})
	assert.Nil(t, m.PaymentBehavior)
	assert.Nil(t, m.PaymentReliability)
}

func TestAggregate_NoLateIsGood(t *testing.T) {
	m := lease.Aggregate([]lease.Payment{
		paid(lease.TimingOnTime), paid(lease.TimingAdvance), paid(lease.TimingOnTime),
	})
	require.NotNil(t, m.PaymentBehavior)
	assert.Equal(t, lease.BehaviorGood, *m.PaymentBehavior)
	assert.InDelta(t, 1.0, *m.PaymentReliability, 1e-9)
}

func TestAggregate_AllAdvanceIsGood(t *testing.T) {
	m := lease.Aggregate([]lease.Payment{paid(lease.TimingAdvance), paid(lease.TimingAdvance)})
	assert.Equal(t, lease.BehaviorGood, *m.PaymentBehavior)
	assert.InDelta(t, 1.0, *m.PaymentReliability, 1e-9)
}

func TestAggregate_OneLate(t *testing.T) {
	for n := 1; n <= 6; n++ {
		payments := []lease.Payment{paid(lease.TimingLate)}
		for i := 1; i < n; i++ {
			payments = append(payments, paid(lease.TimingOnTime))
		}
		m := lease.Aggregate(payments)
		assert.Equal(t, lease.BehaviorHasOneLate, *m.PaymentBehavior, "n=%d", n)
		assert.InDelta(t, float64(n-1)/float64(n), *m.PaymentReliability, 1e-9, "n=%d", n)
	}
}

func TestAggregate_MultipleLate(t *testing.T) {
	m := lease.Aggregate([]lease.Payment{
		paid(lease.TimingLate), paid(lease.TimingLate), paid(lease.TimingOnTime), paid(lease.TimingLate),
	})
	assert.Equal(t, lease.BehaviorHasMultipleLate, *m.PaymentBehavior)
	assert.InDelta(t, 0.25, *m.PaymentReliability, 1e-9)
}

func TestAggregate_Scenario(t *testing.T) {
	// GIVEN: A lease with three paid payments: on time, late, advance
	m := lease.Aggregate([]lease.Payment{
		paid(lease.TimingOnTime), paid(lease.TimingLate), paid(lease.TimingAdvance),
	})

	// THEN: One late, reliability two thirds
	assert.Equal(t, lease.BehaviorHasOneLate, *m.PaymentBehavior)
	assert.InDelta(t, 0.667, *m.PaymentReliability, 0.001)
}

func TestLeaseBehavior_IgnoresPending(t *testing.T) {
	l := lease.Lease{Payments: []lease.Payment{
		paid(lease.TimingLate),
		{DueDate: date(2024, time.February, 15), Type: lease.PaymentRent, Status: lease.PaymentPending},
	}}

	assert.Len(t, lease.PaidPayments(l.Payments), 1)
	m := lease.LeaseBehavior(l)
	assert.Equal(t, lease.BehaviorHasOneLate, *m.PaymentBehavior)
	assert.InDelta(t, 0.0, *m.PaymentReliability, 1e-9)
}
