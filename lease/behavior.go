package lease

// =============================================================================
// BEHAVIOR AGGREGATOR
// =============================================================================

type PaymentBehavior string

const (
	BehaviorGood            PaymentBehavior = "GOOD"
	BehaviorHasOneLate      PaymentBehavior = "HAS_1_LATE"
	BehaviorHasMultipleLate PaymentBehavior = "HAS_MULTIPLE_LATE"
)

// BehaviorMetrics is derived on demand and never persisted. Both fields are
// nil when there are no paid payments to judge from.
type BehaviorMetrics struct {
	PaymentBehavior    *PaymentBehavior `json:"payment_behavior"`
	PaymentReliability *float64         `json:"payment_reliability"`
}

// Aggregate derives the tenant's payment behavior from paid payments.
// Advance payments count as reliable, so a tenant who always pays early is GOOD.
func Aggregate(paid []Payment) BehaviorMetrics {
	if len(paid) == 0 {
		return BehaviorMetrics{}
	}

	late, reliable := 0, 0
	for _, p := range paid {
		if p.TimingStatus == nil {
			continue
		}
		switch *p.TimingStatus {
		case TimingLate:
			late++
		case TimingOnTime, TimingAdvance:
			reliable++
		}
	}

	var behavior PaymentBehavior
	switch {
	case late == 0:
		behavior = BehaviorGood
	case late == 1:
		behavior = BehaviorHasOneLate
	default:
		behavior = BehaviorHasMultipleLate
	}
	reliability := float64(reliable) / float64(len(paid))

	return BehaviorMetrics{
		PaymentBehavior:    &behavior,
		PaymentReliability: &reliability,
	}
}

// PaidPayments filters to PAID payments, preserving order.
func PaidPayments(payments []Payment) []Payment {
	var paid []Payment
	for _, p := range payments {
		if p.IsPaid() {
			paid = append(paid, p)
		}
	}
	return paid
}

// LeaseBehavior aggregates the paid payments of a lease.
func LeaseBehavior(l Lease) BehaviorMetrics {
	return Aggregate(PaidPayments(l.Payments))
}
