package lease

// =============================================================================
// TIMING CLASSIFIER
// =============================================================================

// Classify derives the timing status of a payment paid on paidDate against
// dueDate. PREPAYMENT and ADVANCE_PAYMENT are ADVANCE regardless of dates;
// every other type compares calendar days.
func Classify(dueDate, paidDate Date, paymentType PaymentType) TimingStatus {
	if paymentType.IsAdvanceByDefinition() {
		return TimingAdvance
	}
	switch paidDate.Compare(dueDate) {
	case -1:
		return TimingAdvance
	case 1:
		return TimingLate
	default:
		return TimingOnTime
	}
}

// ClassifyPayment classifies p from its own dates. Unpaid payments have no
// timing status and yield nil.
func ClassifyPayment(p Payment) (*TimingStatus, error) {
	if p.DueDate.IsZero() {
		return nil, &ValidationError{Field: "due_date", Message: "is required to classify a payment"}
	}
	if p.PaidAt == nil || p.PaidAt.IsZero() {
		return nil, nil
	}
	ts := Classify(p.DueDate, *p.PaidAt, p.Type)
	return &ts, nil
}

// =============================================================================
// TIMING SELECTION - classifier default plus an explicit override
// =============================================================================

// TimingSelection pairs the classifier's suggestion with the caller's choice.
// Once Override is set the default is never consulted again, even if the
// dates it was derived from change.
type TimingSelection struct {
	Default  TimingStatus
	Override *TimingStatus
}

// SelectTiming builds a selection for a payment about to be paid on paidDate.
func SelectTiming(dueDate, paidDate Date, paymentType PaymentType, override *TimingStatus) TimingSelection {
	return TimingSelection{
		Default:  Classify(dueDate, paidDate, paymentType),
		Override: override,
	}
}

// SelectPaymentTiming builds the selection for p as it is about to be
// stored PAID. Both dates go through ClassifyPayment, so a payment missing
// either one is rejected here and nowhere else.
func SelectPaymentTiming(p Payment, override *TimingStatus) (TimingSelection, error) {
	def, err := ClassifyPayment(p)
	if err != nil {
		return TimingSelection{}, err
	}
	if def == nil {
		return TimingSelection{}, &ValidationError{Field: "paid_at", Message: "is required for a paid payment"}
	}
	return TimingSelection{Default: *def, Override: override}, nil
}

func (s TimingSelection) Effective() TimingStatus {
	if s.Override != nil {
		return *s.Override
	}
	return s.Default
}

func (s TimingSelection) IsOverridden() bool {
	return s.Override != nil && *s.Override != s.Default
}
