/*
gate.go - Lease Action Gate

PURPOSE:
  Decides which landlord actions a lease permits, from its status and where
  today falls relative to its end date. The gate only classifies; it never
  mutates a lease. Callers check it before attempting an action.

STATE MACHINE:

    PENDING ──cancel──▶ CANCELLED
       │
       └──(tenant accepts)──▶ ACTIVE ──terminate──▶ TERMINATED   (today < end, or no end)
                                 │
                                 └────complete───▶ COMPLETED    (end set, today >= end)

  COMPLETED, TERMINATED and CANCELLED are terminal.

PERMISSIONS:
  | Status                    | cancel | terminate | complete | edit | payments |
  |---------------------------|--------|-----------|----------|------|----------|
  | PENDING                   | yes    | no        | no       | yes  | no       |
  | ACTIVE, end not reached   | no     | yes       | no       | no   | yes      |
  | ACTIVE, end reached/past  | no     | no        | yes      | no   | yes      |
  | terminal                  | no     | no        | no       | no   | no       |

  An open-ended ACTIVE lease (no end date) never completes; it can only be
  terminated.
*/
package lease

// =============================================================================
// ACTIONS
// =============================================================================

type Action string

const (
	ActionCancel        Action = "cancel"
	ActionTerminate     Action = "terminate"
	ActionComplete      Action = "complete"
	ActionEdit          Action = "edit"
	ActionRecordPayment Action = "record-payment"
	ActionMarkPaid      Action = "mark-paid"
)

// Actions lists every gated action in display order.
var Actions = []Action{
	ActionCancel, ActionTerminate, ActionComplete, ActionEdit, ActionRecordPayment, ActionMarkPaid,
}

// =============================================================================
// PERMISSIONS
// =============================================================================

// ActionSet is the permission row for one lease on one day.
type ActionSet struct {
	CanCancel        bool `json:"can_cancel"`
	CanTerminate     bool `json:"can_terminate"`
	CanComplete      bool `json:"can_complete"`
	CanEdit          bool `json:"can_edit"`
	CanRecordPayment bool `json:"can_record_payment"`
	CanMarkPaid      bool `json:"can_mark_paid"`
}

// Permissions derives the permission row. endDate nil means open-ended.
func Permissions(status Status, endDate *Date, today Date) ActionSet {
	switch status {
	case StatusPending:
		return ActionSet{CanCancel: true, CanEdit: true}
	case StatusActive:
		ended := EndReached(endDate, today)
		return ActionSet{
			CanTerminate:     !ended,
			CanComplete:      ended,
			CanRecordPayment: true,
			CanMarkPaid:      true,
		}
	default:
		return ActionSet{}
	}
}

// EndReached reports whether today is on or after a set end date.
func EndReached(endDate *Date, today Date) bool {
	return endDate != nil && !endDate.IsZero() && today.AfterOrEqual(*endDate)
}

// Allows answers for a single action. Unknown actions are never allowed.
func (s ActionSet) Allows(a Action) bool {
	switch a {
	case ActionCancel:
		return s.CanCancel
	case ActionTerminate:
		return s.CanTerminate
	case ActionComplete:
		return s.CanComplete
	case ActionEdit:
		return s.CanEdit
	case ActionRecordPayment:
		return s.CanRecordPayment
	case ActionMarkPaid:
		return s.CanMarkPaid
	}
	return false
}

// Allowed lists the permitted actions in display order.
func (s ActionSet) Allowed() []Action {
	var out []Action
	for _, a := range Actions {
		if s.Allows(a) {
			out = append(out, a)
		}
	}
	return out
}

// Convenience predicates over a bare status, for callers without dates.
func CanCancel(status Status) bool { return status == StatusPending }
func CanEdit(status Status) bool   { return status == StatusPending }

// =============================================================================
// TRANSITIONS
// =============================================================================

// transitionTargets maps status-changing actions to their target status.
var transitionTargets = map[Action]Status{
	ActionCancel:    StatusCancelled,
	ActionTerminate: StatusTerminated,
	ActionComplete:  StatusCompleted,
}

// Transition returns the status a lease moves to when action is applied, or
// an *ActionError if the gate refuses it or the action changes no status.
func Transition(l Lease, action Action, today Date) (Status, error) {
	target, ok := transitionTargets[action]
	if !ok {
		return "", &ActionError{LeaseID: l.ID, Action: action, Status: l.Status, Reason: "action does not change lease status"}
	}
	if !l.Permissions(today).Allows(action) {
		return "", &ActionError{LeaseID: l.ID, Action: action, Status: l.Status, Reason: refusalReason(l, action, today)}
	}
	return target, nil
}

// Require returns an *ActionError unless the lease permits action today.
func Require(l Lease, action Action, today Date) error {
	if l.Permissions(today).Allows(action) {
		return nil
	}
	return &ActionError{LeaseID: l.ID, Action: action, Status: l.Status, Reason: refusalReason(l, action, today)}
}

func refusalReason(l Lease, action Action, today Date) string {
	if l.IsClosed() {
		return "lease is closed"
	}
	if l.Status != StatusActive {
		return ""
	}
	switch action {
	case ActionTerminate:
		return "end date " + l.EndDate.String() + " has been reached; complete the lease instead"
	case ActionComplete:
		if l.EndDate == nil || l.EndDate.IsZero() {
			return "open-ended lease cannot be completed"
		}
		return "end date " + l.EndDate.String() + " not reached"
	}
	return ""
}
