package lease_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/lease-engine/lease"
)

func endOn(d lease.Date) *lease.Date { return &d }

func activeLease(end *lease.Date) lease.Lease {
	return lease.Lease{
		ID:        "lease-1",
		Status:    lease.StatusActive,
		StartDate: date(2024, time.January, 1),
		EndDate:   end,
	}
}

// =============================================================================
// PERMISSION TABLE
// =============================================================================

func TestPermissions_Table(t *testing.T) {
	today := date(2024, time.June, 15)

	tests := []struct {
		name   string
		status lease.Status
		end    *lease.Date
		want   lease.ActionSet
	}{
		{"pending", lease.StatusPending, endOn(today.AddDays(90)),
			lease.ActionSet{CanCancel: true, CanEdit: true}},
		{"active, end ahead", lease.StatusActive, endOn(today.AddDays(1)),
			lease.ActionSet{CanTerminate: true, CanRecordPayment: true, CanMarkPaid: true}},
		{"active, end today", lease.StatusActive, endOn(today),
			lease.ActionSet{CanComplete: true, CanRecordPayment: true, CanMarkPaid: true}},
		{"active, end passed", lease.StatusActive, endOn(today.AddDays(-1)),
			lease.ActionSet{CanComplete: true, CanRecordPayment: true, CanMarkPaid: true}},
		{"active, open-ended", lease.StatusActive, nil,
			lease.ActionSet{CanTerminate: true, CanRecordPayment: true, CanMarkPaid: true}},
		{"completed", lease.StatusCompleted, endOn(today.AddDays(-1)), lease.ActionSet{}},
		{"terminated", lease.StatusTerminated, nil, lease.ActionSet{}},
		{"cancelled", lease.StatusCancelled, endOn(today.AddDays(30)), lease.ActionSet{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, lease.Permissions(tt.status, tt.end, today))
		})
	}
}

func TestPermissions_CancelOnlyWhilePending(t *testing.T) {
	assert.True(t, lease.CanCancel(lease.StatusPending))
	assert.False(t, lease.CanCancel(lease.StatusActive))
	assert.False(t, lease.CanCancel(lease.StatusCompleted))
}

func TestPermissions_EndYesterday(t *testing.T) {
	today := date(2024, time.June, 15)
	perms := activeLease(endOn(today.AddDays(-1))).Permissions(today)

	assert.True(t, perms.CanComplete)
	assert.False(t, perms.CanTerminate)
}

func TestPermissions_EndTomorrow(t *testing.T) {
	today := date(2024, time.June, 15)
	perms := activeLease(endOn(today.AddDays(1))).Permissions(today)

	assert.True(t, perms.CanTerminate)
	assert.False(t, perms.CanComplete)
}

func TestPermissions_OpenEndedNeverCompletes(t *testing.T) {
	l := activeLease(nil)
	for _, today := range []lease.Date{date(2024, time.January, 1), date(2030, time.December, 31)} {
		perms := l.Permissions(today)
		assert.True(t, perms.CanTerminate)
		assert.False(t, perms.CanComplete)
	}
}

func TestActionSet_AllowedAndUnknown(t *testing.T) {
	perms := lease.Permissions(lease.StatusPending, nil, date(2024, time.June, 1))
	assert.Equal(t, []lease.Action{lease.ActionCancel, lease.ActionEdit}, perms.Allowed())
	assert.False(t, perms.Allows(lease.Action("evict")))
}

// =============================================================================
// TRANSITIONS
// =============================================================================

func TestTransition_Allowed(t *testing.T) {
	today := date(2024, time.June, 15)

	pending := lease.Lease{ID: "l-p", Status: lease.StatusPending}
	to, err := lease.Transition(pending, lease.ActionCancel, today)
	require.NoError(t, err)
	assert.Equal(t, lease.StatusCancelled, to)

	to, err = lease.Transition(activeLease(endOn(today.AddDays(10))), lease.ActionTerminate, today)
	require.NoError(t, err)
	assert.Equal(t, lease.StatusTerminated, to)

	to, err = lease.Transition(activeLease(endOn(today)), lease.ActionComplete, today)
	require.NoError(t, err)
	assert.Equal(t, lease.StatusCompleted, to)
}

func TestTransition_RefusedOnTerminalLease(t *testing.T) {
	// GIVEN: A completed lease
	today := date(2024, time.June, 15)
	closed := lease.Lease{ID: "l-c", Status: lease.StatusCompleted, EndDate: endOn(today.AddDays(-5))}

	// WHEN: Any mutating action is requested
	for _, a := range lease.Actions {
		_, err := lease.Transition(closed, a, today)

		// THEN: It is refused without panicking, as a closed-lease conflict
		require.Error(t, err, "action %s", a)
		assert.ErrorIs(t, err, lease.ErrActionNotPermitted)
		assert.True(t, lease.IsConflict(err))
		assert.False(t, closed.Permissions(today).Allows(a))
	}

	err := lease.Require(closed, lease.ActionMarkPaid, today)
	assert.ErrorIs(t, err, lease.ErrLeaseClosed)
}

func TestTransition_CompleteBeforeEndRefused(t *testing.T) {
	today := date(2024, time.June, 15)
	_, err := lease.Transition(activeLease(endOn(today.AddDays(1))), lease.ActionComplete, today)

	var actionErr *lease.ActionError
	require.True(t, errors.As(err, &actionErr))
	assert.Equal(t, lease.ActionComplete, actionErr.Action)
	assert.Contains(t, actionErr.Error(), "not reached")
	assert.NotErrorIs(t, err, lease.ErrLeaseClosed)
}

func TestTransition_NonTransitionActionRefused(t *testing.T) {
	_, err := lease.Transition(lease.Lease{Status: lease.StatusPending}, lease.ActionEdit, date(2024, time.June, 1))
	assert.ErrorIs(t, err, lease.ErrActionNotPermitted)
}
