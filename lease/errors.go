/*
errors.go - Error taxonomy for lease rules and the lease service

PURPOSE:
  All error types in one place. Callers classify errors with errors.Is and
  the helpers at the bottom; transport layers map them to status codes.

ERROR CATEGORIES:
  1. Invalid input - a caller bug (missing due date, unknown enum)
  2. Not permitted - the lease status or date forbids the action
  3. Not found / forbidden - lookup and ownership failures

  Insufficient data (no paid payments to aggregate) is NOT an error. The
  aggregator returns a defined null result instead.

SEE ALSO:
  - gate.go: Produces ActionError
  - types.go: Payment.Validate produces ValidationError
*/
package lease

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidInput indicates malformed or missing caller input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrActionNotPermitted is returned when the gate refuses an action.
	ErrActionNotPermitted = errors.New("action not permitted")

	// ErrLeaseClosed is returned when mutating a lease in a terminal status.
	ErrLeaseClosed = errors.New("lease is closed")

	// ErrAlreadyPaid is returned when marking a paid payment as paid again.
	ErrAlreadyPaid = errors.New("payment already paid")

	ErrLeaseNotFound   = errors.New("lease not found")
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrForbidden is returned when the actor is not a party to the lease.
	ErrForbidden = errors.New("forbidden")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ActionError reports a refused lease action.
type ActionError struct {
	LeaseID LeaseID
	Action  Action
	Status  Status
	Reason  string
}

func (e *ActionError) Error() string {
	msg := fmt.Sprintf("cannot %s lease in status %s", e.Action, e.Status)
	if e.LeaseID != "" {
		msg = fmt.Sprintf("cannot %s lease %s in status %s", e.Action, e.LeaseID, e.Status)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *ActionError) Unwrap() error {
	if e.Status.IsTerminal() {
		return ErrLeaseClosed
	}
	return ErrActionNotPermitted
}

// Is lets a closed-lease refusal also match ErrActionNotPermitted.
func (e *ActionError) Is(target error) bool {
	return target == ErrActionNotPermitted
}

// ValidationError names the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsConflict returns true if the request is valid but the lease state refuses it.
func IsConflict(err error) bool {
	return errors.Is(err, ErrActionNotPermitted) ||
		errors.Is(err, ErrLeaseClosed) ||
		errors.Is(err, ErrAlreadyPaid)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrLeaseNotFound) ||
		errors.Is(err, ErrPaymentNotFound)
}

func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}
