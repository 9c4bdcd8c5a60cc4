/*
store.go - Persistence interface for leases and payments

PURPOSE:
  Defines the boundary between the lease service and the database. The rules
  in this package never touch a Store; only the leasing service does.

KEY INTERFACES:
  Store:   Lease and payment persistence
  TxStore: Atomic multi-write operations (accepting a lease writes the lease
           and its whole payment schedule)

NOT FOUND:
  Get* methods return ErrLeaseNotFound / ErrPaymentNotFound (wrapped) when
  the record does not exist, never a nil record with a nil error.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - lease/store/memory.go: In-memory for testing
*/
package lease

import "context"

// PaymentFilter narrows payment listings. Zero dates are unbounded.
type PaymentFilter struct {
	LandlordID string
	LeaseID    LeaseID
	Status     PaymentStatus
	DueFrom    Date
	DueTo      Date
}

// Matches applies the filter to a payment whose lease landlord is landlordID.
func (f PaymentFilter) Matches(p Payment, landlordID string) bool {
	if f.LandlordID != "" && f.LandlordID != landlordID {
		return false
	}
	if f.LeaseID != "" && f.LeaseID != p.LeaseID {
		return false
	}
	if f.Status != "" && f.Status != p.Status {
		return false
	}
	if !f.DueFrom.IsZero() && p.DueDate.Before(f.DueFrom) {
		return false
	}
	if !f.DueTo.IsZero() && p.DueDate.After(f.DueTo) {
		return false
	}
	return true
}

type Store interface {
	// SaveLease inserts or replaces the lease row. Payments are not touched.
	SaveLease(ctx context.Context, l Lease) error

	// GetLease returns the lease with its payments ordered by due date.
	GetLease(ctx context.Context, id LeaseID) (*Lease, error)

	// ListLeases returns leases for a landlord or tenant, newest first,
	// without payments. Empty ids are not filters.
	ListLeases(ctx context.Context, landlordID, tenantID string) ([]Lease, error)

	// SavePayments inserts or replaces payments atomically.
	SavePayments(ctx context.Context, payments []Payment) error

	GetPayment(ctx context.Context, id PaymentID) (*Payment, error)

	// ListPayments returns payments matching f ordered by due date.
	ListPayments(ctx context.Context, f PaymentFilter) ([]Payment, error)
}

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, transaction is rolled back.
	WithTx(ctx context.Context, fn func(Store) error) error
}
