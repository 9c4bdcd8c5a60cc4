// Package store provides lease.Store implementations.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/warp/lease-engine/lease"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	leases   map[lease.LeaseID]lease.Lease
	payments map[lease.PaymentID]lease.Payment
}

func NewMemory() *Memory {
	return &Memory{
		leases:   make(map[lease.LeaseID]lease.Lease),
		payments: make(map[lease.PaymentID]lease.Payment),
	}
}

func (m *Memory) SaveLease(_ context.Context, l lease.Lease) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveLeaseLocked(l)
	return nil
}

func (m *Memory) saveLeaseLocked(l lease.Lease) {
	l.Payments = nil
	m.leases[l.ID] = l
}

func (m *Memory) GetLease(_ context.Context, id lease.LeaseID) (*lease.Lease, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getLeaseLocked(id)
}

func (m *Memory) getLeaseLocked(id lease.LeaseID) (*lease.Lease, error) {
	l, ok := m.leases[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", lease.ErrLeaseNotFound, id)
	}
	l.Payments = m.listPaymentsLocked(lease.PaymentFilter{LeaseID: id})
	return &l, nil
}

func (m *Memory) ListLeases(_ context.Context, landlordID, tenantID string) ([]lease.Lease, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listLeasesLocked(landlordID, tenantID), nil
}

func (m *Memory) listLeasesLocked(landlordID, tenantID string) []lease.Lease {
	var result []lease.Lease
	for _, l := range m.leases {
		if landlordID != "" && l.LandlordID != landlordID {
			continue
		}
		if tenantID != "" && l.TenantID != tenantID {
			continue
		}
		result = append(result, l)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

// SavePayments writes all payments or none.
func (m *Memory) SavePayments(_ context.Context, payments []lease.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.savePaymentsLocked(payments)
}

func (m *Memory) savePaymentsLocked(payments []lease.Payment) error {
	// Check all leases first (atomic check)
	for _, p := range payments {
		if _, ok := m.leases[p.LeaseID]; !ok {
			return fmt.Errorf("%w: %s", lease.ErrLeaseNotFound, p.LeaseID)
		}
	}
	for _, p := range payments {
		m.payments[p.ID] = p
	}
	return nil
}

func (m *Memory) GetPayment(_ context.Context, id lease.PaymentID) (*lease.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getPaymentLocked(id)
}

func (m *Memory) getPaymentLocked(id lease.PaymentID) (*lease.Payment, error) {
	p, ok := m.payments[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", lease.ErrPaymentNotFound, id)
	}
	return &p, nil
}

func (m *Memory) ListPayments(_ context.Context, f lease.PaymentFilter) ([]lease.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listPaymentsLocked(f), nil
}

func (m *Memory) listPaymentsLocked(f lease.PaymentFilter) []lease.Payment {
	var result []lease.Payment
	for _, p := range m.payments {
		if !f.Matches(p, m.leases[p.LeaseID].LandlordID) {
			continue
		}
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DueDate.Equal(result[j].DueDate) {
			return result[i].ID < result[j].ID
		}
		return result[i].DueDate.Before(result[j].DueDate)
	})
	return result
}

// Reset drops every lease and payment.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leases = make(map[lease.LeaseID]lease.Lease)
	m.payments = make(map[lease.PaymentID]lease.Payment)
	return nil
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
func (m *Memory) WithTx(_ context.Context, fn func(lease.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.snapshot()
	if err := fn(&txMemoryView{parent: m}); err != nil {
		m.restore(snapshot)
		return err
	}
	return nil
}

type memorySnapshot struct {
	leases   map[lease.LeaseID]lease.Lease
	payments map[lease.PaymentID]lease.Payment
}

func (m *Memory) snapshot() memorySnapshot {
	s := memorySnapshot{
		leases:   make(map[lease.LeaseID]lease.Lease, len(m.leases)),
		payments: make(map[lease.PaymentID]lease.Payment, len(m.payments)),
	}
	for k, v := range m.leases {
		s.leases[k] = v
	}
	for k, v := range m.payments {
		s.payments[k] = v
	}
	return s
}

func (m *Memory) restore(s memorySnapshot) {
	m.leases = s.leases
	m.payments = s.payments
}

// txMemoryView runs under the parent's write lock.
type txMemoryView struct {
	parent *Memory
}

func (tv *txMemoryView) SaveLease(_ context.Context, l lease.Lease) error {
	tv.parent.saveLeaseLocked(l)
	return nil
}

func (tv *txMemoryView) GetLease(_ context.Context, id lease.LeaseID) (*lease.Lease, error) {
	return tv.parent.getLeaseLocked(id)
}

func (tv *txMemoryView) ListLeases(_ context.Context, landlordID, tenantID string) ([]lease.Lease, error) {
	return tv.parent.listLeasesLocked(landlordID, tenantID), nil
}

func (tv *txMemoryView) SavePayments(_ context.Context, payments []lease.Payment) error {
	return tv.parent.savePaymentsLocked(payments)
}

func (tv *txMemoryView) GetPayment(_ context.Context, id lease.PaymentID) (*lease.Payment, error) {
	return tv.parent.getPaymentLocked(id)
}

func (tv *txMemoryView) ListPayments(_ context.Context, f lease.PaymentFilter) ([]lease.Payment, error) {
	return tv.parent.listPaymentsLocked(f), nil
}
