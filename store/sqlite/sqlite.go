/*
Package sqlite provides a SQLite-backed implementation of lease.TxStore.

PURPOSE:
  Persists leases and their payments. In production, the same patterns apply
  to PostgreSQL - only minor SQL dialect differences.

INTERFACES IMPLEMENTED:
  lease.Store:   Lease and payment persistence
  lease.TxStore: Atomic lease acceptance (status + payment schedule)

KEY TABLES:
  leases:   One row per lease, terms and status
  payments: Scheduled and recorded payments, FK to leases

STORAGE FORMATS:
  - Calendar days as TEXT YYYY-MM-DD (sortable, compared as strings)
  - Money as TEXT decimal strings, never REAL
  - Timestamps as TEXT RFC3339Nano in UTC
  - timing_status is NULL while a payment is PENDING

INDEXES:
  - idx_payments_lease_due: Lease details (hot path)
  - idx_payments_status_due: Reminder scan of pending payments
  - idx_leases_landlord / idx_leases_tenant: Portal listings

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/leases.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := leasing.NewService(store, loc)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - lease/store.go: Interface definitions
  - lease/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/lease-engine/lease"
)

// Store implements lease.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS leases (
		id TEXT PRIMARY KEY,
		landlord_id TEXT NOT NULL,
		tenant_id TEXT NOT NULL,
		property_id TEXT NOT NULL,
		unit_id TEXT NOT NULL,
		nickname TEXT,
		lease_type TEXT NOT NULL,
		status TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT,
		rent_amount TEXT NOT NULL,
		due_day INTEGER NOT NULL,
		billing_interval TEXT NOT NULL DEFAULT 'MONTHLY',
		security_deposit TEXT,
		document_url TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_leases_landlord
		ON leases(landlord_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_leases_tenant
		ON leases(tenant_id, created_at DESC);

	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		lease_id TEXT NOT NULL REFERENCES leases(id),
		amount TEXT NOT NULL,
		due_date TEXT NOT NULL,
		paid_at TEXT,
		method TEXT,
		payment_type TEXT NOT NULL,
		status TEXT NOT NULL,
		timing_status TEXT,
		reminder_stage INTEGER NOT NULL DEFAULT 0,
		note TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		CHECK (status = 'PAID' OR timing_status IS NULL)
	);

	-- Lease details loads payments by due date (hot path)
	CREATE INDEX IF NOT EXISTS idx_payments_lease_due
		ON payments(lease_id, due_date);

	-- Reminder scan: pending payments due in a window
	CREATE INDEX IF NOT EXISTS idx_payments_status_due
		ON payments(status, due_date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// LEASES
// =============================================================================

const leaseColumns = `id, landlord_id, tenant_id, property_id, unit_id, nickname, lease_type,
	status, start_date, end_date, rent_amount, due_day, billing_interval, security_deposit,
	document_url, created_at, updated_at`

// SaveLease inserts or replaces the lease row.
func (s *Store) SaveLease(ctx context.Context, l lease.Lease) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return saveLease(ctx, s.db, l)
}

func saveLease(ctx context.Context, db querier, l lease.Lease) error {
	query := `
		INSERT INTO leases (` + leaseColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			tenant_id = excluded.tenant_id,
			property_id = excluded.property_id,
			unit_id = excluded.unit_id,
			nickname = excluded.nickname,
			lease_type = excluded.lease_type,
			status = excluded.status,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			rent_amount = excluded.rent_amount,
			due_day = excluded.due_day,
			billing_interval = excluded.billing_interval,
			security_deposit = excluded.security_deposit,
			document_url = excluded.document_url,
			updated_at = excluded.updated_at
	`

	var deposit sql.NullString
	if l.SecurityDeposit != nil {
		deposit = sql.NullString{String: l.SecurityDeposit.String(), Valid: true}
	}
	interval := l.Interval
	if interval == "" {
		interval = lease.IntervalMonthly
	}

	_, err := db.ExecContext(ctx, query,
		string(l.ID),
		l.LandlordID,
		l.TenantID,
		l.PropertyID,
		l.UnitID,
		nullString(l.Nickname),
		string(l.Type),
		string(l.Status),
		l.StartDate.String(),
		nullDate(l.EndDate),
		l.RentAmount.String(),
		l.DueDay,
		string(interval),
		deposit,
		nullString(l.DocumentURL),
		formatTime(l.CreatedAt),
		formatTime(l.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save lease: %w", err)
	}
	return nil
}

// GetLease returns the lease with its payments ordered by due date.
func (s *Store) GetLease(ctx context.Context, id lease.LeaseID) (*lease.Lease, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return getLease(ctx, s.db, id)
}

func getLease(ctx context.Context, db querier, id lease.LeaseID) (*lease.Lease, error) {
	row := db.QueryRowContext(ctx, `SELECT `+leaseColumns+` FROM leases WHERE id = ?`, string(id))
	l, err := scanLease(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", lease.ErrLeaseNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	payments, err := listPayments(ctx, db, lease.PaymentFilter{LeaseID: id})
	if err != nil {
		return nil, err
	}
	l.Payments = payments
	return &l, nil
}

// ListLeases returns leases for a landlord or tenant, newest first.
func (s *Store) ListLeases(ctx context.Context, landlordID, tenantID string) ([]lease.Lease, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return listLeases(ctx, s.db, landlordID, tenantID)
}

func listLeases(ctx context.Context, db querier, landlordID, tenantID string) ([]lease.Lease, error) {
	var (
		where []string
		args  []any
	)
	if landlordID != "" {
		where = append(where, "landlord_id = ?")
		args = append(args, landlordID)
	}
	if tenantID != "" {
		where = append(where, "tenant_id = ?")
		args = append(args, tenantID)
	}

	query := `SELECT ` + leaseColumns + ` FROM leases`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query leases: %w", err)
	}
	defer rows.Close()

	var leases []lease.Lease
	for rows.Next() {
		l, err := scanLease(rows)
		if err != nil {
			return nil, err
		}
		leases = append(leases, l)
	}
	return leases, rows.Err()
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanLease(row scanner) (lease.Lease, error) {
	var (
		l           lease.Lease
		id          string
		nickname    sql.NullString
		leaseType   string
		status      string
		startDate   string
		endDate     sql.NullString
		rentAmount  string
		interval    string
		deposit     sql.NullString
		documentURL sql.NullString
		createdAt   string
		updatedAt   string
	)

	err := row.Scan(
		&id, &l.LandlordID, &l.TenantID, &l.PropertyID, &l.UnitID, &nickname, &leaseType,
		&status, &startDate, &endDate, &rentAmount, &l.DueDay, &interval, &deposit,
		&documentURL, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return l, err
	}
	if err != nil {
		return l, fmt.Errorf("failed to scan lease: %w", err)
	}

	l.ID = lease.LeaseID(id)
	l.Nickname = nickname.String
	l.Type = lease.Type(leaseType)
	l.Interval = lease.Interval(interval)
	l.DocumentURL = documentURL.String
	l.CreatedAt = parseTime(createdAt)
	l.UpdatedAt = parseTime(updatedAt)

	if l.Status, err = lease.ParseStatus(status); err != nil {
		return l, fmt.Errorf("lease %s: %w", id, err)
	}
	if l.StartDate, err = lease.ParseDate(startDate); err != nil {
		return l, fmt.Errorf("lease %s start_date: %w", id, err)
	}
	if l.EndDate, err = parseNullDate(endDate); err != nil {
		return l, fmt.Errorf("lease %s end_date: %w", id, err)
	}
	if l.RentAmount, err = lease.ParseMoney(rentAmount); err != nil {
		return l, fmt.Errorf("lease %s rent_amount: %w", id, err)
	}
	if deposit.Valid {
		d, err := lease.ParseMoney(deposit.String)
		if err != nil {
			return l, fmt.Errorf("lease %s security_deposit: %w", id, err)
		}
		l.SecurityDeposit = &d
	}
	return l, nil
}

// =============================================================================
// PAYMENTS
// =============================================================================

const paymentColumns = `p.id, p.lease_id, p.amount, p.due_date, p.paid_at, p.method, p.payment_type,
	p.status, p.timing_status, p.reminder_stage, p.note, p.created_at, p.updated_at`

// SavePayments inserts or replaces payments atomically.
func (s *Store) SavePayments(ctx context.Context, payments []lease.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := savePayments(ctx, sqlTx, payments); err != nil {
		return err
	}
	return sqlTx.Commit()
}

func savePayments(ctx context.Context, db querier, payments []lease.Payment) error {
	query := `
		INSERT INTO payments
		(id, lease_id, amount, due_date, paid_at, method, payment_type, status,
		 timing_status, reminder_stage, note, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			amount = excluded.amount,
			due_date = excluded.due_date,
			paid_at = excluded.paid_at,
			method = excluded.method,
			payment_type = excluded.payment_type,
			status = excluded.status,
			timing_status = excluded.timing_status,
			reminder_stage = excluded.reminder_stage,
			note = excluded.note,
			updated_at = excluded.updated_at
	`

	for _, p := range payments {
		var timing sql.NullString
		if p.TimingStatus != nil {
			timing = sql.NullString{String: string(*p.TimingStatus), Valid: true}
		}

		_, err := db.ExecContext(ctx, query,
			string(p.ID),
			string(p.LeaseID),
			p.Amount.String(),
			p.DueDate.String(),
			nullDate(p.PaidAt),
			nullString(p.Method),
			string(p.Type),
			string(p.Status),
			timing,
			p.ReminderStage,
			nullString(p.Note),
			formatTime(p.CreatedAt),
			formatTime(p.UpdatedAt),
		)
		if err != nil {
			if isForeignKeyError(err) {
				return fmt.Errorf("%w: %s", lease.ErrLeaseNotFound, p.LeaseID)
			}
			return fmt.Errorf("failed to save payment %s: %w", p.ID, err)
		}
	}
	return nil
}

// GetPayment returns a single payment.
func (s *Store) GetPayment(ctx context.Context, id lease.PaymentID) (*lease.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return getPayment(ctx, s.db, id)
}

func getPayment(ctx context.Context, db querier, id lease.PaymentID) (*lease.Payment, error) {
	row := db.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments p WHERE p.id = ?`, string(id))
	p, err := scanPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", lease.ErrPaymentNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPayments returns payments matching f ordered by due date.
func (s *Store) ListPayments(ctx context.Context, f lease.PaymentFilter) ([]lease.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return listPayments(ctx, s.db, f)
}

func listPayments(ctx context.Context, db querier, f lease.PaymentFilter) ([]lease.Payment, error) {
	var (
		where []string
		args  []any
	)
	if f.LandlordID != "" {
		where = append(where, "l.landlord_id = ?")
		args = append(args, f.LandlordID)
	}
	if f.LeaseID != "" {
		where = append(where, "p.lease_id = ?")
		args = append(args, string(f.LeaseID))
	}
	if f.Status != "" {
		where = append(where, "p.status = ?")
		args = append(args, string(f.Status))
	}
	if !f.DueFrom.IsZero() {
		where = append(where, "p.due_date >= ?")
		args = append(args, f.DueFrom.String())
	}
	if !f.DueTo.IsZero() {
		where = append(where, "p.due_date <= ?")
		args = append(args, f.DueTo.String())
	}

	query := `SELECT ` + paymentColumns + ` FROM payments p JOIN leases l ON l.id = p.lease_id`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY p.due_date ASC, p.id ASC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var payments []lease.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func scanPayment(row scanner) (lease.Payment, error) {
	var (
		p         lease.Payment
		id        string
		leaseID   string
		amount    string
		dueDate   string
		paidAt    sql.NullString
		method    sql.NullString
		payType   string
		status    string
		timing    sql.NullString
		note      sql.NullString
		createdAt string
		updatedAt string
	)

	err := row.Scan(
		&id, &leaseID, &amount, &dueDate, &paidAt, &method, &payType,
		&status, &timing, &p.ReminderStage, &note, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return p, err
	}
	if err != nil {
		return p, fmt.Errorf("failed to scan payment: %w", err)
	}

	p.ID = lease.PaymentID(id)
	p.LeaseID = lease.LeaseID(leaseID)
	p.Method = method.String
	p.Type = lease.PaymentType(payType)
	p.Status = lease.PaymentStatus(status)
	p.Note = note.String
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)

	if p.Amount, err = lease.ParseMoney(amount); err != nil {
		return p, fmt.Errorf("payment %s amount: %w", id, err)
	}
	if p.DueDate, err = lease.ParseDate(dueDate); err != nil {
		return p, fmt.Errorf("payment %s due_date: %w", id, err)
	}
	if p.PaidAt, err = parseNullDate(paidAt); err != nil {
		return p, fmt.Errorf("payment %s paid_at: %w", id, err)
	}
	if timing.Valid {
		// Rows written before the ON_TIME spelling still read as ON_TIME.
		ts, err := lease.ParseTimingStatus(timing.String)
		if err != nil {
			return p, fmt.Errorf("payment %s: %w", id, err)
		}
		p.TimingStatus = &ts
	}
	return p, nil
}

// =============================================================================
// TRANSACTIONAL STORE (lease.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store lease.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	txStore := &txStore{tx: sqlTx}
	if err := fn(txStore); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// txStore reads and writes through the open transaction. The parent's write
// lock is already held, so it takes no locks of its own.
type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) SaveLease(ctx context.Context, l lease.Lease) error {
	return saveLease(ctx, ts.tx, l)
}

func (ts *txStore) GetLease(ctx context.Context, id lease.LeaseID) (*lease.Lease, error) {
	return getLease(ctx, ts.tx, id)
}

func (ts *txStore) ListLeases(ctx context.Context, landlordID, tenantID string) ([]lease.Lease, error) {
	return listLeases(ctx, ts.tx, landlordID, tenantID)
}

func (ts *txStore) SavePayments(ctx context.Context, payments []lease.Payment) error {
	return savePayments(ctx, ts.tx, payments)
}

func (ts *txStore) GetPayment(ctx context.Context, id lease.PaymentID) (*lease.Payment, error) {
	return getPayment(ctx, ts.tx, id)
}

func (ts *txStore) ListPayments(ctx context.Context, f lease.PaymentFilter) ([]lease.Payment, error) {
	return listPayments(ctx, ts.tx, f)
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullDate(d *lease.Date) sql.NullString {
	if d == nil || d.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func parseNullDate(s sql.NullString) (*lease.Date, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	d, err := lease.ParseDate(s.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func isForeignKeyError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// Reset deletes all leases and payments. Used by demo scenarios.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM payments; DELETE FROM leases;`); err != nil {
		return fmt.Errorf("failed to reset database: %w", err)
	}
	return nil
}
