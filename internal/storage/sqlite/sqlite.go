// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/jdeck/cashflow/internal/models"
	"github.com/jdeck/cashflow/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// UpsertUser creates or refreshes a user record.
func (s *SQLiteStore) UpsertUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.LastLogin == 0 {
		user.LastLogin = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, display_name, photo_url, last_login) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET display_name = excluded.display_name,
		 photo_url = excluded.photo_url, last_login = excluded.last_login`,
		user.ID, user.DisplayName, user.PhotoURL, user.LastLogin,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// ListUsers returns all users ordered by ID for stable iteration.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, display_name, photo_url, last_login FROM users ORDER BY id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.DisplayName, &u.PhotoURL, &u.LastLogin); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// CreateEvent persists a new event, generating ID and CreatedAt if unset.
// Events are created enabled.
func (s *SQLiteStore) CreateEvent(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt == 0 {
		event.CreatedAt = time.Now().Unix()
	}
	event.Enabled = true

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO events (id, name, cost, currency, created_at, enabled) VALUES (?, ?, ?, ?, ?, 1)",
		event.ID, event.Name, event.Cost, event.Currency, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// GetEvent retrieves an event by ID.
func (s *SQLiteStore) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	event := &models.Event{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, cost, currency, created_at, enabled FROM events WHERE id = ?",
		eventID,
	).Scan(&event.ID, &event.Name, &event.Cost, &event.Currency, &event.CreatedAt, &event.Enabled)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("event %s: %w", eventID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return event, nil
}

// ListEvents returns all events, including disabled ones, in creation order.
func (s *SQLiteStore) ListEvents(ctx context.Context) ([]models.Event, error) {
	return s.listEvents(ctx, s.db)
}

// DisableEvent marks an event as logically deleted.
func (s *SQLiteStore) DisableEvent(ctx context.Context, eventID string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE events SET enabled = 0 WHERE id = ?", eventID)
	if err != nil {
		return fmt.Errorf("failed to disable event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to disable event: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("event %s: %w", eventID, storage.ErrNotFound)
	}
	return nil
}

// AddSplitter links a user to an event. Duplicate (event, user) links are
// ignored so the pair stays unique.
func (s *SQLiteStore) AddSplitter(ctx context.Context, splitter *models.Splitter) error {
	if splitter.ID == "" {
		splitter.ID = uuid.New().String()
	}
	if splitter.CreatedAt == 0 {
		splitter.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO splitters (id, event_id, user_id, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(event_id, user_id) DO NOTHING`,
		splitter.ID, splitter.EventID, splitter.UserID, splitter.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert splitter: %w", err)
	}
	return nil
}

// RemoveSplitter removes the (event, user) participation link.
func (s *SQLiteStore) RemoveSplitter(ctx context.Context, eventID, userID string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM splitters WHERE event_id = ? AND user_id = ?",
		eventID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove splitter: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to remove splitter: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("splitter for event %s user %s: %w", eventID, userID, storage.ErrNotFound)
	}
	return nil
}

// ListSplitters returns all splitter records in creation order.
func (s *SQLiteStore) ListSplitters(ctx context.Context) ([]models.Splitter, error) {
	return s.listSplitters(ctx, s.db)
}

// CreatePayment persists a new payment, generating ID and CreatedAt if unset.
func (s *SQLiteStore) CreatePayment(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	if payment.CreatedAt == 0 {
		payment.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO payments (id, user_id, event_id, paid, currency, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		payment.ID, payment.UserID, payment.EventID, payment.Paid, payment.Currency, payment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

// DeletePayment removes a payment by ID.
func (s *SQLiteStore) DeletePayment(ctx context.Context, paymentID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM payments WHERE id = ?", paymentID)
	if err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("payment %s: %w", paymentID, storage.ErrNotFound)
	}
	return nil
}

// ListPayments returns all payments in creation order.
func (s *SQLiteStore) ListPayments(ctx context.Context) ([]models.Payment, error) {
	return s.listPayments(ctx, s.db)
}

// Snapshot reads all four collections inside one read transaction so the
// settlement engine sees a consistent point-in-time view.
func (s *SQLiteStore) Snapshot(ctx context.Context) (*models.Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	snap := &models.Snapshot{}

	rows, err := tx.QueryContext(ctx,
		"SELECT id, display_name, photo_url, last_login FROM users ORDER BY id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot users: %w", err)
	}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.DisplayName, &u.PhotoURL, &u.LastLogin); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		snap.Users = append(snap.Users, u)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	if snap.Events, err = s.listEvents(ctx, tx); err != nil {
		return nil, err
	}
	if snap.Splitters, err = s.listSplitters(ctx, tx); err != nil {
		return nil, err
	}
	if snap.Payments, err = s.listPayments(ctx, tx); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit snapshot transaction: %w", err)
	}
	return snap, nil
}

// querier covers both *sql.DB and *sql.Tx so list helpers serve plain reads
// and snapshot reads alike.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *SQLiteStore) listEvents(ctx context.Context, q querier) ([]models.Event, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT id, name, cost, currency, created_at, enabled FROM events ORDER BY created_at, id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.Name, &e.Cost, &e.Currency, &e.CreatedAt, &e.Enabled); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return events, nil
}

func (s *SQLiteStore) listSplitters(ctx context.Context, q querier) ([]models.Splitter, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT id, event_id, user_id, created_at FROM splitters ORDER BY created_at, id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list splitters: %w", err)
	}
	defer rows.Close()

	var splitters []models.Splitter
	for rows.Next() {
		var sp models.Splitter
		if err := rows.Scan(&sp.ID, &sp.EventID, &sp.UserID, &sp.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan splitter: %w", err)
		}
		splitters = append(splitters, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate splitters: %w", err)
	}
	return splitters, nil
}

func (s *SQLiteStore) listPayments(ctx context.Context, q querier) ([]models.Payment, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT id, user_id, event_id, paid, currency, created_at FROM payments ORDER BY created_at, id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []models.Payment
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(&p.ID, &p.UserID, &p.EventID, &p.Paid, &p.Currency, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}
	return payments, nil
}
