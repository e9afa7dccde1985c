// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/jdeck/cashflow/internal/models"
)

// ErrNotFound is returned when a record does not exist. Implementations wrap
// it with record details; callers match with errors.Is.
var ErrNotFound = errors.New("record not found")

// Store defines the persistence interface for the four record collections.
// This abstraction allows swapping storage backends without changing the
// service layer.
type Store interface {
	// UpsertUser creates the user or refreshes an existing record in place.
	UpsertUser(ctx context.Context, user *models.User) error

	// ListUsers returns all users in a stable order.
	ListUsers(ctx context.Context) ([]models.User, error)

	// CreateEvent persists a new event. ID, CreatedAt and Enabled are
	// populated by the store if unset.
	CreateEvent(ctx context.Context, event *models.Event) error

	// GetEvent retrieves an event by ID.
	GetEvent(ctx context.Context, eventID string) (*models.Event, error)

	// ListEvents returns all events, including disabled ones, in creation order.
	ListEvents(ctx context.Context) ([]models.Event, error)

	// DisableEvent marks an event as logically deleted. The record and its
	// splitters and payments are kept.
	DisableEvent(ctx context.Context, eventID string) error

	// AddSplitter links a user to an event as a cost-sharing participant.
	// Adding an existing (event, user) link is a no-op: at most one splitter
	// exists per pair.
	AddSplitter(ctx context.Context, splitter *models.Splitter) error

	// RemoveSplitter removes the (event, user) participation link.
	RemoveSplitter(ctx context.Context, eventID, userID string) error

	// ListSplitters returns all splitter records in creation order.
	ListSplitters(ctx context.Context) ([]models.Splitter, error)

	// CreatePayment persists a new payment. ID and CreatedAt are populated by
	// the store if unset.
	CreatePayment(ctx context.Context, payment *models.Payment) error

	// DeletePayment removes a payment by ID.
	DeletePayment(ctx context.Context, paymentID string) error

	// ListPayments returns all payments in creation order.
	ListPayments(ctx context.Context) ([]models.Payment, error)

	// Snapshot produces a consistent point-in-time view of all collections
	// for the settlement engine.
	Snapshot(ctx context.Context) (*models.Snapshot, error)

	// Close releases any resources held by the store.
	Close() error
}
