// Package service implements the application services between the HTTP layer
// and storage: record lifecycle (ledger) and settlement computation (flows).
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jdeck/cashflow/internal/currency"
	"github.com/jdeck/cashflow/internal/models"
	"github.com/jdeck/cashflow/internal/storage"
)

// LedgerService manages the lifecycle of users, events, splitters and
// payments. Monetary writes are validated against the currency table up
// front so bad records are rejected before they can poison a settlement run.
type LedgerService struct {
	store storage.Store
	table currency.Table
}

// NewLedgerService creates a new LedgerService with the given storage backend
// and currency table.
func NewLedgerService(store storage.Store, table currency.Table) *LedgerService {
	return &LedgerService{store: store, table: table}
}

// UpsertUser records a user, refreshing display data and last login on
// repeat calls. Identity is external; the ID is opaque here.
func (s *LedgerService) UpsertUser(ctx context.Context, id, displayName, photoURL string) (*models.User, error) {
	if id == "" {
		return nil, fmt.Errorf("user id must not be empty")
	}
	user := &models.User{ID: id, DisplayName: displayName, PhotoURL: photoURL}
	if err := s.store.UpsertUser(ctx, user); err != nil {
		return nil, err
	}
	slog.Info("User upserted", "user_id", user.ID, "display_name", user.DisplayName)
	return user, nil
}

// ListUsers returns all known users.
func (s *LedgerService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.store.ListUsers(ctx)
}

// CreateEvent records a new shared expense. The cost must be a base-10
// integer string and the currency must resolve in the table.
func (s *LedgerService) CreateEvent(ctx context.Context, name, cost, currencyCode string) (*models.Event, error) {
	if !s.table.Has(currencyCode) {
		return nil, &currency.UnknownCurrencyError{Code: currencyCode}
	}
	if _, err := currency.ParseAmount(cost); err != nil {
		return nil, err
	}

	event := &models.Event{Name: name, Cost: cost, Currency: currencyCode}
	if err := s.store.CreateEvent(ctx, event); err != nil {
		return nil, err
	}
	slog.Info("Event created", "event_id", event.ID, "name", event.Name, "cost", event.Cost, "currency", event.Currency)
	return event, nil
}

// DisableEvent logically deletes an event. Its splitters and payments are
// kept but stop contributing to settlement.
func (s *LedgerService) DisableEvent(ctx context.Context, eventID string) error {
	if err := s.store.DisableEvent(ctx, eventID); err != nil {
		return err
	}
	slog.Info("Event disabled", "event_id", eventID)
	return nil
}

// AddSplitter declares a user as a cost-sharing participant of an event.
// Adding an existing link is a no-op.
func (s *LedgerService) AddSplitter(ctx context.Context, eventID, userID string) (*models.Splitter, error) {
	if _, err := s.store.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	splitter := &models.Splitter{EventID: eventID, UserID: userID}
	if err := s.store.AddSplitter(ctx, splitter); err != nil {
		return nil, err
	}
	slog.Info("Splitter added", "event_id", eventID, "user_id", userID)
	return splitter, nil
}

// RemoveSplitter withdraws a user's participation in an event.
func (s *LedgerService) RemoveSplitter(ctx context.Context, eventID, userID string) error {
	if err := s.store.RemoveSplitter(ctx, eventID, userID); err != nil {
		return err
	}
	slog.Info("Splitter removed", "event_id", eventID, "user_id", userID)
	return nil
}

// AddPayment records money a user contributed toward an event.
func (s *LedgerService) AddPayment(ctx context.Context, eventID, userID, paid, currencyCode string) (*models.Payment, error) {
	if paid == "" {
		return nil, fmt.Errorf("payment amount must not be empty")
	}
	if !s.table.Has(currencyCode) {
		return nil, &currency.UnknownCurrencyError{Code: currencyCode}
	}
	if _, err := currency.ParseAmount(paid); err != nil {
		return nil, err
	}
	if _, err := s.store.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}

	payment := &models.Payment{UserID: userID, EventID: eventID, Paid: paid, Currency: currencyCode}
	if err := s.store.CreatePayment(ctx, payment); err != nil {
		return nil, err
	}
	slog.Info("Payment added", "payment_id", payment.ID, "event_id", eventID, "user_id", userID, "paid", paid, "currency", currencyCode)
	return payment, nil
}

// DeletePayment removes a payment record.
func (s *LedgerService) DeletePayment(ctx context.Context, paymentID string) error {
	if err := s.store.DeletePayment(ctx, paymentID); err != nil {
		return err
	}
	slog.Info("Payment deleted", "payment_id", paymentID)
	return nil
}
