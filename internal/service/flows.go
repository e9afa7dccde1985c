package service

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/jdeck/cashflow/internal/currency"
	"github.com/jdeck/cashflow/internal/flows"
	"github.com/jdeck/cashflow/internal/metrics"
	"github.com/jdeck/cashflow/internal/models"
	"github.com/jdeck/cashflow/internal/storage"
)

// FlowService computes settlement flows. Every call reads a fresh snapshot
// and reruns the engine; nothing derived is cached or persisted.
type FlowService struct {
	store   storage.Store
	table   currency.Table
	primary string
	metrics *metrics.FlowMetrics
}

// NewFlowService creates a new FlowService. metrics may be nil.
func NewFlowService(store storage.Store, table currency.Table, primaryCurrency string, m *metrics.FlowMetrics) *FlowService {
	return &FlowService{store: store, table: table, primary: primaryCurrency, metrics: m}
}

// UserView is the user identity attached to a flow.
type UserView struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	PhotoURL    string `json:"photo_url,omitempty"`
}

// FlowView is one directed obligation with its display rendering.
type FlowView struct {
	FromUser UserView               `json:"from_user"`
	ToUser   UserView               `json:"to_user"`
	Amount   float64                `json:"amount"`
	Currency string                 `json:"currency"`
	Display  currency.DisplayAmount `json:"display"`
}

// FlowsReport is the full obligation graph plus warnings for events that
// were skipped as degenerate.
type FlowsReport struct {
	Flows    []FlowView `json:"flows"`
	Warnings []string   `json:"warnings,omitempty"`
}

// ComputeFlows derives the pairwise obligation graph from the current state.
func (s *FlowService) ComputeFlows(ctx context.Context) (*FlowsReport, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		s.metrics.IncFailure()
		return nil, err
	}

	start := time.Now()
	result, err := flows.ComputeFlows(snap, s.table, s.primary)
	if err != nil {
		s.metrics.IncFailure()
		slog.Error("Settlement computation failed", "error", err)
		return nil, err
	}
	s.metrics.ObserveCompute(time.Since(start), len(result.Flows), len(result.Degenerate))

	report := &FlowsReport{Flows: make([]FlowView, 0, len(result.Flows))}
	for _, flow := range result.Flows {
		display, err := s.table.Display(flow.Amount, flow.Currency)
		if err != nil {
			return nil, err
		}
		report.Flows = append(report.Flows, FlowView{
			FromUser: userView(flow.FromUser),
			ToUser:   userView(flow.ToUser),
			Amount:   flow.Amount,
			Currency: flow.Currency,
			Display:  display,
		})
	}
	for _, d := range result.Degenerate {
		slog.Warn("Event skipped during settlement", "event_id", d.EventID, "reason", "no splitters")
		report.Warnings = append(report.Warnings, d.Error())
	}

	slog.Debug("Settlement computed",
		"users", len(snap.Users),
		"events", len(snap.Events),
		"flows", len(report.Flows),
		"degenerate", len(result.Degenerate),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return report, nil
}

// PaymentView is one payment inside an event summary.
type PaymentView struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Paid      string `json:"paid"`
	Currency  string `json:"currency"`
	CreatedAt int64  `json:"created_at"`
}

// EventSummary is the read model for one event: its record, its splitters,
// its payments, and the total paid so far in the reporting currency.
type EventSummary struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Cost        string                 `json:"cost"`
	Currency    string                 `json:"currency"`
	CreatedAt   int64                  `json:"created_at"`
	Enabled     bool                   `json:"enabled"`
	SplitterIDs []string               `json:"splitter_ids"`
	Payments    []PaymentView          `json:"payments"`
	TotalPaid   currency.DisplayAmount `json:"total_paid"`
}

// EventSummaries builds the read model for all enabled events.
func (s *FlowService) EventSummaries(ctx context.Context) ([]EventSummary, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	splitterIDs := make(map[string][]string)
	for _, sp := range snap.Splitters {
		splitterIDs[sp.EventID] = append(splitterIDs[sp.EventID], sp.UserID)
	}
	paymentsByEvent := make(map[string][]models.Payment)
	for _, p := range snap.Payments {
		paymentsByEvent[p.EventID] = append(paymentsByEvent[p.EventID], p)
	}

	summaries := make([]EventSummary, 0, len(snap.Events))
	for _, ev := range snap.Events {
		if !ev.Enabled {
			continue
		}

		var total float64
		payments := make([]PaymentView, 0, len(paymentsByEvent[ev.ID]))
		for _, p := range paymentsByEvent[ev.ID] {
			raw, err := currency.ParseAmount(p.Paid)
			if err != nil {
				return nil, err
			}
			paid, err := s.table.Normalize(raw, p.Currency, s.primary)
			if err != nil {
				return nil, err
			}
			total += paid
			payments = append(payments, PaymentView{
				ID:        p.ID,
				UserID:    p.UserID,
				Paid:      p.Paid,
				Currency:  p.Currency,
				CreatedAt: p.CreatedAt,
			})
		}

		display, err := s.table.Display(math.Ceil(total), s.primary)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, EventSummary{
			ID:          ev.ID,
			Name:        ev.Name,
			Cost:        ev.Cost,
			Currency:    ev.Currency,
			CreatedAt:   ev.CreatedAt,
			Enabled:     ev.Enabled,
			SplitterIDs: splitterIDs[ev.ID],
			Payments:    payments,
			TotalPaid:   display,
		})
	}
	return summaries, nil
}

func userView(u *models.User) UserView {
	if u == nil {
		return UserView{}
	}
	return UserView{ID: u.ID, DisplayName: u.DisplayName, PhotoURL: u.PhotoURL}
}
