// Package flows implements the settlement computation engine: turning a
// snapshot of users, events, splitters and payments into the directed,
// amount-weighted obligation graph between every ordered pair of users.
package flows

import (
	"fmt"

	"github.com/jdeck/cashflow/internal/currency"
	"github.com/jdeck/cashflow/internal/models"
)

// DegenerateSplitError reports an enabled event that has no splitters, which
// makes the per-participant share undefined. The event is skipped and reported
// instead of producing an undefined amount.
type DegenerateSplitError struct {
	EventID string
}

func (e *DegenerateSplitError) Error() string {
	return fmt.Sprintf("event %s has no splitters", e.EventID)
}

// Result holds the computed obligation graph plus any events that were
// skipped as degenerate. Degenerate events never contribute to flows but are
// always surfaced so callers can report them.
type Result struct {
	Flows      []models.Flow
	Degenerate []DegenerateSplitError
}

// eventShare is the per-event state shared across all user pairs: the cost
// normalized into the reporting currency, the splitter set, and each
// splitter's even share of the cost.
type eventShare struct {
	id        string
	cost      float64
	splitters map[string]struct{}
	part      float64
}

// ComputeFlows derives the pairwise obligation graph from a snapshot.
//
// For every ordered pair of distinct users (outer loop = debtor, inner loop =
// creditor, in snapshot user order), each enabled event where the debtor is a
// splitter contributes partAmount × (paid / eventCost) per payment the
// creditor made toward the event, where partAmount = eventCost / |splitters|.
// The denominator is the event's total cost, not the total collected: if
// payments undershoot the cost, the shortfall is owed to no one, and if they
// overshoot, flows overcount. That is the intended accounting, not a bug.
//
// A flow is emitted for every ordered distinct pair, including zero-amount
// ones. No netting occurs: the (A,B) and (B,A) flows are independent.
//
// The snapshot is treated as read-only; the computation is pure and safe to
// run concurrently against the same snapshot. An unresolvable currency code
// or an unparseable amount aborts with an error naming the offending record.
func ComputeFlows(snap *models.Snapshot, table currency.Table, primaryCurrency string) (*Result, error) {
	if !table.Has(primaryCurrency) {
		return nil, fmt.Errorf("primary currency: %w", &currency.UnknownCurrencyError{Code: primaryCurrency})
	}

	splittersByEvent := make(map[string]map[string]struct{})
	for _, s := range snap.Splitters {
		set, ok := splittersByEvent[s.EventID]
		if !ok {
			set = make(map[string]struct{})
			splittersByEvent[s.EventID] = set
		}
		set[s.UserID] = struct{}{}
	}

	result := &Result{}

	// Normalize each enabled event's cost once, up front, instead of once per
	// user pair. Order follows snap.Events so error and degenerate reporting
	// stay deterministic.
	shares := make([]eventShare, 0, len(snap.Events))
	shareByEvent := make(map[string]int, len(snap.Events))
	for _, ev := range snap.Events {
		if !ev.Enabled {
			continue
		}
		splitters := splittersByEvent[ev.ID]
		if len(splitters) == 0 {
			result.Degenerate = append(result.Degenerate, DegenerateSplitError{EventID: ev.ID})
			continue
		}
		raw, err := currency.ParseAmount(ev.Cost)
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", ev.ID, err)
		}
		cost, err := table.Normalize(raw, ev.Currency, primaryCurrency)
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", ev.ID, err)
		}
		shareByEvent[ev.ID] = len(shares)
		shares = append(shares, eventShare{
			id:        ev.ID,
			cost:      cost,
			splitters: splitters,
			part:      cost / float64(len(splitters)),
		})
	}

	// Normalize payments once and index them by (event, payer).
	type payerKey struct {
		eventID string
		userID  string
	}
	paidBy := make(map[payerKey][]float64, len(snap.Payments))
	for _, p := range snap.Payments {
		if _, ok := shareByEvent[p.EventID]; !ok {
			continue // disabled, degenerate or unknown event
		}
		raw, err := currency.ParseAmount(p.Paid)
		if err != nil {
			return nil, fmt.Errorf("payment %s: %w", p.ID, err)
		}
		paid, err := table.Normalize(raw, p.Currency, primaryCurrency)
		if err != nil {
			return nil, fmt.Errorf("payment %s: %w", p.ID, err)
		}
		key := payerKey{eventID: p.EventID, userID: p.UserID}
		paidBy[key] = append(paidBy[key], paid)
	}

	result.Flows = make([]models.Flow, 0, len(snap.Users)*len(snap.Users))
	for i := range snap.Users {
		fromUser := &snap.Users[i]
		for j := range snap.Users {
			toUser := &snap.Users[j]
			if fromUser.ID == toUser.ID {
				continue
			}

			flow := models.Flow{
				FromUser: fromUser,
				ToUser:   toUser,
				Currency: primaryCurrency,
			}
			for k := range shares {
				share := &shares[k]
				// A user who is not a declared participant owes nothing for
				// this event, regardless of payments made.
				if _, ok := share.splitters[fromUser.ID]; !ok {
					continue
				}
				if share.cost == 0 {
					// A zero-cost event has nothing to attribute; skipping
					// avoids 0 × Inf turning the flow into NaN.
					continue
				}
				for _, paid := range paidBy[payerKey{eventID: share.id, userID: toUser.ID}] {
					flow.Amount += share.part * (paid / share.cost)
				}
			}
			result.Flows = append(result.Flows, flow)
		}
	}

	return result, nil
}
