package flows

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/jdeck/cashflow/internal/currency"
	"github.com/jdeck/cashflow/internal/models"
)

const tolerance = 0.01

func testTable() currency.Table {
	return currency.NewTable(
		currency.Currency{Code: "SEK", Name: "Swedish kronor", Factor: 1},
		currency.Currency{Code: "JPY", Name: "Japanese Yen", Factor: 12.6},
		currency.Currency{Code: "USD", Name: "US Dollar", Factor: 0.11},
	)
}

func user(id string) models.User {
	return models.User{ID: id, DisplayName: id}
}

// flowAmount finds the flow from -> to in the result and returns its amount.
func flowAmount(t *testing.T, result *Result, from, to string) float64 {
	t.Helper()
	for _, f := range result.Flows {
		if f.FromUser.ID == from && f.ToUser.ID == to {
			return f.Amount
		}
	}
	t.Fatalf("no flow %s -> %s in result", from, to)
	return 0
}

func TestComputeFlowsScenarios(t *testing.T) {
	tests := []struct {
		name     string
		snap     *models.Snapshot
		validate func(t *testing.T, result *Result)
	}{
		{
			// Event cost 1000 SEK split by Alice and Bob (500 each). Bob paid
			// 1100 SEK, so Alice owes 500 * (1100/1000) = 550.
			name: "payment above event cost overcounts proportionally",
			snap: &models.Snapshot{
				Users:  []models.User{user("alice"), user("bob")},
				Events: []models.Event{{ID: "e1", Name: "Dinner", Cost: "1000", Currency: "SEK", Enabled: true}},
				Splitters: []models.Splitter{
					{ID: "s1", EventID: "e1", UserID: "alice"},
					{ID: "s2", EventID: "e1", UserID: "bob"},
				},
				Payments: []models.Payment{
					{ID: "p1", EventID: "e1", UserID: "bob", Paid: "1100", Currency: "SEK"},
				},
			},
			validate: func(t *testing.T, result *Result) {
				if got := flowAmount(t, result, "alice", "bob"); math.Abs(got-550) > tolerance {
					t.Errorf("alice -> bob = %v, want 550", got)
				}
				if got := flowAmount(t, result, "bob", "alice"); got != 0 {
					t.Errorf("bob -> alice = %v, want 0", got)
				}
			},
		},
		{
			// Same event but Bob only paid 500: Alice owes 500 * (500/1000) =
			// 250. The rest of her share is owed to no one.
			name: "partial payment leaves shortfall unattributed",
			snap: &models.Snapshot{
				Users:  []models.User{user("alice"), user("bob")},
				Events: []models.Event{{ID: "e1", Name: "Dinner", Cost: "1000", Currency: "SEK", Enabled: true}},
				Splitters: []models.Splitter{
					{ID: "s1", EventID: "e1", UserID: "alice"},
					{ID: "s2", EventID: "e1", UserID: "bob"},
				},
				Payments: []models.Payment{
					{ID: "p1", EventID: "e1", UserID: "bob", Paid: "500", Currency: "SEK"},
				},
			},
			validate: func(t *testing.T, result *Result) {
				if got := flowAmount(t, result, "alice", "bob"); math.Abs(got-250) > tolerance {
					t.Errorf("alice -> bob = %v, want 250", got)
				}
			},
		},
		{
			// Event cost 100 USD reported in SEK: (100/0.11)*1 ~= 909.09.
			// Alice is the only splitter and also the only payer; flows exist
			// only between distinct users, so everything stays at zero.
			name: "self payment excluded by distinct pair rule",
			snap: &models.Snapshot{
				Users:  []models.User{user("alice"), user("bob")},
				Events: []models.Event{{ID: "e1", Name: "Tickets", Cost: "100", Currency: "USD", Enabled: true}},
				Splitters: []models.Splitter{
					{ID: "s1", EventID: "e1", UserID: "alice"},
				},
				Payments: []models.Payment{
					{ID: "p1", EventID: "e1", UserID: "alice", Paid: "100", Currency: "USD"},
				},
			},
			validate: func(t *testing.T, result *Result) {
				if got := flowAmount(t, result, "alice", "bob"); got != 0 {
					t.Errorf("alice -> bob = %v, want 0", got)
				}
				if got := flowAmount(t, result, "bob", "alice"); got != 0 {
					t.Errorf("bob -> alice = %v, want 0", got)
				}
			},
		},
		{
			// Payment currency differs from event currency: Bob pays 10000
			// JPY toward a 1000 SEK event. 10000 JPY = 793.65 SEK, so Alice
			// owes 500 * (793.65/1000) = 396.83.
			name: "payment normalized across currencies",
			snap: &models.Snapshot{
				Users:  []models.User{user("alice"), user("bob")},
				Events: []models.Event{{ID: "e1", Name: "Dinner", Cost: "1000", Currency: "SEK", Enabled: true}},
				Splitters: []models.Splitter{
					{ID: "s1", EventID: "e1", UserID: "alice"},
					{ID: "s2", EventID: "e1", UserID: "bob"},
				},
				Payments: []models.Payment{
					{ID: "p1", EventID: "e1", UserID: "bob", Paid: "10000", Currency: "JPY"},
				},
			},
			validate: func(t *testing.T, result *Result) {
				want := 500 * ((10000 / 12.6) / 1000)
				if got := flowAmount(t, result, "alice", "bob"); math.Abs(got-want) > tolerance {
					t.Errorf("alice -> bob = %v, want %v", got, want)
				}
			},
		},
		{
			// Disabled events contribute nothing no matter what they contain.
			name: "disabled event excluded entirely",
			snap: &models.Snapshot{
				Users:  []models.User{user("alice"), user("bob")},
				Events: []models.Event{{ID: "e1", Name: "Old", Cost: "1000", Currency: "SEK", Enabled: false}},
				Splitters: []models.Splitter{
					{ID: "s1", EventID: "e1", UserID: "alice"},
					{ID: "s2", EventID: "e1", UserID: "bob"},
				},
				Payments: []models.Payment{
					{ID: "p1", EventID: "e1", UserID: "bob", Paid: "1100", Currency: "SEK"},
				},
			},
			validate: func(t *testing.T, result *Result) {
				for _, f := range result.Flows {
					if f.Amount != 0 {
						t.Errorf("flow %s -> %s = %v, want 0", f.FromUser.ID, f.ToUser.ID, f.Amount)
					}
				}
			},
		},
		{
			// A user who never declared participation owes nothing, even
			// when others paid.
			name: "non splitter owes nothing",
			snap: &models.Snapshot{
				Users:  []models.User{user("alice"), user("bob"), user("carol")},
				Events: []models.Event{{ID: "e1", Name: "Dinner", Cost: "900", Currency: "SEK", Enabled: true}},
				Splitters: []models.Splitter{
					{ID: "s1", EventID: "e1", UserID: "alice"},
					{ID: "s2", EventID: "e1", UserID: "bob"},
					{ID: "s3", EventID: "e1", UserID: "carol"},
				},
				Payments: []models.Payment{
					{ID: "p1", EventID: "e1", UserID: "bob", Paid: "900", Currency: "SEK"},
				},
			},
			validate: func(t *testing.T, result *Result) {
				// Each splitter's share is 300; Bob covered the full cost.
				if got := flowAmount(t, result, "alice", "bob"); math.Abs(got-300) > tolerance {
					t.Errorf("alice -> bob = %v, want 300", got)
				}
				if got := flowAmount(t, result, "carol", "bob"); math.Abs(got-300) > tolerance {
					t.Errorf("carol -> bob = %v, want 300", got)
				}
				if got := flowAmount(t, result, "alice", "carol"); got != 0 {
					t.Errorf("alice -> carol = %v, want 0", got)
				}
			},
		},
		{
			// Opposite flows are computed independently; no netting collapses
			// them.
			name: "no netting between opposite flows",
			snap: &models.Snapshot{
				Users: []models.User{user("alice"), user("bob")},
				Events: []models.Event{
					{ID: "e1", Name: "Lunch", Cost: "200", Currency: "SEK", Enabled: true},
					{ID: "e2", Name: "Taxi", Cost: "100", Currency: "SEK", Enabled: true},
				},
				Splitters: []models.Splitter{
					{ID: "s1", EventID: "e1", UserID: "alice"},
					{ID: "s2", EventID: "e1", UserID: "bob"},
					{ID: "s3", EventID: "e2", UserID: "alice"},
					{ID: "s4", EventID: "e2", UserID: "bob"},
				},
				Payments: []models.Payment{
					{ID: "p1", EventID: "e1", UserID: "bob", Paid: "200", Currency: "SEK"},
					{ID: "p2", EventID: "e2", UserID: "alice", Paid: "100", Currency: "SEK"},
				},
			},
			validate: func(t *testing.T, result *Result) {
				if got := flowAmount(t, result, "alice", "bob"); math.Abs(got-100) > tolerance {
					t.Errorf("alice -> bob = %v, want 100", got)
				}
				if got := flowAmount(t, result, "bob", "alice"); math.Abs(got-50) > tolerance {
					t.Errorf("bob -> alice = %v, want 50", got)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ComputeFlows(tt.snap, testTable(), "SEK")
			if err != nil {
				t.Fatalf("ComputeFlows failed: %v", err)
			}
			tt.validate(t, result)
		})
	}
}

func TestComputeFlowsEmitsAllOrderedPairs(t *testing.T) {
	snap := &models.Snapshot{
		Users: []models.User{user("alice"), user("bob"), user("carol")},
	}
	result, err := ComputeFlows(snap, testTable(), "SEK")
	if err != nil {
		t.Fatalf("ComputeFlows failed: %v", err)
	}

	if len(result.Flows) != 6 {
		t.Fatalf("flow count = %d, want 6 (3 users, ordered distinct pairs)", len(result.Flows))
	}

	// Pair order follows the user collection: outer loop is the debtor.
	wantPairs := [][2]string{
		{"alice", "bob"}, {"alice", "carol"},
		{"bob", "alice"}, {"bob", "carol"},
		{"carol", "alice"}, {"carol", "bob"},
	}
	for i, want := range wantPairs {
		f := result.Flows[i]
		if f.FromUser.ID != want[0] || f.ToUser.ID != want[1] {
			t.Errorf("flow[%d] = %s -> %s, want %s -> %s", i, f.FromUser.ID, f.ToUser.ID, want[0], want[1])
		}
		if f.Amount != 0 {
			t.Errorf("flow[%d] amount = %v, want 0", i, f.Amount)
		}
		if f.Currency != "SEK" {
			t.Errorf("flow[%d] currency = %s, want SEK", i, f.Currency)
		}
	}
}

func TestComputeFlowsDegenerateEvent(t *testing.T) {
	snap := &models.Snapshot{
		Users:  []models.User{user("alice"), user("bob")},
		Events: []models.Event{{ID: "e1", Name: "Orphan", Cost: "1000", Currency: "SEK", Enabled: true}},
		Payments: []models.Payment{
			{ID: "p1", EventID: "e1", UserID: "bob", Paid: "1000", Currency: "SEK"},
		},
	}

	result, err := ComputeFlows(snap, testTable(), "SEK")
	if err != nil {
		t.Fatalf("ComputeFlows failed: %v", err)
	}
	if len(result.Degenerate) != 1 {
		t.Fatalf("degenerate count = %d, want 1", len(result.Degenerate))
	}
	if result.Degenerate[0].EventID != "e1" {
		t.Errorf("degenerate event = %s, want e1", result.Degenerate[0].EventID)
	}
	for _, f := range result.Flows {
		if f.Amount != 0 {
			t.Errorf("flow %s -> %s = %v, want 0 (degenerate event skipped)", f.FromUser.ID, f.ToUser.ID, f.Amount)
		}
	}
}

func TestComputeFlowsUnknownCurrency(t *testing.T) {
	base := func() *models.Snapshot {
		return &models.Snapshot{
			Users:  []models.User{user("alice"), user("bob")},
			Events: []models.Event{{ID: "e1", Name: "Dinner", Cost: "1000", Currency: "SEK", Enabled: true}},
			Splitters: []models.Splitter{
				{ID: "s1", EventID: "e1", UserID: "alice"},
				{ID: "s2", EventID: "e1", UserID: "bob"},
			},
			Payments: []models.Payment{
				{ID: "p1", EventID: "e1", UserID: "bob", Paid: "500", Currency: "SEK"},
			},
		}
	}

	t.Run("event currency", func(t *testing.T) {
		snap := base()
		snap.Events[0].Currency = "XXX"
		result, err := ComputeFlows(snap, testTable(), "SEK")
		if err == nil {
			t.Fatalf("ComputeFlows succeeded with %d flows, want error", len(result.Flows))
		}
		var unknownErr *currency.UnknownCurrencyError
		if !errors.As(err, &unknownErr) {
			t.Fatalf("expected UnknownCurrencyError, got %T: %v", err, err)
		}
		if !strings.Contains(err.Error(), "e1") {
			t.Errorf("error %q does not identify event e1", err)
		}
	})

	t.Run("payment currency", func(t *testing.T) {
		snap := base()
		snap.Payments[0].Currency = "XXX"
		_, err := ComputeFlows(snap, testTable(), "SEK")
		if err == nil {
			t.Fatal("ComputeFlows succeeded, want error")
		}
		if !strings.Contains(err.Error(), "p1") {
			t.Errorf("error %q does not identify payment p1", err)
		}
	})

	t.Run("primary currency", func(t *testing.T) {
		_, err := ComputeFlows(base(), testTable(), "XXX")
		if err == nil {
			t.Fatal("ComputeFlows succeeded, want error")
		}
	})
}

func TestComputeFlowsMalformedAmount(t *testing.T) {
	snap := &models.Snapshot{
		Users:  []models.User{user("alice"), user("bob")},
		Events: []models.Event{{ID: "e1", Name: "Dinner", Cost: "lots", Currency: "SEK", Enabled: true}},
		Splitters: []models.Splitter{
			{ID: "s1", EventID: "e1", UserID: "alice"},
			{ID: "s2", EventID: "e1", UserID: "bob"},
		},
	}

	_, err := ComputeFlows(snap, testTable(), "SEK")
	if err == nil {
		t.Fatal("ComputeFlows succeeded, want error")
	}
	var malformedErr *currency.MalformedAmountError
	if !errors.As(err, &malformedErr) {
		t.Fatalf("expected MalformedAmountError, got %T: %v", err, err)
	}
	if !strings.Contains(err.Error(), "e1") {
		t.Errorf("error %q does not identify event e1", err)
	}
}

func TestComputeFlowsZeroCostEvent(t *testing.T) {
	snap := &models.Snapshot{
		Users:  []models.User{user("alice"), user("bob")},
		Events: []models.Event{{ID: "e1", Name: "Freebie", Cost: "0", Currency: "SEK", Enabled: true}},
		Splitters: []models.Splitter{
			{ID: "s1", EventID: "e1", UserID: "alice"},
			{ID: "s2", EventID: "e1", UserID: "bob"},
		},
		Payments: []models.Payment{
			{ID: "p1", EventID: "e1", UserID: "bob", Paid: "100", Currency: "SEK"},
		},
	}

	result, err := ComputeFlows(snap, testTable(), "SEK")
	if err != nil {
		t.Fatalf("ComputeFlows failed: %v", err)
	}
	for _, f := range result.Flows {
		if math.IsNaN(f.Amount) || math.IsInf(f.Amount, 0) {
			t.Fatalf("flow %s -> %s = %v, want finite", f.FromUser.ID, f.ToUser.ID, f.Amount)
		}
		if f.Amount != 0 {
			t.Errorf("flow %s -> %s = %v, want 0", f.FromUser.ID, f.ToUser.ID, f.Amount)
		}
	}
}

func TestComputeFlowsDeterministic(t *testing.T) {
	snap := &models.Snapshot{
		Users: []models.User{user("alice"), user("bob"), user("carol")},
		Events: []models.Event{
			{ID: "e1", Name: "Lunch", Cost: "300", Currency: "SEK", Enabled: true},
			{ID: "e2", Name: "Tickets", Cost: "100", Currency: "USD", Enabled: true},
		},
		Splitters: []models.Splitter{
			{ID: "s1", EventID: "e1", UserID: "alice"},
			{ID: "s2", EventID: "e1", UserID: "bob"},
			{ID: "s3", EventID: "e2", UserID: "bob"},
			{ID: "s4", EventID: "e2", UserID: "carol"},
		},
		Payments: []models.Payment{
			{ID: "p1", EventID: "e1", UserID: "bob", Paid: "300", Currency: "SEK"},
			{ID: "p2", EventID: "e2", UserID: "carol", Paid: "60", Currency: "USD"},
		},
	}
	table := testTable()

	first, err := ComputeFlows(snap, table, "SEK")
	if err != nil {
		t.Fatalf("ComputeFlows failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := ComputeFlows(snap, table, "SEK")
		if err != nil {
			t.Fatalf("ComputeFlows failed: %v", err)
		}
		if len(again.Flows) != len(first.Flows) {
			t.Fatalf("flow count changed between runs: %d vs %d", len(again.Flows), len(first.Flows))
		}
		for j := range first.Flows {
			a, b := first.Flows[j], again.Flows[j]
			if a.FromUser.ID != b.FromUser.ID || a.ToUser.ID != b.ToUser.ID || a.Amount != b.Amount {
				t.Fatalf("flow[%d] differs between runs: %+v vs %+v", j, a, b)
			}
		}
	}
}
