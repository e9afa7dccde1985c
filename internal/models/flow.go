package models

// Flow is a derived, directed obligation: FromUser owes ToUser Amount,
// expressed in the reporting currency. Flows are recomputed from a Snapshot
// on every evaluation and are never persisted.
type Flow struct {
	FromUser *User
	ToUser   *User

	// Amount is the obligation in Currency units. May legitimately be zero.
	Amount float64

	// Currency is the reporting currency code.
	Currency string
}

// Snapshot is an immutable point-in-time view of all persisted collections.
// The settlement engine treats it as read-only for the duration of one
// computation, so a single snapshot is safe to share across concurrent calls.
type Snapshot struct {
	Users     []User
	Events    []Event
	Splitters []Splitter
	Payments  []Payment
}
