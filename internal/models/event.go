package models

// Event represents a shared expense, e.g. "Breakfast at Bishops".
// The set of users sharing its cost is expressed through Splitter records;
// money contributed toward it is expressed through Payment records.
type Event struct {
	// ID is the unique identifier for the event (UUID format).
	ID string

	// Name is the human-readable name of the event.
	Name string

	// Cost is the total cost as a base-10 numeric string, in Currency units.
	// It is stored exactly as recorded and parsed at computation time.
	Cost string

	// Currency is the code of the currency Cost is denominated in.
	Currency string

	// CreatedAt is the Unix timestamp when the event was created.
	CreatedAt int64

	// Enabled is false for logically deleted events. Disabled events are
	// excluded from all computation but their records are kept.
	Enabled bool
}

// Splitter links a user to an event as a declared cost-sharing participant.
// At most one splitter exists per (event, user) pair.
type Splitter struct {
	// ID is the unique identifier for the splitter record (UUID format).
	ID string

	// EventID is the event whose cost is shared.
	EventID string

	// UserID is the participating user.
	UserID string

	// CreatedAt is the Unix timestamp when the user became a splitter.
	CreatedAt int64
}
