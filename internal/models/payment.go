package models

// Payment represents money a user contributed toward an event.
// A payment's currency may differ from the event's currency; both are
// normalized into the reporting currency during settlement.
type Payment struct {
	// ID is the unique identifier for the payment (UUID format).
	ID string

	// UserID is the user who paid.
	UserID string

	// EventID is the event the payment was made toward.
	EventID string

	// Paid is the amount as a base-10 numeric string, in Currency units.
	// Stored exactly as recorded, parsed at computation time.
	Paid string

	// Currency is the code of the currency Paid is denominated in.
	Currency string

	// CreatedAt is the Unix timestamp when the payment was recorded.
	CreatedAt int64
}
