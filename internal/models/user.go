package models

// User represents a person who can split events and record payments.
// Identity comes from an external provider; ID is treated as an opaque key.
type User struct {
	// ID is the unique identifier for the user.
	ID string

	// DisplayName is the human-readable name shown next to flows.
	DisplayName string

	// PhotoURL is an optional profile picture reference.
	PhotoURL string

	// LastLogin is the Unix timestamp of the user's most recent login.
	LastLogin int64
}
