// Package models defines the core domain records for Cash Flow.
//
// # Records
//
// Four collections are persisted:
//   - User: a person sharing costs
//   - Event: a shared expense with a total cost in some currency
//   - Splitter: a participation link ("this user shares this event's cost")
//   - Payment: money a user contributed toward an event
//
// Flow is derived, never stored: it is recomputed from a Snapshot of the four
// collections on every evaluation.
//
// # Design Principles
//
//  1. Records are plain typed structs; relationships use ID strings, not pointers.
//  2. Monetary inputs (Event.Cost, Payment.Paid) are kept as the recorded numeric
//     strings. Parsing and currency conversion happen at computation time, so a
//     bad record fails loudly there instead of silently corrupting results.
//  3. The settlement engine only ever sees an immutable Snapshot; mutation goes
//     through the storage layer.
package models
