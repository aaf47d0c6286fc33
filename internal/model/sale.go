package model

import "time"

// Sale is one committed ticket purchase.  Rows are append-only: they are
// created exactly once by the reservation engine and never updated or
// deleted.  The pair (user_id, ticket_id) is indexed so the engine's
// per-user sum stays cheap.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – buyer.
//  TicketID  – ticket class that was purchased.
//  Quantity  – number of tickets bought in this sale.
//  CreatedAt – commit timestamp, immutable.
type Sale struct {
	ID        uint64    // sales.id
	UserID    uint64    // sales.user_id
	TicketID  uint64    // sales.ticket_id
	Quantity  uint32    // sales.quantity
	CreatedAt time.Time // sales.created_at
}
