package model

import "time"

// TicketClass is one purchasable ticket type under an event, with a
// finite total capacity and a per-user purchase cap.  QuantitySold is
// mutated exclusively by the reservation engine; the invariant
// QuantitySold <= QuantityTotal holds at all times, including under
// concurrent purchases.
//
// Fields:
//  ID            – primary key identifier.
//  EventID       – owning event.
//  Name          – display name of the ticket class (e.g. "Early Bird").
//  PriceCents    – price per ticket in cents.
//  Currency      – ISO currency code for the price.
//  QuantityTotal – total sellable capacity, fixed outside the engine.
//  QuantitySold  – committed quantity, monotonically non-decreasing.
//  PerUserLimit  – maximum cumulative quantity a single user may buy.
//  CreatedAt     – timestamp of creation.
//  UpdatedAt     – timestamp of last update.
type TicketClass struct {
	ID            uint64    // tickets.id
	EventID       uint64    // tickets.event_id
	Name          string    // tickets.name
	PriceCents    uint32    // tickets.price_cents
	Currency      string    // tickets.currency
	QuantityTotal uint32    // tickets.quantity_total
	QuantitySold  uint32    // tickets.quantity_sold
	PerUserLimit  uint32    // tickets.per_user_limit
	CreatedAt     time.Time // tickets.created_at
	UpdatedAt     time.Time // tickets.updated_at
}
