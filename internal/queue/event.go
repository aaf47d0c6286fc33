// Package queue defines message payloads exchanged over the message broker.
package queue

// TicketPurchasedEvent is published after a reservation commits.  It
// carries enough information for downstream consumers to send the
// confirmation e-mail, call webhooks, or feed analytics without querying
// the primary database.  Publication happens outside the reservation's
// atomic unit; a lost event never implies a lost sale.
type TicketPurchasedEvent struct {
	SaleID      uint64 `json:"sale_id"`
	UserID      uint64 `json:"user_id"`
	UserEmail   string `json:"user_email"`
	TicketID    uint64 `json:"ticket_id"`
	TicketName  string `json:"ticket_name"`
	EventID     uint64 `json:"event_id"`
	Quantity    uint32 `json:"quantity"`
	PriceCents  uint32 `json:"price_cents"`
	Currency    string `json:"currency"`
	Remaining   uint32 `json:"remaining"`
	PurchasedAt string `json:"purchased_at"`
}
