package model

import "time"

// Event is a published happening a company sells tickets for.  Ticket
// classes reference their event via tickets.event_id; the event itself
// carries no inventory.
//
// Fields:
//  ID          – primary key identifier.
//  CompanyID   – owning company.
//  Title       – event title.
//  Description – optional long description.
//  StartTime   – when the event begins (UTC).
//  EndTime     – when the event ends (UTC).
//  Venue       – optional venue name or address.
//  BannerURL   – optional banner image location.
//  Status      – publication state (e.g. DRAFT, PUBLISHED, ARCHIVED).
//  CreatedAt   – timestamp of creation.
//  UpdatedAt   – timestamp of last update.
type Event struct {
	ID          uint64     // events.id
	CompanyID   uint64     // events.company_id
	Title       string     // events.title
	Description *string    // events.description (nullable)
	StartTime   *time.Time // events.start_time (nullable)
	EndTime     *time.Time // events.end_time (nullable)
	Venue       *string    // events.venue (nullable)
	BannerURL   *string    // events.banner_url (nullable)
	Status      string     // events.status
	CreatedAt   time.Time  // events.created_at
	UpdatedAt   time.Time  // events.updated_at
}
