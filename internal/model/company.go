package model

import "time"

// Company represents an organization that publishes events and sells
// tickets.  Users with the COMPANY role are linked to exactly one
// company through users.company_id.
//
// Fields:
//  ID           – primary key identifier.
//  Name         – display name of the company.
//  LogoURL      – optional logo location.
//  Description  – optional free-form description.
//  ContactEmail – address used for operational contact.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type Company struct {
	ID           uint64    // companies.id
	Name         string    // companies.name
	LogoURL      *string   // companies.logo_url (nullable)
	Description  *string   // companies.description (nullable)
	ContactEmail string    // companies.contact_email
	CreatedAt    time.Time // companies.created_at
	UpdatedAt    time.Time // companies.updated_at
}
