// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrForbidden indicates that the current user is not
// authorized to perform an operation on a resource owned by another
// company, while ErrHasSales signals that a ticket class cannot be
// deleted because sales have already been committed against it.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource owned by a different company. Handlers should
// translate this into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrEventNotFound is returned when an event lookup matches no row.
var ErrEventNotFound = errors.New("event not found")

// ErrCompanyNotFound is returned when a company lookup matches no row.
var ErrCompanyNotFound = errors.New("company not found")

// ErrHasSales is returned when a ticket class with committed sales
// would be deleted. Handlers should translate this into an HTTP 400
// response; the ledger is append-only and must keep its references.
var ErrHasSales = errors.New("ticket class has sales")

// ErrEmailExists is returned on registration when the email address
// is already taken.
var ErrEmailExists = errors.New("email already exists")

// ErrCapacityBelowSold is returned when a ticket class update would set
// quantity_total below the quantity already sold. Allowing it would leave
// a row where the committed quantity exceeds the declared capacity.
var ErrCapacityBelowSold = errors.New("quantity_total below quantity_sold")
