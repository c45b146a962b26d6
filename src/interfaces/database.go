package interfaces

import "finstream/src/models"

// -----------------------------------------------------------------------------
// IDatabase defines the contract for the email-subscription store.
// -----------------------------------------------------------------------------

type IDatabase interface {

	// -----------------------------------------------------------------------------

	// Initialize sets up the database schema and tables.
	Initialize() error

	// -----------------------------------------------------------------------------

	// SaveSubscription inserts or replaces the symbol list for an address.
	SaveSubscription(email string, symbols []string) error

	// -----------------------------------------------------------------------------

	// RemoveSubscription deletes the subscription for an address.
	// Removing an unknown address is not an error.
	RemoveSubscription(email string) error

	// -----------------------------------------------------------------------------

	// ListSubscriptions returns every stored subscription.
	ListSubscriptions() ([]models.MEmailSubscription, error)

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
