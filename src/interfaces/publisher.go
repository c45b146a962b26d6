package interfaces

import "finstream/src/models"

// -----------------------------------------------------------------------------

// IPublisher defines the interface for relaying normalized trade updates to
// an external message bus.
type IPublisher interface {
	// OnTradeUpdates publishes a batch of normalized trade updates.
	OnTradeUpdates(updates []models.MTradeUpdate)

	// Connect establishes connection to the message broker
	Connect() error

	// Disconnect closes the connection to the message broker
	Disconnect() error

	// IsConnected returns the current connection status
	IsConnected() bool
}
