package interfaces

// -----------------------------------------------------------------------------

// IDigestSender sends the news digest to every stored subscription on
// demand, outside the daily schedule.
type IDigestSender interface {
	// SendNow builds and sends a digest for every subscriber immediately.
	SendNow() error

	// SendTest sends a one-off digest for the given symbols to a single
	// address without touching the stored subscriptions.
	SendTest(email string, symbols []string) error
}
