package interfaces

import "finstream/src/models"

// -----------------------------------------------------------------------------
// IBroadcaster is the fan-out side of the proxy: everything that produces
// market updates (stream client, polling aggregator) hands envelopes here.
// -----------------------------------------------------------------------------

type IBroadcaster interface {

	// -----------------------------------------------------------------------------

	// Broadcast relays an envelope to every connected downstream client.
	// Delivery is fire-and-forget.
	Broadcast(envelope models.MEnvelope)
}

// -----------------------------------------------------------------------------
// ISubscriber is the upstream side: the broadcaster forwards downstream
// subscribe requests through it.
// -----------------------------------------------------------------------------

type ISubscriber interface {

	// -----------------------------------------------------------------------------

	// Subscribe adds a provider symbol to the upstream subscription set and,
	// when the upstream connection is open, forwards the request immediately.
	Subscribe(symbol string)
}
