package publishers

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"finstream/src/logger"
	"finstream/src/models"

	"github.com/nats-io/nats.go"
)

// -----------------------------------------------------------------------------
// NATSPublisher relays normalized trade updates onto a NATS core subject so
// other backend services (alerting, recording) can consume the same feed the
// dashboard sees. Delivery is fire-and-forget.
// -----------------------------------------------------------------------------

type NATSPublisher struct {
	name   string
	config *models.MNATSConfig
	logger *logger.Logger

	mu sync.RWMutex
	nc *nats.Conn

	connected bool
}

// -----------------------------------------------------------------------------

func NewNATSPublisher(config *models.MNATSConfig, logger *logger.Logger) *NATSPublisher {
	return &NATSPublisher{
		name:   config.ClientID,
		config: config,
		logger: logger,
	}
}

// -----------------------------------------------------------------------------

// OnTradeUpdates publishes each update on its own per-symbol subject.
func (np *NATSPublisher) OnTradeUpdates(updates []models.MTradeUpdate) {
	for _, update := range updates {
		subject := np.getSubject(fmt.Sprintf("trade.%s", strings.ToUpper(update.Symbol)))

		payload, err := json.Marshal(update)
		if err != nil {
			np.logger.Error("%s : failed to serialize update for %s: %v", np.name, subject, err)
			continue
		}

		if err := np.Publish(subject, payload); err != nil {
			np.logger.Error("%s : failed to publish trade for %s to %s: %v", np.name, update.Symbol, subject, err)
		}
	}
}

// -----------------------------------------------------------------------------

// Publish sends raw data to a NATS core subject.
func (np *NATSPublisher) Publish(subject string, data []byte) error {
	if !np.IsConnected() {
		return fmt.Errorf("nats client not connected")
	}
	return np.nc.Publish(subject, data)
}

// -----------------------------------------------------------------------------

// Connect establishes the connection to the NATS server.
func (np *NATSPublisher) Connect() error {
	np.mu.Lock()
	defer np.mu.Unlock()

	if np.nc != nil && np.nc.IsConnected() {
		return nil
	}
	if len(np.config.Servers) == 0 {
		return fmt.Errorf("no nats servers configured")
	}

	opts := []nats.Option{
		nats.Name(np.config.ClientID),
		nats.Timeout(5 * time.Second),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(-1),

		// Connection Event Handlers
		nats.RetryOnFailedConnect(true),
		nats.ClosedHandler(func(nc *nats.Conn) {
			np.logger.Error("%s : NATS connection closed unexpectedly", np.name)
			np.setConnected(false)
		}),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			np.logger.Warning("%s : NATS disconnected, attempting reconnect: %v", np.name, err)
			np.setConnected(false)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			np.logger.Info("%s : NATS successfully reconnected to %s", np.name, nc.ConnectedUrl())
			np.setConnected(true)
		}),
	}

	var err error
	np.nc, err = nats.Connect(strings.Join(np.config.Servers, ","), opts...)
	if err != nil {
		return fmt.Errorf("nats connection failed: %w", err)
	}

	np.connected = true
	np.logger.Info("%s : successfully connected to NATS at %s", np.name, np.nc.ConnectedUrl())
	return nil
}

// -----------------------------------------------------------------------------

// Disconnect flushes pending messages and closes the connection.
func (np *NATSPublisher) Disconnect() error {
	np.mu.Lock()
	defer np.mu.Unlock()

	if np.nc == nil {
		return nil
	}

	if err := np.nc.Flush(); err != nil {
		np.logger.Warning("%s : flush before disconnect failed: %v", np.name, err)
	}
	np.nc.Close()
	np.nc = nil
	np.connected = false
	np.logger.Info("%s : disconnected from NATS", np.name)
	return nil
}

// -----------------------------------------------------------------------------

func (np *NATSPublisher) IsConnected() bool {
	np.mu.RLock()
	defer np.mu.RUnlock()
	return np.connected && np.nc != nil && np.nc.IsConnected()
}

// -----------------------------------------------------------------------------

func (np *NATSPublisher) setConnected(state bool) {
	np.mu.Lock()
	np.connected = state
	np.mu.Unlock()
}

// -----------------------------------------------------------------------------

func (np *NATSPublisher) getSubject(subject string) string {
	if np.config.SubjectPrefix == "" {
		return subject
	}
	return fmt.Sprintf("%s.%s", strings.TrimSuffix(np.config.SubjectPrefix, "."), subject)
}
