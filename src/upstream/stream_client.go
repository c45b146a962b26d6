package upstream

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"finstream/src/interfaces"
	"finstream/src/logger"
	"finstream/src/models"
	"finstream/src/symbols"

	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Connection lifecycle states
// -----------------------------------------------------------------------------

type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	default:
		return "disconnected"
	}
}

// -----------------------------------------------------------------------------

// StreamClient owns the single websocket connection to the streaming quote
// provider. A supervising goroutine drives the
// disconnected -> connecting -> open cycle and reconnects forever with a
// fixed delay; the feed is best-effort so there is no retry cap.
type StreamClient struct {
	Config      *models.MConfig
	Logger      *logger.Logger
	Broadcaster interfaces.IBroadcaster
	Publisher   interfaces.IPublisher // optional, may be nil

	Subscriptions *SubscriptionSet

	endpoint       string
	reconnectDelay time.Duration
	state          atomic.Int32
	reconnects     atomic.Int64

	// dial is swappable so tests can point the client at a local fake feed.
	dial func(endpoint string) (*websocket.Conn, error)

	mu      sync.Mutex // guards conn and writes to it
	conn    *websocket.Conn
	running atomic.Bool
}

// -----------------------------------------------------------------------------

// NewStreamClient seeds the subscription set with the default mapped symbols.
// endpoint must carry the provider token already.
func NewStreamClient(cfg *models.MConfig, log *logger.Logger, endpoint string, broadcaster interfaces.IBroadcaster, publisher interfaces.IPublisher) *StreamClient {
	delay := time.Duration(cfg.Upstream.ReconnectSeconds) * time.Second
	if delay <= 0 {
		delay = 2 * time.Second
	}

	return &StreamClient{
		Config:         cfg,
		Logger:         log,
		Broadcaster:    broadcaster,
		Publisher:      publisher,
		Subscriptions:  NewSubscriptionSet(symbols.DefaultStreamSymbols()),
		endpoint:       endpoint,
		reconnectDelay: delay,
		dial: func(endpoint string) (*websocket.Conn, error) {
			dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
			conn, _, err := dialer.Dial(endpoint, nil)
			return conn, err
		},
	}
}

// -----------------------------------------------------------------------------

// State returns the current lifecycle state.
func (s *StreamClient) State() State {
	return State(s.state.Load())
}

// -----------------------------------------------------------------------------

// Reconnects returns how many times the connection has been re-established.
func (s *StreamClient) Reconnects() int64 {
	return s.reconnects.Load()
}

// -----------------------------------------------------------------------------

// SubscribedSymbols returns a sorted snapshot of the upstream subscriptions.
func (s *StreamClient) SubscribedSymbols() []string {
	return s.Subscriptions.Snapshot()
}

// -----------------------------------------------------------------------------

// Subscribe adds a provider symbol to the subscription set. When the
// connection is open the subscribe frame is forwarded immediately; otherwise
// the symbol is picked up by the resubscribe pass on the next connect.
func (s *StreamClient) Subscribe(symbol string) {
	if symbol == "" {
		return
	}

	added := s.Subscriptions.Add(symbol)
	if s.State() != StateOpen {
		return
	}

	if err := s.sendSubscribe(symbol); err != nil {
		s.Logger.Warning("Failed to forward subscribe for %s: %v", symbol, err)
		return
	}
	if added {
		s.Logger.Info("Subscribed upstream to %s", symbol)
	}
}

// -----------------------------------------------------------------------------

// Run drives the connection supervisor until ctx is cancelled.
func (s *StreamClient) Run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	s.running.Store(true)
	defer s.running.Store(false)

	for {
		if ctx.Err() != nil {
			return
		}

		s.state.Store(int32(StateConnecting))
		conn, err := s.dial(s.endpoint)
		if err != nil {
			s.state.Store(int32(StateDisconnected))
			s.Logger.Warning("Upstream connect failed: %v (retrying in %v)", err, s.reconnectDelay)
			if !s.sleep(ctx) {
				return
			}
			continue
		}

		s.mu.Lock()
		s.conn = conn
		s.mu.Unlock()
		s.state.Store(int32(StateOpen))
		s.reconnects.Add(1)
		s.Logger.Info("Connected to upstream stream")

		s.resubscribe()
		s.readLoop(ctx, conn)

		s.state.Store(int32(StateDisconnected))
		s.mu.Lock()
		s.conn = nil
		s.mu.Unlock()
		conn.Close()

		if ctx.Err() != nil {
			return
		}
		s.Logger.Warning("Upstream closed. Reconnecting in %v", s.reconnectDelay)
		if !s.sleep(ctx) {
			return
		}
	}
}

// -----------------------------------------------------------------------------

// Close tears down the current connection, unblocking the read loop.
func (s *StreamClient) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		s.conn.Close()
	}
}

// -----------------------------------------------------------------------------

func (s *StreamClient) sleep(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(s.reconnectDelay):
		return true
	}
}

// -----------------------------------------------------------------------------

// resubscribe replays the full current subscription set, not just the
// defaults, so symbols added mid-session survive a reconnect.
func (s *StreamClient) resubscribe() {
	snapshot := s.Subscriptions.Snapshot()
	for _, sym := range snapshot {
		if err := s.sendSubscribe(sym); err != nil {
			s.Logger.Warning("Resubscribe for %s failed: %v", sym, err)
			return
		}
	}
	s.Logger.Info("Resubscribed to %d symbols", len(snapshot))
}

// -----------------------------------------------------------------------------

func (s *StreamClient) sendSubscribe(symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return websocket.ErrCloseSent
	}
	return s.conn.WriteJSON(models.MSubscribeMessage{Type: "subscribe", Symbol: symbol})
}

// -----------------------------------------------------------------------------

func (s *StreamClient) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		if ctx.Err() != nil {
			return
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				s.Logger.Info("Upstream read error: %v", err)
			}
			return
		}

		s.handleFrame(message)
	}
}

// -----------------------------------------------------------------------------

// handleFrame parses one upstream frame. Only trade batches are relayed;
// pings and unknown messages are ignored, malformed frames are dropped with
// a log line and never kill the connection.
func (s *StreamClient) handleFrame(message []byte) {
	var frame models.MTradeFrame
	if err := json.Unmarshal(message, &frame); err != nil {
		s.Logger.Info("Dropping malformed upstream frame: %v", err)
		return
	}

	if frame.Type != "trade" || len(frame.Data) == 0 {
		return
	}

	for i := range frame.Data {
		if id, ok := symbols.InternalID(frame.Data[i].Symbol); ok {
			frame.Data[i].InternalID = id
		}
	}

	s.Broadcaster.Broadcast(models.MEnvelope{Type: "trade", Data: frame.Data})

	if s.Publisher != nil && s.Publisher.IsConnected() {
		s.Publisher.OnTradeUpdates(frame.Data)
	}
}
