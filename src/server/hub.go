package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"finstream/src/models"
	"finstream/src/symbols"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// runHub is the main hub loop. Every mutation of the client set happens
// here; producers only touch the channels.
func (s *ProxyServer) runHub() {
	for {
		select {
		case client := <-s.register:
			s.clientsMutex.Lock()
			s.clients[client] = struct{}{}
			s.clientsMutex.Unlock()

			// New clients get a fresh movers panel right away and trigger
			// an index poll so nobody stares at an empty dashboard until
			// the next scheduled cycle.
			if s.Snapshots != nil {
				select {
				case client.send <- s.Snapshots.GainersEnvelope():
				default:
				}
				go s.Snapshots.BroadcastIndices()
			}

		case client := <-s.unregister:
			s.clientsMutex.Lock()
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.send)
			}
			s.clientsMutex.Unlock()

		case envelope, ok := <-s.broadcast:
			if !ok {
				return
			}

			s.clientsMutex.Lock()
			for client := range s.clients {
				select {
				case client.send <- envelope:
				default:
					// Client too slow, disconnect to keep the hub moving
					delete(s.clients, client)
					close(client.send)
				}
			}
			s.clientsMutex.Unlock()
		}
	}
}

// -----------------------------------------------------------------------------

// Broadcast queues an envelope for fan-out to every connected client.
func (s *ProxyServer) Broadcast(envelope models.MEnvelope) {
	s.broadcast <- envelope
}

// -----------------------------------------------------------------------------

// ClientCount reports the number of connected websocket clients.
func (s *ProxyServer) ClientCount() int {
	s.clientsMutex.RLock()
	defer s.clientsMutex.RUnlock()
	return len(s.clients)
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *ProxyServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		hub:  s,
		conn: conn,
		// Buffered channel to prevent blocking the hub loop
		send: make(chan models.MEnvelope, 256),
	}

	s.register <- client

	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

// HandleClientMessage processes one inbound client frame. Anything that is
// not a well-formed subscribe request is logged and dropped; the connection
// always stays open.
func (s *ProxyServer) HandleClientMessage(client *Client, message []byte) {
	var msg models.MSubscribeMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		s.Logger.Info("Ignoring unparseable client message: %v", err)
		return
	}

	if msg.Type != "subscribe" {
		return
	}

	symbol := strings.TrimSpace(msg.Symbol)
	if symbol == "" {
		s.Logger.Info("Ignoring subscribe request without a symbol")
		return
	}

	if s.Upstream != nil {
		s.Upstream.Subscribe(symbols.Resolve(symbol))
	}
}
