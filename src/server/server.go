package server

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"finstream/src/interfaces"
	"finstream/src/logger"
	"finstream/src/models"
	"finstream/src/upstream"
	"finstream/src/yahoo"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// ProxyServer
// -----------------------------------------------------------------------------

// IStreamStatus is what the status endpoint reports about the upstream feed.
type IStreamStatus interface {
	State() upstream.State
	Reconnects() int64
	SubscribedSymbols() []string
}

// ISnapshotSource produces the initial payloads pushed to a client right
// after it connects, before the next scheduled poll cycle.
type ISnapshotSource interface {
	GainersEnvelope() models.MEnvelope
	BroadcastIndices()
}

// -----------------------------------------------------------------------------

type ProxyServer struct {
	Config *models.MConfig
	Logger *logger.Logger
	Yahoo  *yahoo.Client
	DB     interfaces.IDatabase

	// Upstream feed plumbing. All three may be nil in tests.
	Upstream  interfaces.ISubscriber
	Stream    IStreamStatus
	Publisher interfaces.IPublisher

	Snapshots ISnapshotSource
	Digest    interfaces.IDigestSender

	engine  *gin.Engine
	started time.Time

	// WebSocket hub
	clients      map[*Client]struct{}
	clientsMutex sync.RWMutex
	broadcast    chan models.MEnvelope
	register     chan *Client
	unregister   chan *Client
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewProxyServer(cfg *models.MConfig, logger *logger.Logger, yc *yahoo.Client, db interfaces.IDatabase) *ProxyServer {
	// Set Gin mode
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &ProxyServer{
		Config:  cfg,
		Logger:  logger,
		Yahoo:   yc,
		DB:      db,
		engine:  gin.New(),
		started: time.Now(),
		clients: make(map[*Client]struct{}),
		// Buffered so producers never stall on a burst of updates
		broadcast:  make(chan models.MEnvelope, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}

	s.engine.Use(gin.Recovery())

	// CORS Middleware
	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://localhost:") || strings.HasPrefix(origin, "http://127.0.0.1:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *ProxyServer) setupRoutes() {
	// Quote proxy endpoints
	s.engine.GET("/api/yahoo/search", s.getSearch)
	s.engine.GET("/api/yahoo/quote", s.getQuote)
	s.engine.GET("/api/yahoo/quotes", s.getQuotes)
	s.engine.GET("/api/yahoo/history", s.getHistory)
	s.engine.GET("/api/yahoo/news", s.getNews)

	// Email digest subscriptions
	s.engine.POST("/api/subscribe", s.postSubscribe)
	s.engine.POST("/api/unsubscribe", s.postUnsubscribe)
	s.engine.POST("/api/trigger-email", s.postTriggerEmail)

	// Operational endpoints
	s.engine.GET("/api/health", s.getHealth)
	s.engine.GET("/api/status", s.getStatus)

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

func (s *ProxyServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("Starting proxy server on %s", addr)

	go s.runHub()

	return s.engine.Run(addr)
}

// -----------------------------------------------------------------------------

func (s *ProxyServer) Stop() error {
	close(s.broadcast)
	return nil
}

// -----------------------------------------------------------------------------

// Handler exposes the routing tree, mostly so tests can drive it through
// httptest without binding a port.
func (s *ProxyServer) Handler() http.Handler {
	return s.engine
}
