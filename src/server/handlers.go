package server

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"finstream/src/models"
	"finstream/src/yahoo"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// Quote Proxy Handlers
// -----------------------------------------------------------------------------

func (s *ProxyServer) getSearch(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(400, gin.H{"error": "missing query parameter: q"})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit <= 0 {
		limit = 10
	}

	results, err := s.Yahoo.Search(query, limit)
	if err != nil {
		s.Logger.Info("Search proxy failed for %q: %v", query, err)
		c.JSON(500, gin.H{"error": "failed to fetch search results"})
		return
	}

	c.JSON(200, gin.H{"results": results})
}

// -----------------------------------------------------------------------------

func (s *ProxyServer) getQuote(c *gin.Context) {
	symbol := strings.TrimSpace(c.Query("symbol"))
	if symbol == "" {
		c.JSON(400, gin.H{"error": "missing query parameter: symbol"})
		return
	}

	quote, err := s.Yahoo.Quote(symbol)
	if err != nil {
		s.Logger.Info("Quote proxy failed for %s: %v", symbol, err)
		c.JSON(500, gin.H{"error": "failed to fetch quote"})
		return
	}

	c.JSON(200, quote)
}

// -----------------------------------------------------------------------------

func (s *ProxyServer) getQuotes(c *gin.Context) {
	raw := strings.TrimSpace(c.Query("symbols"))
	if raw == "" {
		c.JSON(400, gin.H{"error": "missing query parameter: symbols"})
		return
	}

	symbolList := make([]string, 0)
	for _, sym := range strings.Split(raw, ",") {
		if sym = strings.TrimSpace(sym); sym != "" {
			symbolList = append(symbolList, sym)
		}
	}
	if len(symbolList) == 0 {
		c.JSON(400, gin.H{"error": "no valid symbols"})
		return
	}

	// Partial results are fine here, failed symbols are simply absent.
	c.JSON(200, s.Yahoo.BatchQuotes(symbolList))
}

// -----------------------------------------------------------------------------

func (s *ProxyServer) getHistory(c *gin.Context) {
	symbol := strings.TrimSpace(c.Query("symbol"))
	if symbol == "" {
		c.JSON(400, gin.H{"error": "missing query parameter: symbol"})
		return
	}

	rangeStr := c.DefaultQuery("range", "1mo")
	interval := c.DefaultQuery("interval", "1d")

	bars, err := s.Yahoo.History(symbol, rangeStr, interval)
	if errors.Is(err, yahoo.ErrNoData) {
		c.JSON(404, gin.H{"error": "no data found"})
		return
	}
	if err != nil {
		s.Logger.Info("History proxy failed for %s: %v", symbol, err)
		c.JSON(500, gin.H{"error": "failed to fetch history"})
		return
	}

	// A result whose bars were all filtered out still serves an empty list.
	c.JSON(200, bars)
}

// -----------------------------------------------------------------------------

const newsPageSize = 20

func (s *ProxyServer) getNews(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		// Portfolio mode: headlines for the first tracked symbol, or a
		// general market search when none is given.
		query = "economy"
		if raw := strings.TrimSpace(c.Query("symbols")); raw != "" && raw != "market" {
			if first := strings.TrimSpace(strings.Split(raw, ",")[0]); first != "" {
				query = first
			}
		}
	}

	// The dashboard's news panel degrades gracefully: provider trouble
	// yields an empty list, never an error page.
	articles, err := s.Yahoo.News(query, newsPageSize)
	if err != nil {
		s.Logger.Info("News proxy failed for %q: %v", query, err)
		c.JSON(200, []models.MNewsArticle{})
		return
	}
	if len(articles) > newsPageSize {
		articles = articles[:newsPageSize]
	}

	c.JSON(200, articles)
}

// -----------------------------------------------------------------------------
// Email Subscription Handlers
// -----------------------------------------------------------------------------

type subscribeRequest struct {
	Email   string   `json:"email"`
	Symbols []string `json:"symbols"`
}

// -----------------------------------------------------------------------------

func (s *ProxyServer) postSubscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "invalid request body"})
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		c.JSON(400, gin.H{"error": "a valid email address is required"})
		return
	}
	if len(req.Symbols) == 0 {
		c.JSON(400, gin.H{"error": "at least one symbol is required"})
		return
	}

	if err := s.DB.SaveSubscription(req.Email, req.Symbols); err != nil {
		s.Logger.Error("Failed to save subscription for %s: %v", req.Email, err)
		c.JSON(500, gin.H{"error": "failed to save subscription"})
		return
	}

	c.JSON(200, gin.H{"status": "subscribed", "email": req.Email})
}

// -----------------------------------------------------------------------------

func (s *ProxyServer) postUnsubscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "invalid request body"})
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		c.JSON(400, gin.H{"error": "email address is required"})
		return
	}

	if err := s.DB.RemoveSubscription(req.Email); err != nil {
		s.Logger.Error("Failed to remove subscription for %s: %v", req.Email, err)
		c.JSON(500, gin.H{"error": "failed to remove subscription"})
		return
	}

	c.JSON(200, gin.H{"status": "unsubscribed", "email": req.Email})
}

// -----------------------------------------------------------------------------

// postTriggerEmail sends the digest on demand. A body naming an address is
// a one-off test delivery to that address; an empty body triggers the full
// broadcast to every subscriber.
func (s *ProxyServer) postTriggerEmail(c *gin.Context) {
	if s.Digest == nil {
		c.JSON(503, gin.H{"error": "digest delivery is not configured"})
		return
	}

	var req subscribeRequest
	_ = c.ShouldBindJSON(&req) // body is optional

	if email := strings.TrimSpace(req.Email); email != "" {
		if err := s.Digest.SendTest(email, req.Symbols); err != nil {
			s.Logger.Error("Test digest send to %s failed: %v", email, err)
			c.JSON(500, gin.H{"error": "failed to trigger email"})
			return
		}
		c.JSON(200, gin.H{"success": true, "message": "test email sent"})
		return
	}

	if err := s.Digest.SendNow(); err != nil {
		s.Logger.Error("Manual digest send failed: %v", err)
		c.JSON(500, gin.H{"error": "failed to trigger email"})
		return
	}

	c.JSON(200, gin.H{"success": true, "message": "daily digest triggered"})
}

// -----------------------------------------------------------------------------
// Operational Handlers
// -----------------------------------------------------------------------------

func (s *ProxyServer) getHealth(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":         "ok",
		"connections":    s.ClientCount(),
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
	})
}

// -----------------------------------------------------------------------------

func (s *ProxyServer) getStatus(c *gin.Context) {
	status := gin.H{
		"name":        s.Config.Name,
		"connections": s.ClientCount(),
	}

	if s.Stream != nil {
		status["upstream_state"] = s.Stream.State().String()
		status["upstream_reconnects"] = s.Stream.Reconnects()
		status["upstream_subscriptions"] = s.Stream.SubscribedSymbols()
	} else {
		status["upstream_state"] = "disabled"
	}

	if s.Publisher != nil {
		status["bus_connected"] = s.Publisher.IsConnected()
	}

	c.JSON(200, status)
}
