package utils

import (
	"sync"
	"time"

	"finstream/src/logger"
)

// MarketScheduler maps tracked symbols to venue calendars so polling can be
// skipped while everything it tracks is closed.
type MarketScheduler struct {
	Calendars map[string]*TradingCalendar
	Logger    *logger.Logger
	mu        sync.RWMutex
}

// -----------------------------------------------------------------------------

func NewMarketScheduler(symbols []string, l *logger.Logger) *MarketScheduler {
	ms := &MarketScheduler{
		Calendars: make(map[string]*TradingCalendar),
		Logger:    l,
	}
	ms.mapSymbols(symbols)
	return ms
}

// -----------------------------------------------------------------------------

func (ms *MarketScheduler) mapSymbols(symbols []string) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.Calendars = make(map[string]*TradingCalendar)
	for _, symbol := range symbols {
		ms.Calendars[symbol] = GetCalendar(symbol)
	}
	ms.Logger.Info("MarketScheduler: mapped %d symbols to calendars", len(symbols))
}

// -----------------------------------------------------------------------------

// UpdateSymbols replaces the tracked symbol list.
func (ms *MarketScheduler) UpdateSymbols(symbols []string) {
	ms.mapSymbols(symbols)
}

// -----------------------------------------------------------------------------

// AnyMarketOpen checks if ANY tracked market is currently open.
func (ms *MarketScheduler) AnyMarketOpen() bool {
	now := time.Now().UTC()

	ms.mu.RLock()
	defer ms.mu.RUnlock()

	for _, cal := range ms.Calendars {
		if cal.IsOpenOnMinute(now) {
			return true
		}
	}
	return false
}
