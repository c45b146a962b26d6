package poller

import (
	"context"
	"sync"
	"time"

	"finstream/src/interfaces"
	"finstream/src/logger"
	"finstream/src/models"
	"finstream/src/symbols"
	"finstream/src/utils"
	"finstream/src/yahoo"
)

// -----------------------------------------------------------------------------

// Aggregator periodically produces the two snapshots the streaming feed
// cannot provide: the synthetic top-gainers panel and polled index quotes.
// Both are relayed through the fan-out broadcaster; the two timers (stream
// and poll) stay independent, so no cross-path ordering is guaranteed.
type Aggregator struct {
	Config      *models.MConfig
	Logger      *logger.Logger
	Yahoo       *yahoo.Client
	Broadcaster interfaces.IBroadcaster
	Gainers     *GainerGenerator
	Scheduler   *utils.MarketScheduler // nil when the market-hours gate is off

	interval time.Duration
}

// -----------------------------------------------------------------------------

func NewAggregator(cfg *models.MConfig, log *logger.Logger, yc *yahoo.Client, broadcaster interfaces.IBroadcaster) *Aggregator {
	interval := time.Duration(cfg.Poller.IntervalSeconds) * time.Second
	if interval <= 0 {
		// Deliberately slow default to respect upstream rate limits.
		interval = 10 * time.Second
	}

	a := &Aggregator{
		Config:      cfg,
		Logger:      log,
		Yahoo:       yc,
		Broadcaster: broadcaster,
		Gainers:     NewGainerGenerator(time.Now().UnixNano()),
		interval:    interval,
	}

	if cfg.Poller.MarketHoursGate {
		pollSymbols := make([]string, 0)
		for _, id := range symbols.InternalIDs() {
			if sym, ok := symbols.PollSymbol(id); ok {
				pollSymbols = append(pollSymbols, sym)
			}
		}
		a.Scheduler = utils.NewMarketScheduler(pollSymbols, log.Named("MarketScheduler"))
	}

	return a
}

// -----------------------------------------------------------------------------

// Run drives the polling loop until ctx is cancelled. A failed cycle never
// stops the ticker.
func (a *Aggregator) Run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.tick()
		}
	}
}

// -----------------------------------------------------------------------------

func (a *Aggregator) tick() {
	a.Broadcaster.Broadcast(a.GainersEnvelope())
	a.BroadcastIndices()
}

// -----------------------------------------------------------------------------

// GainersEnvelope builds one fresh synthetic top-gainers message.
func (a *Aggregator) GainersEnvelope() models.MEnvelope {
	return models.MEnvelope{Type: "top_gainers", Data: a.Gainers.Generate()}
}

// -----------------------------------------------------------------------------

// BroadcastIndices polls every mapped index and relays the result as one
// trade envelope. An empty cycle is skipped rather than broadcast.
func (a *Aggregator) BroadcastIndices() {
	if a.Scheduler != nil && !a.Scheduler.AnyMarketOpen() {
		a.Logger.Debug("All tracked markets closed, skipping index poll")
		return
	}

	updates := a.pollIndices()
	if len(updates) == 0 {
		return
	}

	a.Broadcaster.Broadcast(models.MEnvelope{Type: "trade", Data: updates})
}

// -----------------------------------------------------------------------------

// pollIndices fetches the latest price for every internal id in the polling
// map. Requests run concurrently; an individual failure only drops that
// symbol, never the cycle.
func (a *Aggregator) pollIndices() []models.MTradeUpdate {
	ids := symbols.InternalIDs()

	var mu sync.Mutex
	var wg sync.WaitGroup
	updates := make([]models.MTradeUpdate, 0, len(ids))

	concurrency := a.Config.Network.ConcurrentRequests
	if concurrency <= 0 {
		concurrency = 4
	}
	sem := make(chan struct{}, concurrency)

	for _, id := range ids {
		sym, ok := symbols.PollSymbol(id)
		if !ok {
			continue
		}

		wg.Add(1)
		go func(internalID, providerSymbol string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			meta, err := a.Yahoo.Meta(providerSymbol)
			if err != nil {
				a.Logger.Info("Index poll failed for %s (%s): %v", internalID, providerSymbol, err)
				return
			}

			mu.Lock()
			updates = append(updates, models.MTradeUpdate{
				Symbol:     providerSymbol,
				Price:      meta.Price,
				Timestamp:  time.Now().UnixMilli(),
				InternalID: internalID,
			})
			mu.Unlock()
		}(id, sym)
	}

	wg.Wait()
	return updates
}
