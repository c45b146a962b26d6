package yahoo

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"finstream/src/helpers"
	"finstream/src/interfaces"
	"finstream/src/logger"
	"finstream/src/models"
)

const (
	chartBaseURL  = "https://query1.finance.yahoo.com/v8/finance/chart"
	searchBaseURL = "https://query1.finance.yahoo.com/v1/finance/search"
	// News goes through query2, matching the search host the news feed is
	// served from.
	newsBaseURL = "https://query2.finance.yahoo.com/v1/finance/search"
)

// -----------------------------------------------------------------------------

// Client adapts Yahoo Finance response shapes to the proxy's canonical types.
// All provider shape drift is isolated here.
type Client struct {
	Network            interfaces.INetworkManager
	Logger             *logger.Logger
	ConcurrentRequests int
}

// -----------------------------------------------------------------------------

func NewClient(network interfaces.INetworkManager, log *logger.Logger, concurrentRequests int) *Client {
	if concurrentRequests <= 0 {
		concurrentRequests = 4
	}
	return &Client{
		Network:            network,
		Logger:             log,
		ConcurrentRequests: concurrentRequests,
	}
}

// -----------------------------------------------------------------------------
// Chart endpoint
// -----------------------------------------------------------------------------

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string  `json:"currency"`
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				ChartPreviousClose float64 `json:"chartPreviousClose"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					High   []*float64 `json:"high"`   // pointers handle null entries
					Low    []*float64 `json:"low"`
					Open   []*float64 `json:"open"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// ChartMeta carries the summary fields of a chart response.
type ChartMeta struct {
	Symbol        string
	Currency      string
	Price         float64
	PreviousClose float64
}

// -----------------------------------------------------------------------------

// chart fetches and decodes one chart response.
func (c *Client) chart(symbol, interval, rangeStr string) (*chartResponse, error) {
	params := map[string]string{"interval": interval}
	if rangeStr != "" {
		params["range"] = rangeStr
	}

	body, err := c.Network.Get(fmt.Sprintf("%s/%s", chartBaseURL, symbol), params)
	if err != nil {
		return nil, fmt.Errorf("chart request for %s: %w", symbol, err)
	}

	var resp chartResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("chart decode for %s: %w", symbol, err)
	}
	if resp.Chart.Error != nil {
		return nil, &helpers.ProviderError{ProxyError: helpers.ProxyError{
			Message: fmt.Sprintf("yahoo api error for %s: %s - %s", symbol, resp.Chart.Error.Code, resp.Chart.Error.Description),
		}}
	}
	return &resp, nil
}

// -----------------------------------------------------------------------------

// Meta returns the chart summary for one symbol (latest price, previous close).
func (c *Client) Meta(symbol string) (*ChartMeta, error) {
	resp, err := c.chart(symbol, "1m", "1d")
	if err != nil {
		return nil, err
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("no result in chart response for %s", symbol)
	}
	meta := resp.Chart.Result[0].Meta
	return &ChartMeta{
		Symbol:        meta.Symbol,
		Currency:      meta.Currency,
		Price:         meta.RegularMarketPrice,
		PreviousClose: meta.ChartPreviousClose,
	}, nil
}

// -----------------------------------------------------------------------------

// Quote returns the current quote for one symbol.
func (c *Client) Quote(symbol string) (*models.MQuote, error) {
	meta, err := c.Meta(symbol)
	if err != nil {
		return nil, err
	}
	return &models.MQuote{
		Symbol:        meta.Symbol,
		Price:         meta.Price,
		Currency:      meta.Currency,
		PreviousClose: meta.PreviousClose,
		Timestamp:     time.Now().UnixMilli(),
	}, nil
}

// -----------------------------------------------------------------------------

// batchEntry pairs a quote with the symbol it was requested under. Yahoo may
// canonicalize the spelling, so the response symbol is not a reliable sort key.
type batchEntry struct {
	requested string
	quote     models.MBatchQuote
}

// BatchQuotes resolves each symbol independently and concurrently. Failed
// symbols are dropped, never failing the whole batch.
func (c *Client) BatchQuotes(symbolList []string) []models.MBatchQuote {
	entries := make([]batchEntry, 0, len(symbolList))
	var mu sync.Mutex
	var wg sync.WaitGroup

	sem := make(chan struct{}, c.ConcurrentRequests)

	for _, symbol := range symbolList {
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			meta, err := c.Meta(sym)
			if err != nil {
				c.Logger.Info("Dropping %s from batch: %v", sym, err)
				return
			}

			change := meta.Price - meta.PreviousClose
			changePercent := 0.0
			if meta.PreviousClose != 0 {
				changePercent = change / meta.PreviousClose * 100
			}

			mu.Lock()
			entries = append(entries, batchEntry{
				requested: sym,
				quote: models.MBatchQuote{
					Symbol:        meta.Symbol,
					Price:         meta.Price,
					Change:        change,
					ChangePercent: changePercent,
					Currency:      meta.Currency,
					Name:          meta.Symbol, // chart endpoint carries no long name
					Timestamp:     time.Now().UnixMilli(),
				},
			})
			mu.Unlock()
		}(symbol)
	}

	wg.Wait()

	// Concurrent completion order is nondeterministic; restore request order.
	order := make(map[string]int, len(symbolList))
	for i, s := range symbolList {
		order[strings.ToUpper(s)] = i
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return order[strings.ToUpper(entries[i].requested)] < order[strings.ToUpper(entries[j].requested)]
	})

	results := make([]models.MBatchQuote, 0, len(entries))
	for _, e := range entries {
		results = append(results, e.quote)
	}
	return results
}

// -----------------------------------------------------------------------------

// ErrNoData marks a chart response that carried no result for the symbol.
// An existing result whose bars all get filtered is not this error.
var ErrNoData = errors.New("no data in chart response")

// History returns normalized bars for a symbol, with rows whose close is
// null dropped (empty trading intervals).
func (c *Client) History(symbol, rangeStr, interval string) ([]models.MHistoryBar, error) {
	resp, err := c.chart(symbol, interval, rangeStr)
	if err != nil {
		return nil, err
	}
	if len(resp.Chart.Result) == 0 {
		return nil, ErrNoData
	}

	result := resp.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return []models.MHistoryBar{}, nil
	}
	quote := result.Indicators.Quote[0]

	deref := func(vals []*float64, i int) float64 {
		if i < len(vals) && vals[i] != nil {
			return *vals[i]
		}
		return 0
	}

	bars := make([]models.MHistoryBar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue
		}
		bars = append(bars, models.MHistoryBar{
			Timestamp: ts,
			Date:      time.Unix(ts, 0).UTC().Format(time.RFC3339),
			Open:      deref(quote.Open, i),
			High:      deref(quote.High, i),
			Low:       deref(quote.Low, i),
			Close:     *quote.Close[i],
			Volume:    deref(quote.Volume, i),
		})
	}

	return bars, nil
}

// -----------------------------------------------------------------------------
// Search endpoint
// -----------------------------------------------------------------------------

type searchResponse struct {
	Quotes []struct {
		Symbol    string `json:"symbol"`
		ShortName string `json:"shortname"`
		LongName  string `json:"longname"`
		Exchange  string `json:"exchange"`
		QuoteType string `json:"quoteType"`
	} `json:"quotes"`
	News []struct {
		UUID                string `json:"uuid"`
		Title               string `json:"title"`
		Publisher           string `json:"publisher"`
		Link                string `json:"link"`
		ProviderPublishTime int64  `json:"providerPublishTime"`
		Thumbnail           *struct {
			URL string `json:"url"`
		} `json:"thumbnail"`
		RelatedTickers []string `json:"relatedTickers"`
	} `json:"news"`
}

// -----------------------------------------------------------------------------

// Search returns EQUITY/ETF matches for a query.
func (c *Client) Search(query string, quotesCount int) ([]models.MSearchResult, error) {
	body, err := c.Network.Get(searchBaseURL, map[string]string{
		"q":           query,
		"quotesCount": fmt.Sprintf("%d", quotesCount),
		"newsCount":   "0",
	})
	if err != nil {
		return nil, fmt.Errorf("search request for %q: %w", query, err)
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("search decode for %q: %w", query, err)
	}

	results := make([]models.MSearchResult, 0, len(resp.Quotes))
	for _, q := range resp.Quotes {
		if q.QuoteType != "EQUITY" && q.QuoteType != "ETF" {
			continue
		}
		name := q.ShortName
		if name == "" {
			name = q.LongName
		}
		if name == "" {
			name = q.Symbol
		}
		results = append(results, models.MSearchResult{
			Symbol: q.Symbol,
			Name:   name,
			Exch:   q.Exchange,
			Type:   q.QuoteType,
		})
	}

	return results, nil
}

// -----------------------------------------------------------------------------

// News returns normalized articles for a search term.
func (c *Client) News(query string, count int) ([]models.MNewsArticle, error) {
	body, err := c.Network.Get(newsBaseURL, map[string]string{
		"q":         query,
		"newsCount": fmt.Sprintf("%d", count),
	})
	if err != nil {
		return nil, fmt.Errorf("news request for %q: %w", query, err)
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("news decode for %q: %w", query, err)
	}

	articles := make([]models.MNewsArticle, 0, len(resp.News))
	for _, item := range resp.News {
		ticker := "MARKET"
		if len(item.RelatedTickers) > 0 {
			ticker = item.RelatedTickers[0]
		}
		imageURL := ""
		if item.Thumbnail != nil {
			imageURL = item.Thumbnail.URL
		}
		articles = append(articles, models.MNewsArticle{
			ID:          item.UUID,
			Title:       item.Title,
			Description: item.Publisher, // search API lacks a summary field
			Source:      item.Publisher,
			Timestamp:   item.ProviderPublishTime,
			URL:         item.Link,
			ImageURL:    imageURL,
			StockTicker: ticker,
		})
	}

	return articles, nil
}
