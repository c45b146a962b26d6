package models

// -----------------------------------------------------------------------------
// Wire Messages (field names follow the streaming provider's trade frame)
// -----------------------------------------------------------------------------

// MTradeUpdate is one normalized price update, produced either from a parsed
// streaming trade frame or from a polled quote. InternalID is set only when
// the provider symbol resolves through the reverse symbol map.
type MTradeUpdate struct {
	Symbol     string  `json:"s"`
	Price      float64 `json:"p"`
	Timestamp  int64   `json:"t"`
	Volume     float64 `json:"v,omitempty"`
	InternalID string  `json:"internalId,omitempty"`
}

// MTradeFrame matches the upstream trade-batch message shape.
type MTradeFrame struct {
	Type string         `json:"type"`
	Data []MTradeUpdate `json:"data"`
}

// MGainerRow is one entry of the synthetic top-movers panel.
type MGainerRow struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
}

// MEnvelope is the message pushed to every downstream client.
// Type is "trade" for genuine market data and "top_gainers" for the
// simulated movers list; the two are never mixed so clients can tell
// real prices from synthetic ones.
type MEnvelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// MSubscribeMessage is what downstream clients send to track a symbol.
// Symbol may be an internal index id or a raw ticker.
type MSubscribeMessage struct {
	Type   string `json:"type"`
	Symbol string `json:"symbol"`
}

// -----------------------------------------------------------------------------
// Proxy Endpoint Shapes
// -----------------------------------------------------------------------------

type MQuote struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Currency      string  `json:"currency"`
	PreviousClose float64 `json:"previousClose"`
	Timestamp     int64   `json:"timestamp"`
}

type MBatchQuote struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	Currency      string  `json:"currency"`
	Name          string  `json:"name"`
	Timestamp     int64   `json:"timestamp"`
}

type MSearchResult struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Exch   string `json:"exch"`
	Type   string `json:"type"`
}

type MHistoryBar struct {
	Timestamp int64   `json:"timestamp"`
	Date      string  `json:"date"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

type MNewsArticle struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Source      string `json:"source"`
	Timestamp   int64  `json:"timestamp"`
	URL         string `json:"url"`
	ImageURL    string `json:"imageUrl,omitempty"`
	StockTicker string `json:"stockTicker"`
}
