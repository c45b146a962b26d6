package yahoo

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"finstream/src/logger"
)

// -----------------------------------------------------------------------------

// stubNetwork maps URL substrings to canned bodies or errors.
type stubNetwork struct {
	responses map[string]string
	failures  map[string]error
}

func (s *stubNetwork) Get(url string, params map[string]string) ([]byte, error) {
	for key, err := range s.failures {
		if strings.Contains(url, key) {
			return nil, err
		}
	}
	for key, body := range s.responses {
		if strings.Contains(url, key) {
			return []byte(body), nil
		}
	}
	return nil, fmt.Errorf("no stub for %s", url)
}

func newTestClient(net *stubNetwork) *Client {
	return NewClient(net, logger.NewLogger("ERROR", "test"), 4)
}

func chartBody(symbol string, price, prevClose float64) string {
	return fmt.Sprintf(`{"chart":{"result":[{"meta":{"currency":"USD","symbol":"%s","regularMarketPrice":%g,"chartPreviousClose":%g}}],"error":null}}`,
		symbol, price, prevClose)
}

// -----------------------------------------------------------------------------

func TestMetaReportsAPIError(t *testing.T) {
	client := newTestClient(&stubNetwork{responses: map[string]string{
		"/chart/BOGUS": `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`,
	}})

	_, err := client.Meta("BOGUS")
	if err == nil {
		t.Fatal("expected an error for an api-level failure")
	}
	if !strings.Contains(err.Error(), "Not Found") {
		t.Errorf("error should carry the api code, got %v", err)
	}
}

// -----------------------------------------------------------------------------

func TestHistoryDropsNullCloses(t *testing.T) {
	body := `{"chart":{"result":[{
		"meta":{"currency":"USD","symbol":"AAPL","regularMarketPrice":190,"chartPreviousClose":189},
		"timestamp":[1700000000,1700000060,1700000120],
		"indicators":{"quote":[{
			"open":[189.5,null,190.2],
			"high":[190.0,null,190.5],
			"low":[189.0,null,190.0],
			"close":[189.8,null,190.4],
			"volume":[1000,null,1200]
		}]}
	}],"error":null}}`
	client := newTestClient(&stubNetwork{responses: map[string]string{"/chart/AAPL": body}})

	bars, err := client.History("AAPL", "1d", "1m")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected the null-close row dropped, got %d bars", len(bars))
	}
	if bars[0].Close != 189.8 || bars[1].Close != 190.4 {
		t.Errorf("unexpected closes: %v, %v", bars[0].Close, bars[1].Close)
	}
	if bars[1].Timestamp != 1700000120 {
		t.Errorf("second bar should be the third row, got ts %d", bars[1].Timestamp)
	}
	if !strings.HasSuffix(bars[0].Date, "Z") {
		t.Errorf("dates should be UTC RFC3339, got %q", bars[0].Date)
	}
}

func TestHistoryMissingResultIsErrNoData(t *testing.T) {
	client := newTestClient(&stubNetwork{responses: map[string]string{
		"/chart/EMPTY": `{"chart":{"result":[],"error":null}}`,
	}})

	_, err := client.History("EMPTY", "1d", "1m")
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData for a missing result, got %v", err)
	}
}

func TestHistoryAllNullClosesServesEmptyList(t *testing.T) {
	body := `{"chart":{"result":[{
		"meta":{"currency":"USD","symbol":"HALT","regularMarketPrice":10,"chartPreviousClose":10},
		"timestamp":[1700000000,1700000060],
		"indicators":{"quote":[{
			"open":[null,null],
			"high":[null,null],
			"low":[null,null],
			"close":[null,null],
			"volume":[null,null]
		}]}
	}],"error":null}}`
	client := newTestClient(&stubNetwork{responses: map[string]string{"/chart/HALT": body}})

	// The result exists, every bar just got filtered. That is an empty
	// list, not a missing symbol.
	bars, err := client.History("HALT", "1d", "1m")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if bars == nil || len(bars) != 0 {
		t.Fatalf("expected an empty bar list, got %v", bars)
	}
}

// -----------------------------------------------------------------------------

func TestSearchFiltersQuoteTypes(t *testing.T) {
	body := `{"quotes":[
		{"symbol":"AAPL","shortname":"Apple Inc.","exchange":"NMS","quoteType":"EQUITY"},
		{"symbol":"SPY","longname":"SPDR S&P 500 ETF Trust","exchange":"PCX","quoteType":"ETF"},
		{"symbol":"AAPL240621C00200000","shortname":"AAPL Call","exchange":"OPR","quoteType":"OPTION"},
		{"symbol":"BTC-USD","shortname":"Bitcoin USD","exchange":"CCC","quoteType":"CRYPTOCURRENCY"}
	],"news":[]}`
	client := newTestClient(&stubNetwork{responses: map[string]string{"/finance/search": body}})

	results, err := client.Search("app", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected only EQUITY and ETF rows, got %d", len(results))
	}
	if results[0].Symbol != "AAPL" || results[0].Name != "Apple Inc." {
		t.Errorf("unexpected first result: %+v", results[0])
	}
	if results[1].Name != "SPDR S&P 500 ETF Trust" {
		t.Errorf("longname fallback not applied: %+v", results[1])
	}
}

// -----------------------------------------------------------------------------

func TestBatchQuotesDropsFailuresAndKeepsOrder(t *testing.T) {
	client := newTestClient(&stubNetwork{
		responses: map[string]string{
			"/chart/MSFT": chartBody("MSFT", 420.5, 418.0),
			"/chart/AAPL": chartBody("AAPL", 190.0, 188.0),
			"/chart/TSLA": chartBody("TSLA", 250.0, 260.0),
		},
		failures: map[string]error{
			"/chart/NVDA": fmt.Errorf("simulated timeout"),
		},
	})

	quotes := client.BatchQuotes([]string{"MSFT", "NVDA", "AAPL", "TSLA"})
	if len(quotes) != 3 {
		t.Fatalf("expected the failing symbol dropped, got %d quotes", len(quotes))
	}
	want := []string{"MSFT", "AAPL", "TSLA"}
	for i, q := range quotes {
		if q.Symbol != want[i] {
			t.Fatalf("request order not preserved: got %v at %d", q.Symbol, i)
		}
	}
	if quotes[2].Change >= 0 {
		t.Errorf("TSLA change should be negative, got %v", quotes[2].Change)
	}
	wantPct := (420.5 - 418.0) / 418.0 * 100
	if diff := quotes[0].ChangePercent - wantPct; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("MSFT change percent: got %v want %v", quotes[0].ChangePercent, wantPct)
	}
}

func TestBatchQuotesOrdersByRequestedSymbol(t *testing.T) {
	// Yahoo canonicalizes class-share tickers, so the response symbol
	// differs from the requested spelling.
	client := newTestClient(&stubNetwork{
		responses: map[string]string{
			"/chart/MSFT":  chartBody("MSFT", 420.5, 418.0),
			"/chart/BRK.B": chartBody("BRK-B", 470.0, 468.0),
			"/chart/AAPL":  chartBody("AAPL", 190.0, 188.0),
		},
	})

	quotes := client.BatchQuotes([]string{"MSFT", "BRK.B", "AAPL"})
	if len(quotes) != 3 {
		t.Fatalf("expected 3 quotes, got %d", len(quotes))
	}
	want := []string{"MSFT", "BRK-B", "AAPL"}
	for i, q := range quotes {
		if q.Symbol != want[i] {
			t.Fatalf("request order not preserved: got %v at %d, want %v", q.Symbol, i, want[i])
		}
	}
}

// -----------------------------------------------------------------------------

func TestNewsDefaultsTickerAndThumbnail(t *testing.T) {
	body := `{"quotes":[],"news":[
		{"uuid":"a1","title":"Markets rally","publisher":"Newswire","link":"https://example.com/a1",
		 "providerPublishTime":1700000000,
		 "thumbnail":{"url":"https://example.com/a1.png"},"relatedTickers":["SPY","QQQ"]},
		{"uuid":"b2","title":"Fed speaks","publisher":"Wire2","link":"https://example.com/b2",
		 "providerPublishTime":1700000100}
	]}`
	client := newTestClient(&stubNetwork{responses: map[string]string{"/finance/search": body}})

	articles, err := client.News("market", 5)
	if err != nil {
		t.Fatalf("News: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(articles))
	}
	if articles[0].StockTicker != "SPY" {
		t.Errorf("first related ticker should win, got %q", articles[0].StockTicker)
	}
	if articles[0].ImageURL != "https://example.com/a1.png" {
		t.Errorf("thumbnail url not carried: %q", articles[0].ImageURL)
	}
	if articles[1].StockTicker != "MARKET" {
		t.Errorf("missing tickers should default to MARKET, got %q", articles[1].StockTicker)
	}
	if articles[1].ImageURL != "" {
		t.Errorf("missing thumbnail should yield empty image url, got %q", articles[1].ImageURL)
	}
}
