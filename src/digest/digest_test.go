package digest

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"finstream/src/logger"
	"finstream/src/models"
	"finstream/src/yahoo"
)

// -----------------------------------------------------------------------------
// Test Doubles
// -----------------------------------------------------------------------------

type newsNetwork struct{}

// Every symbol yields two headlines; "shared" appears for every symbol so
// deduplication has something to chew on.
func (n *newsNetwork) Get(url string, params map[string]string) ([]byte, error) {
	sym := params["q"]
	body := fmt.Sprintf(`{"quotes":[],"news":[
		{"uuid":"%[1]s-1","title":"%[1]s headline","publisher":"Wire","link":"https://example.com/%[1]s","providerPublishTime":%[2]d,"relatedTickers":["%[1]s"]},
		{"uuid":"shared","title":"Macro story","publisher":"Wire","link":"https://example.com/shared","providerPublishTime":100}
	]}`, sym, 1000+int64(len(sym)))
	return []byte(body), nil
}

type memoryDB struct {
	subs    []models.MEmailSubscription
	listErr error
}

func (m *memoryDB) Initialize() error                       { return nil }
func (m *memoryDB) SaveSubscription(string, []string) error { return nil }
func (m *memoryDB) RemoveSubscription(string) error         { return nil }
func (m *memoryDB) Close() error                            { return nil }

func (m *memoryDB) ListSubscriptions() ([]models.MEmailSubscription, error) {
	return m.subs, m.listErr
}

type recordingSender struct {
	mu     sync.Mutex
	sent   []string
	bodies []string
	fail   map[string]bool
}

func (r *recordingSender) Send(to, subject, htmlBody string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail[to] {
		return fmt.Errorf("simulated smtp failure for %s", to)
	}
	r.sent = append(r.sent, to)
	r.bodies = append(r.bodies, htmlBody)
	return nil
}

// -----------------------------------------------------------------------------

func newTestDigest(db *memoryDB, sender Sender) *Digest {
	cfg := &models.MConfig{}
	cfg.Digest.Enabled = true
	cfg.Digest.SendHour = 7
	log := logger.NewLogger("ERROR", "test")
	return NewDigest(cfg, log, yahoo.NewClient(&newsNetwork{}, log, 4), db, sender)
}

// -----------------------------------------------------------------------------

func TestFetchNewsDeduplicatesAndCaps(t *testing.T) {
	d := newTestDigest(&memoryDB{}, &recordingSender{})

	articles := d.FetchNewsForSymbols([]string{"AAPL", "MSFT", "NVDA", "TSLA", "AMZN"})

	// Three symbols queried, two headlines each, the shared one collapses:
	// three unique per-symbol stories plus one macro story.
	if len(articles) != 4 {
		t.Fatalf("expected 4 unique articles, got %d", len(articles))
	}

	seen := make(map[string]int)
	for _, a := range articles {
		seen[a.URL]++
		if seen[a.URL] > 1 {
			t.Errorf("duplicate article url %s", a.URL)
		}
	}
	if _, ok := seen["https://example.com/shared"]; !ok {
		t.Error("shared story should survive deduplication once")
	}
	if _, ok := seen["https://example.com/TSLA"]; ok {
		t.Error("symbols past the fan-out cap should not be queried")
	}
}

// -----------------------------------------------------------------------------

func TestSendNowIsolatesPerSubscriberFailures(t *testing.T) {
	db := &memoryDB{subs: []models.MEmailSubscription{
		{Email: "alice@example.com", Symbols: []string{"AAPL"}},
		{Email: "broken@example.com", Symbols: []string{"MSFT"}},
		{Email: "carol@example.com", Symbols: []string{"NVDA"}},
	}}
	sender := &recordingSender{fail: map[string]bool{"broken@example.com": true}}
	d := newTestDigest(db, sender)

	if err := d.SendNow(); err != nil {
		t.Fatalf("partial failure must not fail the run: %v", err)
	}
	if len(sender.sent) != 2 {
		t.Fatalf("expected 2 deliveries, got %d: %v", len(sender.sent), sender.sent)
	}
	for _, body := range sender.bodies {
		if !strings.Contains(body, "example.com") {
			t.Error("rendered digest should link the headlines")
		}
	}
}

// -----------------------------------------------------------------------------

func TestSendNowFailsWhenNothingDelivered(t *testing.T) {
	db := &memoryDB{subs: []models.MEmailSubscription{
		{Email: "alice@example.com", Symbols: []string{"AAPL"}},
	}}
	sender := &recordingSender{fail: map[string]bool{"alice@example.com": true}}
	d := newTestDigest(db, sender)

	if err := d.SendNow(); err == nil {
		t.Fatal("expected an error when every delivery fails")
	}
}

func TestSendNowWithoutSubscribers(t *testing.T) {
	sender := &recordingSender{}
	d := newTestDigest(&memoryDB{}, sender)

	if err := d.SendNow(); err != nil {
		t.Fatalf("empty subscriber list should be a no-op: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Errorf("nothing should have been sent, got %v", sender.sent)
	}
}

// -----------------------------------------------------------------------------

func TestSendTestBypassesStoredSubscriptions(t *testing.T) {
	sender := &recordingSender{}
	d := newTestDigest(&memoryDB{}, sender)

	if err := d.SendTest("tester@example.com", []string{"AAPL"}); err != nil {
		t.Fatalf("SendTest: %v", err)
	}
	if len(sender.sent) != 1 || sender.sent[0] != "tester@example.com" {
		t.Fatalf("expected one delivery to the test address, got %v", sender.sent)
	}
	if !strings.Contains(sender.bodies[0], "AAPL") {
		t.Error("rendered digest should mention the requested symbol")
	}
}

// -----------------------------------------------------------------------------

func TestNextSendTimeRollsOverMidnight(t *testing.T) {
	d := newTestDigest(&memoryDB{}, &recordingSender{})

	morning := time.Date(2026, 3, 10, 5, 0, 0, 0, time.UTC)
	next := d.nextSendTime(morning)
	if next.Day() != 10 || next.Hour() != 7 {
		t.Errorf("expected same-day 07:00, got %v", next)
	}

	evening := time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)
	next = d.nextSendTime(evening)
	if next.Day() != 11 || next.Hour() != 7 {
		t.Errorf("expected next-day 07:00, got %v", next)
	}
}
