package digest

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"sort"
	"sync"
	"time"

	"finstream/src/interfaces"
	"finstream/src/logger"
	"finstream/src/models"
	"finstream/src/yahoo"
)

// -----------------------------------------------------------------------------
// Digest builds and delivers the daily news email for every stored
// subscription. Each subscriber gets headlines for the symbols they follow.
// -----------------------------------------------------------------------------

const (
	// Headlines are fetched for the first few symbols only to keep the
	// per-subscriber request fan-out bounded.
	maxNewsSymbols      = 3
	articlesPerSymbol   = 3
	maxArticlesPerEmail = 5
)

// -----------------------------------------------------------------------------

type Digest struct {
	Config *models.MConfig
	Logger *logger.Logger
	Yahoo  *yahoo.Client
	DB     interfaces.IDatabase
	Sender Sender
}

// -----------------------------------------------------------------------------

func NewDigest(cfg *models.MConfig, log *logger.Logger, yc *yahoo.Client, db interfaces.IDatabase, sender Sender) *Digest {
	return &Digest{
		Config: cfg,
		Logger: log,
		Yahoo:  yc,
		DB:     db,
		Sender: sender,
	}
}

// -----------------------------------------------------------------------------

// Run delivers the digest once a day at the configured hour until ctx is
// cancelled.
func (d *Digest) Run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		wait := time.Until(d.nextSendTime(time.Now()))
		d.Logger.Info("Next digest delivery in %s", wait.Round(time.Second))

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
			if err := d.SendNow(); err != nil {
				d.Logger.Error("Scheduled digest delivery failed: %v", err)
			}
		}
	}
}

// -----------------------------------------------------------------------------

// nextSendTime returns the next occurrence of the configured send hour.
func (d *Digest) nextSendTime(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), d.Config.Digest.SendHour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}

// -----------------------------------------------------------------------------

// SendNow builds and sends a digest for every subscriber. One failed
// delivery never blocks the others; an error is returned only when nothing
// could be sent at all.
func (d *Digest) SendNow() error {
	subs, err := d.DB.ListSubscriptions()
	if err != nil {
		return fmt.Errorf("failed to load subscriptions: %w", err)
	}
	if len(subs) == 0 {
		d.Logger.Info("No subscribers, skipping digest")
		return nil
	}

	sent := 0
	for _, sub := range subs {
		articles := d.FetchNewsForSymbols(sub.Symbols)

		body, err := d.render(sub, articles)
		if err != nil {
			d.Logger.Error("Failed to render digest for %s: %v", sub.Email, err)
			continue
		}

		subject := fmt.Sprintf("Your market digest for %s", time.Now().Format("Jan 2, 2006"))
		if err := d.Sender.Send(sub.Email, subject, body); err != nil {
			d.Logger.Error("Failed to send digest to %s: %v", sub.Email, err)
			continue
		}
		sent++
	}

	d.Logger.Info("Digest delivered to %d/%d subscribers", sent, len(subs))
	if sent == 0 {
		return fmt.Errorf("digest delivery failed for all %d subscribers", len(subs))
	}
	return nil
}

// -----------------------------------------------------------------------------

// SendTest delivers a one-off digest to a single address, bypassing the
// stored subscriptions.
func (d *Digest) SendTest(email string, symbols []string) error {
	if len(symbols) == 0 {
		symbols = []string{"SPY"}
	}

	sub := models.MEmailSubscription{Email: email, Symbols: symbols}
	body, err := d.render(sub, d.FetchNewsForSymbols(symbols))
	if err != nil {
		return fmt.Errorf("failed to render test digest: %w", err)
	}

	subject := fmt.Sprintf("Test market digest for %s", time.Now().Format("Jan 2, 2006"))
	return d.Sender.Send(email, subject, body)
}

// -----------------------------------------------------------------------------

// FetchNewsForSymbols collects headlines for the first few subscribed
// symbols, deduplicates by URL and keeps the freshest articles.
func (d *Digest) FetchNewsForSymbols(symbols []string) []models.MNewsArticle {
	if len(symbols) > maxNewsSymbols {
		symbols = symbols[:maxNewsSymbols]
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	collected := make([]models.MNewsArticle, 0, len(symbols)*articlesPerSymbol)

	for _, symbol := range symbols {
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()

			articles, err := d.Yahoo.News(sym, articlesPerSymbol)
			if err != nil {
				d.Logger.Info("No headlines for %s: %v", sym, err)
				return
			}

			mu.Lock()
			collected = append(collected, articles...)
			mu.Unlock()
		}(symbol)
	}
	wg.Wait()

	// Dedup by URL, the same story often shows up for several tickers.
	seen := make(map[string]struct{}, len(collected))
	unique := collected[:0]
	for _, article := range collected {
		if _, dup := seen[article.URL]; dup {
			continue
		}
		seen[article.URL] = struct{}{}
		unique = append(unique, article)
	}

	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].Timestamp > unique[j].Timestamp
	})
	if len(unique) > maxArticlesPerEmail {
		unique = unique[:maxArticlesPerEmail]
	}
	return unique
}

// -----------------------------------------------------------------------------
// HTML Rendering
// -----------------------------------------------------------------------------

var emailTemplate = template.Must(template.New("digest").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #222;">
  <h2>Market digest</h2>
  <p>Headlines for your watchlist: {{range $i, $s := .Symbols}}{{if $i}}, {{end}}{{$s}}{{end}}</p>
  {{if .Articles}}
  <ul>
    {{range .Articles}}
    <li style="margin-bottom: 12px;">
      <a href="{{.URL}}">{{.Title}}</a><br>
      <small>{{.Source}} &middot; {{.StockTicker}}</small>
    </li>
    {{end}}
  </ul>
  {{else}}
  <p>No fresh headlines today.</p>
  {{end}}
  <p style="color: #888; font-size: 12px;">You receive this because {{.Email}} is subscribed.</p>
</body>
</html>`))

// -----------------------------------------------------------------------------

func (d *Digest) render(sub models.MEmailSubscription, articles []models.MNewsArticle) (string, error) {
	var buf bytes.Buffer
	err := emailTemplate.Execute(&buf, struct {
		Email    string
		Symbols  []string
		Articles []models.MNewsArticle
	}{
		Email:    sub.Email,
		Symbols:  sub.Symbols,
		Articles: articles,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
