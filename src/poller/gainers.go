package poller

import (
	"math"
	"math/rand"
	"sort"

	"finstream/src/models"
)

// -----------------------------------------------------------------------------
// Synthetic top-movers panel. The free-tier upstream APIs expose no reliable
// top-gainers list, so this panel is simulated from a fixed universe and
// always leaves the server under its own message type, never as "trade".
// -----------------------------------------------------------------------------

type baseStock struct {
	symbol    string
	name      string
	basePrice float64
}

var gainerUniverse = []baseStock{
	{"OKLO", "Oklo Inc.", 135.00},
	{"BHF", "Brighthouse Financial", 57.00},
	{"QUBT", "Quantum Computing", 23.00},
	{"MENS", "Mens Wearhouse", 65.00},
	{"PLTR", "Palantir Technologies", 42.00},
	{"SOFI", "SoFi Technologies", 9.50},
}

const gainerRows = 5

// -----------------------------------------------------------------------------

// GainerGenerator produces randomly perturbed top-gainer snapshots.
type GainerGenerator struct {
	rng *rand.Rand
}

// -----------------------------------------------------------------------------

func NewGainerGenerator(seed int64) *GainerGenerator {
	return &GainerGenerator{rng: rand.New(rand.NewSource(seed))}
}

// -----------------------------------------------------------------------------

// Generate returns exactly 5 rows ranked by descending percent change.
// Perturbation is ±5% of the base price, biased towards gains.
func (g *GainerGenerator) Generate() []models.MGainerRow {
	rows := make([]models.MGainerRow, 0, len(gainerUniverse))

	for _, stock := range gainerUniverse {
		volatility := stock.basePrice * 0.05
		change := g.rng.Float64()*volatility*2 - volatility + volatility*0.5
		price := stock.basePrice + change
		changePercent := change / stock.basePrice * 100

		rows = append(rows, models.MGainerRow{
			Symbol:        stock.symbol,
			Name:          stock.name,
			Price:         round2(price),
			Change:        round2(change),
			ChangePercent: round2(changePercent),
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].ChangePercent > rows[j].ChangePercent
	})

	return rows[:gainerRows]
}

// -----------------------------------------------------------------------------

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
