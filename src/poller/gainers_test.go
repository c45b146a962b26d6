package poller

import "testing"

func TestGenerateAlwaysFiveRowsSortedDescending(t *testing.T) {
	for seed := int64(0); seed < 50; seed++ {
		g := NewGainerGenerator(seed)
		for i := 0; i < 10; i++ {
			rows := g.Generate()
			if len(rows) != 5 {
				t.Fatalf("seed %d: expected 5 rows, got %d", seed, len(rows))
			}
			for j := 1; j < len(rows); j++ {
				if rows[j].ChangePercent > rows[j-1].ChangePercent {
					t.Fatalf("seed %d: rows not sorted descending: %v > %v",
						seed, rows[j].ChangePercent, rows[j-1].ChangePercent)
				}
			}
		}
	}
}

func TestGenerateRowsComeFromUniverse(t *testing.T) {
	universe := make(map[string]bool, len(gainerUniverse))
	for _, s := range gainerUniverse {
		universe[s.symbol] = true
	}

	rows := NewGainerGenerator(1).Generate()
	seen := make(map[string]bool)
	for _, row := range rows {
		if !universe[row.Symbol] {
			t.Errorf("row symbol %q not in universe", row.Symbol)
		}
		if seen[row.Symbol] {
			t.Errorf("duplicate symbol %q in snapshot", row.Symbol)
		}
		seen[row.Symbol] = true
		if row.Price <= 0 {
			t.Errorf("non-positive price for %q: %v", row.Symbol, row.Price)
		}
	}
}
