package storage

import (
	"database/sql"
	"strings"
	"time"

	"finstream/src/models"
)

// -----------------------------------------------------------------------------

// scanSubscriptions reads email_subscriptions rows into the shared model.
// Both backends store the symbol list as one comma-joined TEXT column.
func scanSubscriptions(rows *sql.Rows) ([]models.MEmailSubscription, error) {
	subs := make([]models.MEmailSubscription, 0)
	for rows.Next() {
		var email, joined string
		var createdAt int64
		if err := rows.Scan(&email, &joined, &createdAt); err != nil {
			return nil, err
		}

		symbols := make([]string, 0)
		for _, sym := range strings.Split(joined, ",") {
			if sym = strings.TrimSpace(sym); sym != "" {
				symbols = append(symbols, sym)
			}
		}

		subs = append(subs, models.MEmailSubscription{
			Email:     email,
			Symbols:   symbols,
			CreatedAt: time.Unix(createdAt, 0),
		})
	}
	return subs, rows.Err()
}
