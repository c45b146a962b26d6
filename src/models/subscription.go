package models

import "time"

// MEmailSubscription maps one subscriber address to the symbols they follow.
type MEmailSubscription struct {
	Email     string    `json:"email"`
	Symbols   []string  `json:"symbols"`
	CreatedAt time.Time `json:"created_at"`
}
