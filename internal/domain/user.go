package domain

import "time"

// User is an owner account. One user maps to one business ledger.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	BusinessName string    `json:"businessName"`
	Currency     string    `json:"currency"`
	CreatedAt    time.Time `json:"createdAt"`
}
