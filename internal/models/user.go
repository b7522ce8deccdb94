package models

import "time"

// User represents an authenticated dashboard user. The wallet address
// resolved from the identity provider is the natural key; rows are only
// ever inserted, never updated or deleted.
type User struct {
	ID            string    `json:"id" db:"id"`
	WalletAddress string    `json:"walletAddress" db:"wallet_address"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}
