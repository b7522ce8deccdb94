package models

import "time"

// Indexer status values
const (
	IndexerStatusActive = "active"
)

// Indexer binds a tenant Postgres database to a set of monitored Solana
// addresses and event types. An indexer may be created without an owner;
// anonymous registration is permitted.
type Indexer struct {
	ID               string    `json:"id" db:"id"`
	UserID           *string   `json:"userId,omitempty" db:"user_id"`
	Name             string    `json:"name" db:"name"`
	ConnectionString string    `json:"connectionString" db:"connection_string"`
	Addresses        []string  `json:"addresses" db:"addresses"`
	Events           []string  `json:"events" db:"events"`
	Filter           string    `json:"filter,omitempty" db:"filter"`
	Status           string    `json:"status" db:"status"`
	CreatedAt        time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time `json:"updatedAt" db:"updated_at"`
}

// HasAddress reports whether the indexer monitors the given address.
func (i *Indexer) HasAddress(address string) bool {
	for _, a := range i.Addresses {
		if a == address {
			return true
		}
	}
	return false
}
