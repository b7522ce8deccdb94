// File: internal/storage/storage.go
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/smartdevs17/solana-indexer-gateway/internal/models"
)

// Storage defines the interface for the system store
type Storage interface {
	// Connection management
	Connect() error
	Close() error
	Ping() error
	Migrate() error

	// User operations
	UpsertUser(ctx context.Context, walletAddress string) (*models.User, error)
	GetUserByWallet(ctx context.Context, walletAddress string) (*models.User, error)

	// Indexer operations
	CreateIndexer(ctx context.Context, indexer *models.Indexer) error
	GetIndexer(ctx context.Context, id string) (*models.Indexer, error)
	GetIndexersByUser(ctx context.Context, userID string) ([]*models.Indexer, error)
	GetAllAddresses(ctx context.Context) ([]string, error)
	GetIndexerByAddress(ctx context.Context, address string) (*models.Indexer, error)

	// Statistics and monitoring
	GetStats() (*StorageStats, error)
	GetHealth() *StorageHealth
}

// StorageStats provides storage statistics
type StorageStats struct {
	TotalUsers     int64      `json:"total_users"`
	TotalIndexers  int64      `json:"total_indexers"`
	TotalAddresses int64      `json:"total_addresses"`
	OldestIndexer  *time.Time `json:"oldest_indexer,omitempty"`
	LatestIndexer  *time.Time `json:"latest_indexer,omitempty"`
}

// StorageHealth provides storage health status
type StorageHealth struct {
	Healthy   bool      `json:"healthy"`
	LastCheck time.Time `json:"last_check"`
	Error     string    `json:"error,omitempty"`
}

// StorageConfig holds storage configuration
type StorageConfig struct {
	Type             string        `json:"type"`
	ConnectionString string        `json:"connection_string"`
	MaxConnections   int           `json:"max_connections"`
	MaxIdleTime      time.Duration `json:"max_idle_time"`
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanIndexer scans one indexer row. Both backends store the address and
// event lists as JSON, so the row shape is identical.
func scanIndexer(row rowScanner) (*models.Indexer, error) {
	var indexer models.Indexer
	var userID sql.NullString
	var addressesJSON, eventsJSON string

	err := row.Scan(&indexer.ID, &userID, &indexer.Name, &indexer.ConnectionString,
		&addressesJSON, &eventsJSON, &indexer.Filter, &indexer.Status,
		&indexer.CreatedAt, &indexer.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if userID.Valid {
		indexer.UserID = &userID.String
	}
	if err := json.Unmarshal([]byte(addressesJSON), &indexer.Addresses); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(eventsJSON), &indexer.Events); err != nil {
		return nil, err
	}

	return &indexer, nil
}
