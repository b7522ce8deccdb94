// File: internal/storage/sqlite.go
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/smartdevs17/solana-indexer-gateway/internal/models"
	"github.com/smartdevs17/solana-indexer-gateway/pkg/utils"
	_ "modernc.org/sqlite"
)

// SQLiteStorage implements Storage interface using SQLite
type SQLiteStorage struct {
	db         *sql.DB
	config     *StorageConfig
	logger     *logrus.Logger
	migrations []*Migration
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(config *StorageConfig) *SQLiteStorage {
	return &SQLiteStorage{
		config:     config,
		logger:     utils.GetLogger(),
		migrations: GetSQLiteMigrations(),
	}
}

// Connect establishes database connection
func (s *SQLiteStorage) Connect() error {
	// Ensure directory exists
	dir := filepath.Dir(s.config.ConnectionString)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return utils.NewAppError(utils.ErrCodeDatabase, "Failed to create database directory", err.Error())
		}
	}

	db, err := sql.Open("sqlite", s.config.ConnectionString)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to open SQLite database", err.Error())
	}

	// Configure connection pool
	db.SetMaxOpenConns(s.config.MaxConnections)
	db.SetMaxIdleConns(s.config.MaxConnections / 2)
	db.SetConnMaxLifetime(s.config.MaxIdleTime)

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to enable WAL mode", err.Error())
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to enable foreign keys", err.Error())
	}

	s.db = db
	s.logger.WithField("path", s.config.ConnectionString).Info("SQLite database connected")

	return nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		s.logger.Info("SQLite database connection closed")
		return err
	}
	return nil
}

// Ping checks database connectivity
func (s *SQLiteStorage) Ping() error {
	if s.db == nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Database not connected", "")
	}
	return s.db.Ping()
}

// Migrate runs database migrations
func (s *SQLiteStorage) Migrate() error {
	if s.db == nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Database not connected", "")
	}

	s.logger.Info("Starting SQLite database migrations")

	for _, migration := range s.migrations {
		s.logger.WithFields(logrus.Fields{
			"version":     migration.Version,
			"description": migration.Description,
		}).Debug("Applying migration")

		if _, err := s.db.Exec(migration.SQL); err != nil {
			return utils.NewAppError(utils.ErrCodeDatabase,
				"Migration "+migration.Version+" failed",
				err.Error())
		}
	}

	s.logger.Info("SQLite database migrations completed")
	return nil
}

// UpsertUser inserts a user for the wallet address if absent and returns
// the stored row. The insert is a conditional no-op so repeated logins
// with the same wallet keep a single row.
func (s *SQLiteStorage) UpsertUser(ctx context.Context, walletAddress string) (*models.User, error) {
	now := time.Now().UTC()
	id := uuid.New().String()

	query := `
		INSERT INTO users (id, wallet_address, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (wallet_address) DO NOTHING
	`

	if _, err := s.db.ExecContext(ctx, query, id, walletAddress, now, now); err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to upsert user", err.Error())
	}

	user, err := s.GetUserByWallet(ctx, walletAddress)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "User missing after upsert", walletAddress)
	}

	return user, nil
}

// GetUserByWallet retrieves a user by wallet address
func (s *SQLiteStorage) GetUserByWallet(ctx context.Context, walletAddress string) (*models.User, error) {
	query := `SELECT id, wallet_address, created_at, updated_at FROM users WHERE wallet_address = ?`

	row := s.db.QueryRowContext(ctx, query, walletAddress)

	var user models.User
	err := row.Scan(&user.ID, &user.WalletAddress, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to get user", err.Error())
	}

	return &user, nil
}

// CreateIndexer persists a new indexer. Monitored addresses are the sole
// routing key for webhook ingestion, so an address already claimed by
// another indexer is rejected here.
func (s *SQLiteStorage) CreateIndexer(ctx context.Context, indexer *models.Indexer) error {
	if indexer.ID == "" {
		indexer.ID = uuid.New().String()
	}
	if indexer.Status == "" {
		indexer.Status = models.IndexerStatusActive
	}
	if indexer.Addresses == nil {
		indexer.Addresses = []string{}
	}
	if indexer.Events == nil {
		indexer.Events = []string{}
	}

	for _, address := range indexer.Addresses {
		existing, err := s.GetIndexerByAddress(ctx, address)
		if err != nil {
			return err
		}
		if existing != nil {
			return utils.NewAppError(utils.ErrCodeConflict,
				"Address is already registered to another indexer", address)
		}
	}

	addressesJSON, err := json.Marshal(indexer.Addresses)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to marshal addresses", err.Error())
	}
	eventsJSON, err := json.Marshal(indexer.Events)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to marshal events", err.Error())
	}

	now := time.Now().UTC()
	indexer.CreatedAt = now
	indexer.UpdatedAt = now

	query := `
		INSERT INTO indexers (id, user_id, name, connection_string, addresses, events, filter, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		indexer.ID, indexer.UserID, indexer.Name, indexer.ConnectionString,
		string(addressesJSON), string(eventsJSON), indexer.Filter, indexer.Status,
		indexer.CreatedAt, indexer.UpdatedAt)

	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to create indexer", err.Error())
	}

	return nil
}

// GetIndexer retrieves an indexer by ID
func (s *SQLiteStorage) GetIndexer(ctx context.Context, id string) (*models.Indexer, error) {
	query := `
		SELECT id, user_id, name, connection_string, addresses, events, filter, status, created_at, updated_at
		FROM indexers WHERE id = ?
	`

	indexer, err := scanIndexer(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to get indexer", err.Error())
	}

	return indexer, nil
}

// GetIndexersByUser retrieves all indexers owned by a user
func (s *SQLiteStorage) GetIndexersByUser(ctx context.Context, userID string) ([]*models.Indexer, error) {
	query := `
		SELECT id, user_id, name, connection_string, addresses, events, filter, status, created_at, updated_at
		FROM indexers WHERE user_id = ?
		ORDER BY created_at ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to query indexers", err.Error())
	}
	defer rows.Close()

	var indexers []*models.Indexer
	for rows.Next() {
		indexer, err := scanIndexer(rows)
		if err != nil {
			return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to scan indexer", err.Error())
		}
		indexers = append(indexers, indexer)
	}

	return indexers, rows.Err()
}

// GetAllAddresses returns the flattened union of every indexer's address
// list, in indexer creation order.
func (s *SQLiteStorage) GetAllAddresses(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT addresses FROM indexers ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to query addresses", err.Error())
	}
	defer rows.Close()

	var all []string
	for rows.Next() {
		var addressesJSON string
		if err := rows.Scan(&addressesJSON); err != nil {
			return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to scan addresses", err.Error())
		}

		var addresses []string
		if err := json.Unmarshal([]byte(addressesJSON), &addresses); err != nil {
			return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to unmarshal addresses", err.Error())
		}
		all = append(all, addresses...)
	}

	return all, rows.Err()
}

// GetIndexerByAddress returns the first indexer, in creation order, whose
// address list contains the given address.
func (s *SQLiteStorage) GetIndexerByAddress(ctx context.Context, address string) (*models.Indexer, error) {
	query := `
		SELECT id, user_id, name, connection_string, addresses, events, filter, status, created_at, updated_at
		FROM indexers ORDER BY created_at ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to query indexers", err.Error())
	}
	defer rows.Close()

	for rows.Next() {
		indexer, err := scanIndexer(rows)
		if err != nil {
			return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to scan indexer", err.Error())
		}
		if indexer.HasAddress(address) {
			return indexer, nil
		}
	}

	return nil, rows.Err()
}

// GetStats returns storage statistics
func (s *SQLiteStorage) GetStats() (*StorageStats, error) {
	stats := &StorageStats{}

	if err := s.db.QueryRow("SELECT COUNT(*) FROM users").Scan(&stats.TotalUsers); err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to count users", err.Error())
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM indexers").Scan(&stats.TotalIndexers); err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to count indexers", err.Error())
	}

	addresses, err := s.GetAllAddresses(context.Background())
	if err != nil {
		return nil, err
	}
	stats.TotalAddresses = int64(len(addresses))

	// Aggregates lose the column decltype in SQLite, so bounds are read
	// from ordered plain selects.
	var oldest, latest time.Time
	err = s.db.QueryRow("SELECT created_at FROM indexers ORDER BY created_at ASC LIMIT 1").Scan(&oldest)
	if err == nil {
		stats.OldestIndexer = &oldest
	} else if err != sql.ErrNoRows {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to query indexer age", err.Error())
	}
	err = s.db.QueryRow("SELECT created_at FROM indexers ORDER BY created_at DESC LIMIT 1").Scan(&latest)
	if err == nil {
		stats.LatestIndexer = &latest
	} else if err != sql.ErrNoRows {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to query indexer age", err.Error())
	}

	return stats, nil
}

// GetHealth returns storage health status
func (s *SQLiteStorage) GetHealth() *StorageHealth {
	health := &StorageHealth{
		Healthy:   true,
		LastCheck: time.Now(),
	}

	if err := s.Ping(); err != nil {
		health.Healthy = false
		health.Error = err.Error()
	}

	return health
}
