package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/smartdevs17/solana-indexer-gateway/internal/models"
	"github.com/smartdevs17/solana-indexer-gateway/pkg/utils"
)

// PostgreSQLStorage implements Storage interface using PostgreSQL
type PostgreSQLStorage struct {
	db         *sql.DB
	config     *StorageConfig
	logger     *logrus.Logger
	migrations []*Migration
}

// NewPostgreSQLStorage creates a new PostgreSQL storage instance
func NewPostgreSQLStorage(config *StorageConfig) *PostgreSQLStorage {
	return &PostgreSQLStorage{
		config:     config,
		logger:     utils.GetLogger(),
		migrations: GetPostgresMigrations(),
	}
}

// Connect establishes database connection
func (p *PostgreSQLStorage) Connect() error {
	db, err := sql.Open("postgres", p.config.ConnectionString)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to open PostgreSQL database", err.Error())
	}

	// Configure connection pool
	db.SetMaxOpenConns(p.config.MaxConnections)
	db.SetMaxIdleConns(p.config.MaxConnections / 2)
	db.SetConnMaxLifetime(p.config.MaxIdleTime)

	// Test connection
	if err := db.Ping(); err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to ping PostgreSQL database", err.Error())
	}

	p.db = db
	p.logger.Info("PostgreSQL database connected")

	return nil
}

// Close closes the database connection
func (p *PostgreSQLStorage) Close() error {
	if p.db != nil {
		err := p.db.Close()
		p.db = nil
		p.logger.Info("PostgreSQL database connection closed")
		return err
	}
	return nil
}

// Ping checks database connectivity
func (p *PostgreSQLStorage) Ping() error {
	if p.db == nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Database not connected", "")
	}
	return p.db.Ping()
}

// Migrate runs database migrations
func (p *PostgreSQLStorage) Migrate() error {
	if p.db == nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Database not connected", "")
	}

	p.logger.Info("Starting PostgreSQL database migrations")

	for _, migration := range p.migrations {
		p.logger.WithFields(logrus.Fields{
			"version":     migration.Version,
			"description": migration.Description,
		}).Debug("Applying migration")

		if _, err := p.db.Exec(migration.SQL); err != nil {
			return utils.NewAppError(utils.ErrCodeDatabase,
				"Migration "+migration.Version+" failed",
				err.Error())
		}
	}

	p.logger.Info("PostgreSQL database migrations completed")
	return nil
}

// UpsertUser inserts a user for the wallet address if absent and returns
// the stored row.
func (p *PostgreSQLStorage) UpsertUser(ctx context.Context, walletAddress string) (*models.User, error) {
	now := time.Now().UTC()
	id := uuid.New().String()

	query := `
		INSERT INTO users (id, wallet_address, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (wallet_address) DO NOTHING
	`

	if _, err := p.db.ExecContext(ctx, query, id, walletAddress, now, now); err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to upsert user", err.Error())
	}

	user, err := p.GetUserByWallet(ctx, walletAddress)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "User missing after upsert", walletAddress)
	}

	return user, nil
}

// GetUserByWallet retrieves a user by wallet address
func (p *PostgreSQLStorage) GetUserByWallet(ctx context.Context, walletAddress string) (*models.User, error) {
	query := `SELECT id, wallet_address, created_at, updated_at FROM users WHERE wallet_address = $1`

	row := p.db.QueryRowContext(ctx, query, walletAddress)

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

// CreateIndexer persists a new indexer, rejecting addresses already
// claimed by another indexer.
func (p *PostgreSQLStorage) CreateIndexer(ctx context.Context, indexer *models.Indexer) error {
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
		existing, err := p.GetIndexerByAddress(ctx, address)
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
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = p.db.ExecContext(ctx, query,
		indexer.ID, indexer.UserID, indexer.Name, indexer.ConnectionString,
		string(addressesJSON), string(eventsJSON), indexer.Filter, indexer.Status,
		indexer.CreatedAt, indexer.UpdatedAt)

	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to create indexer", err.Error())
	}

	return nil
}

// GetIndexer retrieves an indexer by ID
func (p *PostgreSQLStorage) GetIndexer(ctx context.Context, id string) (*models.Indexer, error) {
	query := `
		SELECT id, user_id, name, connection_string, addresses, events, filter, status, created_at, updated_at
		FROM indexers WHERE id = $1
	`

	indexer, err := scanIndexer(p.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to get indexer", err.Error())
	}

	return indexer, nil
}

// GetIndexersByUser retrieves all indexers owned by a user
func (p *PostgreSQLStorage) GetIndexersByUser(ctx context.Context, userID string) ([]*models.Indexer, error) {
	query := `
		SELECT id, user_id, name, connection_string, addresses, events, filter, status, created_at, updated_at
		FROM indexers WHERE user_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := p.db.QueryContext(ctx, query, userID)
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
func (p *PostgreSQLStorage) GetAllAddresses(ctx context.Context) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT addresses FROM indexers ORDER BY created_at ASC, id ASC`)
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
// address list contains the given address. The JSONB containment operator
// keeps the scan on the server side.
func (p *PostgreSQLStorage) GetIndexerByAddress(ctx context.Context, address string) (*models.Indexer, error) {
	query := `
		SELECT id, user_id, name, connection_string, addresses, events, filter, status, created_at, updated_at
		FROM indexers WHERE addresses @> to_jsonb(ARRAY[$1::text])
		ORDER BY created_at ASC, id ASC
		LIMIT 1
	`

	indexer, err := scanIndexer(p.db.QueryRowContext(ctx, query, address))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to get indexer by address", err.Error())
	}

	return indexer, nil
}

// GetStats returns storage statistics
func (p *PostgreSQLStorage) GetStats() (*StorageStats, error) {
	stats := &StorageStats{}

	if err := p.db.QueryRow("SELECT COUNT(*) FROM users").Scan(&stats.TotalUsers); err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to count users", err.Error())
	}
	if err := p.db.QueryRow("SELECT COUNT(*) FROM indexers").Scan(&stats.TotalIndexers); err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to count indexers", err.Error())
	}

	addresses, err := p.GetAllAddresses(context.Background())
	if err != nil {
		return nil, err
	}
	stats.TotalAddresses = int64(len(addresses))

	var oldest, latest sql.NullTime
	if err := p.db.QueryRow("SELECT MIN(created_at), MAX(created_at) FROM indexers").Scan(&oldest, &latest); err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to query indexer age", err.Error())
	}
	if oldest.Valid {
		stats.OldestIndexer = &oldest.Time
	}
	if latest.Valid {
		stats.LatestIndexer = &latest.Time
	}

	return stats, nil
}

// GetHealth returns storage health status
func (p *PostgreSQLStorage) GetHealth() *StorageHealth {
	health := &StorageHealth{
		Healthy:   true,
		LastCheck: time.Now(),
	}

	if err := p.Ping(); err != nil {
		health.Healthy = false
		health.Error = err.Error()
	}

	return health
}
