package tenant

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
	"github.com/smartdevs17/solana-indexer-gateway/pkg/utils"
)

// Fixed tenant-side schema, created idempotently on first matched event.
const createTransactionsTable = `
	CREATE TABLE IF NOT EXISTS transactions (
		id SERIAL PRIMARY KEY,
		description TEXT,
		address TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)
`

// PgxConnector implements Connector using single pgx connections
type PgxConnector struct {
	connectTimeout time.Duration
	logger         *logrus.Entry
}

// NewPgxConnector creates a new tenant connector
func NewPgxConnector(connectTimeout time.Duration) *PgxConnector {
	if connectTimeout <= 0 {
		connectTimeout = 10 * time.Second
	}

	return &PgxConnector{
		connectTimeout: connectTimeout,
		logger:         logrus.WithField("component", "tenant"),
	}
}

// Validate opens a connection to the tenant database, issues a trivial
// round-trip query, and closes the connection regardless of outcome.
func (c *PgxConnector) Validate(ctx context.Context, connString string) error {
	ctx, cancel := context.WithTimeout(ctx, c.connectTimeout)
	defer cancel()

	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeConnection,
			"Failed to connect to PostgreSQL database", err.Error())
	}
	defer conn.Close(ctx)

	var now time.Time
	if err := conn.QueryRow(ctx, "SELECT NOW()").Scan(&now); err != nil {
		return utils.NewAppError(utils.ErrCodeConnection,
			"Failed to query PostgreSQL database", err.Error())
	}

	return nil
}

// InsertTransaction opens a connection to the tenant database, ensures
// the transactions table exists, inserts one row, and closes the
// connection unconditionally. The created_at timestamp is assigned by
// the tenant server.
func (c *PgxConnector) InsertTransaction(ctx context.Context, connString, description, address string) error {
	ctx, cancel := context.WithTimeout(ctx, c.connectTimeout)
	defer cancel()

	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeConnection,
			"Failed to connect to tenant database", err.Error())
	}
	defer conn.Close(ctx)

	if _, err := conn.Exec(ctx, createTransactionsTable); err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase,
			"Failed to initialize tenant schema", err.Error())
	}

	query := `INSERT INTO transactions (description, address) VALUES ($1, $2)`
	if _, err := conn.Exec(ctx, query, description, address); err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase,
			"Failed to insert transaction", err.Error())
	}

	c.logger.WithField("address", address).Debug("Transaction written to tenant database")
	return nil
}
