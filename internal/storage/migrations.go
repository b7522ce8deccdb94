package storage

import (
	"time"
)

// Migration represents a database migration
type Migration struct {
	ID          int       `db:"id"`
	Version     string    `db:"version"`
	Description string    `db:"description"`
	SQL         string    `db:"sql"`
	AppliedAt   time.Time `db:"applied_at"`
}

// GetSQLiteMigrations returns SQLite migration scripts
func GetSQLiteMigrations() []*Migration {
	return []*Migration{
		{
			Version:     "001",
			Description: "Create users table",
			SQL: `
				CREATE TABLE IF NOT EXISTS users (
					id TEXT PRIMARY KEY,
					wallet_address TEXT NOT NULL UNIQUE,
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL
				);

				CREATE INDEX IF NOT EXISTS idx_users_wallet_address ON users(wallet_address);
			`,
		},
		{
			Version:     "002",
			Description: "Create indexers table",
			SQL: `
				CREATE TABLE IF NOT EXISTS indexers (
					id TEXT PRIMARY KEY,
					user_id TEXT,
					name TEXT NOT NULL,
					connection_string TEXT NOT NULL,
					addresses TEXT NOT NULL, -- JSON array
					events TEXT NOT NULL, -- JSON array
					filter TEXT NOT NULL DEFAULT '',
					status TEXT NOT NULL DEFAULT 'active',
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL,
					FOREIGN KEY (user_id) REFERENCES users (id)
				);

				CREATE INDEX IF NOT EXISTS idx_indexers_user_id ON indexers(user_id);
				CREATE INDEX IF NOT EXISTS idx_indexers_status ON indexers(status);
				CREATE INDEX IF NOT EXISTS idx_indexers_created_at ON indexers(created_at);
			`,
		},
		{
			Version:     "003",
			Description: "Create migrations table",
			SQL: `
				CREATE TABLE IF NOT EXISTS migrations (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					version TEXT NOT NULL UNIQUE,
					description TEXT NOT NULL,
					applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
				);
			`,
		},
	}
}

// GetPostgresMigrations returns PostgreSQL migration scripts
func GetPostgresMigrations() []*Migration {
	return []*Migration{
		{
			Version:     "001",
			Description: "Create users table",
			SQL: `
				CREATE TABLE IF NOT EXISTS users (
					id TEXT PRIMARY KEY,
					wallet_address TEXT NOT NULL UNIQUE,
					created_at TIMESTAMP WITH TIME ZONE NOT NULL,
					updated_at TIMESTAMP WITH TIME ZONE NOT NULL
				);

				CREATE INDEX IF NOT EXISTS idx_users_wallet_address ON users(wallet_address);
			`,
		},
		{
			Version:     "002",
			Description: "Create indexers table",
			SQL: `
				CREATE TABLE IF NOT EXISTS indexers (
					id TEXT PRIMARY KEY,
					user_id TEXT,
					name TEXT NOT NULL,
					connection_string TEXT NOT NULL,
					addresses JSONB NOT NULL,
					events JSONB NOT NULL,
					filter TEXT NOT NULL DEFAULT '',
					status TEXT NOT NULL DEFAULT 'active',
					created_at TIMESTAMP WITH TIME ZONE NOT NULL,
					updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
					CONSTRAINT fk_indexers_user FOREIGN KEY (user_id) REFERENCES users (id)
				);

				CREATE INDEX IF NOT EXISTS idx_indexers_user_id ON indexers(user_id);
				CREATE INDEX IF NOT EXISTS idx_indexers_status ON indexers(status);
				CREATE INDEX IF NOT EXISTS idx_indexers_created_at ON indexers(created_at);
				CREATE INDEX IF NOT EXISTS idx_indexers_addresses_gin ON indexers USING GIN(addresses);
			`,
		},
		{
			Version:     "003",
			Description: "Create migrations table",
			SQL: `
				CREATE TABLE IF NOT EXISTS migrations (
					id SERIAL PRIMARY KEY,
					version TEXT NOT NULL UNIQUE,
					description TEXT NOT NULL,
					applied_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
				);
			`,
		},
	}
}
