package storage

import (
	"context"
	"time"

	"github.com/smartdevs17/solana-indexer-gateway/internal/metrics"
	"github.com/smartdevs17/solana-indexer-gateway/internal/models"
)

// StorageWithMetrics wraps a storage implementation with metrics
type StorageWithMetrics struct {
	Storage
	metricsManager *metrics.Manager
}

// NewStorageWithMetrics creates a storage wrapper with metrics
func NewStorageWithMetrics(storage Storage, metricsManager *metrics.Manager) *StorageWithMetrics {
	return &StorageWithMetrics{
		Storage:        storage,
		metricsManager: metricsManager,
	}
}

func (s *StorageWithMetrics) record(operation, table string, start time.Time, err error) {
	if s.metricsManager == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "error"
	}

	s.metricsManager.GetPrometheusMetrics().RecordDatabaseOperation(
		operation,
		table,
		status,
		time.Since(start),
	)
}

// UpsertUser upserts a user and records metrics
func (s *StorageWithMetrics) UpsertUser(ctx context.Context, walletAddress string) (*models.User, error) {
	start := time.Now()
	user, err := s.Storage.UpsertUser(ctx, walletAddress)
	s.record("upsert", "users", start, err)
	return user, err
}

// GetUserByWallet retrieves a user and records metrics
func (s *StorageWithMetrics) GetUserByWallet(ctx context.Context, walletAddress string) (*models.User, error) {
	start := time.Now()
	user, err := s.Storage.GetUserByWallet(ctx, walletAddress)
	s.record("select", "users", start, err)
	return user, err
}

// CreateIndexer creates an indexer and records metrics
func (s *StorageWithMetrics) CreateIndexer(ctx context.Context, indexer *models.Indexer) error {
	start := time.Now()
	err := s.Storage.CreateIndexer(ctx, indexer)
	s.record("insert", "indexers", start, err)
	return err
}

// GetIndexersByUser lists a user's indexers and records metrics
func (s *StorageWithMetrics) GetIndexersByUser(ctx context.Context, userID string) ([]*models.Indexer, error) {
	start := time.Now()
	indexers, err := s.Storage.GetIndexersByUser(ctx, userID)
	s.record("select", "indexers", start, err)
	return indexers, err
}

// GetAllAddresses returns the flattened address union and records metrics
func (s *StorageWithMetrics) GetAllAddresses(ctx context.Context) ([]string, error) {
	start := time.Now()
	addresses, err := s.Storage.GetAllAddresses(ctx)
	s.record("select", "indexers", start, err)
	return addresses, err
}

// GetIndexerByAddress looks up an indexer by address and records metrics
func (s *StorageWithMetrics) GetIndexerByAddress(ctx context.Context, address string) (*models.Indexer, error) {
	start := time.Now()
	indexer, err := s.Storage.GetIndexerByAddress(ctx, address)
	s.record("select", "indexers", start, err)
	return indexer, err
}
