package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartdevs17/solana-indexer-gateway/internal/models"
	"github.com/smartdevs17/solana-indexer-gateway/internal/storage"
)

// fakeStore serves a fixed set of indexers keyed by address
type fakeStore struct {
	indexers   []*models.Indexer
	addressErr error
	lookupErr  error
}

func (f *fakeStore) Connect() error { return nil }
func (f *fakeStore) Close() error   { return nil }
func (f *fakeStore) Ping() error    { return nil }
func (f *fakeStore) Migrate() error { return nil }

func (f *fakeStore) UpsertUser(ctx context.Context, walletAddress string) (*models.User, error) {
	return nil, nil
}

func (f *fakeStore) GetUserByWallet(ctx context.Context, walletAddress string) (*models.User, error) {
	return nil, nil
}

func (f *fakeStore) CreateIndexer(ctx context.Context, indexer *models.Indexer) error {
	f.indexers = append(f.indexers, indexer)
	return nil
}

func (f *fakeStore) GetIndexer(ctx context.Context, id string) (*models.Indexer, error) {
	return nil, nil
}

func (f *fakeStore) GetIndexersByUser(ctx context.Context, userID string) ([]*models.Indexer, error) {
	return f.indexers, nil
}

func (f *fakeStore) GetAllAddresses(ctx context.Context) ([]string, error) {
	if f.addressErr != nil {
		return nil, f.addressErr
	}
	var all []string
	for _, indexer := range f.indexers {
		all = append(all, indexer.Addresses...)
	}
	return all, nil
}

func (f *fakeStore) GetIndexerByAddress(ctx context.Context, address string) (*models.Indexer, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	for _, indexer := range f.indexers {
		if indexer.HasAddress(address) {
			return indexer, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetStats() (*storage.StorageStats, error) { return &storage.StorageStats{}, nil }
func (f *fakeStore) GetHealth() *storage.StorageHealth        { return &storage.StorageHealth{Healthy: true} }

// tenantWrite records one routed envelope
type tenantWrite struct {
	connString  string
	description string
	address     string
}

// fakeConnector records tenant writes and can fail on demand
type fakeConnector struct {
	writes  []tenantWrite
	failAll bool
}

func (f *fakeConnector) Validate(ctx context.Context, connString string) error { return nil }

func (f *fakeConnector) InsertTransaction(ctx context.Context, connString, description, address string) error {
	if f.failAll {
		return errors.New("tenant unavailable")
	}
	f.writes = append(f.writes, tenantWrite{connString, description, address})
	return nil
}

func indexerFor(address, connString string) *models.Indexer {
	return &models.Indexer{
		ID:               "idx-" + address,
		Name:             "indexer-" + address,
		ConnectionString: connString,
		Addresses:        []string{address},
		Status:           models.IndexerStatusActive,
	}
}

func TestProcessBatchRoutesMatchedEnvelopes(t *testing.T) {
	store := &fakeStore{indexers: []*models.Indexer{
		indexerFor("AddrOne", "postgres://localhost/one"),
		indexerFor("AddrTwo", "postgres://localhost/two"),
	}}
	tenants := &fakeConnector{}
	router := NewRouter(store, tenants, nil)

	result := router.ProcessBatch(context.Background(), []models.WebhookEnvelope{
		{Description: "transfer involving AddrOne completed"},
		{Description: "swap by AddrTwo on mainnet"},
		{Description: "unrelated activity"},
	})

	assert.Equal(t, 3, result.Received)
	assert.Equal(t, 2, result.Matched)
	assert.Equal(t, 1, result.Skipped)

	require.Len(t, tenants.writes, 2)
	assert.Equal(t, "postgres://localhost/one", tenants.writes[0].connString)
	assert.Equal(t, "AddrOne", tenants.writes[0].address)
	assert.Equal(t, "transfer involving AddrOne completed", tenants.writes[0].description)
	assert.Equal(t, "postgres://localhost/two", tenants.writes[1].connString)
}

func TestProcessBatchFirstMatchWins(t *testing.T) {
	store := &fakeStore{indexers: []*models.Indexer{
		indexerFor("AddrOne", "postgres://localhost/one"),
		indexerFor("AddrTwo", "postgres://localhost/two"),
	}}
	tenants := &fakeConnector{}
	router := NewRouter(store, tenants, nil)

	result := router.ProcessBatch(context.Background(), []models.WebhookEnvelope{
		{Description: "AddrOne traded with AddrTwo"},
	})

	assert.Equal(t, 1, result.Matched)
	require.Len(t, tenants.writes, 1)
	assert.Equal(t, "AddrOne", tenants.writes[0].address)
}

func TestProcessBatchEmptyDescription(t *testing.T) {
	store := &fakeStore{indexers: []*models.Indexer{
		indexerFor("AddrOne", "postgres://localhost/one"),
	}}
	tenants := &fakeConnector{}
	router := NewRouter(store, tenants, nil)

	result := router.ProcessBatch(context.Background(), []models.WebhookEnvelope{
		{Description: ""},
	})

	assert.Equal(t, 0, result.Matched)
	assert.Equal(t, 1, result.Skipped)
	assert.Empty(t, tenants.writes)
}

func TestProcessBatchTenantFailureSkips(t *testing.T) {
	store := &fakeStore{indexers: []*models.Indexer{
		indexerFor("AddrOne", "postgres://localhost/one"),
	}}
	tenants := &fakeConnector{failAll: true}
	router := NewRouter(store, tenants, nil)

	result := router.ProcessBatch(context.Background(), []models.WebhookEnvelope{
		{Description: "event for AddrOne"},
		{Description: "another event for AddrOne"},
	})

	assert.Equal(t, 0, result.Matched)
	assert.Equal(t, 2, result.Skipped)
}

func TestProcessBatchAddressLoadFailure(t *testing.T) {
	store := &fakeStore{addressErr: errors.New("db down")}
	tenants := &fakeConnector{}
	router := NewRouter(store, tenants, nil)

	result := router.ProcessBatch(context.Background(), []models.WebhookEnvelope{
		{Description: "event for AddrOne"},
	})

	assert.Equal(t, 1, result.Received)
	assert.Equal(t, 0, result.Matched)
	assert.Equal(t, 1, result.Skipped)
}

func TestProcessBatchLookupFailureSkips(t *testing.T) {
	store := &fakeStore{
		indexers:  []*models.Indexer{indexerFor("AddrOne", "postgres://localhost/one")},
		lookupErr: errors.New("db down"),
	}
	tenants := &fakeConnector{}
	router := NewRouter(store, tenants, nil)

	result := router.ProcessBatch(context.Background(), []models.WebhookEnvelope{
		{Description: "event for AddrOne"},
	})

	assert.Equal(t, 0, result.Matched)
	assert.Equal(t, 1, result.Skipped)
	assert.Empty(t, tenants.writes)
}

func TestProcessBatchEmpty(t *testing.T) {
	router := NewRouter(&fakeStore{}, &fakeConnector{}, nil)

	result := router.ProcessBatch(context.Background(), nil)

	assert.Equal(t, 0, result.Received)
	assert.Equal(t, 0, result.Matched)
	assert.Equal(t, 0, result.Skipped)
}

func TestMatchAddress(t *testing.T) {
	addresses := []string{"AddrOne", "AddrTwo"}

	assert.Equal(t, "AddrOne", matchAddress("something AddrOne something", addresses))
	assert.Equal(t, "AddrTwo", matchAddress("AddrTwo leads", addresses))
	assert.Equal(t, "", matchAddress("no match here", addresses))
	assert.Equal(t, "", matchAddress("anything", nil))
}
