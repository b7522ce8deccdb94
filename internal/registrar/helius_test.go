package registrar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartdevs17/solana-indexer-gateway/internal/config"
	"github.com/smartdevs17/solana-indexer-gateway/pkg/utils"
)

// fakeWebhookProvider serves a single mutable webhook resource
type fakeWebhookProvider struct {
	server  *httptest.Server
	current webhook
	puts    int
}

func newFakeWebhookProvider(t *testing.T, initial webhook) *fakeWebhookProvider {
	t.Helper()

	p := &fakeWebhookProvider{current: initial}

	mux := http.NewServeMux()
	mux.HandleFunc("/v0/webhooks/hook-1", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "test-key", r.URL.Query().Get("api-key"))

		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(p.current)
		case http.MethodPut:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&p.current))
			p.puts++
			json.NewEncoder(w).Encode(p.current)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	p.server = httptest.NewServer(mux)
	t.Cleanup(p.server.Close)
	return p
}

func newTestRegistrar(apiURL string) *HeliusClient {
	return NewHeliusClient(&config.RegistrarConfig{
		APIURL:         apiURL,
		APIKey:         "test-key",
		WebhookID:      "hook-1",
		RequestTimeout: 5 * time.Second,
	})
}

func TestAppendAddresses(t *testing.T) {
	provider := newFakeWebhookProvider(t, webhook{
		WebhookID:        "hook-1",
		WebhookURL:       "https://example.com/api/webhooks",
		AccountAddresses: []string{"existing-address"},
		TransactionTypes: []string{"NFT_SALE"},
	})

	client := newTestRegistrar(provider.server.URL)

	err := client.AppendAddresses(context.Background(), []string{"new-address"}, []string{"NFT_BID"})
	require.NoError(t, err)

	assert.Equal(t, 1, provider.puts)
	assert.Equal(t, []string{"existing-address", "new-address"}, provider.current.AccountAddresses)
	assert.Equal(t, []string{"NFT_SALE", "NFT_BID"}, provider.current.TransactionTypes)
}

func TestAppendAddressesDeduplicates(t *testing.T) {
	provider := newFakeWebhookProvider(t, webhook{
		WebhookID:        "hook-1",
		AccountAddresses: []string{"existing-address"},
		TransactionTypes: []string{},
	})

	client := newTestRegistrar(provider.server.URL)

	err := client.AppendAddresses(context.Background(), []string{"existing-address", ""}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"existing-address"}, provider.current.AccountAddresses)
}

func TestAppendAddressesAllClearsEventFilter(t *testing.T) {
	provider := newFakeWebhookProvider(t, webhook{
		WebhookID:        "hook-1",
		AccountAddresses: []string{},
		TransactionTypes: []string{"NFT_SALE"},
	})

	client := newTestRegistrar(provider.server.URL)

	err := client.AppendAddresses(context.Background(), []string{"addr"}, []string{"all"})
	require.NoError(t, err)

	assert.Empty(t, provider.current.TransactionTypes)
}

func TestAppendAddressesProviderDown(t *testing.T) {
	provider := newFakeWebhookProvider(t, webhook{WebhookID: "hook-1"})
	url := provider.server.URL
	provider.server.Close()

	client := newTestRegistrar(url)

	err := client.AppendAddresses(context.Background(), []string{"addr"}, nil)
	require.Error(t, err)
	assert.Equal(t, utils.ErrCodeExternal, utils.CodeOf(err))
}

func TestPing(t *testing.T) {
	provider := newFakeWebhookProvider(t, webhook{WebhookID: "hook-1"})
	client := newTestRegistrar(provider.server.URL)

	require.NoError(t, client.Ping(context.Background()))
}

func TestMergeUnique(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, mergeUnique([]string{"a", "b"}, []string{"b", "c"}))
	assert.Equal(t, []string{"a"}, mergeUnique([]string{"a"}, nil))
	assert.Equal(t, []string{"a"}, mergeUnique(nil, []string{"a", "a", ""}))
}
