package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "solana-indexer-gateway", cfg.App.Name)
	assert.Equal(t, "https://auth.privy.io", cfg.Auth.ProviderURL)
	assert.Equal(t, "https://api.helius.xyz", cfg.Registrar.APIURL)
	assert.Equal(t, "sqlite", cfg.Storage.Type)
	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Tenant.ConnectTimeout)
	assert.True(t, cfg.Server.EnableHealth)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env-host/control")
	t.Setenv("PRIVY_APP_ID", "env-app-id")
	t.Setenv("PRIVY_APP_SECRET", "env-app-secret")
	t.Setenv("HELIUS_API_KEY", "env-api-key")
	t.Setenv("HELIUS_WEBHOOK_ID", "env-webhook-id")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "postgres://env-host/control", cfg.Storage.ConnectionString)
	assert.Equal(t, "env-app-id", cfg.Auth.AppID)
	assert.Equal(t, "env-app-secret", cfg.Auth.AppSecret)
	assert.Equal(t, "env-api-key", cfg.Registrar.APIKey)
	assert.Equal(t, "env-webhook-id", cfg.Registrar.WebhookID)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
app:
  environment: production
auth:
  app_id: file-app-id
  app_secret: file-app-secret
registrar:
  api_key: file-api-key
  webhook_id: file-webhook-id
server:
  port: 9090
storage:
  type: postgres
  connection_string: postgres://file-host/control
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.App.Environment)
	assert.Equal(t, "file-app-id", cfg.Auth.AppID)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Storage.Type)
	assert.Equal(t, "postgres://file-host/control", cfg.Storage.ConnectionString)

	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	valid := &Config{
		Auth:      AuthConfig{AppID: "id", AppSecret: "secret"},
		Registrar: RegistrarConfig{APIKey: "key", WebhookID: "hook"},
		Storage:   StorageConfig{ConnectionString: "./data/gateway.db"},
		Tenant:    TenantConfig{ConnectTimeout: 5 * time.Second},
	}
	assert.NoError(t, valid.Validate())

	missingAppID := *valid
	missingAppID.Auth.AppID = ""
	assert.Error(t, missingAppID.Validate())

	missingSecret := *valid
	missingSecret.Auth.AppSecret = ""
	assert.Error(t, missingSecret.Validate())

	missingKey := *valid
	missingKey.Registrar.APIKey = ""
	assert.Error(t, missingKey.Validate())

	missingHook := *valid
	missingHook.Registrar.WebhookID = ""
	assert.Error(t, missingHook.Validate())

	missingStorage := *valid
	missingStorage.Storage.ConnectionString = ""
	assert.Error(t, missingStorage.Validate())

	badTimeout := *valid
	badTimeout.Tenant.ConnectTimeout = 0
	assert.Error(t, badTimeout.Validate())
}
