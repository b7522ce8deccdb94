// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Registrar RegistrarConfig `mapstructure:"registrar"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Tenant    TenantConfig    `mapstructure:"tenant"`
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// AuthConfig contains identity provider (Privy) configuration
type AuthConfig struct {
	ProviderURL    string        `mapstructure:"provider_url"`
	AppID          string        `mapstructure:"app_id"`
	AppSecret      string        `mapstructure:"app_secret"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// RegistrarConfig contains webhook provider (Helius) configuration
type RegistrarConfig struct {
	APIURL         string        `mapstructure:"api_url"`
	APIKey         string        `mapstructure:"api_key"`
	WebhookID      string        `mapstructure:"webhook_id"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// StorageConfig contains system database configuration
type StorageConfig struct {
	Type             string        `mapstructure:"type"` // sqlite, postgres
	ConnectionString string        `mapstructure:"connection_string"`
	MaxConnections   int           `mapstructure:"max_connections"`
	MaxIdleTime      time.Duration `mapstructure:"max_idle_time"`
}

// TenantConfig contains tenant Postgres connector configuration
type TenantConfig struct {
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port          int           `mapstructure:"port"`
	Host          string        `mapstructure:"host"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	EnableMetrics bool          `mapstructure:"enable_metrics"`
	EnableHealth  bool          `mapstructure:"enable_health"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json, text
	Output string `mapstructure:"output"` // stdout, file
	File   string `mapstructure:"file"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigType("yaml")

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./internal/config")
	}

	// Set environment variable prefix
	viper.SetEnvPrefix("INDEXER_GATEWAY")
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			fmt.Println("Config file not found, using defaults and environment variables")
		} else {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Override with well-known environment variables if present
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Storage.ConnectionString = dbURL
	}
	if appID := os.Getenv("PRIVY_APP_ID"); appID != "" {
		config.Auth.AppID = appID
	}
	if appSecret := os.Getenv("PRIVY_APP_SECRET"); appSecret != "" {
		config.Auth.AppSecret = appSecret
	}
	if apiKey := os.Getenv("HELIUS_API_KEY"); apiKey != "" {
		config.Registrar.APIKey = apiKey
	}
	if webhookID := os.Getenv("HELIUS_WEBHOOK_ID"); webhookID != "" {
		config.Registrar.WebhookID = webhookID
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// App defaults
	viper.SetDefault("app.name", "solana-indexer-gateway")
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.environment", "development")
	viper.SetDefault("app.debug", false)

	// Auth defaults
	viper.SetDefault("auth.provider_url", "https://auth.privy.io")
	viper.SetDefault("auth.request_timeout", "10s")

	// Registrar defaults
	viper.SetDefault("registrar.api_url", "https://api.helius.xyz")
	viper.SetDefault("registrar.request_timeout", "15s")

	// Storage defaults
	viper.SetDefault("storage.type", "sqlite")
	viper.SetDefault("storage.connection_string", "./data/gateway.db")
	viper.SetDefault("storage.max_connections", 25)
	viper.SetDefault("storage.max_idle_time", "15m")

	// Tenant defaults
	viper.SetDefault("tenant.connect_timeout", "10s")

	// Server defaults
	viper.SetDefault("server.port", 8081)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.read_timeout", "10s")
	viper.SetDefault("server.write_timeout", "10s")
	viper.SetDefault("server.enable_metrics", true)
	viper.SetDefault("server.enable_health", true)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")
}

// Validate validates the configuration. Provider credentials are required
// up front so a misconfigured deployment fails at startup instead of on
// the first request.
func (c *Config) Validate() error {
	if c.Auth.AppID == "" {
		return fmt.Errorf("auth app ID is required (auth.app_id or PRIVY_APP_ID)")
	}
	if c.Auth.AppSecret == "" {
		return fmt.Errorf("auth app secret is required (auth.app_secret or PRIVY_APP_SECRET)")
	}
	if c.Registrar.APIKey == "" {
		return fmt.Errorf("registrar API key is required (registrar.api_key or HELIUS_API_KEY)")
	}
	if c.Registrar.WebhookID == "" {
		return fmt.Errorf("registrar webhook ID is required (registrar.webhook_id or HELIUS_WEBHOOK_ID)")
	}
	if c.Storage.ConnectionString == "" {
		return fmt.Errorf("storage connection string is required")
	}
	if c.Tenant.ConnectTimeout <= 0 {
		return fmt.Errorf("tenant connect timeout must be positive")
	}
	return nil
}
