// File: cmd/gateway/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/smartdevs17/solana-indexer-gateway/internal/auth"
	"github.com/smartdevs17/solana-indexer-gateway/internal/config"
	"github.com/smartdevs17/solana-indexer-gateway/internal/ingest"
	"github.com/smartdevs17/solana-indexer-gateway/internal/metrics"
	"github.com/smartdevs17/solana-indexer-gateway/internal/registrar"
	"github.com/smartdevs17/solana-indexer-gateway/internal/server"
	"github.com/smartdevs17/solana-indexer-gateway/internal/storage"
	"github.com/smartdevs17/solana-indexer-gateway/internal/tenant"
	"github.com/smartdevs17/solana-indexer-gateway/pkg/utils"
)

// AppVersion contains the application version
const AppVersion = "1.0.0"

// Application represents the main application
type Application struct {
	config    *config.Config
	logger    *logrus.Logger
	storage   storage.Storage
	verifier  auth.Verifier
	registrar registrar.Registrar
	tenants   tenant.Connector
	router    *ingest.Router
	metrics   *metrics.Manager
	server    *server.HTTPServer
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewApplication creates a new application instance
func NewApplication(cfg *config.Config) (*Application, error) {
	ctx, cancel := context.WithCancel(context.Background())

	app := &Application{
		config: cfg,
		ctx:    ctx,
		cancel: cancel,
	}

	// Initialize logger
	if err := app.initializeLogger(); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Initialize components
	if err := app.initializeComponents(); err != nil {
		return nil, fmt.Errorf("failed to initialize components: %w", err)
	}

	return app, nil
}

// initializeLogger initializes the application logger
func (app *Application) initializeLogger() error {
	logCfg := app.config.Logging

	if err := utils.InitLogger(logCfg.Level, logCfg.Format, logCfg.Output, logCfg.File); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.logger = utils.GetLogger()
	app.logger.WithFields(logrus.Fields{
		"level":  logCfg.Level,
		"format": logCfg.Format,
		"output": logCfg.Output,
	}).Info("Logger initialized")

	return nil
}

// initializeComponents initializes all application components
func (app *Application) initializeComponents() error {
	app.logger.Info("Initializing application components")

	if err := app.initializeMetrics(); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	if err := app.initializeStorage(); err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	if err := app.initializeAuth(); err != nil {
		return fmt.Errorf("failed to initialize auth: %w", err)
	}

	if err := app.initializeRegistrar(); err != nil {
		return fmt.Errorf("failed to initialize registrar: %w", err)
	}

	if err := app.initializeIngest(); err != nil {
		return fmt.Errorf("failed to initialize ingest: %w", err)
	}

	if err := app.initializeServer(); err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	app.logger.Info("All components initialized successfully")
	return nil
}

// initializeMetrics initializes the metrics manager
func (app *Application) initializeMetrics() error {
	if !app.config.Server.EnableMetrics {
		app.logger.Info("Metrics disabled")
		return nil
	}

	app.metrics = metrics.NewManager()
	app.logger.Info("Metrics manager initialized successfully")
	return nil
}

// initializeStorage initializes the control-plane storage layer
func (app *Application) initializeStorage() error {
	app.logger.Info("Initializing storage layer")

	store, err := storage.NewStorage(&app.config.Storage)
	if err != nil {
		return fmt.Errorf("failed to create storage: %w", err)
	}

	if err := store.Connect(); err != nil {
		return fmt.Errorf("failed to connect to storage: %w", err)
	}

	if err := store.Migrate(); err != nil {
		return fmt.Errorf("failed to run storage migrations: %w", err)
	}

	if app.metrics != nil {
		app.storage = storage.NewStorageWithMetrics(store, app.metrics)
	} else {
		app.storage = store
	}

	app.logger.Info("Storage layer initialized successfully")
	return nil
}

// initializeAuth initializes the wallet auth verifier
func (app *Application) initializeAuth() error {
	app.logger.Info("Initializing auth verifier")

	app.verifier = auth.NewPrivyClient(&app.config.Auth)

	app.logger.Info("Auth verifier initialized successfully")
	return nil
}

// initializeRegistrar initializes the webhook registrar
func (app *Application) initializeRegistrar() error {
	app.logger.Info("Initializing webhook registrar")

	app.registrar = registrar.NewHeliusClient(&app.config.Registrar)

	app.logger.Info("Webhook registrar initialized successfully")
	return nil
}

// initializeIngest initializes the tenant connector and envelope router
func (app *Application) initializeIngest() error {
	app.logger.Info("Initializing envelope router")

	app.tenants = tenant.NewPgxConnector(app.config.Tenant.ConnectTimeout)
	app.router = ingest.NewRouter(app.storage, app.tenants, app.metrics)

	app.logger.Info("Envelope router initialized successfully")
	return nil
}

// initializeServer initializes the HTTP server
func (app *Application) initializeServer() error {
	app.logger.Info("Initializing HTTP server")

	serverCfg := &server.ServerConfig{
		Port:          app.config.Server.Port,
		Host:          app.config.Server.Host,
		ReadTimeout:   app.config.Server.ReadTimeout,
		WriteTimeout:  app.config.Server.WriteTimeout,
		EnableMetrics: app.config.Server.EnableMetrics,
		EnableHealth:  app.config.Server.EnableHealth,
	}

	var err error
	app.server, err = server.NewHTTPServer(
		serverCfg,
		app.storage,
		app.verifier,
		app.registrar,
		app.tenants,
		app.router,
		app.metrics,
	)
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	app.logger.Info("HTTP server initialized successfully")
	return nil
}

// Start starts the application
func (app *Application) Start() error {
	app.logger.WithFields(logrus.Fields{
		"version":     AppVersion,
		"environment": app.config.App.Environment,
	}).Info("Starting Solana Indexer Gateway")

	if err := app.server.Start(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	app.logger.WithFields(logrus.Fields{
		"server_address": fmt.Sprintf("%s:%d", app.config.Server.Host, app.config.Server.Port),
		"storage":        app.config.Storage.Type,
	}).Info("Solana Indexer Gateway started successfully")

	return nil
}

// Stop stops the application gracefully
func (app *Application) Stop() error {
	app.logger.Info("Stopping Solana Indexer Gateway")

	app.cancel()

	if app.server != nil {
		if err := app.server.Stop(); err != nil {
			app.logger.WithError(err).Error("Failed to stop HTTP server")
		}
	}

	if app.storage != nil {
		if err := app.storage.Close(); err != nil {
			app.logger.WithError(err).Error("Failed to close storage")
		}
	}

	app.logger.Info("Solana Indexer Gateway stopped successfully")
	return nil
}

// CLI Commands

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "solana-indexer-gateway",
	Short:   "Solana Indexer Gateway",
	Long:    `A webhook gateway that routes Solana transaction events into per-user Postgres databases based on registered indexers.`,
	Version: AppVersion,
	RunE:    runGateway,
}

// runGateway is the main command to run the gateway
func runGateway(cmd *cobra.Command, args []string) error {
	// Load configuration
	configPath := viper.GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Create application
	app, err := NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	// Set up signal handling for graceful shutdown
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)

	// Start application
	if err := app.Start(); err != nil {
		return fmt.Errorf("failed to start application: %w", err)
	}

	// Wait for shutdown signal
	<-signalChan
	fmt.Println("\nReceived shutdown signal, stopping application...")

	// Stop application
	if err := app.Stop(); err != nil {
		return fmt.Errorf("failed to stop application: %w", err)
	}

	return nil
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Solana Indexer Gateway %s\n", AppVersion)
	},
}

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
}

// validateConfigCmd validates the configuration
var validateConfigCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := viper.GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("configuration validation failed: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("configuration validation failed: %w", err)
		}

		fmt.Printf("Configuration is valid!\n")
		fmt.Printf("Environment: %s\n", cfg.App.Environment)
		fmt.Printf("Auth provider: %s\n", cfg.Auth.ProviderURL)
		fmt.Printf("Webhook provider: %s\n", cfg.Registrar.APIURL)
		fmt.Printf("Database: %s\n", cfg.Storage.Type)

		return nil
	},
}

// testCmd represents the test command
var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Test connectivity and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := viper.GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		fmt.Println("Testing Solana Indexer Gateway connectivity...")

		// Test storage
		fmt.Printf("Testing storage connection (%s)...\n", cfg.Storage.Type)
		store, err := storage.NewStorage(&cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to create storage: %w", err)
		}
		if err := store.Connect(); err != nil {
			return fmt.Errorf("failed to connect to storage: %w", err)
		}
		defer store.Close()
		fmt.Println("✓ Storage connection successful")

		// Test webhook provider
		fmt.Printf("Testing webhook provider at %s...\n", cfg.Registrar.APIURL)
		client := registrar.NewHeliusClient(&cfg.Registrar)
		if err := client.Ping(context.Background()); err != nil {
			return fmt.Errorf("failed to reach webhook provider: %w", err)
		}
		fmt.Println("✓ Webhook provider reachable")

		fmt.Println("\nAll connectivity tests passed! ✓")
		return nil
	},
}

// init initializes the CLI commands
func init() {
	// Add persistent flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug mode")

	// Bind flags to viper
	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(testCmd)
	configCmd.AddCommand(validateConfigCmd)
}

// main is the entry point
func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
