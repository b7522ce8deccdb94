// File: internal/server/server.go
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/smartdevs17/solana-indexer-gateway/internal/auth"
	"github.com/smartdevs17/solana-indexer-gateway/internal/ingest"
	"github.com/smartdevs17/solana-indexer-gateway/internal/metrics"
	"github.com/smartdevs17/solana-indexer-gateway/internal/models"
	"github.com/smartdevs17/solana-indexer-gateway/internal/registrar"
	"github.com/smartdevs17/solana-indexer-gateway/internal/storage"
	"github.com/smartdevs17/solana-indexer-gateway/internal/tenant"
	"github.com/smartdevs17/solana-indexer-gateway/pkg/utils"
)

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port          int           `json:"port"`
	Host          string        `json:"host"`
	ReadTimeout   time.Duration `json:"read_timeout"`
	WriteTimeout  time.Duration `json:"write_timeout"`
	EnableMetrics bool          `json:"enable_metrics"`
	EnableHealth  bool          `json:"enable_health"`
}

// HTTPServer represents the HTTP server
type HTTPServer struct {
	config         *ServerConfig
	server         *http.Server
	muxRouter      *mux.Router
	storage        storage.Storage
	verifier       auth.Verifier
	registrar      registrar.Registrar
	tenants        tenant.Connector
	router         *ingest.Router
	metricsManager *metrics.Manager
	logger         *logrus.Logger
}

// NewHTTPServer creates a new HTTP server
func NewHTTPServer(
	config *ServerConfig,
	storage storage.Storage,
	verifier auth.Verifier,
	registrar registrar.Registrar,
	tenants tenant.Connector,
	router *ingest.Router,
	metricsManager *metrics.Manager,
) (*HTTPServer, error) {

	server := &HTTPServer{
		config:         config,
		storage:        storage,
		verifier:       verifier,
		registrar:      registrar,
		tenants:        tenants,
		router:         router,
		metricsManager: metricsManager,
		logger:         utils.GetLogger(),
	}

	// Setup router
	server.setupRouter()

	// Create HTTP server
	server.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      server.muxRouter,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}

	return server, nil
}

// setupRouter sets up the HTTP routes
func (s *HTTPServer) setupRouter() {
	s.muxRouter = mux.NewRouter()

	// Middleware
	s.muxRouter.Use(s.loggingMiddleware)
	s.muxRouter.Use(s.corsMiddleware)
	if s.metricsManager != nil {
		s.muxRouter.Use(s.metricsMiddleware)
	}

	// API routes
	api := s.muxRouter.PathPrefix("/api").Subrouter()

	// Auth endpoints
	api.HandleFunc("/auth/privy", s.authHandler).Methods("POST")

	// Indexer endpoints
	api.HandleFunc("/indexers", s.createIndexerHandler).Methods("POST")
	api.HandleFunc("/indexers", s.listIndexersHandler).Methods("GET")

	// Webhook endpoints
	api.HandleFunc("/webhooks", s.webhooksHandler).Methods("POST")
	api.HandleFunc("/webhook/test", s.webhookTestHandler).Methods("POST")

	// Health check endpoint
	if s.config.EnableHealth {
		s.muxRouter.HandleFunc("/health", s.healthHandler).Methods("GET")
		s.muxRouter.HandleFunc("/health/detailed", s.detailedHealthHandler).Methods("GET")
	}

	// Metrics endpoint
	if s.config.EnableMetrics {
		s.muxRouter.Handle("/metrics", promhttp.Handler())
		api.HandleFunc("/stats", s.statsHandler).Methods("GET")
	}
}

// Start starts the HTTP server
func (s *HTTPServer) Start() error {
	s.logger.WithFields(logrus.Fields{
		"address":         s.server.Addr,
		"metrics_enabled": s.config.EnableMetrics,
	}).Info("Starting HTTP server")

	// Immediately update system and component metrics so they appear on first scrape
	if s.metricsManager != nil {
		s.metricsManager.UpdateSystemMetrics()
		if s.storage != nil {
			health := s.storage.GetHealth()
			s.metricsManager.GetPrometheusMetrics().UpdateComponentHealth("storage", health.Healthy)
		}
	}

	// Start periodic updater
	if s.metricsManager != nil {
		go s.systemMetricsUpdater()
	}

	// Create a channel to receive startup errors
	errChan := make(chan error, 1)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Error("HTTP server error")
			errChan <- err
		}
	}()

	// Give the server a moment to start and check for immediate binding errors
	select {
	case err := <-errChan:
		return fmt.Errorf("failed to start HTTP server: %w", err)
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

// systemMetricsUpdater updates system metrics periodically
func (s *HTTPServer) systemMetricsUpdater() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		s.metricsManager.UpdateSystemMetrics()

		if s.storage != nil {
			health := s.storage.GetHealth()
			s.metricsManager.GetPrometheusMetrics().UpdateComponentHealth("storage", health.Healthy)
		}
	}
}

// Stop stops the HTTP server
func (s *HTTPServer) Stop() error {
	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

// Middleware

// loggingMiddleware logs HTTP requests
func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		s.logger.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"duration":   time.Since(start),
			"user_agent": r.UserAgent(),
			"remote_ip":  r.RemoteAddr,
		}).Info("HTTP request")
	})
}

// corsMiddleware handles CORS
func (s *HTTPServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Auth Handlers

// authHandler verifies a wallet auth token and upserts the user record
func (s *HTTPServer) authHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AuthToken string `json:"authToken"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"message": "Internal server error",
			"error":   err.Error(),
		})
		return
	}

	walletAddress, err := s.verifier.ResolveWallet(r.Context(), req.AuthToken)
	s.recordAuthVerification(err)
	if err != nil {
		s.writeAuthError(w, err)
		return
	}

	user, err := s.storage.UpsertUser(r.Context(), walletAddress)
	if err != nil {
		s.logger.WithError(err).Error("Failed to upsert user")
		s.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"message": "Internal server error",
			"error":   err.Error(),
		})
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    user,
	})
}

func (s *HTTPServer) recordAuthVerification(err error) {
	if s.metricsManager == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	s.metricsManager.GetPrometheusMetrics().RecordAuthVerification(status)
}

func (s *HTTPServer) recordRegistrarCall(err error) {
	if s.metricsManager == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	s.metricsManager.GetPrometheusMetrics().RecordRegistrarCall(status)
}

// writeAuthError maps verifier failures onto the auth response contract
func (s *HTTPServer) writeAuthError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error"

	switch utils.CodeOf(err) {
	case utils.ErrCodeAuth:
		status = http.StatusUnauthorized
		message = "Invalid authentication token"
	case utils.ErrCodeNotFound:
		status = http.StatusNotFound
		message = "User not found"
	case utils.ErrCodeValidation:
		status = http.StatusBadRequest
		message = "No wallet address found for user"
	}

	s.writeJSON(w, status, map[string]interface{}{
		"success": false,
		"message": message,
	})
}

// Indexer Handlers

// createIndexerHandler registers a new indexer
func (s *HTTPServer) createIndexerHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name          string   `json:"name"`
		PostgresURL   string   `json:"postgresUrl"`
		SolanaAddress string   `json:"solanaAddress"`
		EventTypes    []string `json:"eventTypes"`
		Filter        string   `json:"filter"`
		AuthToken     string   `json:"authToken"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Invalid request body",
		})
		return
	}

	// Ownership is best effort: a bad token produces an anonymous
	// indexer, not a rejection.
	var userID *string
	if req.AuthToken != "" {
		walletAddress, err := s.verifier.ResolveWallet(r.Context(), req.AuthToken)
		s.recordAuthVerification(err)
		if err != nil {
			s.logger.WithError(err).Warn("Authentication failed, creating indexer without owner")
		} else if user, err := s.storage.UpsertUser(r.Context(), walletAddress); err != nil {
			s.logger.WithError(err).Warn("Failed to upsert user, creating indexer without owner")
		} else {
			userID = &user.ID
		}
	}

	if req.Name == "" || req.PostgresURL == "" {
		s.writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Indexer name and Postgres URL are required",
		})
		return
	}

	address := utils.NormalizeAddress(req.SolanaAddress)
	if address != "" && !utils.IsValidSolanaAddress(address) {
		s.writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Invalid Solana address",
		})
		return
	}

	s.logger.WithField("indexer", req.Name).Info("Validating Postgres connection")
	if err := s.tenants.Validate(r.Context(), req.PostgresURL); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Failed to connect to PostgreSQL database",
			"error":   utils.DetailsOf(err),
		})
		return
	}

	eventTypes := req.EventTypes
	if len(eventTypes) == 0 {
		eventTypes = []string{"all"}
	}

	if address != "" {
		s.logger.WithFields(logrus.Fields{
			"indexer": req.Name,
			"address": address,
		}).Info("Registering address with webhook service")

		err := s.registrar.AppendAddresses(r.Context(), []string{address}, eventTypes)
		s.recordRegistrarCall(err)
		if err != nil {
			s.logger.WithError(err).Error("Webhook registration failed")
			s.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
				"success": false,
				"message": "Failed to register address with webhook service",
			})
			return
		}
	}

	indexer := &models.Indexer{
		UserID:           userID,
		Name:             req.Name,
		ConnectionString: req.PostgresURL,
		Addresses:        []string{},
		Events:           req.EventTypes,
		Filter:           req.Filter,
	}
	if address != "" {
		indexer.Addresses = []string{address}
	}

	if err := s.storage.CreateIndexer(r.Context(), indexer); err != nil {
		if utils.CodeOf(err) == utils.ErrCodeConflict {
			s.writeJSON(w, http.StatusConflict, map[string]interface{}{
				"success": false,
				"message": "Address is already registered to another indexer",
			})
			return
		}
		s.logger.WithError(err).Error("Failed to create indexer")
		s.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"message": "Failed to create indexer",
			"error":   err.Error(),
		})
		return
	}

	if s.metricsManager != nil {
		s.metricsManager.GetPrometheusMetrics().RecordIndexerRegistered()
	}

	message := "Indexer created successfully"
	if userID != nil {
		message = "Indexer created successfully and associated with user"
	}

	s.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": message,
		"indexer": indexer,
	})
}

// listIndexersHandler lists the indexers owned by the authenticated user
func (s *HTTPServer) listIndexersHandler(w http.ResponseWriter, r *http.Request) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		s.writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
			"error": "Not authenticated",
		})
		return
	}

	authToken := strings.TrimPrefix(authHeader, "Bearer ")

	walletAddress, err := s.verifier.ResolveWallet(r.Context(), authToken)
	s.recordAuthVerification(err)
	if err != nil {
		switch utils.CodeOf(err) {
		case utils.ErrCodeAuth:
			s.writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
				"error": "Invalid authentication token",
			})
		case utils.ErrCodeValidation:
			s.writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"error": "No wallet associated with user",
			})
		default:
			s.writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
				"error": "Authentication failed",
			})
		}
		return
	}

	user, err := s.storage.GetUserByWallet(r.Context(), walletAddress)
	if err != nil {
		s.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error": "Failed to retrieve indexers",
		})
		return
	}
	if user == nil {
		s.writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"error": "User not found",
		})
		return
	}

	indexers, err := s.storage.GetIndexersByUser(r.Context(), user.ID)
	if err != nil {
		s.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error": "Failed to retrieve indexers",
		})
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"indexers": indexers,
	})
}

// Webhook Handlers

// webhooksHandler ingests a batch of webhook envelopes
func (s *HTTPServer) webhooksHandler(w http.ResponseWriter, r *http.Request) {
	var envelopes []models.WebhookEnvelope
	if err := json.NewDecoder(r.Body).Decode(&envelopes); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	s.router.ProcessBatch(r.Context(), envelopes)

	// The provider only needs delivery acknowledged; per-envelope
	// failures are not surfaced.
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Webhook processed successfully",
	})
}

// webhookTestHandler simulates a delivery without touching tenant state
func (s *HTTPServer) webhookTestHandler(w http.ResponseWriter, r *http.Request) {
	var req models.WebhookTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"message": "Error processing test data",
		})
		return
	}

	if req.IndexerID == "" || req.Address == "" || req.EventType == "" {
		s.writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"message": "Missing required fields",
		})
		return
	}

	s.logger.WithFields(logrus.Fields{
		"indexer":    req.IndexerID,
		"address":    req.Address,
		"event_type": req.EventType,
	}).Info("Test indexer data received")

	// Simulate processing time
	time.Sleep(500 * time.Millisecond)

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Test data processed successfully",
		"data": map[string]interface{}{
			"indexerId": req.IndexerID,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"processed": true,
		},
	})
}

// Health Handlers

// healthHandler returns basic health status
func (s *HTTPServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":          "healthy",
		"timestamp":       time.Now().UTC().Format(time.RFC3339Nano),
		"version":         "1.0.0",
		"metrics_enabled": s.config.EnableMetrics,
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// detailedHealthHandler returns detailed health status
func (s *HTTPServer) detailedHealthHandler(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now(),
		"version":   "1.0.0",
		"components": map[string]interface{}{
			"storage": s.storage.GetHealth(),
		},
	}

	s.writeJSON(w, http.StatusOK, health)
}

// statsHandler returns application statistics
func (s *HTTPServer) statsHandler(w http.ResponseWriter, r *http.Request) {
	storageStats, err := s.storage.GetStats()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to retrieve storage stats", err)
		return
	}

	stats := map[string]interface{}{
		"timestamp":       time.Now(),
		"storage":         storageStats,
		"metrics_enabled": s.config.EnableMetrics,
	}

	s.writeJSON(w, http.StatusOK, stats)
}

// Utility Methods

// writeJSON writes a JSON response
func (s *HTTPServer) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.WithError(err).Error("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (s *HTTPServer) writeError(w http.ResponseWriter, status int, message string, err error) {
	errorResponse := map[string]interface{}{
		"error":     message,
		"status":    status,
		"timestamp": time.Now(),
	}

	if err != nil {
		errorResponse["details"] = err.Error()
		s.logger.WithFields(logrus.Fields{
			"status":  status,
			"message": message,
			"error":   err,
		}).Error("HTTP error")
	}

	s.writeJSON(w, status, errorResponse)
}
