// Package ingest routes incoming webhook envelopes to tenant databases.
package ingest

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/smartdevs17/solana-indexer-gateway/internal/metrics"
	"github.com/smartdevs17/solana-indexer-gateway/internal/models"
	"github.com/smartdevs17/solana-indexer-gateway/internal/storage"
	"github.com/smartdevs17/solana-indexer-gateway/internal/tenant"
)

// BatchResult summarizes one batch of processed envelopes.
type BatchResult struct {
	Received int
	Matched  int
	Skipped  int
}

// Router matches webhook envelopes against registered addresses and
// fans matched events out to the owning indexer's tenant database.
// Per-envelope failures are logged and skipped; a batch never fails as
// a whole.
type Router struct {
	store   storage.Storage
	tenants tenant.Connector
	metrics *metrics.Manager
	logger  *logrus.Entry
}

// NewRouter creates a new envelope router
func NewRouter(store storage.Storage, tenants tenant.Connector, metricsManager *metrics.Manager) *Router {
	return &Router{
		store:   store,
		tenants: tenants,
		metrics: metricsManager,
		logger:  logrus.WithField("component", "ingest"),
	}
}

// ProcessBatch routes every envelope in the batch. The registered
// address set is fetched once per batch; each envelope is matched by
// substring against its description. An envelope whose description
// matches several addresses is routed once, to the first match.
func (r *Router) ProcessBatch(ctx context.Context, envelopes []models.WebhookEnvelope) BatchResult {
	start := time.Now()
	result := BatchResult{Received: len(envelopes)}

	addresses, err := r.store.GetAllAddresses(ctx)
	if err != nil {
		r.logger.WithError(err).Error("Failed to load registered addresses, skipping batch")
		result.Skipped = len(envelopes)
		r.recordBatch(time.Since(start))
		return result
	}

	for i := range envelopes {
		if r.routeEnvelope(ctx, &envelopes[i], addresses) {
			result.Matched++
		} else {
			result.Skipped++
		}
	}

	r.recordBatch(time.Since(start))

	r.logger.WithFields(logrus.Fields{
		"received": result.Received,
		"matched":  result.Matched,
		"skipped":  result.Skipped,
		"duration": time.Since(start),
	}).Info("Processed webhook batch")

	return result
}

// routeEnvelope returns true when the envelope was written to a tenant
// database.
func (r *Router) routeEnvelope(ctx context.Context, envelope *models.WebhookEnvelope, addresses []string) bool {
	if r.metrics != nil {
		r.metrics.GetPrometheusMetrics().RecordEnvelopeReceived()
	}

	if envelope.Description == "" {
		r.recordSkip("no_description")
		return false
	}

	address := matchAddress(envelope.Description, addresses)
	if address == "" {
		r.recordSkip("no_match")
		return false
	}

	indexer, err := r.store.GetIndexerByAddress(ctx, address)
	if err != nil {
		r.logger.WithError(err).WithField("address", address).Warn("Failed to resolve indexer for address")
		r.recordSkip("lookup_failed")
		return false
	}
	if indexer == nil {
		r.recordSkip("no_indexer")
		return false
	}

	writeStart := time.Now()
	err = r.tenants.InsertTransaction(ctx, indexer.ConnectionString, envelope.Description, address)
	if r.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		r.metrics.GetPrometheusMetrics().RecordTenantWrite(status, time.Since(writeStart))
	}
	if err != nil {
		r.logger.WithError(err).WithFields(logrus.Fields{
			"indexer": indexer.ID,
			"address": address,
		}).Warn("Failed to write transaction to tenant database")
		r.recordSkip("tenant_write_failed")
		return false
	}

	if r.metrics != nil {
		r.metrics.GetPrometheusMetrics().RecordEnvelopeMatched()
	}

	r.logger.WithFields(logrus.Fields{
		"indexer": indexer.ID,
		"address": address,
	}).Debug("Envelope routed to tenant database")

	return true
}

// matchAddress returns the first registered address found as a
// substring of the description.
func matchAddress(description string, addresses []string) string {
	for _, address := range addresses {
		if address != "" && strings.Contains(description, address) {
			return address
		}
	}
	return ""
}

func (r *Router) recordSkip(reason string) {
	if r.metrics != nil {
		r.metrics.GetPrometheusMetrics().RecordEnvelopeSkipped(reason)
	}
}

func (r *Router) recordBatch(duration time.Duration) {
	if r.metrics != nil {
		r.metrics.GetPrometheusMetrics().RecordBatchProcessing(duration)
	}
}
