package registrar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/smartdevs17/solana-indexer-gateway/internal/config"
	"github.com/smartdevs17/solana-indexer-gateway/pkg/utils"
)

// HeliusClient manages the provider-side webhook over the Helius HTTP API
type HeliusClient struct {
	config     *config.RegistrarConfig
	httpClient *http.Client
	logger     *logrus.Entry
}

// webhook mirrors the provider's webhook resource
type webhook struct {
	WebhookID        string   `json:"webhookID"`
	WebhookURL       string   `json:"webhookURL"`
	AccountAddresses []string `json:"accountAddresses"`
	TransactionTypes []string `json:"transactionTypes"`
	WebhookType      string   `json:"webhookType,omitempty"`
}

// NewHeliusClient creates a new webhook provider client
func NewHeliusClient(cfg *config.RegistrarConfig) *HeliusClient {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &HeliusClient{
		config: cfg,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     30 * time.Second,
			},
		},
		logger: logrus.WithField("component", "registrar"),
	}
}

// AppendAddresses merges the given addresses and event types into the
// provider-managed webhook. The provider exposes no append operation, so
// this reads the current webhook and writes back the union.
func (c *HeliusClient) AppendAddresses(ctx context.Context, addresses []string, eventTypes []string) error {
	current, err := c.getWebhook(ctx)
	if err != nil {
		return err
	}

	current.AccountAddresses = mergeUnique(current.AccountAddresses, addresses)
	current.TransactionTypes = mergeEventTypes(current.TransactionTypes, eventTypes)

	if err := c.updateWebhook(ctx, current); err != nil {
		return err
	}

	c.logger.WithFields(logrus.Fields{
		"webhook_id": c.config.WebhookID,
		"addresses":  len(current.AccountAddresses),
	}).Info("Addresses registered with webhook provider")

	return nil
}

// Ping checks that the provider-managed webhook is reachable
func (c *HeliusClient) Ping(ctx context.Context) error {
	_, err := c.getWebhook(ctx)
	return err
}

// getWebhook fetches the provider-side webhook resource
func (c *HeliusClient) getWebhook(ctx context.Context) (*webhook, error) {
	url := fmt.Sprintf("%s/v0/webhooks/%s?api-key=%s",
		c.config.APIURL, c.config.WebhookID, c.config.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeInternal, "Failed to create webhook request", err.Error())
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeExternal, "Failed to reach webhook provider", err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, utils.NewAppError(utils.ErrCodeExternal,
			"Webhook provider returned non-success status", readBody(resp.Body))
	}

	var wh webhook
	if err := json.NewDecoder(resp.Body).Decode(&wh); err != nil {
		return nil, utils.NewAppError(utils.ErrCodeExternal, "Failed to decode webhook response", err.Error())
	}

	return &wh, nil
}

// updateWebhook writes the webhook resource back to the provider
func (c *HeliusClient) updateWebhook(ctx context.Context, wh *webhook) error {
	body, err := json.Marshal(wh)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeInternal, "Failed to marshal webhook", err.Error())
	}

	url := fmt.Sprintf("%s/v0/webhooks/%s?api-key=%s",
		c.config.APIURL, c.config.WebhookID, c.config.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return utils.NewAppError(utils.ErrCodeInternal, "Failed to create webhook update request", err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeExternal, "Failed to reach webhook provider", err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return utils.NewAppError(utils.ErrCodeExternal,
			"Webhook provider rejected update", readBody(resp.Body))
	}

	return nil
}

// mergeUnique appends items not already present, preserving order
func mergeUnique(existing, incoming []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, v := range existing {
		seen[v] = true
	}
	for _, v := range incoming {
		if v != "" && !seen[v] {
			existing = append(existing, v)
			seen[v] = true
		}
	}
	return existing
}

// mergeEventTypes merges event type filters. The sentinel "all" clears
// the filter entirely, which the provider expresses as an empty list.
func mergeEventTypes(existing, incoming []string) []string {
	for _, v := range incoming {
		if v == "all" {
			return []string{}
		}
	}
	return mergeUnique(existing, incoming)
}

// readBody reads a bounded prefix of a response body for error messages
func readBody(r io.Reader) string {
	buf := make([]byte, 1024)
	n, _ := r.Read(buf)
	return string(buf[:n])
}
