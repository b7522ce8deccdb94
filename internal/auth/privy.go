package auth

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

// PrivyClient verifies auth tokens against the hosted Privy API
type PrivyClient struct {
	config     *config.AuthConfig
	httpClient *http.Client
	logger     *logrus.Entry
}

// verifyResponse is the provider's token verification result
type verifyResponse struct {
	UserID string `json:"userId"`
}

// providerUser is the subset of the provider's user profile we read
type providerUser struct {
	ID     string `json:"id"`
	Wallet *struct {
		Address string `json:"address"`
	} `json:"wallet"`
}

// NewPrivyClient creates a new identity provider client
func NewPrivyClient(cfg *config.AuthConfig) *PrivyClient {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &PrivyClient{
		config: cfg,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     30 * time.Second,
			},
		},
		logger: logrus.WithField("component", "auth"),
	}
}

// ResolveWallet verifies the token with the provider, fetches the subject
// profile, and returns its primary wallet address.
func (c *PrivyClient) ResolveWallet(ctx context.Context, authToken string) (string, error) {
	if authToken == "" {
		return "", utils.NewAppError(utils.ErrCodeAuth, "Auth token is required", "")
	}

	userID, err := c.verifyToken(ctx, authToken)
	if err != nil {
		return "", err
	}

	user, err := c.getUser(ctx, userID)
	if err != nil {
		return "", err
	}

	if user.Wallet == nil || user.Wallet.Address == "" {
		return "", utils.NewAppError(utils.ErrCodeValidation, "No wallet address found for user", userID)
	}

	return user.Wallet.Address, nil
}

// verifyToken asks the provider to verify signature and expiry of the
// token and returns the subject identifier.
func (c *PrivyClient) verifyToken(ctx context.Context, authToken string) (string, error) {
	body, err := json.Marshal(map[string]string{"authToken": authToken})
	if err != nil {
		return "", utils.NewAppError(utils.ErrCodeInternal, "Failed to marshal verify request", err.Error())
	}

	url := fmt.Sprintf("%s/api/v1/auth/verify", c.config.ProviderURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", utils.NewAppError(utils.ErrCodeInternal, "Failed to create verify request", err.Error())
	}
	c.setRequestHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", utils.NewAppError(utils.ErrCodeExternal, "Failed to reach identity provider", err.Error())
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return "", utils.NewAppError(utils.ErrCodeAuth, "Invalid authentication token", "")
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return "", utils.NewAppError(utils.ErrCodeExternal,
			"Identity provider returned non-success status", readBody(resp.Body))
	}

	var claims verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&claims); err != nil {
		return "", utils.NewAppError(utils.ErrCodeExternal, "Failed to decode verify response", err.Error())
	}
	if claims.UserID == "" {
		return "", utils.NewAppError(utils.ErrCodeAuth, "Invalid authentication token", "empty subject")
	}

	return claims.UserID, nil
}

// getUser fetches the subject's profile from the provider
func (c *PrivyClient) getUser(ctx context.Context, userID string) (*providerUser, error) {
	url := fmt.Sprintf("%s/api/v1/users/%s", c.config.ProviderURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeInternal, "Failed to create user request", err.Error())
	}
	c.setRequestHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeExternal, "Failed to reach identity provider", err.Error())
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, utils.NewAppError(utils.ErrCodeNotFound, "User not found", userID)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, utils.NewAppError(utils.ErrCodeExternal,
			"Identity provider returned non-success status", readBody(resp.Body))
	}

	var user providerUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, utils.NewAppError(utils.ErrCodeExternal, "Failed to decode user response", err.Error())
	}

	return &user, nil
}

// setRequestHeaders sets auth and content headers for provider requests
func (c *PrivyClient) setRequestHeaders(req *http.Request) {
	req.SetBasicAuth(c.config.AppID, c.config.AppSecret)
	req.Header.Set("privy-app-id", c.config.AppID)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}

// readBody reads a bounded prefix of a response body for error messages
func readBody(r io.Reader) string {
	buf := make([]byte, 1024)
	n, _ := r.Read(buf)
	return string(buf[:n])
}
