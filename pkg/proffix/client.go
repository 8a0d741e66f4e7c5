// Package proffix is a thin client for the PROFFIX REST API, the second
// accounting backend this module talks to. Authentication is session based:
// credentials are SHA-256 hashed, exchanged for a PxSessionId, and the
// session id is rotated on every response.
package proffix

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
)

// DefaultBaseURL is the hosted PROFFIX endpoint.
const DefaultBaseURL = "https://remote.proffix.net:11011/pxapi/v4"

// APIError is an error envelope reported by the PROFFIX REST API.
type APIError struct {
	StatusCode int
	Type       string `json:"Type"`
	Message    string `json:"Message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// hashCredential returns the SHA-256 hex digest PROFFIX expects for keys
// and passwords.
func hashCredential(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Config contains configuration for a PROFFIX session client.
type Config struct {
	Username string
	Password string
	Database string

	// Modules to license for the session. Default: ["VOL"].
	Modules []string

	// BaseURL of the PROFFIX instance. Default: DefaultBaseURL.
	BaseURL string

	// Timeout for API requests. Default: 30 seconds.
	Timeout time.Duration

	Logger hclog.Logger
}

func (c *Config) baseURL() string {
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	return strings.TrimSuffix(base, "/")
}

// Client is a session-holding PROFFIX API client. It logs in lazily and
// transparently re-authenticates when the session expires.
type Client struct {
	config *Config
	http   *http.Client
	log    hclog.Logger

	mu        sync.Mutex
	sessionID string
}

// New creates a PROFFIX client. No session is established until the first
// request.
func New(cfg *Config) (*Client, error) {
	if cfg.Username == "" || cfg.Password == "" || cfg.Database == "" {
		return nil, fmt.Errorf("username, password and database are required")
	}
	if len(cfg.Modules) == 0 {
		cfg.Modules = []string{"VOL"}
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	log := cfg.Logger
	if log == nil {
		log = hclog.New(&hclog.LoggerOptions{Name: "proffix"})
	}
	return &Client{
		config: cfg,
		http:   &http.Client{Timeout: timeout},
		log:    log,
	}, nil
}

// login exchanges the configured credentials for a session id.
func (c *Client) login(ctx context.Context) (string, error) {
	payload := map[string]interface{}{
		"Benutzer":  c.config.Username,
		"Passwort":  hashCredential(c.config.Password),
		"Datenbank": map[string]string{"Name": c.config.Database},
		"Module":    c.config.Modules,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode login payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.baseURL()+"/PRO/LOGIN", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create login request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("login failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", decodeError(resp)
	}

	sessionID := resp.Header.Get("PxSessionId")
	if sessionID == "" {
		return "", fmt.Errorf("login response is missing the PxSessionId header")
	}
	c.log.Debug("established PROFFIX session", "database", c.config.Database)
	return sessionID, nil
}

// Logout releases the current session, if any.
func (c *Client) Logout(ctx context.Context) error {
	c.mu.Lock()
	sessionID := c.sessionID
	c.sessionID = ""
	c.mu.Unlock()
	if sessionID == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.config.baseURL()+"/PRO/LOGIN", nil)
	if err != nil {
		return fmt.Errorf("failed to create logout request: %w", err)
	}
	req.Header.Set("PxSessionId", sessionID)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}
	defer resp.Body.Close()
	return nil
}

// Do sends an authenticated API request and decodes the JSON response into
// result. A 401 response triggers one transparent re-login, since the
// session may simply have expired.
func (c *Client) Do(ctx context.Context, method, endpoint string, body interface{}, params map[string]string, result interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sessionID == "" {
		sessionID, err := c.login(ctx)
		if err != nil {
			return err
		}
		c.sessionID = sessionID
	}

	resp, err := c.send(ctx, method, endpoint, body, params, c.sessionID)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		sessionID, err := c.login(ctx)
		if err != nil {
			return err
		}
		c.sessionID = sessionID
		resp, err = c.send(ctx, method, endpoint, body, params, c.sessionID)
		if err != nil {
			return err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if rotated := resp.Header.Get("PxSessionId"); rotated != "" {
		c.sessionID = rotated
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response from %s: %w", endpoint, err)
		}
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, endpoint string, body interface{}, params map[string]string, sessionID string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	reqURL := c.config.baseURL() + "/" + strings.TrimPrefix(endpoint, "/")
	if len(params) > 0 {
		query := url.Values{}
		for key, value := range params {
			query.Set(key, value)
		}
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("PxSessionId", sessionID)

	c.log.Debug("sending API request", "method", method, "endpoint", endpoint)
	return c.http.Do(req)
}

// Get sends a GET request. See Do for decoding semantics.
func (c *Client) Get(ctx context.Context, endpoint string, params map[string]string, result interface{}) error {
	return c.Do(ctx, http.MethodGet, endpoint, nil, params, result)
}

// Post sends a POST request. See Do for decoding semantics.
func (c *Client) Post(ctx context.Context, endpoint string, body, result interface{}) error {
	return c.Do(ctx, http.MethodPost, endpoint, body, nil, result)
}

// Put sends a PUT request. See Do for decoding semantics.
func (c *Client) Put(ctx context.Context, endpoint string, body, result interface{}) error {
	return c.Do(ctx, http.MethodPut, endpoint, body, nil, result)
}

// Patch sends a PATCH request. See Do for decoding semantics.
func (c *Client) Patch(ctx context.Context, endpoint string, body, result interface{}) error {
	return c.Do(ctx, http.MethodPatch, endpoint, body, nil, result)
}

// Delete sends a DELETE request. See Do for decoding semantics.
func (c *Client) Delete(ctx context.Context, endpoint string, result interface{}) error {
	return c.Do(ctx, http.MethodDelete, endpoint, nil, nil, result)
}

// decodeError turns a non-2xx response into an *APIError.
func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	body, err := io.ReadAll(resp.Body)
	if err == nil && json.Unmarshal(body, apiErr) == nil && apiErr.Type != "" {
		return apiErr
	}
	return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
}
