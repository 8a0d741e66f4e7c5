package cashctrl

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp/go-hclog"
)

// Environment variables consulted by FromEnv and the CLI when the
// corresponding config fields are empty.
const (
	EnvOrganisation = "CC_API_ORGANISATION"
	EnvAPIKey       = "CC_API_KEY"
)

// Config contains configuration for a CashCtrl API client.
type Config struct {
	// Organisation is the CashCtrl sub-domain of the organisation.
	// The API base URL is derived from it unless BaseURL is set.
	Organisation string

	// APIKey authenticates every request. It is sent as the username of an
	// HTTP basic auth header with an empty password.
	APIKey string

	// BaseURL overrides the derived "https://<org>.cashctrl.com/api/v1"
	// endpoint. Mainly useful for testing against a local server.
	BaseURL string

	// Timeout for API requests. Default: 30 seconds.
	Timeout time.Duration

	// MaxRetries for transport failures and 5xx responses. Zero disables
	// retrying. Default: 3.
	MaxRetries *int

	// RetryDelay is the initial backoff between retries. Default: 1 second.
	RetryDelay time.Duration

	// TLSVerify controls TLS certificate verification. Disable only for
	// development against self-signed endpoints.
	TLSVerify *bool

	// Logger receives debug-level wire traffic. Defaults to a named
	// hclog logger when nil.
	Logger hclog.Logger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	tlsVerify := true
	maxRetries := 3
	return &Config{
		TLSVerify:  &tlsVerify,
		Timeout:    30 * time.Second,
		MaxRetries: &maxRetries,
		RetryDelay: 1 * time.Second,
	}
}

// FromEnv returns a Config populated from the CC_API_ORGANISATION and
// CC_API_KEY environment variables.
func FromEnv() *Config {
	cfg := DefaultConfig()
	cfg.Organisation = os.Getenv(EnvOrganisation)
	cfg.APIKey = os.Getenv(EnvAPIKey)
	return cfg
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Organisation,
			validation.When(c.BaseURL == "", validation.Required.Error("organisation is required when no base URL is set"))),
		validation.Field(&c.APIKey, validation.Required),
		validation.Field(&c.MaxRetries, validation.Min(0)),
	)
}

// baseURL returns the API endpoint root without a trailing slash.
func (c *Config) baseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return fmt.Sprintf("https://%s.cashctrl.com/api/v1", c.Organisation)
}

// NewHTTPClient creates a configured HTTP client for this config.
func (c *Config) NewHTTPClient() *http.Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	if c.TLSVerify != nil && !*c.TLSVerify {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}

	return &http.Client{
		Timeout:   c.Timeout,
		Transport: transport,
	}
}
