// Package config loads the CLI configuration from an HCL file with
// environment variable fallbacks for the credentials.
package config

import (
	"fmt"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/hcl/v2/hclsimple"

	"github.com/macxred/cashctrl-go/pkg/cashctrl"
)

// Config is the CLI configuration schema.
//
// Example (cashctrl.hcl):
//
//	organisation = "myorg"
//	api_key      = "secret"
//	timeout      = "30s"
//	max_retries  = 3
type Config struct {
	Organisation string `hcl:"organisation,optional"`
	APIKey       string `hcl:"api_key,optional"`
	BaseURL      string `hcl:"base_url,optional"`
	Timeout      string `hcl:"timeout,optional"`
	MaxRetries   *int   `hcl:"max_retries,optional"`
}

// Load reads the configuration from path; an empty path falls back to the
// environment only. CC_API_ORGANISATION and CC_API_KEY fill any credential
// not set in the file.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		if err := hclsimple.DecodeFile(path, nil, &cfg); err != nil {
			return nil, fmt.Errorf("failed to load configuration from %s: %w", path, err)
		}
	}

	if cfg.Organisation == "" {
		cfg.Organisation = os.Getenv(cashctrl.EnvOrganisation)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv(cashctrl.EnvAPIKey)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Organisation,
			validation.When(c.BaseURL == "", validation.Required.Error(
				"organisation is required (set it in the config file or "+cashctrl.EnvOrganisation+")"))),
		validation.Field(&c.APIKey, validation.Required.Error(
			"api_key is required (set it in the config file or "+cashctrl.EnvAPIKey+")")),
		validation.Field(&c.MaxRetries, validation.Min(0)),
	)
}

// ClientConfig converts the CLI configuration into a client configuration.
func (c *Config) ClientConfig(log hclog.Logger) (*cashctrl.Config, error) {
	clientConfig := cashctrl.DefaultConfig()
	clientConfig.Organisation = c.Organisation
	clientConfig.APIKey = c.APIKey
	clientConfig.BaseURL = c.BaseURL
	clientConfig.Logger = log
	if c.MaxRetries != nil {
		clientConfig.MaxRetries = c.MaxRetries
	}

	if c.Timeout != "" {
		timeout, err := time.ParseDuration(c.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout %q: %w", c.Timeout, err)
		}
		clientConfig.Timeout = timeout
	}
	return clientConfig, nil
}
