package cashctrl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-hclog"
)

// Client is a thin wrapper around the CashCtrl REST API. It forwards the
// generic HTTP verbs with authentication header injection and builds the
// category and file synchronization operations on top of them.
type Client struct {
	config *Config
	http   *http.Client
	log    hclog.Logger
}

// Params holds request parameters. Values that are slices, maps or structs
// are JSON-encoded before transmission; the CashCtrl API expects collection
// parameters as JSON strings.
type Params map[string]interface{}

// New creates a CashCtrl API client from the given configuration. The
// configuration is copied before defaults are filled in.
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = FromEnv()
	}
	resolved := *cfg
	cfg = &resolved

	defaults := DefaultConfig()
	if cfg.TLSVerify == nil {
		cfg.TLSVerify = defaults.TLSVerify
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.MaxRetries == nil {
		cfg.MaxRetries = defaults.MaxRetries
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = defaults.RetryDelay
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid client config: %w", err)
	}

	log := cfg.Logger
	if log == nil {
		log = hclog.New(&hclog.LoggerOptions{Name: "cashctrl"})
	}

	return &Client{
		config: cfg,
		http:   cfg.NewHTTPClient(),
		log:    log,
	}, nil
}

// flattenValues converts params into URL-encodable values, JSON-encoding
// any value that is not a scalar.
func flattenValues(params Params) (url.Values, error) {
	values := url.Values{}
	for key, value := range params {
		if value == nil {
			continue
		}
		rv := reflect.ValueOf(value)
		for rv.Kind() == reflect.Ptr {
			if rv.IsNil() {
				break
			}
			rv = rv.Elem()
		}
		if rv.Kind() == reflect.Ptr {
			continue
		}
		value = rv.Interface()
		switch v := value.(type) {
		case string:
			values.Set(key, v)
		case bool, int, int32, int64, float32, float64:
			values.Set(key, fmt.Sprint(v))
		default:
			encoded, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("failed to encode parameter %q: %w", key, err)
			}
			values.Set(key, string(encoded))
		}
	}
	return values, nil
}

// Request sends an authenticated API request and returns the raw response
// body. Transport failures and 5xx responses are retried with exponential
// backoff; any other non-200 status is a *StatusError.
func (c *Client) Request(ctx context.Context, method, endpoint string, data, params Params) ([]byte, error) {
	reqURL := fmt.Sprintf("%s/%s", c.config.baseURL(), endpoint)

	query, err := flattenValues(params)
	if err != nil {
		return nil, err
	}
	form, err := flattenValues(data)
	if err != nil {
		return nil, err
	}
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var respBody []byte
	operation := func() error {
		var bodyReader io.Reader
		if len(form) > 0 {
			bodyReader = strings.NewReader(form.Encode())
		}

		req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		req.SetBasicAuth(c.config.APIKey, "")
		req.Header.Set("Accept", "application/json")
		if bodyReader != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}

		c.log.Debug("sending API request", "method", method, "endpoint", endpoint)

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			statusErr := &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
			if resp.StatusCode >= 500 {
				return statusErr
			}
			return backoff.Permanent(statusErr)
		}

		respBody = body
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.config.RetryDelay
	retries := backoff.WithMaxRetries(policy, uint64(*c.config.MaxRetries))

	if err := backoff.Retry(operation, backoff.WithContext(retries, ctx)); err != nil {
		return nil, err
	}
	return respBody, nil
}

// JSONRequest sends an API request and decodes the JSON response into
// result. A response envelope with success=false becomes an *APIError;
// these are application failures and are never retried.
func (c *Client) JSONRequest(ctx context.Context, method, endpoint string, data, params Params, result interface{}) error {
	body, err := c.Request(ctx, method, endpoint, data, params)
	if err != nil {
		return err
	}

	var envelope struct {
		Success *bool        `json:"success"`
		Message string       `json:"message"`
		Errors  []FieldError `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", endpoint, err)
	}
	if envelope.Success != nil && !*envelope.Success {
		return &APIError{
			Endpoint: endpoint,
			Message:  envelope.Message,
			Fields:   envelope.Errors,
		}
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("failed to decode response from %s: %w", endpoint, err)
		}
	}
	return nil
}

// Get sends a GET request. See JSONRequest for decoding semantics.
func (c *Client) Get(ctx context.Context, endpoint string, params Params, result interface{}) error {
	return c.JSONRequest(ctx, http.MethodGet, endpoint, nil, params, result)
}

// Post sends a POST request. See JSONRequest for decoding semantics.
func (c *Client) Post(ctx context.Context, endpoint string, params Params, result interface{}) error {
	return c.JSONRequest(ctx, http.MethodPost, endpoint, nil, params, result)
}

// Put sends a PUT request. See JSONRequest for decoding semantics.
func (c *Client) Put(ctx context.Context, endpoint string, params Params, result interface{}) error {
	return c.JSONRequest(ctx, http.MethodPut, endpoint, nil, params, result)
}

// Delete sends a DELETE request. See JSONRequest for decoding semantics.
func (c *Client) Delete(ctx context.Context, endpoint string, params Params, result interface{}) error {
	return c.JSONRequest(ctx, http.MethodDelete, endpoint, nil, params, result)
}

// PostForm sends a POST request with a form-encoded body instead of URL
// parameters, for endpoints with payloads too large for a query string.
func (c *Client) PostForm(ctx context.Context, endpoint string, data Params, result interface{}) error {
	return c.JSONRequest(ctx, http.MethodPost, endpoint, data, nil, result)
}
