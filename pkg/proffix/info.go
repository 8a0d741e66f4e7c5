package proffix

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// requestWithKey calls an endpoint authenticated by the hashed API key
// instead of a session, used for the unauthenticated service endpoints.
func requestWithKey(ctx context.Context, apiKey, endpoint, baseURL string, result interface{}) error {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	reqURL := fmt.Sprintf("%s/%s?%s",
		baseURL, endpoint,
		url.Values{"key": []string{hashCredential(apiKey)}}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", endpoint, err)
	}
	return nil
}

// Info returns version and licensing information of a PROFFIX instance.
func Info(ctx context.Context, apiKey, baseURL string) (map[string]interface{}, error) {
	var info map[string]interface{}
	if err := requestWithKey(ctx, apiKey, "PRO/INFO", baseURL, &info); err != nil {
		return nil, err
	}
	return info, nil
}

// Databases returns the databases available on a PROFFIX instance.
func Databases(ctx context.Context, apiKey, baseURL string) ([]map[string]interface{}, error) {
	var databases []map[string]interface{}
	if err := requestWithKey(ctx, apiKey, "PRO/DATENBANK", baseURL, &databases); err != nil {
		return nil, err
	}
	return databases, nil
}
