package cashctrl

import (
	"fmt"
	"strings"
)

// StatusError reports a non-200 HTTP response from the API.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, e.Body)
}

// FieldError is a per-field validation message inside an API error envelope.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// APIError reports an application-level failure: the server answered 200 but
// the response envelope carried success=false.
type APIError struct {
	Endpoint string
	Message  string
	Fields   []FieldError
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		parts := make([]string, 0, len(e.Fields))
		for _, f := range e.Fields {
			if f.Message == "" {
				continue
			}
			if f.Field != "" {
				parts = append(parts, f.Field+": "+f.Message)
			} else {
				parts = append(parts, f.Message)
			}
		}
		msg = strings.Join(parts, " / ")
	}
	return fmt.Sprintf("API call %s failed. %s", e.Endpoint, msg)
}
