package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// APIError represents a non-2xx HTTP response from the API.
//
// Validation failures (400) carry field-specific messages in Fields, which
// callers surface verbatim. Everything else is a single Message.
type APIError struct {
	StatusCode int
	Message    string
	Fields     map[string][]string
}

func (e *APIError) Error() string {
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+strings.Join(e.Fields[k], "; "))
		}
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, strings.Join(parts, ", "))
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// FieldMessage returns the first validation message for a field, or "".
func (e *APIError) FieldMessage(field string) string {
	if msgs, ok := e.Fields[field]; ok && len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// IsStatus returns true if err (or any wrapped error) is an APIError with the
// given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == code
	}
	return false
}

// parseAPIError builds an APIError from a response body. It understands both
// the {"error": "..."} shape used by the processing endpoints and the
// field-keyed validation maps returned by the auth endpoints.
func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var generic struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &generic) == nil {
		if generic.Error != "" {
			apiErr.Message = generic.Error
			return apiErr
		}
		if generic.Detail != "" {
			apiErr.Message = generic.Detail
			return apiErr
		}
	}

	// Validation map: {"username": ["taken"], "password": ["too short"]}.
	var fields map[string]json.RawMessage
	if json.Unmarshal(body, &fields) == nil && len(fields) > 0 {
		parsed := make(map[string][]string, len(fields))
		for k, raw := range fields {
			var list []string
			if json.Unmarshal(raw, &list) == nil {
				parsed[k] = list
				continue
			}
			var single string
			if json.Unmarshal(raw, &single) == nil {
				parsed[k] = []string{single}
			}
		}
		if len(parsed) > 0 {
			apiErr.Fields = parsed
			return apiErr
		}
	}

	apiErr.Message = strings.TrimSpace(string(body))
	return apiErr
}
