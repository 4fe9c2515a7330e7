package client

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestParseAPIErrorShapes(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
		field   string
		wantFld string
	}{
		{
			name:    "error key",
			status:  500,
			body:    `{"error":"processing failed"}`,
			wantMsg: "processing failed",
		},
		{
			name:    "detail key",
			status:  401,
			body:    `{"detail":"token expired"}`,
			wantMsg: "token expired",
		},
		{
			name:    "validation map",
			status:  400,
			body:    `{"username":["already taken"],"password":["too short","too common"]}`,
			field:   "username",
			wantFld: "already taken",
		},
		{
			name:    "validation single string",
			status:  400,
			body:    `{"email":"invalid address"}`,
			field:   "email",
			wantFld: "invalid address",
		},
		{
			name:    "plain text body",
			status:  502,
			body:    "bad gateway",
			wantMsg: "bad gateway",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := parseAPIError(tt.status, []byte(tt.body))
			if apiErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, tt.status)
			}
			if tt.wantMsg != "" && apiErr.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", apiErr.Message, tt.wantMsg)
			}
			if tt.field != "" {
				if got := apiErr.FieldMessage(tt.field); got != tt.wantFld {
					t.Errorf("FieldMessage(%q) = %q, want %q", tt.field, got, tt.wantFld)
				}
			}
		})
	}
}

func TestAPIErrorStringSortsFields(t *testing.T) {
	apiErr := &APIError{
		StatusCode: 400,
		Fields: map[string][]string{
			"username": {"taken"},
			"email":    {"invalid"},
		},
	}
	got := apiErr.Error()
	if !strings.Contains(got, "HTTP 400") {
		t.Errorf("Error() = %q, want status prefix", got)
	}
	if strings.Index(got, "email") > strings.Index(got, "username") {
		t.Errorf("Error() = %q, want fields in sorted order", got)
	}
}

func TestIsStatusUnwraps(t *testing.T) {
	wrapped := fmt.Errorf("client.Me: %w", &APIError{StatusCode: 401, Message: "nope"})
	if !IsStatus(wrapped, 401) {
		t.Error("IsStatus should see through wrapping")
	}
	if IsStatus(wrapped, 403) {
		t.Error("IsStatus matched wrong code")
	}
	if IsStatus(errors.New("plain"), 401) {
		t.Error("IsStatus matched non-API error")
	}
}

func TestFieldMessageMissingField(t *testing.T) {
	apiErr := &APIError{StatusCode: 400, Fields: map[string][]string{"a": {"x"}}}
	if got := apiErr.FieldMessage("b"); got != "" {
		t.Errorf("FieldMessage for absent field = %q, want empty", got)
	}
}
