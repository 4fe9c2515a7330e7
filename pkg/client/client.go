// Package client implements the NexaPDF REST API client: authentication,
// usage queries, and the PDF processing operations.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// TokenSource supplies the bearer credentials attached to outgoing requests.
// The client writes back through it when a refresh exchange succeeds and
// clears it when the session is no longer recoverable.
type TokenSource interface {
	AccessToken() string
	RefreshToken() string
	SetAccessToken(access string) error
	Clear() error
}

// StaticTokens is a read-only TokenSource for one-shot calls and tests.
type StaticTokens struct {
	Access  string
	Refresh string
}

func (s *StaticTokens) AccessToken() string              { return s.Access }
func (s *StaticTokens) RefreshToken() string             { return s.Refresh }
func (s *StaticTokens) SetAccessToken(access string) error { s.Access = access; return nil }
func (s *StaticTokens) Clear() error                     { s.Access, s.Refresh = "", ""; return nil }

// Client is the NexaPDF API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource

	// All concurrent 401s share a single refresh exchange.
	refreshing singleflight.Group

	// onSessionExpired fires after a failed refresh has cleared the tokens.
	onSessionExpired func()
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithSessionExpiredHook registers a callback invoked when a token refresh
// fails and the session has been cleared.
func WithSessionExpiredHook(fn func()) Option {
	return func(c *Client) { c.onSessionExpired = fn }
}

// New creates a new API client. Uploads can be large, so the default timeout
// is generous; pass WithHTTPClient to tighten it.
func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	if tokens == nil {
		tokens = &StaticTokens{}
	}
	c := &Client{
		baseURL: baseURL,
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured API base URL.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.doRequest(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	return c.doRequest(ctx, http.MethodPost, path, body, out)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any, out any) error {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		payload = data
	}

	build := func() (*http.Request, error) {
		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		return req, nil
	}

	resp, err := c.doWithRefresh(ctx, build)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode >= 400 {
		return readAPIError(resp)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// doWithRefresh performs the request with the current access token. On a 401
// it attempts a single token refresh and retries the original request exactly
// once; a failed refresh clears the session and propagates.
func (c *Client) doWithRefresh(ctx context.Context, build func() (*http.Request, error)) (*http.Response, error) {
	send := func(token string) (*http.Response, error) {
		req, err := build()
		if err != nil {
			return nil, err
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		req.Header.Set("X-Request-ID", uuid.NewString())
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("do request: %w", err)
		}
		return resp, nil
	}

	resp, err := send(c.tokens.AccessToken())
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized || c.tokens.RefreshToken() == "" {
		return resp, nil
	}
	resp.Body.Close() //nolint:errcheck

	access, err := c.refreshAccessToken(ctx)
	if err != nil {
		return nil, err
	}
	return send(access)
}

// refreshAccessToken exchanges the refresh token for a new access token.
// Concurrent callers share one in-flight exchange. Failure is fatal to the
// session: tokens are cleared and the caller must re-authenticate.
func (c *Client) refreshAccessToken(ctx context.Context) (string, error) {
	access, err, _ := c.refreshing.Do("refresh", func() (any, error) {
		refresh := c.tokens.RefreshToken()
		if refresh == "" {
			return "", fmt.Errorf("no refresh token")
		}

		payload, err := json.Marshal(map[string]string{"refresh": refresh})
		if err != nil {
			return "", fmt.Errorf("marshal refresh body: %w", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/token/refresh/", bytes.NewReader(payload))
		if err != nil {
			return "", fmt.Errorf("create refresh request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return "", fmt.Errorf("do refresh request: %w", err)
		}
		defer resp.Body.Close() //nolint:errcheck

		if resp.StatusCode >= 400 {
			return "", readAPIError(resp)
		}
		var result struct {
			Access string `json:"access"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil || result.Access == "" {
			return "", fmt.Errorf("invalid refresh response")
		}
		if err := c.tokens.SetAccessToken(result.Access); err != nil {
			return "", fmt.Errorf("store refreshed token: %w", err)
		}
		return result.Access, nil
	})
	if err != nil {
		c.tokens.Clear() //nolint:errcheck // clearing is unconditional
		if c.onSessionExpired != nil {
			c.onSessionExpired()
		}
		return "", fmt.Errorf("token refresh: %w", err)
	}
	return access.(string), nil
}

func readAPIError(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB max error body
	if err != nil {
		return &APIError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read body: %v", err)}
	}
	return parseAPIError(resp.StatusCode, body)
}

// Download is a binary processing result. Filename comes from the response
// Content-Disposition header, falling back to the caller's suggestion.
type Download struct {
	Filename    string
	ContentType string
	Data        []byte
}

// downloadFrom drains a successful binary response into a Download.
func downloadFrom(resp *http.Response, fallbackName string) (*Download, error) {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	name := fallbackName
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if fn := params["filename"]; fn != "" {
				name = fn
			}
		}
	}
	return &Download{
		Filename:    name,
		ContentType: resp.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
