// Package devops builds authenticated Azure DevOps REST clients.
//
// A ClientFactory closes over the organization URL, the authentication
// strategy, the token provider and the user-agent composer. Every call to
// Build fetches a current token and returns an independent Client; nothing is
// cached between calls.
package devops

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/giantswarm/mcp-azure-devops/internal/logging"
)

// APIVersion is sent with every request that does not set its own.
const APIVersion = "7.1"

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 4096

// Scheme is the way a credential is attached to requests.
type Scheme string

const (
	SchemeBasic  Scheme = "Basic"
	SchemeBearer Scheme = "Bearer"
)

// Client is an authenticated Azure DevOps REST client bound to one
// organization. It carries the token that was current when it was built.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	scheme     Scheme
	userAgent  string
	sessionID  string
	logger     *logging.Logger
}

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Method     string
	URL        string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode), e.Message)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// BaseURL returns the organization URL the client is bound to.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Scheme returns how the client's credential is attached.
func (c *Client) Scheme() Scheme {
	return c.scheme
}

// UserAgent returns the user agent snapshot taken when the client was built.
func (c *Client) UserAgent() string {
	return c.userAgent
}

// SessionID returns the X-TFS-Session id sent with every request.
func (c *Client) SessionID() string {
	return c.sessionID
}

// Get issues a GET against path, relative to the organization URL, and
// decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.Do(ctx, http.MethodGet, c.URL(path), query, nil, out)
}

// Post issues a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, query url.Values, body, out interface{}) error {
	return c.Do(ctx, http.MethodPost, c.URL(path), query, body, out)
}

// URL resolves an escaped path relative to the organization URL.
func (c *Client) URL(path string) *url.URL {
	return c.baseURL.JoinPath(strings.TrimPrefix(path, "/"))
}

// ServiceURL resolves path against a companion service host such as
// "almsearch" or "advsec". For the hosted dev.azure.com service the host is
// prefixed; any other base URL is used as is.
func (c *Client) ServiceURL(service, path string) *url.URL {
	u := *c.baseURL
	if strings.EqualFold(u.Hostname(), "dev.azure.com") {
		u.Host = service + "." + u.Host
	}
	return u.JoinPath(strings.TrimPrefix(path, "/"))
}

// Do sends a request to an absolute URL. A nil out discards the body.
func (c *Client) Do(ctx context.Context, method string, target *url.URL, query url.Values, body, out interface{}) error {
	u := *target
	q := u.Query()
	for k, vs := range query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	if q.Get("api-version") == "" {
		q.Set("api-version", APIVersion)
	}
	u.RawQuery = q.Encode()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Request(method+" "+u.Path, body)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, u.Path, err)
	}
	defer resp.Body.Close()

	// Azure DevOps answers a rejected credential with 203 and a sign-in page.
	if resp.StatusCode == http.StatusNonAuthoritativeInfo {
		return &APIError{
			StatusCode: resp.StatusCode,
			Method:     method,
			URL:        u.Path,
			Message:    "credential was not accepted, received a sign-in page",
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp, method, u.Path)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s %s: %w", method, u.Path, err)
	}

	c.logger.Response(method+" "+u.Path, out)
	return nil
}

func newAPIError(resp *http.Response, method, path string) error {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Method:     method,
		URL:        path,
	}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &payload) == nil && payload.Message != "" {
		apiErr.Message = payload.Message
	} else {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	return apiErr
}
