package devops

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/giantswarm/mcp-azure-devops/internal/auth"
	"github.com/giantswarm/mcp-azure-devops/internal/logging"
	"github.com/giantswarm/mcp-azure-devops/internal/useragent"
)

// Defaults for remote calls made through built clients.
const (
	DefaultTimeout      = 60 * time.Second
	DefaultRetryMax     = 3
	DefaultRetryWaitMin = 500 * time.Millisecond
	DefaultRetryWaitMax = 10 * time.Second
)

// FactoryConfig holds everything a ClientFactory closes over.
type FactoryConfig struct {
	// OrgURL is the organization base URL, e.g. https://dev.azure.com/contoso
	OrgURL string

	// Strategy selects the credential attachment scheme.
	Strategy auth.Strategy

	// Tokens is called once per Build.
	Tokens auth.TokenProvider

	// UserAgent is read once per Build.
	UserAgent *useragent.Composer

	Logger *logging.Logger

	// Transport is the base transport (default http.DefaultTransport)
	Transport http.RoundTripper

	// Timeout bounds a single remote call including retries
	Timeout time.Duration

	// RetryMax is the number of retries for 429 and 5xx responses on remote
	// calls. Token acquisition is never retried.
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
}

// WithDefaults returns a copy of the config with default values applied
func (c FactoryConfig) WithDefaults() FactoryConfig {
	if c.Transport == nil {
		c.Transport = http.DefaultTransport
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RetryMax < 0 {
		c.RetryMax = 0
	}
	if c.RetryWaitMin == 0 {
		c.RetryWaitMin = DefaultRetryWaitMin
	}
	if c.RetryWaitMax == 0 {
		c.RetryWaitMax = DefaultRetryWaitMax
	}
	return c
}

// ClientFactory lazily builds authenticated clients.
type ClientFactory struct {
	cfg     FactoryConfig
	baseURL *url.URL
}

// NewClientFactory validates cfg and returns a factory. No token is requested
// until Build is called.
func NewClientFactory(cfg FactoryConfig) (*ClientFactory, error) {
	cfg = cfg.WithDefaults()

	if cfg.Tokens == nil {
		return nil, fmt.Errorf("token provider is required")
	}
	if cfg.UserAgent == nil {
		return nil, fmt.Errorf("user agent composer is required")
	}

	baseURL, err := ParseOrgURL(cfg.OrgURL)
	if err != nil {
		return nil, err
	}

	return &ClientFactory{cfg: cfg, baseURL: baseURL}, nil
}

// ParseOrgURL validates an organization URL. Credentials may only travel over
// HTTPS, except to loopback hosts.
func ParseOrgURL(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, fmt.Errorf("organization URL is required")
	}

	u, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid organization URL: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("organization URL missing host: %s", raw)
	}

	switch u.Scheme {
	case "https":
	case "http":
		hostname := u.Hostname()
		if hostname != "localhost" && hostname != "127.0.0.1" && hostname != "::1" {
			return nil, fmt.Errorf("HTTP organization URLs are only allowed for localhost/127.0.0.1/[::1], use HTTPS for other hosts")
		}
	default:
		return nil, fmt.Errorf("organization URL scheme must be http (localhost only) or https, got: %s", u.Scheme)
	}

	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

// OrgURL returns the normalized organization URL.
func (f *ClientFactory) OrgURL() string {
	return f.baseURL.String()
}

// Build obtains a current token and returns a new client. Token provider
// errors are returned unchanged.
func (f *ClientFactory) Build(ctx context.Context) (*Client, error) {
	token, err := f.cfg.Tokens(ctx)
	if err != nil {
		return nil, err
	}

	scheme := SchemeBearer
	if f.cfg.Strategy.UsesBasicAuth() {
		scheme = SchemeBasic
	}

	// Early calls are legal but go out without the agent's identity.
	if !f.cfg.UserAgent.HasClientInfo() {
		f.cfg.Logger.Debug("Building client before the MCP handshake completed")
	}
	userAgent := f.cfg.UserAgent.Current()
	sessionID := uuid.NewString()

	transport := newHeaderRoundTripper(userAgent, sessionID, f.cfg.Transport)
	if scheme == SchemeBasic {
		transport = newBasicAuthRoundTripper(token, transport)
	} else {
		transport = newBearerRoundTripper(token, transport)
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = &http.Client{Transport: transport}
	retryClient.RetryMax = f.cfg.RetryMax
	retryClient.RetryWaitMin = f.cfg.RetryWaitMin
	retryClient.RetryWaitMax = f.cfg.RetryWaitMax
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = logging.NewLeveled(f.cfg.Logger)

	httpClient := retryClient.StandardClient()
	httpClient.Timeout = f.cfg.Timeout

	f.cfg.Logger.Debug("Built %s client for %s (user agent %q)", scheme, f.baseURL, userAgent)

	return &Client{
		baseURL:    f.baseURL,
		httpClient: httpClient,
		scheme:     scheme,
		userAgent:  userAgent,
		sessionID:  sessionID,
		logger:     f.cfg.Logger,
	}, nil
}
