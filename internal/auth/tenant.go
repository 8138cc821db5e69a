package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/giantswarm/mcp-azure-devops/internal/logging"
)

const (
	// defaultTenantEndpoint is queried with the organization name.
	defaultTenantEndpoint = "https://vssps.dev.azure.com/%s"

	// tenantHeader carries the organization's backing Entra tenant.
	tenantHeader = "X-Vss-Resourcetenant"
)

// TenantLookup discovers the tenant backing an Azure DevOps organization.
type TenantLookup struct {
	// HTTPClient defaults to a client with a short timeout.
	HTTPClient *http.Client

	// Endpoint is a format string receiving the escaped organization name.
	Endpoint string

	Logger *logging.Logger
}

// NewTenantLookup returns a lookup against the public Azure DevOps endpoint.
func NewTenantLookup(logger *logging.Logger) *TenantLookup {
	return &TenantLookup{
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		Endpoint:   defaultTenantEndpoint,
		Logger:     logger,
	}
}

// Resolve returns explicit when set. Otherwise it asks Azure DevOps which
// tenant backs org. Lookup failures are logged and yield "", meaning the
// identity provider's default tenant.
func (l *TenantLookup) Resolve(ctx context.Context, org, explicit string) string {
	if explicit != "" {
		return explicit
	}

	tenant, err := l.lookup(ctx, org)
	if err != nil {
		l.Logger.Warning("Could not determine tenant for organization %s, using default tenant: %v", org, err)
		return ""
	}
	if tenant == "" {
		l.Logger.InfoVerbose("Organization %s reports no tenant, using default tenant", org)
		return ""
	}

	l.Logger.InfoVerbose("Organization %s is backed by tenant %s", org, tenant)
	return tenant
}

func (l *TenantLookup) lookup(ctx context.Context, org string) (string, error) {
	endpoint := l.Endpoint
	if endpoint == "" {
		endpoint = defaultTenantEndpoint
	}
	httpClient := l.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, fmt.Sprintf(endpoint, url.PathEscape(org)), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build tenant lookup request: %w", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("tenant lookup failed: %w", err)
	}
	defer resp.Body.Close()

	tenant := strings.TrimSpace(resp.Header.Get(tenantHeader))
	if tenant == "" {
		return "", nil
	}

	id, err := uuid.Parse(tenant)
	if err != nil {
		return "", fmt.Errorf("organization reported an invalid tenant id %q: %w", tenant, err)
	}
	if id == uuid.Nil {
		return "", nil
	}
	return id.String(), nil
}
