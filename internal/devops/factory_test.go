package devops

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/mcp-azure-devops/internal/auth"
	"github.com/giantswarm/mcp-azure-devops/internal/useragent"
)

// capturedRequest records the headers of one request seen by the test server
type capturedRequest struct {
	Path          string
	Query         string
	Authorization string
	UserAgent     string
	Session       string
}

type recordingServer struct {
	*httptest.Server
	mu       sync.Mutex
	requests []capturedRequest
}

func newRecordingServer(t *testing.T, handler http.HandlerFunc) *recordingServer {
	t.Helper()
	rs := &recordingServer{}
	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rs.mu.Lock()
		rs.requests = append(rs.requests, capturedRequest{
			Path:          r.URL.Path,
			Query:         r.URL.RawQuery,
			Authorization: r.Header.Get("Authorization"),
			UserAgent:     r.Header.Get("User-Agent"),
			Session:       r.Header.Get("X-TFS-Session"),
		})
		rs.mu.Unlock()
		if handler != nil {
			handler(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"count":0,"value":[]}`))
	}))
	t.Cleanup(rs.Close)
	return rs
}

func (rs *recordingServer) last() capturedRequest {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.requests[len(rs.requests)-1]
}

func (rs *recordingServer) count() int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return len(rs.requests)
}

func newTestFactory(t *testing.T, orgURL string, strategy auth.Strategy, tokens auth.TokenProvider, ua *useragent.Composer) *ClientFactory {
	t.Helper()
	f, err := NewClientFactory(FactoryConfig{
		OrgURL:       orgURL,
		Strategy:     strategy,
		Tokens:       tokens,
		UserAgent:    ua,
		RetryMax:     2,
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: 5 * time.Millisecond,
	})
	require.NoError(t, err)
	return f
}

func staticTokens(token string) auth.TokenProvider {
	return func(context.Context) (string, error) { return token, nil }
}

func TestBuild_PATUsesBasicScheme(t *testing.T) {
	server := newRecordingServer(t, nil)
	tokens, err := auth.NewTokenProvider(auth.PAT, "", "abc123")
	require.NoError(t, err)

	factory := newTestFactory(t, server.URL+"/contoso", auth.PAT, tokens, useragent.New("1.2.3"))

	for i := 0; i < 2; i++ {
		client, err := factory.Build(context.Background())
		require.NoError(t, err)
		assert.Equal(t, SchemeBasic, client.Scheme())

		require.NoError(t, client.Get(context.Background(), "_apis/projects", nil, nil))

		want := "Basic " + base64.StdEncoding.EncodeToString([]byte(":abc123"))
		assert.Equal(t, want, server.last().Authorization)
	}
}

func TestBuild_OtherStrategiesUseBearerScheme(t *testing.T) {
	for _, strategy := range []auth.Strategy{auth.Interactive, auth.AzureCLI, auth.Env, auth.EnvVar} {
		t.Run(string(strategy), func(t *testing.T) {
			server := newRecordingServer(t, nil)
			factory := newTestFactory(t, server.URL+"/contoso", strategy, staticTokens("entra-token"), useragent.New("1.2.3"))

			for i := 0; i < 2; i++ {
				client, err := factory.Build(context.Background())
				require.NoError(t, err)
				assert.Equal(t, SchemeBearer, client.Scheme())

				require.NoError(t, client.Get(context.Background(), "_apis/projects", nil, nil))
				assert.Equal(t, "Bearer entra-token", server.last().Authorization)
			}
		})
	}
}

func TestBuild_TokenProviderFailurePropagatesUnchanged(t *testing.T) {
	for _, cause := range []error{auth.ErrAuthFailed, auth.ErrMissingCredential} {
		t.Run(cause.Error(), func(t *testing.T) {
			failure := errors.Join(cause, errors.New("simulated"))
			factory := newTestFactory(t, "https://dev.azure.com/contoso", auth.AzureCLI,
				func(context.Context) (string, error) { return "", failure },
				useragent.New("1.2.3"))

			client, err := factory.Build(context.Background())
			assert.Nil(t, client)
			assert.Same(t, failure, err)
			assert.True(t, errors.Is(err, cause))
		})
	}
}

func TestBuild_TokenProviderCalledPerBuild(t *testing.T) {
	var calls int
	tokens := func(context.Context) (string, error) {
		calls++
		return "token", nil
	}
	factory := newTestFactory(t, "https://dev.azure.com/contoso", auth.Interactive, tokens, useragent.New("1.2.3"))
	assert.Zero(t, calls, "factory construction must not request a token")

	for i := 0; i < 3; i++ {
		_, err := factory.Build(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 3, calls)
}

func TestBuild_ObservesUserAgentChangesBetweenBuilds(t *testing.T) {
	server := newRecordingServer(t, nil)
	ua := useragent.New("1.2.3")
	factory := newTestFactory(t, server.URL+"/contoso", auth.PAT, staticTokens("pat"), ua)

	before, err := factory.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AzureDevOps.MCP/1.2.3", before.UserAgent())

	ua.AppendClientInfo(&mcp.Implementation{Name: "agent-x", Version: "0.1"})

	after, err := factory.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AzureDevOps.MCP/1.2.3 (agent-x/0.1)", after.UserAgent())

	// the earlier client keeps its snapshot
	require.NoError(t, before.Get(context.Background(), "_apis/projects", nil, nil))
	assert.Equal(t, "AzureDevOps.MCP/1.2.3", server.last().UserAgent)

	require.NoError(t, after.Get(context.Background(), "_apis/projects", nil, nil))
	assert.Equal(t, "AzureDevOps.MCP/1.2.3 (agent-x/0.1)", server.last().UserAgent)
}

func TestBuild_FreshSessionPerClient(t *testing.T) {
	factory := newTestFactory(t, "https://dev.azure.com/contoso", auth.PAT, staticTokens("pat"), useragent.New("1"))

	a, err := factory.Build(context.Background())
	require.NoError(t, err)
	b, err := factory.Build(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, a.SessionID())
	assert.NotEqual(t, a.SessionID(), b.SessionID())
}

func TestNewClientFactory_Validation(t *testing.T) {
	ua := useragent.New("1")
	tests := []struct {
		name    string
		cfg     FactoryConfig
		wantErr bool
	}{
		{
			name: "valid https",
			cfg:  FactoryConfig{OrgURL: "https://dev.azure.com/contoso/", Tokens: staticTokens("x"), UserAgent: ua},
		},
		{
			name: "http localhost allowed",
			cfg:  FactoryConfig{OrgURL: "http://localhost:8080/contoso", Tokens: staticTokens("x"), UserAgent: ua},
		},
		{
			name:    "http remote host rejected",
			cfg:     FactoryConfig{OrgURL: "http://dev.azure.com/contoso", Tokens: staticTokens("x"), UserAgent: ua},
			wantErr: true,
		},
		{
			name:    "missing url",
			cfg:     FactoryConfig{Tokens: staticTokens("x"), UserAgent: ua},
			wantErr: true,
		},
		{
			name:    "missing token provider",
			cfg:     FactoryConfig{OrgURL: "https://dev.azure.com/contoso", UserAgent: ua},
			wantErr: true,
		},
		{
			name:    "missing composer",
			cfg:     FactoryConfig{OrgURL: "https://dev.azure.com/contoso", Tokens: staticTokens("x")},
			wantErr: true,
		},
		{
			name:    "unsupported scheme",
			cfg:     FactoryConfig{OrgURL: "ftp://dev.azure.com/contoso", Tokens: staticTokens("x"), UserAgent: ua},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewClientFactory(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotContains(t, f.OrgURL()[len(f.OrgURL())-1:], "/")
		})
	}
}
