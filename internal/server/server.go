// Package server wires the Azure DevOps tools into an MCP server and feeds
// the handshake's client identity into the user-agent composer.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/giantswarm/mcp-azure-devops/internal/domains"
	"github.com/giantswarm/mcp-azure-devops/internal/logging"
	"github.com/giantswarm/mcp-azure-devops/internal/tools"
	"github.com/giantswarm/mcp-azure-devops/internal/useragent"
)

// Supported server transports.
const (
	TransportStdio          = "stdio"
	TransportStreamableHTTP = "streamable-http"
)

// endpointPath is the fixed path of the streamable-http endpoint
const endpointPath = "/mcp"

// ServerName is the implementation name announced during the handshake.
const ServerName = "Azure DevOps MCP Server"

// Config holds the collaborators of an MCPServer
type Config struct {
	Version   string
	Transport string
	Domains   domains.Set
	Registrar *tools.Registrar
	UserAgent *useragent.Composer
	Logger    *logging.Logger
}

// MCPServer exposes the enabled Azure DevOps domains via MCP
type MCPServer struct {
	mcpServer *server.MCPServer
	logger    *logging.Logger
	userAgent *useragent.Composer
	transport string
	toolNames []string
}

// NewMCPServer creates the MCP server and registers the enabled domains
func NewMCPServer(cfg Config) (*MCPServer, error) {
	if cfg.Registrar == nil {
		return nil, fmt.Errorf("tool registrar is required")
	}
	if cfg.UserAgent == nil {
		return nil, fmt.Errorf("user agent composer is required")
	}
	if cfg.Transport == "" {
		cfg.Transport = TransportStdio
	}
	if cfg.Transport != TransportStdio && cfg.Transport != TransportStreamableHTTP {
		return nil, fmt.Errorf("unsupported server transport: %s", cfg.Transport)
	}

	m := &MCPServer{
		logger:    cfg.Logger,
		userAgent: cfg.UserAgent,
		transport: cfg.Transport,
	}

	hooks := &server.Hooks{}
	hooks.AddAfterInitialize(m.onInitialized)

	m.mcpServer = server.NewMCPServer(
		ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
		server.WithHooks(hooks),
		server.WithRecovery(),
	)

	m.toolNames = cfg.Registrar.Register(m.mcpServer, cfg.Domains)
	m.logger.Info("Registered %d tools for domains: %s", len(m.toolNames), cfg.Domains)

	return m, nil
}

// onInitialized records the connecting client's identity for outgoing
// Azure DevOps requests
func (m *MCPServer) onInitialized(ctx context.Context, id any, message *mcp.InitializeRequest, result *mcp.InitializeResult) {
	if message == nil {
		return
	}
	info := message.Params.ClientInfo
	m.userAgent.AppendClientInfo(&info)
	m.logger.Info("Client connected: %s %s", info.Name, info.Version)
	m.logger.InfoVerbose("Outgoing user agent: %s", m.userAgent.Current())
}

// ToolNames returns the names of all registered tools
func (m *MCPServer) ToolNames() []string {
	out := make([]string, len(m.toolNames))
	copy(out, m.toolNames)
	return out
}

// Server returns the underlying mcp-go server
func (m *MCPServer) Server() *server.MCPServer {
	return m.mcpServer
}

// Start serves MCP on the configured transport until ctx is cancelled or the
// transport closes
func (m *MCPServer) Start(ctx context.Context, listenAddr string) error {
	switch m.transport {
	case TransportStdio:
		stdio := server.NewStdioServer(m.mcpServer)
		err := stdio.Listen(ctx, os.Stdin, os.Stdout)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	case TransportStreamableHTTP:
		httpServer := server.NewStreamableHTTPServer(
			m.mcpServer,
			server.WithEndpointPath(endpointPath),
		)

		errChan := make(chan error, 1)
		go func() {
			errChan <- httpServer.Start(listenAddr)
		}()

		select {
		case err := <-errChan:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
			m.logger.Info("Shutting down...")
			return httpServer.Shutdown(context.Background())
		}
	default:
		return fmt.Errorf("unsupported server transport: %s", m.transport)
	}
}
