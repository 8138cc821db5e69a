// Package tools registers the Azure DevOps tools of every enabled domain with
// the MCP server. Handlers never hold a client: each call asks the factory for
// a freshly authenticated one.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/giantswarm/mcp-azure-devops/internal/devops"
	"github.com/giantswarm/mcp-azure-devops/internal/domains"
	"github.com/giantswarm/mcp-azure-devops/internal/logging"
)

// ClientBuilder returns an authenticated client for one tool invocation.
type ClientBuilder interface {
	Build(ctx context.Context) (*devops.Client, error)
}

// tool pairs a definition with its handler
type tool struct {
	def     mcp.Tool
	handler server.ToolHandlerFunc
}

// Registrar maps enabled domains to tool handlers.
type Registrar struct {
	clients ClientBuilder
	logger  *logging.Logger
	groups  map[domains.Domain]func() []tool
}

// NewRegistrar creates a registrar whose handlers use clients.
func NewRegistrar(clients ClientBuilder, logger *logging.Logger) *Registrar {
	r := &Registrar{
		clients: clients,
		logger:  logger,
	}
	r.groups = map[domains.Domain]func() []tool{
		domains.AdvancedSecurity: r.advancedSecurityTools,
		domains.Builds:           r.buildTools,
		domains.Core:             r.coreTools,
		domains.Pipelines:        r.pipelineTools,
		domains.Repositories:     r.repositoryTools,
		domains.Search:           r.searchTools,
		domains.TestPlans:        r.testPlanTools,
		domains.Wiki:             r.wikiTools,
		domains.Work:             r.workTools,
		domains.WorkItems:        r.workItemTools,
	}
	return r
}

// Register adds the tools of every enabled domain to s, in domain order, and
// returns the registered tool names.
func (r *Registrar) Register(s *server.MCPServer, enabled domains.Set) []string {
	var names []string
	for _, d := range enabled.Domains() {
		group, ok := r.groups[d]
		if !ok {
			r.logger.Warning("No tools defined for domain %s", d)
			continue
		}
		for _, t := range group() {
			s.AddTool(t.def, t.handler)
			names = append(names, t.def.Name)
		}
		r.logger.InfoVerbose("Registered %s tools", d)
	}
	return names
}

// call builds a client and runs fn with it. Authentication and API failures
// are reported to the agent as tool errors.
func (r *Registrar) call(ctx context.Context, name string, fn func(*devops.Client) (interface{}, error)) (*mcp.CallToolResult, error) {
	client, err := r.clients.Build(ctx)
	if err != nil {
		r.logger.Error("%s: failed to authenticate: %v", name, err)
		return mcp.NewToolResultError(fmt.Sprintf("failed to authenticate: %v", err)), nil
	}

	result, err := fn(client)
	if err != nil {
		r.logger.Error("%s failed: %v", name, err)
		return mcp.NewToolResultError(err.Error()), nil
	}

	data, err := json.Marshal(result)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// get is the common shape of a read-only tool: one GET, raw JSON back.
func (r *Registrar) get(ctx context.Context, name, path string, query url.Values) (*mcp.CallToolResult, error) {
	return r.call(ctx, name, func(c *devops.Client) (interface{}, error) {
		var out json.RawMessage
		if err := c.Get(ctx, path, query, &out); err != nil {
			return nil, err
		}
		return out, nil
	})
}

// setInt adds key to q when the argument was given as a positive number
func setInt(q url.Values, key string, request mcp.CallToolRequest, arg string) {
	if v := request.GetInt(arg, 0); v > 0 {
		q.Set(key, strconv.Itoa(v))
	}
}

// setString adds key to q when the argument is a non-empty string
func setString(q url.Values, key string, request mcp.CallToolRequest, arg string) {
	if v := request.GetString(arg, ""); v != "" {
		q.Set(key, v)
	}
}

// segment escapes a single path element such as a project or team name
func segment(s string) string {
	return url.PathEscape(s)
}
