package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/giantswarm/mcp-azure-devops/internal/devops"
)

func (r *Registrar) advancedSecurityTools() []tool {
	return []tool{
		{
			def: mcp.NewTool("advsec_get_alerts",
				mcp.WithDescription("List Advanced Security alerts of a repository"),
				mcp.WithString("project", mcp.Required(), mcp.Description("Project name or id")),
				mcp.WithString("repository", mcp.Required(), mcp.Description("Repository name or id")),
				mcp.WithString("alertType",
					mcp.Description("Alert type"),
					mcp.Enum("code", "secret", "dependency"),
				),
				mcp.WithString("states",
					mcp.Description("Alert state"),
					mcp.Enum("active", "dismissed", "fixed", "autoDismissed"),
				),
				mcp.WithNumber("top", mcp.Description("Maximum number of alerts")),
			),
			handler: r.handleGetAlerts,
		},
	}
}

func (r *Registrar) handleGetAlerts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := request.RequireString("project")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	repo, err := request.RequireString("repository")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	q := url.Values{}
	setString(q, "criteria.alertType", request, "alertType")
	setString(q, "criteria.states", request, "states")
	setInt(q, "top", request, "top")

	return r.call(ctx, "advsec_get_alerts", func(c *devops.Client) (interface{}, error) {
		var out json.RawMessage
		path := segment(project) + "/_apis/alert/repositories/" + segment(repo) + "/alerts"
		if err := c.Do(ctx, http.MethodGet, c.ServiceURL("advsec", path), q, nil, &out); err != nil {
			return nil, err
		}
		return out, nil
	})
}
