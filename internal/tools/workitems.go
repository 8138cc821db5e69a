package tools

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/giantswarm/mcp-azure-devops/internal/devops"
)

func (r *Registrar) workItemTools() []tool {
	return []tool{
		{
			def: mcp.NewTool("wit_get_work_item",
				mcp.WithDescription("Get a single work item by id"),
				mcp.WithNumber("id", mcp.Required(), mcp.Description("Work item id")),
				mcp.WithString("project", mcp.Description("Project name or id")),
				mcp.WithString("expand",
					mcp.Description("Expand options"),
					mcp.Enum("none", "relations", "fields", "links", "all"),
				),
			),
			handler: r.handleGetWorkItem,
		},
		{
			def: mcp.NewTool("wit_query_by_wiql",
				mcp.WithDescription("Run a WIQL query and return the matching work item references"),
				mcp.WithString("project", mcp.Required(), mcp.Description("Project name or id")),
				mcp.WithString("query", mcp.Required(), mcp.Description("WIQL query text")),
				mcp.WithNumber("top", mcp.Description("Maximum number of results")),
			),
			handler: r.handleQueryByWiql,
		},
	}
}

func (r *Registrar) handleGetWorkItem(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireInt("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	path := "_apis/wit/workitems/" + strconv.Itoa(id)
	if project := request.GetString("project", ""); project != "" {
		path = segment(project) + "/" + path
	}

	q := url.Values{}
	setString(q, "$expand", request, "expand")
	return r.get(ctx, "wit_get_work_item", path, q)
}

func (r *Registrar) handleQueryByWiql(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := request.RequireString("project")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	q := url.Values{}
	setInt(q, "$top", request, "top")
	return r.call(ctx, "wit_query_by_wiql", func(c *devops.Client) (interface{}, error) {
		var out json.RawMessage
		body := map[string]string{"query": query}
		if err := c.Post(ctx, segment(project)+"/_apis/wit/wiql", q, body, &out); err != nil {
			return nil, err
		}
		return out, nil
	})
}
