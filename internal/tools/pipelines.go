package tools

import (
	"context"
	"net/url"

	"github.com/mark3labs/mcp-go/mcp"
)

func (r *Registrar) pipelineTools() []tool {
	return []tool{
		{
			def: mcp.NewTool("pipelines_list_pipelines",
				mcp.WithDescription("List the pipelines of a project"),
				mcp.WithString("project", mcp.Required(), mcp.Description("Project name or id")),
				mcp.WithNumber("top", mcp.Description("Maximum number of pipelines")),
			),
			handler: r.handleListPipelines,
		},
	}
}

func (r *Registrar) handleListPipelines(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := request.RequireString("project")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	q := url.Values{}
	setInt(q, "$top", request, "top")
	return r.get(ctx, "pipelines_list_pipelines", segment(project)+"/_apis/pipelines", q)
}
