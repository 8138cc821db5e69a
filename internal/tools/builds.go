package tools

import (
	"context"
	"net/url"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
)

func (r *Registrar) buildTools() []tool {
	return []tool{
		{
			def: mcp.NewTool("build_list_builds",
				mcp.WithDescription("List builds of a project"),
				mcp.WithString("project", mcp.Required(), mcp.Description("Project name or id")),
				mcp.WithString("definitions", mcp.Description("Comma separated build definition ids")),
				mcp.WithString("branchName", mcp.Description("Only builds of this branch, e.g. refs/heads/main")),
				mcp.WithString("statusFilter",
					mcp.Description("Build status"),
					mcp.Enum("all", "cancelling", "completed", "inProgress", "notStarted", "postponed"),
				),
				mcp.WithNumber("top", mcp.Description("Maximum number of builds")),
			),
			handler: r.handleListBuilds,
		},
		{
			def: mcp.NewTool("build_get_build",
				mcp.WithDescription("Get a build by id"),
				mcp.WithString("project", mcp.Required(), mcp.Description("Project name or id")),
				mcp.WithNumber("buildId", mcp.Required(), mcp.Description("Build id")),
			),
			handler: r.handleGetBuild,
		},
	}
}

func (r *Registrar) handleListBuilds(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := request.RequireString("project")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	q := url.Values{}
	setString(q, "definitions", request, "definitions")
	setString(q, "branchName", request, "branchName")
	setString(q, "statusFilter", request, "statusFilter")
	setInt(q, "$top", request, "top")
	return r.get(ctx, "build_list_builds", segment(project)+"/_apis/build/builds", q)
}

func (r *Registrar) handleGetBuild(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := request.RequireString("project")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := request.RequireInt("buildId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return r.get(ctx, "build_get_build", segment(project)+"/_apis/build/builds/"+strconv.Itoa(id), nil)
}
