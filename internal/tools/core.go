package tools

import (
	"context"
	"net/url"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
)

func (r *Registrar) coreTools() []tool {
	return []tool{
		{
			def: mcp.NewTool("core_list_projects",
				mcp.WithDescription("List the projects in the Azure DevOps organization"),
				mcp.WithString("stateFilter",
					mcp.Description("Filter by project state: all, wellFormed, createPending, deleting, new"),
				),
				mcp.WithNumber("top", mcp.Description("Maximum number of projects to return")),
				mcp.WithNumber("skip", mcp.Description("Number of projects to skip")),
			),
			handler: r.handleListProjects,
		},
		{
			def: mcp.NewTool("core_list_project_teams",
				mcp.WithDescription("List the teams of a project"),
				mcp.WithString("project", mcp.Required(), mcp.Description("Project name or id")),
				mcp.WithBoolean("mine", mcp.Description("Only return teams the caller is a member of")),
				mcp.WithNumber("top", mcp.Description("Maximum number of teams to return")),
			),
			handler: r.handleListProjectTeams,
		},
	}
}

func (r *Registrar) handleListProjects(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q := url.Values{}
	setString(q, "stateFilter", request, "stateFilter")
	setInt(q, "$top", request, "top")
	setInt(q, "$skip", request, "skip")
	return r.get(ctx, "core_list_projects", "_apis/projects", q)
}

func (r *Registrar) handleListProjectTeams(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := request.RequireString("project")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	q := url.Values{}
	if request.GetBool("mine", false) {
		q.Set("$mine", strconv.FormatBool(true))
	}
	setInt(q, "$top", request, "top")
	return r.get(ctx, "core_list_project_teams", "_apis/projects/"+segment(project)+"/teams", q)
}
