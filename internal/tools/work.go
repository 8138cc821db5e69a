package tools

import (
	"context"
	"net/url"

	"github.com/mark3labs/mcp-go/mcp"
)

func (r *Registrar) workTools() []tool {
	return []tool{
		{
			def: mcp.NewTool("work_list_team_iterations",
				mcp.WithDescription("List the iterations assigned to a team"),
				mcp.WithString("project", mcp.Required(), mcp.Description("Project name or id")),
				mcp.WithString("team", mcp.Required(), mcp.Description("Team name or id")),
				mcp.WithString("timeframe",
					mcp.Description("Only 'current' is supported; omit for all iterations"),
					mcp.Enum("current"),
				),
			),
			handler: r.handleListTeamIterations,
		},
	}
}

func (r *Registrar) handleListTeamIterations(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := request.RequireString("project")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	team, err := request.RequireString("team")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	q := url.Values{}
	setString(q, "$timeframe", request, "timeframe")
	path := segment(project) + "/" + segment(team) + "/_apis/work/teamsettings/iterations"
	return r.get(ctx, "work_list_team_iterations", path, q)
}
