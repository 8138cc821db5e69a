package tools

import (
	"context"
	"net/url"

	"github.com/mark3labs/mcp-go/mcp"
)

func (r *Registrar) repositoryTools() []tool {
	return []tool{
		{
			def: mcp.NewTool("repo_list_repos_by_project",
				mcp.WithDescription("List the Git repositories of a project"),
				mcp.WithString("project", mcp.Required(), mcp.Description("Project name or id")),
			),
			handler: r.handleListRepos,
		},
		{
			def: mcp.NewTool("repo_list_pull_requests_by_repo",
				mcp.WithDescription("List pull requests of a repository"),
				mcp.WithString("project", mcp.Required(), mcp.Description("Project name or id")),
				mcp.WithString("repositoryId", mcp.Required(), mcp.Description("Repository name or id")),
				mcp.WithString("status",
					mcp.Description("Pull request status (default active)"),
					mcp.Enum("active", "abandoned", "completed", "all"),
				),
				mcp.WithNumber("top", mcp.Description("Maximum number of pull requests")),
			),
			handler: r.handleListPullRequests,
		},
	}
}

func (r *Registrar) handleListRepos(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := request.RequireString("project")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return r.get(ctx, "repo_list_repos_by_project", segment(project)+"/_apis/git/repositories", nil)
}

func (r *Registrar) handleListPullRequests(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := request.RequireString("project")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	repo, err := request.RequireString("repositoryId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	q := url.Values{}
	q.Set("searchCriteria.status", request.GetString("status", "active"))
	setInt(q, "$top", request, "top")
	path := segment(project) + "/_apis/git/repositories/" + segment(repo) + "/pullrequests"
	return r.get(ctx, "repo_list_pull_requests_by_repo", path, q)
}
