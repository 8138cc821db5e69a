package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

func (r *Registrar) wikiTools() []tool {
	return []tool{
		{
			def: mcp.NewTool("wiki_list_wikis",
				mcp.WithDescription("List wikis in the organization, or in one project"),
				mcp.WithString("project", mcp.Description("Project name or id")),
			),
			handler: r.handleListWikis,
		},
	}
}

func (r *Registrar) handleListWikis(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := "_apis/wiki/wikis"
	if project := request.GetString("project", ""); project != "" {
		path = segment(project) + "/" + path
	}
	return r.get(ctx, "wiki_list_wikis", path, nil)
}
