package tools

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/giantswarm/mcp-azure-devops/internal/devops"
)

// codeSearchRequest is the body of the code search API
type codeSearchRequest struct {
	SearchText    string              `json:"searchText"`
	Skip          int                 `json:"$skip"`
	Top           int                 `json:"$top"`
	Filters       map[string][]string `json:"filters,omitempty"`
	IncludeFacets bool                `json:"includeFacets"`
}

func (r *Registrar) searchTools() []tool {
	return []tool{
		{
			def: mcp.NewTool("search_code",
				mcp.WithDescription("Search source code across the organization's repositories"),
				mcp.WithString("searchText", mcp.Required(), mcp.Description("Text to search for")),
				mcp.WithString("project", mcp.Description("Restrict to this project")),
				mcp.WithString("repository", mcp.Description("Restrict to this repository")),
				mcp.WithNumber("top", mcp.Description("Maximum number of results (default 5)")),
				mcp.WithNumber("skip", mcp.Description("Number of results to skip")),
			),
			handler: r.handleSearchCode,
		},
	}
}

func (r *Registrar) handleSearchCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("searchText")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	body := codeSearchRequest{
		SearchText: text,
		Skip:       request.GetInt("skip", 0),
		Top:        request.GetInt("top", 5),
	}
	if project := request.GetString("project", ""); project != "" {
		body.Filters = map[string][]string{"Project": {project}}
	}
	if repo := request.GetString("repository", ""); repo != "" {
		if body.Filters == nil {
			body.Filters = map[string][]string{}
		}
		body.Filters["Repository"] = []string{repo}
	}

	return r.call(ctx, "search_code", func(c *devops.Client) (interface{}, error) {
		var out json.RawMessage
		target := c.ServiceURL("almsearch", "_apis/search/codesearchresults")
		if err := c.Do(ctx, http.MethodPost, target, nil, body, &out); err != nil {
			return nil, err
		}
		return out, nil
	})
}
