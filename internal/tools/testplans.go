package tools

import (
	"context"
	"net/url"

	"github.com/mark3labs/mcp-go/mcp"
)

func (r *Registrar) testPlanTools() []tool {
	return []tool{
		{
			def: mcp.NewTool("testplan_list_test_plans",
				mcp.WithDescription("List test plans of a project"),
				mcp.WithString("project", mcp.Required(), mcp.Description("Project name or id")),
				mcp.WithBoolean("filterActivePlans", mcp.Description("Only return active plans (default true)")),
				mcp.WithBoolean("includePlanDetails", mcp.Description("Include plan details")),
			),
			handler: r.handleListTestPlans,
		},
	}
}

func (r *Registrar) handleListTestPlans(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := request.RequireString("project")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	q := url.Values{}
	if request.GetBool("filterActivePlans", true) {
		q.Set("filterActivePlans", "true")
	}
	if request.GetBool("includePlanDetails", false) {
		q.Set("includePlanDetails", "true")
	}
	return r.get(ctx, "testplan_list_test_plans", segment(project)+"/_apis/testplan/plans", q)
}
