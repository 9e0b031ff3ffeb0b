// ABOUTME: Tool catalog and access-decision endpoints.
// ABOUTME: Public catalog routes use huma; per-org routes use chi behind RequireOrgProfile.
package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	"github.com/brianstittsr/windsurf-WL4WJ-CHWOne-sub011/internal/access"
)

// registerToolRoutes wires the read-only catalog endpoints on the huma API.
//
//	GET /tools                      — every platform tool with its display config
//	GET /org-types                  — declared org types
//	GET /org-types/{org_type}/tools — grouped tools an org type can view, with levels
func registerToolRoutes(api huma.API, resolver *access.Resolver) {
	huma.Register(api, huma.Operation{
		OperationID: "list-tools",
		Method:      http.MethodGet,
		Path:        "/tools",
		Summary:     "List platform tools",
		Description: "Returns every platform tool in display order with its label and category.",
		Tags:        []string{"Tools"},
	}, listToolsHandler(resolver))

	huma.Register(api, huma.Operation{
		OperationID: "list-org-types",
		Method:      http.MethodGet,
		Path:        "/org-types",
		Summary:     "List organization types",
		Tags:        []string{"Tools"},
	}, listOrgTypesHandler())

	huma.Register(api, huma.Operation{
		OperationID: "get-org-type-tools",
		Method:      http.MethodGet,
		Path:        "/org-types/{org_type}/tools",
		Summary:     "Get tools for an organization type",
		Description: "Returns the tools an organization type can view, grouped by category, with the maximum level held on each.",
		Tags:        []string{"Tools"},
	}, getOrgTypeToolsHandler(resolver))
}

// ── Response types ────────────────────────────────────────────────────────────

// ToolItem is the catalog representation of a platform tool.
type ToolItem struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Category string `json:"category,omitempty"`
}

// GrantedTool is a tool an org type can view, with the level it holds.
type GrantedTool struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Level string `json:"level"`
}

// ToolGroup is one navigation category and its visible tools.
type ToolGroup struct {
	Category string        `json:"category"`
	Tools    []GrantedTool `json:"tools"`
}

// OrgTypeItem describes a declared org type.
type OrgTypeItem struct {
	Name        string `json:"name"`
	SelfService bool   `json:"self_service"`
}

// ToolAccessBody describes an org type's (or a member's) view of the platform.
type ToolAccessBody struct {
	OrgID      string      `json:"org_id,omitempty"`
	OrgType    string      `json:"org_type"`
	OpenPolicy bool        `json:"open_policy"`
	Groups     []ToolGroup `json:"groups"`
}

// ToolDecision is the response body for a single access check.
type ToolDecision struct {
	Tool     string `json:"tool"`
	Required string `json:"required"`
	Allowed  bool   `json:"allowed"`
	Level    string `json:"level"`
}

func toolItem(resolver *access.Resolver, tl access.Tool) ToolItem {
	item := ToolItem{Name: tl.String(), Label: tl.String()}
	if info, ok := resolver.Info(tl); ok {
		item.Label = info.Label
		item.Category = string(info.Category)
	}
	return item
}

// groupTools renders resolver.GroupedTools with levels supplied by levelOf.
func groupTools(resolver *access.Resolver, orgType access.OrgType, levelOf func(access.Tool) access.Level) []ToolGroup {
	grouped := resolver.GroupedTools(orgType)
	out := make([]ToolGroup, 0, len(grouped))
	for _, g := range grouped {
		tg := ToolGroup{Category: string(g.Category), Tools: make([]GrantedTool, 0, len(g.Tools))}
		for _, tl := range g.Tools {
			item := toolItem(resolver, tl)
			tg.Tools = append(tg.Tools, GrantedTool{
				Name:  item.Name,
				Label: item.Label,
				Level: levelOf(tl).String(),
			})
		}
		out = append(out, tg)
	}
	return out
}

// ── GET /tools ────────────────────────────────────────────────────────────────

// ListToolsOutput is the response for the catalog listing.
type ListToolsOutput struct {
	Body []ToolItem
}

func listToolsHandler(resolver *access.Resolver) func(context.Context, *struct{}) (*ListToolsOutput, error) {
	return func(_ context.Context, _ *struct{}) (*ListToolsOutput, error) {
		tools := access.Tools()
		out := &ListToolsOutput{Body: make([]ToolItem, 0, len(tools))}
		for _, tl := range tools {
			out.Body = append(out.Body, toolItem(resolver, tl))
		}
		return out, nil
	}
}

// ── GET /org-types ────────────────────────────────────────────────────────────

// ListOrgTypesOutput is the response for the org type listing.
type ListOrgTypesOutput struct {
	Body []OrgTypeItem
}

func listOrgTypesHandler() func(context.Context, *struct{}) (*ListOrgTypesOutput, error) {
	return func(_ context.Context, _ *struct{}) (*ListOrgTypesOutput, error) {
		types := access.OrgTypes()
		out := &ListOrgTypesOutput{Body: make([]OrgTypeItem, 0, len(types))}
		for _, o := range types {
			out.Body = append(out.Body, OrgTypeItem{Name: o.String(), SelfService: o.SelfService()})
		}
		return out, nil
	}
}

// ── GET /org-types/{org_type}/tools ──────────────────────────────────────────

// OrgTypeToolsInput is the path input for the org type tools lookup.
type OrgTypeToolsInput struct {
	OrgType string `path:"org_type" doc:"Organization type, e.g. chw or state_agency"`
}

// OrgTypeToolsOutput is the response for the org type tools lookup.
type OrgTypeToolsOutput struct {
	Body ToolAccessBody
}

func getOrgTypeToolsHandler(resolver *access.Resolver) func(context.Context, *OrgTypeToolsInput) (*OrgTypeToolsOutput, error) {
	return func(_ context.Context, input *OrgTypeToolsInput) (*OrgTypeToolsOutput, error) {
		orgType, err := access.ParseOrgType(input.OrgType)
		if err != nil {
			return nil, huma.Error422UnprocessableEntity("unknown org type", err)
		}
		return &OrgTypeToolsOutput{Body: ToolAccessBody{
			OrgType:    orgType.String(),
			OpenPolicy: resolver.Open(),
			Groups: groupTools(resolver, orgType, func(tl access.Tool) access.Level {
				return resolver.MaxLevel(orgType, tl)
			}),
		}}, nil
	}
}

// ── Per-org chi handlers ──────────────────────────────────────────────────────

// orgToolsHandler handles GET /api/v1/orgs/{org_id}/tools.
// Returns the caller's navigation: visible tools grouped by category, with the
// effective level on each (API keys see their capped level).
func (srv *Server) orgToolsHandler(w http.ResponseWriter, r *http.Request) {
	profile, ok := profileFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, ToolAccessBody{
		OrgID:      profile.OrgID.String(),
		OrgType:    profile.OrgType.String(),
		OpenPolicy: srv.resolver.Open(),
		Groups: groupTools(srv.resolver, profile.OrgType, func(tl access.Tool) access.Level {
			return srv.effectiveLevel(r.Context(), profile, tl)
		}),
	})
}

// checkToolHandler handles GET /api/v1/orgs/{org_id}/tools/{tool}?level=view.
// Reports the access decision for the caller; level defaults to view.
func (srv *Server) checkToolHandler(w http.ResponseWriter, r *http.Request) {
	profile, ok := profileFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	tool, err := access.ParseTool(chi.URLParam(r, "tool"))
	if err != nil {
		http.Error(w, "unknown tool", http.StatusBadRequest)
		return
	}
	required := access.LevelView
	if v := r.URL.Query().Get("level"); v != "" {
		if required, err = access.ParseLevel(v); err != nil {
			http.Error(w, "invalid level", http.StatusBadRequest)
			return
		}
	}
	// A check at none is evaluated as view; report the level actually checked.
	if required < access.LevelView {
		required = access.LevelView
	}

	granted := srv.allowed(r.Context(), profile, tool, required)
	srv.metrics.observe(tool, granted)
	writeJSON(w, http.StatusOK, ToolDecision{
		Tool:     tool.String(),
		Required: required.String(),
		Allowed:  granted,
		Level:    srv.effectiveLevel(r.Context(), profile, tool).String(),
	})
}
