// ABOUTME: Tool enumerates the platform feature areas gated by the access model.
// ABOUTME: Declaration order is the stable iteration order used by every listing.
package access

import (
	"fmt"
	"strings"
)

// Tool identifies a platform feature area.
type Tool int

// Declared tools, in display order.
const (
	ToolDashboard Tool = iota + 1
	ToolCHWManagement
	ToolWorkforceDevelopment
	ToolGrantManagement
	ToolReports
	ToolResourceDirectory
	ToolReferrals
	ToolSurveys
	ToolForms
	ToolDatasets
	ToolOrgSettings
	ToolPlatformAdmin

	toolEnd
)

const numTools = int(toolEnd) - 1

var toolNames = [...]string{
	ToolDashboard:            "dashboard",
	ToolCHWManagement:        "chw_management",
	ToolWorkforceDevelopment: "workforce_development",
	ToolGrantManagement:      "grant_management",
	ToolReports:              "reports",
	ToolResourceDirectory:    "resource_directory",
	ToolReferrals:            "referrals",
	ToolSurveys:              "surveys",
	ToolForms:                "forms",
	ToolDatasets:             "datasets",
	ToolOrgSettings:          "org_settings",
	ToolPlatformAdmin:        "platform_admin",
}

// Tools returns every declared tool in declaration order.
func Tools() []Tool {
	out := make([]Tool, 0, numTools)
	for t := ToolDashboard; t < toolEnd; t++ {
		out = append(out, t)
	}
	return out
}

// Valid reports whether t is a declared tool.
func (t Tool) Valid() bool {
	return t >= ToolDashboard && t < toolEnd
}

func (t Tool) String() string {
	if !t.Valid() {
		return fmt.Sprintf("Tool(%d)", int(t))
	}
	return toolNames[t]
}

// ParseTool converts a tool name such as "grant_management" to a Tool.
// Hyphens are accepted in place of underscores so URL slugs parse too.
func ParseTool(s string) (Tool, error) {
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for t := ToolDashboard; t < toolEnd; t++ {
		if toolNames[t] == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTool, s)
}

// MarshalText implements encoding.TextMarshaler.
func (t Tool) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTool, int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tool) UnmarshalText(b []byte) error {
	parsed, err := ParseTool(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
