// Package access resolves which platform tools an organization may use.
//
// Access is scoped by organization type. A static capability [Table] maps
// each (org type, tool) pair to the maximum [Level] granted; a [Catalog]
// assigns each tool a display category. A [Resolver] answers grant/deny
// questions and enumerates tools over those two inputs.
//
// Everything here is immutable after construction and performs no I/O, so a
// single Resolver is shared by all request goroutines without locking.
package access

import (
	"fmt"
	"log/slog"
)

// Resolver evaluates tool access for an org type.
type Resolver struct {
	table   Table
	catalog map[Tool]ToolInfo
	open    bool
	logger  *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithOpenPolicy makes every valid (org type, tool) pair resolve to
// LevelAdmin. Intended for local development and demos only; config.Load
// refuses it in production.
func WithOpenPolicy() Option {
	return func(r *Resolver) { r.open = true }
}

// WithLogger sets the logger used for diagnostics. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewResolver validates table against catalog and returns a Resolver.
//
// Every tool granted to any org type must have a catalog entry with a
// declared category; otherwise ErrMissingDisplayConfig is returned and the
// caller must not serve requests.
func NewResolver(table *Table, catalog Catalog, opts ...Option) (*Resolver, error) {
	if table == nil {
		return nil, fmt.Errorf("new resolver: nil capability table")
	}
	r := &Resolver{
		table:   *table,
		catalog: make(map[Tool]ToolInfo, len(catalog)),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	for tl, info := range catalog {
		r.catalog[tl] = info
	}

	for _, tl := range Tools() {
		if !r.grantedAnywhere(tl) {
			continue
		}
		info, ok := r.catalog[tl]
		if !ok {
			return nil, fmt.Errorf("%w: tool %s has no catalog entry", ErrMissingDisplayConfig, tl)
		}
		if !info.Category.Valid() {
			return nil, fmt.Errorf("%w: tool %s has undeclared category %q", ErrMissingDisplayConfig, tl, info.Category)
		}
	}

	if r.open {
		r.logger.Warn("ACCESS POLICY IS OPEN: every tool check is granted at admin level; never run this in production")
	}
	return r, nil
}

// Open reports whether the resolver was built with WithOpenPolicy.
func (r *Resolver) Open() bool { return r.open }

func (r *Resolver) grantedAnywhere(tl Tool) bool {
	for _, o := range OrgTypes() {
		if r.MaxLevel(o, tl) > LevelNone {
			return true
		}
	}
	return false
}

// MaxLevel returns the highest level orgType holds on tool. Undeclared
// inputs are denied and logged.
func (r *Resolver) MaxLevel(orgType OrgType, tool Tool) Level {
	if !orgType.Valid() || !tool.Valid() {
		r.logger.Warn("access check with undeclared input denied",
			"org_type", int(orgType), "tool", int(tool))
		return LevelNone
	}
	if r.open {
		return LevelAdmin
	}
	return r.table.MaxLevel(orgType, tool)
}

// CanAccessTool reports whether orgType holds at least required on tool.
// A required level below LevelView is treated as LevelView, so LevelNone
// never grants anything.
func (r *Resolver) CanAccessTool(orgType OrgType, tool Tool, required Level) bool {
	if !required.Valid() {
		r.logger.Warn("access check with undeclared level denied",
			"org_type", orgType.String(), "tool", tool.String(), "level", int(required))
		return false
	}
	if required < LevelView {
		required = LevelView
	}
	return r.MaxLevel(orgType, tool) >= required
}

// CanView is CanAccessTool at LevelView.
func (r *Resolver) CanView(orgType OrgType, tool Tool) bool {
	return r.CanAccessTool(orgType, tool, LevelView)
}

// AvailableTools returns every tool orgType can at least view, in tool
// declaration order.
func (r *Resolver) AvailableTools(orgType OrgType) []Tool {
	out := make([]Tool, 0, numTools)
	for _, tl := range Tools() {
		if r.CanView(orgType, tl) {
			out = append(out, tl)
		}
	}
	return out
}

// ToolsByCategory groups AvailableTools by catalog category. Within a
// category, tools keep declaration order.
func (r *Resolver) ToolsByCategory(orgType OrgType) map[Category][]Tool {
	out := make(map[Category][]Tool)
	for _, tl := range r.AvailableTools(orgType) {
		c := r.catalog[tl].Category
		out[c] = append(out[c], tl)
	}
	return out
}

// CategoryGroup is one category's slice of an org type's available tools.
type CategoryGroup struct {
	Category Category
	Tools    []Tool
}

// GroupedTools is ToolsByCategory ordered by category display order.
// Categories with no available tools are omitted.
func (r *Resolver) GroupedTools(orgType OrgType) []CategoryGroup {
	byCat := r.ToolsByCategory(orgType)
	out := make([]CategoryGroup, 0, len(byCat))
	for _, c := range Categories() {
		if tools := byCat[c]; len(tools) > 0 {
			out = append(out, CategoryGroup{Category: c, Tools: tools})
		}
	}
	return out
}

// Info returns the display config for tool.
func (r *Resolver) Info(tool Tool) (ToolInfo, bool) {
	info, ok := r.catalog[tool]
	return info, ok
}
