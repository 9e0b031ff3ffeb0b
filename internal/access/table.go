// ABOUTME: Capability table mapping (org type, tool) to the maximum granted Level.
// ABOUTME: Dense and immutable; absent pairs resolve to LevelNone (default deny).
package access

import "fmt"

// Entry grants Level on Tool to every organization of OrgType.
type Entry struct {
	OrgType OrgType
	Tool    Tool
	Level   Level
}

// Table is an immutable capability table. Every declared (org type, tool)
// pair has exactly one cell, so lookups are total. The zero Table denies
// everything.
type Table struct {
	cells [numOrgTypes][numTools]Level
}

// NewTable builds a Table from entries. Pairs not listed resolve to
// LevelNone. Listing the same pair twice is an error even when both entries
// agree, so that a policy file can never carry two rows for one pair.
func NewTable(entries ...Entry) (*Table, error) {
	t := &Table{}
	var seen [numOrgTypes][numTools]bool
	for _, e := range entries {
		if !e.OrgType.Valid() {
			return nil, fmt.Errorf("capability entry: %w: %d", ErrUnknownOrgType, int(e.OrgType))
		}
		if !e.Tool.Valid() {
			return nil, fmt.Errorf("capability entry: %w: %d", ErrUnknownTool, int(e.Tool))
		}
		if !e.Level.Valid() {
			return nil, fmt.Errorf("capability entry: %w: %d", ErrUnknownLevel, int(e.Level))
		}
		o, tl := e.OrgType-1, e.Tool-1
		if seen[o][tl] {
			return nil, fmt.Errorf("%w: %s/%s", ErrDuplicateEntry, e.OrgType, e.Tool)
		}
		seen[o][tl] = true
		t.cells[o][tl] = e.Level
	}
	return t, nil
}

// MaxLevel returns the highest level orgType holds on tool, or LevelNone.
// Undeclared org types or tools also return LevelNone.
func (t *Table) MaxLevel(orgType OrgType, tool Tool) Level {
	if t == nil || !orgType.Valid() || !tool.Valid() {
		return LevelNone
	}
	return t.cells[orgType-1][tool-1]
}

// Entries returns every pair with a level above LevelNone, ordered by org
// type and then tool.
func (t *Table) Entries() []Entry {
	var out []Entry
	for _, o := range OrgTypes() {
		for _, tl := range Tools() {
			if l := t.MaxLevel(o, tl); l > LevelNone {
				out = append(out, Entry{OrgType: o, Tool: tl, Level: l})
			}
		}
	}
	return out
}

// DefaultTable returns the built-in CHWOne capability matrix.
func DefaultTable() *Table {
	t, err := NewTable(defaultEntries()...)
	if err != nil {
		// The built-in matrix is static; a failure here is a programming error.
		panic(fmt.Sprintf("access: default capability table: %v", err))
	}
	return t
}

func defaultEntries() []Entry {
	var out []Entry
	add := func(o OrgType, grants map[Tool]Level) {
		for _, tl := range Tools() {
			if l, ok := grants[tl]; ok {
				out = append(out, Entry{OrgType: o, Tool: tl, Level: l})
			}
		}
	}

	add(OrgTypeCHW, map[Tool]Level{
		ToolDashboard:            LevelEdit,
		ToolCHWManagement:        LevelView,
		ToolWorkforceDevelopment: LevelEdit,
		ToolGrantManagement:      LevelView,
		ToolResourceDirectory:    LevelView,
		ToolReferrals:            LevelEdit,
		ToolSurveys:              LevelEdit,
		ToolForms:                LevelEdit,
		ToolOrgSettings:          LevelAdmin,
	})
	add(OrgTypeCHWAssociation, map[Tool]Level{
		ToolDashboard:            LevelAdmin,
		ToolCHWManagement:        LevelAdmin,
		ToolWorkforceDevelopment: LevelAdmin,
		ToolGrantManagement:      LevelEdit,
		ToolReports:              LevelEdit,
		ToolResourceDirectory:    LevelEdit,
		ToolReferrals:            LevelEdit,
		ToolSurveys:              LevelAdmin,
		ToolForms:                LevelAdmin,
		ToolDatasets:             LevelEdit,
		ToolOrgSettings:          LevelAdmin,
	})
	add(OrgTypeNonprofit, map[Tool]Level{
		ToolDashboard:            LevelAdmin,
		ToolCHWManagement:        LevelEdit,
		ToolWorkforceDevelopment: LevelView,
		ToolGrantManagement:      LevelAdmin,
		ToolReports:              LevelAdmin,
		ToolResourceDirectory:    LevelAdmin,
		ToolReferrals:            LevelAdmin,
		ToolSurveys:              LevelEdit,
		ToolForms:                LevelEdit,
		ToolDatasets:             LevelEdit,
		ToolOrgSettings:          LevelAdmin,
	})
	add(OrgTypeStateAgency, map[Tool]Level{
		ToolDashboard:            LevelAdmin,
		ToolCHWManagement:        LevelView,
		ToolWorkforceDevelopment: LevelView,
		ToolGrantManagement:      LevelAdmin,
		ToolReports:              LevelAdmin,
		ToolResourceDirectory:    LevelView,
		ToolSurveys:              LevelView,
		ToolForms:                LevelView,
		ToolDatasets:             LevelAdmin,
		ToolOrgSettings:          LevelAdmin,
	})

	admin := make(map[Tool]Level, numTools)
	for _, tl := range Tools() {
		admin[tl] = LevelAdmin
	}
	add(OrgTypeAdmin, admin)

	return out
}
