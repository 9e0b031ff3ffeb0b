// ABOUTME: Tool display catalog: label and category per tool, for grouping in the UI.
// ABOUTME: Purely descriptive; the resolver validates coverage at construction.
package access

// Category is a display grouping for tools.
type Category string

// Declared categories, in display order.
const (
	CategoryOverview       Category = "Overview"
	CategoryWorkforce      Category = "Workforce"
	CategoryFunding        Category = "Funding"
	CategoryCommunity      Category = "Community"
	CategoryData           Category = "Data"
	CategoryAdministration Category = "Administration"
)

// Categories returns the declared categories in display order.
func Categories() []Category {
	return []Category{
		CategoryOverview,
		CategoryWorkforce,
		CategoryFunding,
		CategoryCommunity,
		CategoryData,
		CategoryAdministration,
	}
}

// Valid reports whether c is a declared category.
func (c Category) Valid() bool {
	for _, d := range Categories() {
		if c == d {
			return true
		}
	}
	return false
}

// ToolInfo describes how a tool is presented.
type ToolInfo struct {
	Label    string
	Category Category
}

// Catalog maps each tool to its display config.
type Catalog map[Tool]ToolInfo

// DefaultCatalog returns display config for every declared tool.
func DefaultCatalog() Catalog {
	return Catalog{
		ToolDashboard:            {Label: "Dashboard", Category: CategoryOverview},
		ToolCHWManagement:        {Label: "CHW Management", Category: CategoryWorkforce},
		ToolWorkforceDevelopment: {Label: "Workforce Development", Category: CategoryWorkforce},
		ToolGrantManagement:      {Label: "Grant Management", Category: CategoryFunding},
		ToolReports:              {Label: "Reports", Category: CategoryFunding},
		ToolResourceDirectory:    {Label: "Resource Directory", Category: CategoryCommunity},
		ToolReferrals:            {Label: "Referrals", Category: CategoryCommunity},
		ToolSurveys:              {Label: "Surveys", Category: CategoryData},
		ToolForms:                {Label: "Forms", Category: CategoryData},
		ToolDatasets:             {Label: "Datasets", Category: CategoryData},
		ToolOrgSettings:          {Label: "Organization Settings", Category: CategoryAdministration},
		ToolPlatformAdmin:        {Label: "Platform Administration", Category: CategoryAdministration},
	}
}
