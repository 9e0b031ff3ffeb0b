package access

import "errors"

var (
	// ErrUnknownOrgType is returned when an org type name is not declared.
	ErrUnknownOrgType = errors.New("unknown org type")
	// ErrUnknownTool is returned when a tool name is not declared.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrUnknownLevel is returned when a level name is not declared.
	ErrUnknownLevel = errors.New("unknown access level")
	// ErrDuplicateEntry is returned when a capability table lists the same
	// (org type, tool) pair twice.
	ErrDuplicateEntry = errors.New("duplicate capability entry")
	// ErrMultipleDocuments is returned when a capability table file holds
	// more than one YAML document.
	ErrMultipleDocuments = errors.New("capability table must be a single YAML document")
	// ErrMissingDisplayConfig is returned at resolver construction when a
	// granted tool has no catalog entry. The process must not serve with it.
	ErrMissingDisplayConfig = errors.New("missing tool display config")
)
