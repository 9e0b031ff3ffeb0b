// ABOUTME: Loads and writes capability tables as YAML (org_types -> tool -> level).
// ABOUTME: Unknown names and duplicate keys are configuration errors, never defaults.
package access

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// policyFile is the on-disk layout of a capability table override:
//
//	org_types:
//	  chw:
//	    grant_management: view
//	  admin:
//	    grant_management: admin
//
// Org types that are omitted deny every tool.
type policyFile struct {
	OrgTypes map[string]map[string]string `yaml:"org_types"`
}

// LoadTable parses a YAML capability table from r.
func LoadTable(r io.Reader) (*Table, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var pf policyFile
	if err := dec.Decode(&pf); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("load capability table: empty document")
		}
		return nil, fmt.Errorf("load capability table: %w", err)
	}
	var extra yaml.Node
	if err := dec.Decode(&extra); err != io.EOF {
		if err != nil {
			return nil, fmt.Errorf("load capability table: %w", err)
		}
		return nil, fmt.Errorf("load capability table: %w", ErrMultipleDocuments)
	}

	var entries []Entry
	for orgName, tools := range pf.OrgTypes {
		ot, err := ParseOrgType(orgName)
		if err != nil {
			return nil, fmt.Errorf("load capability table: %w", err)
		}
		for toolName, levelName := range tools {
			tl, err := ParseTool(toolName)
			if err != nil {
				return nil, fmt.Errorf("load capability table: org type %s: %w", ot, err)
			}
			l, err := ParseLevel(levelName)
			if err != nil {
				return nil, fmt.Errorf("load capability table: %s/%s: %w", ot, tl, err)
			}
			entries = append(entries, Entry{OrgType: ot, Tool: tl, Level: l})
		}
	}

	t, err := NewTable(entries...)
	if err != nil {
		return nil, fmt.Errorf("load capability table: %w", err)
	}
	return t, nil
}

// LoadTableFile reads a YAML capability table from path.
func LoadTableFile(path string) (*Table, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("open capability table: %w", err)
	}
	defer f.Close() //nolint:errcheck
	return LoadTable(f)
}

// WriteTable encodes t in the LoadTable layout. Absent entries are omitted.
func WriteTable(w io.Writer, t *Table) error {
	pf := policyFile{OrgTypes: make(map[string]map[string]string, numOrgTypes)}
	for _, e := range t.Entries() {
		tools, ok := pf.OrgTypes[e.OrgType.String()]
		if !ok {
			tools = make(map[string]string)
			pf.OrgTypes[e.OrgType.String()] = tools
		}
		tools[e.Tool.String()] = e.Level.String()
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(pf); err != nil {
		return fmt.Errorf("write capability table: %w", err)
	}
	return enc.Close()
}
