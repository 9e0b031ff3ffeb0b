// ABOUTME: OrgType enumerates the tenant organization categories that scope tool access.
// ABOUTME: ParseOrgType rejects unrecognized names instead of defaulting.
package access

import (
	"fmt"
	"strings"
)

// OrgType is the category of a tenant organization. It determines the
// baseline set of tools the organization's members can use.
type OrgType int

// Declared org types. The zero value is not a valid org type so that an
// uninitialized profile never resolves to a real policy row.
const (
	OrgTypeCHW            OrgType = iota + 1 // individual community health worker
	OrgTypeCHWAssociation                    // CHW association or network
	OrgTypeNonprofit                         // community-based nonprofit
	OrgTypeStateAgency                       // state or county health agency
	OrgTypeAdmin                             // platform operator (admin tier)

	orgTypeEnd
)

const numOrgTypes = int(orgTypeEnd) - 1

var orgTypeNames = [...]string{
	OrgTypeCHW:            "chw",
	OrgTypeCHWAssociation: "chw_association",
	OrgTypeNonprofit:      "nonprofit",
	OrgTypeStateAgency:    "state_agency",
	OrgTypeAdmin:          "admin",
}

// OrgTypes returns every declared org type in declaration order.
func OrgTypes() []OrgType {
	out := make([]OrgType, 0, numOrgTypes)
	for o := OrgTypeCHW; o < orgTypeEnd; o++ {
		out = append(out, o)
	}
	return out
}

// Valid reports whether o is a declared org type.
func (o OrgType) Valid() bool {
	return o >= OrgTypeCHW && o < orgTypeEnd
}

// SelfService reports whether members may create organizations of this type
// through the API. Admin-tier orgs are provisioned by operators only.
func (o OrgType) SelfService() bool {
	return o.Valid() && o != OrgTypeAdmin
}

func (o OrgType) String() string {
	if !o.Valid() {
		return fmt.Sprintf("OrgType(%d)", int(o))
	}
	return orgTypeNames[o]
}

// ParseOrgType converts a stored or requested org type name to an OrgType.
func ParseOrgType(s string) (OrgType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for o := OrgTypeCHW; o < orgTypeEnd; o++ {
		if orgTypeNames[o] == name {
			return o, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOrgType, s)
}

// MarshalText implements encoding.TextMarshaler.
func (o OrgType) MarshalText() ([]byte, error) {
	if !o.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownOrgType, int(o))
	}
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *OrgType) UnmarshalText(b []byte) error {
	parsed, err := ParseOrgType(string(b))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}
