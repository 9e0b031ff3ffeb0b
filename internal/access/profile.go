package access

import (
	"fmt"

	"github.com/google/uuid"
)

// Profile is the validated identity a request is evaluated under: who the
// user is, which organization they are acting in, and that organization's
// type. Build it once at the session boundary with NewProfile.
type Profile struct {
	UserID  uuid.UUID
	OrgID   uuid.UUID
	OrgType OrgType
}

// NewProfile builds a Profile from stored values. An org type string that is
// not declared is rejected rather than mapped to a default.
func NewProfile(userID, orgID uuid.UUID, orgType string) (Profile, error) {
	if userID == uuid.Nil {
		return Profile{}, fmt.Errorf("new profile: missing user id")
	}
	if orgID == uuid.Nil {
		return Profile{}, fmt.Errorf("new profile: missing org id")
	}
	ot, err := ParseOrgType(orgType)
	if err != nil {
		return Profile{}, fmt.Errorf("new profile: %w", err)
	}
	return Profile{UserID: userID, OrgID: orgID, OrgType: ot}, nil
}
