// ABOUTME: Integration tests for store/org.go and store/user.go.
// ABOUTME: Uses testutil.NewTestDB; each test runs in its own container (t.Parallel).
package store_test

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/brianstittsr/windsurf-WL4WJ-CHWOne-sub011/internal/store"
	"github.com/brianstittsr/windsurf-WL4WJ-CHWOne-sub011/internal/testutil"
)

func TestCreateAndGetOrg(t *testing.T) {
	t.Parallel()
	s := testutil.NewTestDB(t)
	ctx := context.Background()

	org, err := s.CreateOrg(ctx, "Durham CHW Network", "chw_association")
	if err != nil {
		t.Fatalf("CreateOrg: %v", err)
	}
	if org.Name != "Durham CHW Network" || org.OrgType != "chw_association" {
		t.Errorf("org = %+v", org)
	}

	got, err := s.GetOrgByID(ctx, org.ID)
	if err != nil {
		t.Fatalf("GetOrgByID: %v", err)
	}
	if got == nil || got.ID != org.ID {
		t.Fatalf("GetOrgByID = %+v, want %v", got, org.ID)
	}

	missing, err := s.GetOrgByID(ctx, uuid.New())
	if err != nil {
		t.Fatalf("GetOrgByID(missing): %v", err)
	}
	if missing != nil {
		t.Error("GetOrgByID(missing) should return nil")
	}
}

func TestCreateOrg_RejectsUnknownOrgType(t *testing.T) {
	t.Parallel()
	s := testutil.NewTestDB(t)

	if _, err := s.CreateOrg(context.Background(), "Clinic", "hospital"); err == nil {
		t.Error("expected check constraint violation for unknown org type")
	}
}

func TestGetMemberOrgType(t *testing.T) {
	t.Parallel()
	s := testutil.NewTestDB(t)
	ctx := context.Background()

	user, err := s.EnsureUser(ctx, "ana@example.org", "Ana")
	if err != nil {
		t.Fatalf("EnsureUser: %v", err)
	}
	org, err := s.CreateOrgWithMember(ctx, "Triangle Nonprofit", "nonprofit", user.ID)
	if err != nil {
		t.Fatalf("CreateOrgWithMember: %v", err)
	}

	ot, err := s.GetMemberOrgType(ctx, org.ID, user.ID)
	if err != nil {
		t.Fatalf("GetMemberOrgType: %v", err)
	}
	if ot == nil || *ot != "nonprofit" {
		t.Errorf("GetMemberOrgType = %v, want nonprofit", ot)
	}

	stranger, _ := s.EnsureUser(ctx, "stranger@example.org", "Stranger")
	ot, err = s.GetMemberOrgType(ctx, org.ID, stranger.ID)
	if err != nil {
		t.Fatalf("GetMemberOrgType(stranger): %v", err)
	}
	if ot != nil {
		t.Errorf("expected nil for non-member, got %q", *ot)
	}

	if err := s.RemoveOrgMember(ctx, org.ID, user.ID); err != nil {
		t.Fatalf("RemoveOrgMember: %v", err)
	}
	ot, _ = s.GetMemberOrgType(ctx, org.ID, user.ID)
	if ot != nil {
		t.Error("removed member still resolves an org type")
	}
}

func TestAddOrgMember_Idempotent(t *testing.T) {
	t.Parallel()
	s := testutil.NewTestDB(t)
	ctx := context.Background()

	user, _ := s.EnsureUser(ctx, "bo@example.org", "Bo")
	org, _ := s.CreateOrg(ctx, "State DHHS", "state_agency")
	if err := s.AddOrgMember(ctx, org.ID, user.ID); err != nil {
		t.Fatalf("AddOrgMember: %v", err)
	}
	if err := s.AddOrgMember(ctx, org.ID, user.ID); err != nil {
		t.Fatalf("AddOrgMember (again): %v", err)
	}

	orgs, err := s.ListUserOrgs(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListUserOrgs: %v", err)
	}
	if len(orgs) != 1 || orgs[0].ID != org.ID {
		t.Errorf("ListUserOrgs = %+v, want one org %v", orgs, org.ID)
	}
}

func TestListOrgs_FilterAndPaginate(t *testing.T) {
	t.Parallel()
	s := testutil.NewTestDB(t)
	ctx := context.Background()

	for _, name := range []string{"A", "B", "C"} {
		if _, err := s.CreateOrg(ctx, "CHW "+name, "chw"); err != nil {
			t.Fatalf("CreateOrg: %v", err)
		}
	}
	if _, err := s.CreateOrg(ctx, "Agency", "state_agency"); err != nil {
		t.Fatalf("CreateOrg: %v", err)
	}

	chw := "chw"
	page1, err := s.ListOrgs(ctx, store.ListOrgsParams{OrgType: &chw, Limit: 2})
	if err != nil {
		t.Fatalf("ListOrgs page 1: %v", err)
	}
	if len(page1) != 2 {
		t.Fatalf("page 1 len = %d, want 2", len(page1))
	}
	last := page1[len(page1)-1].ID
	page2, err := s.ListOrgs(ctx, store.ListOrgsParams{OrgType: &chw, AfterID: &last, Limit: 2})
	if err != nil {
		t.Fatalf("ListOrgs page 2: %v", err)
	}
	if len(page2) != 1 {
		t.Fatalf("page 2 len = %d, want 1", len(page2))
	}
	for _, o := range append(page1, page2...) {
		if o.OrgType != "chw" {
			t.Errorf("filter leaked org type %q", o.OrgType)
		}
	}

	all, err := s.ListOrgs(ctx, store.ListOrgsParams{Limit: 10})
	if err != nil {
		t.Fatalf("ListOrgs all: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("unfiltered len = %d, want 4", len(all))
	}
}

func TestEnsureUser(t *testing.T) {
	t.Parallel()
	s := testutil.NewTestDB(t)
	ctx := context.Background()

	first, err := s.EnsureUser(ctx, "ops@example.org", "Ops")
	if err != nil {
		t.Fatalf("EnsureUser: %v", err)
	}
	second, err := s.EnsureUser(ctx, "ops@example.org", "Ignored")
	if err != nil {
		t.Fatalf("EnsureUser (again): %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("EnsureUser created a second user: %v != %v", first.ID, second.ID)
	}
	if second.DisplayName != "Ops" {
		t.Errorf("DisplayName = %q, want existing %q", second.DisplayName, "Ops")
	}

	got, err := s.GetUserByID(ctx, first.ID)
	if err != nil || got == nil {
		t.Fatalf("GetUserByID = %v, %v", got, err)
	}
	if missing, _ := s.GetUserByID(ctx, uuid.New()); missing != nil {
		t.Error("GetUserByID(missing) should return nil")
	}
}
