package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/brianstittsr/windsurf-WL4WJ-CHWOne-sub011/internal/access"
	"github.com/brianstittsr/windsurf-WL4WJ-CHWOne-sub011/internal/auth"
	"github.com/brianstittsr/windsurf-WL4WJ-CHWOne-sub011/internal/testutil"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writePolicy(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	return path
}

func TestPolicyValidate_BuiltIn(t *testing.T) {
	out, err := execute(t, "policy", "validate")
	require.NoError(t, err)
	require.Contains(t, out, "capability table OK (built-in)")
}

func TestPolicyValidate_FileErrors(t *testing.T) {
	path := writePolicy(t, "org_types:\n  chw:\n    billing: view\n")
	_, err := execute(t, "policy", "validate", "--file", path)
	require.ErrorIs(t, err, access.ErrUnknownTool)

	_, err = execute(t, "policy", "validate", "--file", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestPolicyShow_Table(t *testing.T) {
	out, err := execute(t, "policy", "show", "--org-type", "chw")
	require.NoError(t, err)
	require.Contains(t, out, "ORG TYPE: chw")
	require.NotContains(t, out, "ORG TYPE: admin")

	var grantLine string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "grant_management") {
			grantLine = line
		}
	}
	require.Equal(t, []string{"grant_management", "Funding", "view"}, strings.Fields(grantLine))

	_, err = execute(t, "policy", "show", "--org-type", "hospital")
	require.ErrorIs(t, err, access.ErrUnknownOrgType)
}

func TestPolicyShow_YAMLLoadsBack(t *testing.T) {
	out, err := execute(t, "policy", "show", "--format", "yaml")
	require.NoError(t, err)

	table, err := access.LoadTable(strings.NewReader(out))
	require.NoError(t, err)
	require.Equal(t, *access.DefaultTable(), *table)

	_, err = execute(t, "policy", "show", "--format", "csv")
	require.Error(t, err)
}

func TestIssueToken(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://chwone:pw@localhost:5432/chwone")
	t.Setenv("JWT_SECRET", "cli-test-secret-at-least-32-bytes!!")
	t.Setenv("ACCESS_POLICY_MODE", "enforce")
	userID := uuid.New()

	t.Setenv("APP_ENV", "development")
	out, err := execute(t, "issue-token", "--user-id", userID.String())
	require.NoError(t, err)
	claims, err := auth.ParseAccessToken(strings.TrimSpace(out), []byte("cli-test-secret-at-least-32-bytes!!"))
	require.NoError(t, err)
	require.Equal(t, userID, claims.UserID)

	_, err = execute(t, "issue-token", "--user-id", "nope")
	require.Error(t, err)

	t.Setenv("APP_ENV", "production")
	_, err = execute(t, "issue-token", "--user-id", userID.String())
	require.Error(t, err)
	require.Contains(t, err.Error(), "APP_ENV=production")
}

func TestMemberCommands(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	t.Setenv("DATABASE_URL", db.ConnString)
	t.Setenv("JWT_SECRET", "cli-test-secret-at-least-32-bytes!!")
	t.Setenv("APP_ENV", "test")
	t.Setenv("ACCESS_POLICY_MODE", "enforce")
	t.Setenv("LOG_LEVEL", "error")

	out, err := execute(t, "provision-org", "--name", "Platform Ops", "--org-type", "admin")
	require.NoError(t, err)
	orgID, err := uuid.Parse(lastLine(out))
	require.NoError(t, err)

	org, err := db.GetOrgByID(ctx, orgID)
	require.NoError(t, err)
	require.NotNil(t, org)
	require.Equal(t, "admin", org.OrgType)

	out, err = execute(t, "member", "add", "--org-id", orgID.String(), "--email", "ops@example.org")
	require.NoError(t, err)
	userID, err := uuid.Parse(lastLine(out))
	require.NoError(t, err)

	orgType, err := db.GetMemberOrgType(ctx, orgID, userID)
	require.NoError(t, err)
	require.NotNil(t, orgType)
	require.Equal(t, "admin", *orgType)

	_, err = execute(t, "member", "remove", "--org-id", orgID.String(), "--user-id", userID.String())
	require.NoError(t, err)
	orgType, err = db.GetMemberOrgType(ctx, orgID, userID)
	require.NoError(t, err)
	require.Nil(t, orgType)

	_, err = execute(t, "member", "add", "--org-id", uuid.New().String(), "--email", "x@example.org")
	require.ErrorContains(t, err, "not found")
	_, err = execute(t, "member", "remove", "--org-id", orgID.String(), "--user-id", uuid.New().String())
	require.ErrorContains(t, err, "not found")
	_, err = execute(t, "member", "add", "--org-id", "nope", "--email", "x@example.org")
	require.ErrorContains(t, err, "invalid --org-id")
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
