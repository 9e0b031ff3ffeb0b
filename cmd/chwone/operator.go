package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/brianstittsr/windsurf-WL4WJ-CHWOne-sub011/internal/access"
	"github.com/brianstittsr/windsurf-WL4WJ-CHWOne-sub011/internal/auth"
	"github.com/brianstittsr/windsurf-WL4WJ-CHWOne-sub011/internal/config"
	"github.com/brianstittsr/windsurf-WL4WJ-CHWOne-sub011/internal/store"
)

// openStore loads config, installs the logger, and connects to the database.
// The returned close func releases the pool.
func openStore(ctx context.Context) (*store.Store, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	slog.SetDefault(newLogger(cfg))

	db, err := newPool(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database: %w", err)
	}
	return store.New(db), db.Close, nil
}

// ── provision-org ─────────────────────────────────────────────────────────────

func provisionOrgCmd() *cobra.Command {
	var name, orgTypeName, ownerEmail, ownerName string
	cmd := &cobra.Command{
		Use:   "provision-org",
		Short: "Create an organization of any type, optionally with its first member",
		Long: "Operator path for provisioning organizations. Unlike POST /orgs this " +
			"accepts every org type, including admin. Without --owner-email the org " +
			"starts empty; staff it with \"member add\".",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			orgType, err := access.ParseOrgType(orgTypeName)
			if err != nil {
				return err
			}
			name = strings.TrimSpace(name)
			ownerEmail = strings.TrimSpace(ownerEmail)
			if name == "" {
				return fmt.Errorf("--name is required")
			}

			st, closeDB, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			var org *store.Organization
			if ownerEmail == "" {
				if org, err = st.CreateOrg(cmd.Context(), name, orgType.String()); err != nil {
					return err
				}
				slog.Info("organization provisioned", "org_id", org.ID, "org_type", org.OrgType)
			} else {
				if ownerName == "" {
					ownerName = ownerEmail
				}
				owner, err := st.EnsureUser(cmd.Context(), ownerEmail, ownerName)
				if err != nil {
					return err
				}
				if org, err = st.CreateOrgWithMember(cmd.Context(), name, orgType.String(), owner.ID); err != nil {
					return err
				}
				slog.Info("organization provisioned",
					"org_id", org.ID, "org_type", org.OrgType, "owner_id", owner.ID)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), org.ID)
			return err
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "organization name")
	cmd.Flags().StringVar(&orgTypeName, "org-type", "", "organization type (chw, chw_association, nonprofit, state_agency, admin)")
	cmd.Flags().StringVar(&ownerEmail, "owner-email", "", "email of the first member; created if missing")
	cmd.Flags().StringVar(&ownerName, "owner-name", "", "display name for a newly created owner")
	return cmd
}

// ── member ────────────────────────────────────────────────────────────────────

func memberCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "member",
		Short: "Add or remove organization members",
	}
	cmd.AddCommand(memberAddCmd(), memberRemoveCmd())
	return cmd
}

func parseOrgID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("invalid --org-id %q", s)
	}
	return id, nil
}

func memberAddCmd() *cobra.Command {
	var orgIDStr, email, displayName string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a user to an organization, creating the user if needed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			orgID, err := parseOrgID(orgIDStr)
			if err != nil {
				return err
			}
			email = strings.TrimSpace(email)
			if email == "" {
				return fmt.Errorf("--email is required")
			}
			if displayName == "" {
				displayName = email
			}

			st, closeDB, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			org, err := st.GetOrgByID(cmd.Context(), orgID)
			if err != nil {
				return err
			}
			if org == nil {
				return fmt.Errorf("organization %s not found", orgID)
			}
			user, err := st.EnsureUser(cmd.Context(), email, displayName)
			if err != nil {
				return err
			}
			if err := st.AddOrgMember(cmd.Context(), org.ID, user.ID); err != nil {
				return err
			}

			slog.Info("member added", "org_id", org.ID, "user_id", user.ID)
			_, err = fmt.Fprintln(cmd.OutOrStdout(), user.ID)
			return err
		},
	}
	cmd.Flags().StringVar(&orgIDStr, "org-id", "", "organization to add the member to")
	cmd.Flags().StringVar(&email, "email", "", "member email; the user is created if missing")
	cmd.Flags().StringVar(&displayName, "name", "", "display name for a newly created user")
	return cmd
}

func memberRemoveCmd() *cobra.Command {
	var orgIDStr, userIDStr string
	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove a user from an organization",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			orgID, err := parseOrgID(orgIDStr)
			if err != nil {
				return err
			}
			userID, err := uuid.Parse(userIDStr)
			if err != nil || userID == uuid.Nil {
				return fmt.Errorf("invalid --user-id %q", userIDStr)
			}

			st, closeDB, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			user, err := st.GetUserByID(cmd.Context(), userID)
			if err != nil {
				return err
			}
			if user == nil {
				return fmt.Errorf("user %s not found", userID)
			}
			if err := st.RemoveOrgMember(cmd.Context(), orgID, user.ID); err != nil {
				return err
			}
			slog.Info("member removed", "org_id", orgID, "user_id", user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&orgIDStr, "org-id", "", "organization to remove the member from")
	cmd.Flags().StringVar(&userIDStr, "user-id", "", "user to remove")
	return cmd
}

// ── issue-token ───────────────────────────────────────────────────────────────

func issueTokenCmd() *cobra.Command {
	var userIDStr string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "issue-token",
		Short: "Mint a development access token (refused in production)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			if cfg.IsProduction() {
				return fmt.Errorf("issue-token is disabled when APP_ENV=production")
			}
			userID, err := uuid.Parse(userIDStr)
			if err != nil || userID == uuid.Nil {
				return fmt.Errorf("invalid --user-id %q", userIDStr)
			}
			token, err := auth.IssueAccessToken([]byte(cfg.JWTSecret), userID, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&userIDStr, "user-id", "", "user the token is issued for")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}
