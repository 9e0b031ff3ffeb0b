package main

import (
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/brianstittsr/windsurf-WL4WJ-CHWOne-sub011/internal/access"
)

// ── policy ────────────────────────────────────────────────────────────────────

func policyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Inspect the capability table",
	}
	cmd.AddCommand(policyValidateCmd(), policyShowCmd())
	return cmd
}

func policyValidateCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the capability table against the tool catalog",
		Long: "Builds the access resolver from the built-in table, or from --file, " +
			"and exits non-zero on any configuration error.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resolver, err := buildResolver(file, false, slog.Default())
			if err != nil {
				return err
			}
			granted := 0
			for _, o := range access.OrgTypes() {
				granted += len(resolver.AvailableTools(o))
			}
			source := "built-in"
			if file != "" {
				source = file
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "capability table OK (%s): %d grants across %d org types\n",
				source, granted, len(access.OrgTypes()))
			return err
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML capability table to validate instead of the built-in one")
	return cmd
}

func policyShowCmd() *cobra.Command {
	var file, orgTypeName, format string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the tool/level matrix",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			orgTypes := access.OrgTypes()
			if orgTypeName != "" {
				ot, err := access.ParseOrgType(orgTypeName)
				if err != nil {
					return err
				}
				orgTypes = []access.OrgType{ot}
			}
			resolver, err := buildResolver(file, false, slog.Default())
			if err != nil {
				return err
			}

			switch format {
			case "table":
				return writeMatrix(cmd.OutOrStdout(), resolver, orgTypes)
			case "yaml":
				var entries []access.Entry
				for _, o := range orgTypes {
					for _, tl := range access.Tools() {
						if l := resolver.MaxLevel(o, tl); l > access.LevelNone {
							entries = append(entries, access.Entry{OrgType: o, Tool: tl, Level: l})
						}
					}
				}
				table, err := access.NewTable(entries...)
				if err != nil {
					return err
				}
				return access.WriteTable(cmd.OutOrStdout(), table)
			default:
				return fmt.Errorf("invalid --format %q (allowed: table|yaml)", format)
			}
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML capability table to show instead of the built-in one")
	cmd.Flags().StringVar(&orgTypeName, "org-type", "", "limit output to one org type")
	cmd.Flags().StringVar(&format, "format", "table", "output format: table or yaml")
	return cmd
}

// writeMatrix prints one block per org type listing every tool, its category
// and the level held (none included).
func writeMatrix(w io.Writer, resolver *access.Resolver, orgTypes []access.OrgType) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, o := range orgTypes {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		fmt.Fprintf(tw, "ORG TYPE: %s\n", o)
		fmt.Fprintln(tw, "TOOL\tCATEGORY\tLEVEL")
		for _, tl := range access.Tools() {
			info, _ := resolver.Info(tl)
			fmt.Fprintf(tw, "%s\t%s\t%s\n", tl, info.Category, resolver.MaxLevel(o, tl))
		}
	}
	return tw.Flush()
}
