package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newVersionsCmd() *cobra.Command {
	versionsCmd := &cobra.Command{
		Use:   "versions",
		Short: "List the PI versions of a project that have goals",
		RunE: func(cmd *cobra.Command, args []string) error {
			project, err := cmd.Flags().GetString("project")
			if err != nil {
				return err
			}
			asJSON, err := cmd.Flags().GetBool("json")
			if err != nil {
				return err
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if project == "" {
				project = a.cfg.Traversal.GoalProject
			}

			listing, err := a.versions.List(cmd.Context(), project)
			if err != nil {
				return fmt.Errorf("failed to list versions of %s: %w", project, err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, listing)
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tRELEASED\tDEFAULT")
			for _, v := range listing.Versions {
				isDefault := ""
				if listing.DefaultPI != nil && *listing.DefaultPI == v.Name {
					isDefault = "*"
				}
				fmt.Fprintf(tw, "%s\t%t\t%s\n", v.Name, v.Released, isDefault)
			}
			return tw.Flush()
		},
	}

	versionsCmd.Flags().String("project", "", "project key (defaults to GOAL_PROJECT)")
	versionsCmd.Flags().Bool("json", false, "print JSON instead of a table")
	return versionsCmd
}
