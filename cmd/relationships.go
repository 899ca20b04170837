package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielolaszy/starburst/internal/hierarchy"
)

func newRelationshipsCmd() *cobra.Command {
	relationshipsCmd := &cobra.Command{
		Use:   "relationships",
		Short: "Show the direct parents and children of an issue within a PI",
		RunE: func(cmd *cobra.Command, args []string) error {
			pi, err := cmd.Flags().GetString("pi")
			if err != nil {
				return err
			}
			key, err := cmd.Flags().GetString("key")
			if err != nil {
				return err
			}

			if pi == "" {
				return fmt.Errorf("pi flag is required")
			}
			if key == "" {
				return fmt.Errorf("key flag is required")
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.engine.Build(cmd.Context(), pi)
			if err != nil {
				return fmt.Errorf("failed to traverse %s: %w", pi, err)
			}

			return writeJSON(cmd.OutOrStdout(), hierarchy.ExtractRelationships(result, key))
		},
	}

	relationshipsCmd.Flags().String("pi", "", "program increment (fix version), e.g. PI30")
	relationshipsCmd.Flags().String("key", "", "issue key, e.g. TPO-1042")
	return relationshipsCmd
}
