package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/danielolaszy/starburst/internal/hierarchy"
	"github.com/danielolaszy/starburst/internal/logging"
	"github.com/danielolaszy/starburst/internal/render"
)

func newTraverseCmd() *cobra.Command {
	traverseCmd := &cobra.Command{
		Use:   "traverse",
		Short: "Traverse a program increment and print the result",
		Long: `Traverse the JIRA link graph of a program increment.

Formats:
  json       flat path list with issue metadata (default)
  yaml       the same, as YAML
  hierarchy  weighted tree as JSON, as served by /api/hierarchy
  tree       indented tree for the terminal

Example:
  starburst traverse --pi PI30 --format tree`,
		RunE: func(cmd *cobra.Command, args []string) error {
			pi, err := cmd.Flags().GetString("pi")
			if err != nil {
				return err
			}
			format, err := cmd.Flags().GetString("format")
			if err != nil {
				return err
			}
			maxDepth, err := cmd.Flags().GetInt("max-depth")
			if err != nil {
				return err
			}

			if pi == "" {
				return fmt.Errorf("pi flag is required")
			}
			switch format {
			case "json", "yaml", "hierarchy", "tree":
			default:
				return fmt.Errorf("unknown format %q: use json, yaml, hierarchy or tree", format)
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
			for _, warning := range result.Warnings {
				logging.Warn(warning, "pi", pi)
			}

			out := cmd.OutOrStdout()
			switch format {
			case "yaml":
				return writeYAML(out, result)
			case "hierarchy":
				root, err := hierarchy.Build(result)
				if err != nil {
					return err
				}
				return writeJSON(out, root)
			case "tree":
				root, err := hierarchy.Build(result)
				if err != nil {
					return err
				}
				opts := render.Options{Color: render.ColorEnabled(out), MaxDepth: maxDepth}
				if err := render.Tree(out, root, opts); err != nil {
					return err
				}
				return render.Summary(out, result, opts)
			default:
				return writeJSON(out, result)
			}
		},
	}

	traverseCmd.Flags().String("pi", "", "program increment (fix version), e.g. PI30")
	traverseCmd.Flags().StringP("format", "f", "json", "output format: json, yaml, hierarchy or tree")
	traverseCmd.Flags().Int("max-depth", 0, "deepest ring shown by the tree format (0 shows all)")
	return traverseCmd
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
