// cmd/guard/rules.go
package main

import (
	"github.com/spf13/cobra"

	"github.com/Corphon/ContinuityGuard/internal/heuristic"
)

func rulesCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Print the active engine tables as YAML",
		Long: `Print the keyword lists, tier bounds, reason pools and compliance rules the
heuristic engine uses. The output is a valid --rules / HEURISTICS_FILE override.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rules := heuristic.DefaultRules()
			if file != "" {
				loaded, err := heuristic.LoadRules(file)
				if err != nil {
					return err
				}
				rules = loaded
			}

			data, err := rules.Dump()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML override to merge onto the defaults")
	return cmd
}
