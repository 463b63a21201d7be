package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type familyOutput struct {
	Family   string   `json:"family"`
	Patterns []string `json:"patterns"`
}

func patternsCmd(flags *rootFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "List the adversarial pattern families in evaluation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			table, err := cfg.AttackPatterns()
			if err != nil {
				return err
			}

			families := make([]familyOutput, 0, table.Len())
			for pair := table.Oldest(); pair != nil; pair = pair.Next() {
				families = append(families, familyOutput{Family: pair.Key, Patterns: pair.Value})
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), families)
			}
			w := cmd.OutOrStdout()
			for i, f := range families {
				fmt.Fprintf(w, "%d. %s (%d patterns)\n", i+1, f.Family, len(f.Patterns))
				for _, p := range f.Patterns {
					fmt.Fprintf(w, "     %s\n", p)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "output as JSON")

	return cmd
}
