package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/calque-ai/ragate/pkg/helpers"
	"github.com/calque-ai/ragate/pkg/observability"
)

func healthCmd(flags *rootFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check the search backend and audit store",
		Long: `Run every registered health check and print the report. Exits non-zero
when any check fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, flags, appOptions{search: true})
			if err != nil {
				return err
			}
			defer a.close()

			report := a.health.RunAll(a.ctx)
			if asJSON {
				if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
					return err
				}
			} else {
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "Status: %s\n", report.Status)
				names := make([]string, 0, len(report.Checks))
				for name := range report.Checks {
					names = append(names, name)
				}
				slices.Sort(names)
				for _, name := range names {
					c := report.Checks[name]
					fmt.Fprintf(w, "  %-20s %-6s %s", name, c.Status, c.Latency)
					if c.Error != "" {
						fmt.Fprintf(w, "  %s", c.Error)
					}
					fmt.Fprintln(w)
				}
			}

			if report.Status != observability.HealthStatusHealthy {
				return helpers.NewError("health check failed: %s", report.Status)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "output as JSON")

	return cmd
}
