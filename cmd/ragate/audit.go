package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/calque-ai/ragate/pkg/audit"
	"github.com/calque-ai/ragate/pkg/audit/badger"
	"github.com/calque-ai/ragate/pkg/config"
	"github.com/calque-ai/ragate/pkg/helpers"
)

func auditCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the persistent audit store",
	}

	cmd.AddCommand(auditTailCmd(flags))
	cmd.AddCommand(auditCountCmd(flags))

	return cmd
}

// openConfiguredStore opens the badger store named by audit.path.
func openConfiguredStore(flags *rootFlags) (*badger.Store, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	if cfg.Audit.Path == "" {
		return nil, helpers.NewError("audit.path is not configured (set it or %s)", config.EnvAuditPath)
	}
	return openAuditStore(cfg)
}

func auditTailCmd(flags *rootFlags) *cobra.Command {
	var (
		since  time.Duration
		limit  int
		denied bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Print recent audit events, oldest first",
		Long: `Print audit events recorded within --since, oldest first.

Examples:
  ragate audit tail --since 1h
  ragate audit tail --denied --limit 20 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openConfiguredStore(flags)
			if err != nil {
				return err
			}
			defer store.Close()

			events, err := store.List(cmd.Context(), time.Now().Add(-since), 0)
			if err != nil {
				return err
			}
			if denied {
				kept := events[:0]
				for _, e := range events {
					if e.Denied() {
						kept = append(kept, e)
					}
				}
				events = kept
			}
			if limit > 0 && len(events) > limit {
				events = events[len(events)-limit:]
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), events)
			}
			printEvents(cmd.OutOrStdout(), events)
			return nil
		},
	}

	cmd.Flags().DurationVar(&since, "since", 24*time.Hour, "how far back to read")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "maximum events (0 for all)")
	cmd.Flags().BoolVar(&denied, "denied", false, "only denials")
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "output as JSON")

	return cmd
}

func auditCountCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of stored audit events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openConfiguredStore(flags)
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := store.Count()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
}

func printEvents(w io.Writer, events []audit.Event) {
	if len(events) == 0 {
		fmt.Fprintln(w, "No audit events")
		return
	}
	for _, e := range events {
		fmt.Fprintf(w, "%s  %-21s %-6s %-12s %s\n",
			e.Timestamp.Format(time.RFC3339), e.Type, e.Severity, e.Identity, preview(e.Detail, 80))
	}
}
