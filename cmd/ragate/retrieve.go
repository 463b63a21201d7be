package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/calque-ai/ragate/pkg/gate"
	"github.com/calque-ai/ragate/pkg/pipeline"
	"github.com/calque-ai/ragate/pkg/server"
)

func retrieveCmd(flags *rootFlags) *cobra.Command {
	var (
		identity string
		k        int
		timeout  time.Duration
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "retrieve [query]",
		Short: "Gate a query and print the ranked passages",
		Long: `Run a query through the request gate and, when admitted, the retrieval
engine: over-fetch 2k candidates, drop those below the similarity threshold,
drop near-duplicates, and rank the rest by content quality.

Examples:
  ragate retrieve "how does the rate limiter work"
  ragate retrieve --k 3 --timeout 2s --json "rotate signing keys"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, flags, appOptions{search: true})
			if err != nil {
				return err
			}
			defer a.close()

			ctx := a.ctx
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			req := pipeline.Request{Identity: gate.Identity(identity), Query: args[0], K: k}
			out, err := a.pipeline.Handle(ctx, req)
			if err != nil {
				return err
			}

			result := server.NewQueryResponse(req, out)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			printRetrieve(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&identity, "identity", "i", "cli", "requester identity used for rate limiting")
	cmd.Flags().IntVar(&k, "k", 0, "number of passages (default from config)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "search deadline; expiry yields an empty result")
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "output as JSON")

	return cmd
}

func printRetrieve(w io.Writer, r server.QueryResponse) {
	if !r.Verdict.Admitted {
		printVerdict(w, r.Verdict)
		return
	}
	if r.TimedOut {
		fmt.Fprintf(w, "Search timed out after %.1fms\n", r.ElapsedMS)
		return
	}
	if len(r.Passages) == 0 {
		fmt.Fprintf(w, "No passages for %q (fetched %d, relevant %d)\n", r.Verdict.Query, r.Fetched, r.Relevant)
		return
	}

	fmt.Fprintf(w, "Passages for %q (%d of %d fetched, %.1fms)\n\n", r.Verdict.Query, len(r.Passages), r.Fetched, r.ElapsedMS)
	for _, p := range r.Passages {
		fmt.Fprintf(w, "%d. %s  (similarity %.2f, quality %.2f)\n", p.Rank, p.SourceID, p.Similarity, p.Quality)
		fmt.Fprintf(w, "   %s\n\n", preview(p.Content, 200))
	}
}
