package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/calque-ai/ragate/pkg/config"
	"github.com/calque-ai/ragate/pkg/helpers"
	"github.com/calque-ai/ragate/pkg/ragate"
)

func indexCmd(flags *rootFlags) *cobra.Command {
	var batchSize int

	cmd := &cobra.Command{
		Use:   "index [corpus.yaml]",
		Short: "Seed the configured vector backend with a document list",
		Long: `Read a YAML or JSON list of {id, content, metadata} documents and store
them in the configured backend. The mock backend loads its corpus from
search.mock.corpus_path instead and cannot be indexed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, flags, appOptions{search: true})
			if err != nil {
				return err
			}
			defer a.close()

			store, ok := a.backend.Storer()
			if !ok {
				return helpers.NewError("backend %q does not support indexing", a.backend.Name)
			}

			if batchSize <= 0 {
				return helpers.NewError("batch size must be positive, got %d", batchSize)
			}
			docs, err := config.LoadCorpus(args[0])
			if err != nil {
				return err
			}

			for start := 0; start < len(docs); start += batchSize {
				batch := docs[start:min(start+batchSize, len(docs))]
				if err := store.Store(a.ctx, batch); err != nil {
					return helpers.WrapErrorf(err, "store documents %d-%d", start, start+len(batch)-1)
				}
				ragate.LogDebug(a.ctx, "stored batch", "backend", a.backend.Name, "from", start, "count", len(batch))
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d documents into %s\n", len(docs), a.backend.Name)
			return nil
		},
	}

	cmd.Flags().IntVar(&batchSize, "batch-size", 64, "documents per store call")

	return cmd
}
