package main

import (
	"github.com/spf13/cobra"
)

type rootFlags struct {
	configPath string
	envFile    string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "ragate",
		Short: "ragate - request gate and retrieval ranking for RAG queries",
		Long: `ragate decides whether a query may reach the retrieval index (rate limit,
structural validation, adversarial detection) and ranks the passages it returns
(over-fetch, similarity threshold, diversity filter, quality ranking).`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "path to ragate.yaml")
	rootCmd.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env", "dotenv file loaded before RAGATE_* overrides")

	rootCmd.AddCommand(checkCmd(flags))
	rootCmd.AddCommand(retrieveCmd(flags))
	rootCmd.AddCommand(patternsCmd(flags))
	rootCmd.AddCommand(healthCmd(flags))
	rootCmd.AddCommand(indexCmd(flags))
	rootCmd.AddCommand(auditCmd(flags))
	rootCmd.AddCommand(serveCmd(flags))
	rootCmd.AddCommand(configCmd(flags))

	return rootCmd
}
