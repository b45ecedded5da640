// Package cli implements the grounder command line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/grounded-labs/grounder/internal/logger"
)

// Set via ldflags at build time.
var version = "dev"

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "grounder",
	Short: "Session-scoped document ingestion and grounded question answering",
	Long: `Grounder ingests documents (web pages, transcripts, text files) into a
session-scoped vector index and answers questions grounded in the
ingested content, citing its sources.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (TOML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}
