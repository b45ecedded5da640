package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/grounded-labs/grounder/internal/core/domain"
)

var ingestNewSession bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [urls or files...]",
	Short: "Ingest documents into the current session",
	Long: `Ingest adds sources to the session's knowledge base. Arguments may be
URLs (web pages, YouTube videos) or local file paths; both kinds can be
mixed in one call.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.close()

		req := domain.IngestRequest{NewSession: ingestNewSession}
		for _, arg := range args {
			if strings.Contains(arg, "://") {
				req.URLs = append(req.URLs, arg)
				continue
			}
			content, err := os.ReadFile(arg)
			if err != nil {
				return fmt.Errorf("read %s: %w", arg, err)
			}
			req.Files = append(req.Files, domain.FileUpload{
				Name:    filepath.Base(arg),
				Content: content,
			})
		}

		report, err := rt.ingestor.Ingest(cmd.Context(), req)
		if err != nil {
			return err
		}

		cmd.Println(report.Message)
		for _, e := range report.Errors {
			cmd.Printf("  error: %s\n", e)
		}
		cmd.Printf("session %s now holds %d chunks\n", report.SessionID, report.DocumentCount)
		if !report.Success {
			return fmt.Errorf("ingestion failed")
		}
		return nil
	},
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestNewSession, "new-session", false, "start a fresh session before ingesting")
	rootCmd.AddCommand(ingestCmd)
}
