package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

var askChunks int

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question grounded in the ingested documents",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.close()

		answerer, err := rt.answerer()
		if err != nil {
			return err
		}

		question := strings.Join(args, " ")
		answer, err := answerer.Ask(cmd.Context(), question, askChunks)
		if err != nil {
			return err
		}

		cmd.Println(answer.Text)
		if len(answer.Sources) > 0 {
			cmd.Println("\nSources:")
			for _, src := range answer.Sources {
				cmd.Printf("  [%d] %s (%s)\n", src.ID+1, src.Source, src.SourceType)
			}
		}
		return nil
	},
}

func init() {
	askCmd.Flags().IntVarP(&askChunks, "chunks", "k", 0, "number of chunks to retrieve (default from config)")
	rootCmd.AddCommand(askCmd)
}
