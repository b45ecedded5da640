package cli

import (
	"sort"
	"time"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the sources ingested into the current session",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.close()

		sources, err := rt.store.Sources(cmd.Context())
		if err != nil {
			return err
		}
		if len(sources) == 0 {
			cmd.Println("no sources in the current session")
			return nil
		}

		keys := make([]string, 0, len(sources))
		for k := range sources {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			rec := sources[k]
			cmd.Printf("%s\n  title: %s  type: %s  chunks: %d  added: %s\n",
				k, rec.Title, rec.SourceType, rec.ChunkCount,
				time.Unix(rec.FirstAdded, 0).Format(time.RFC3339))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}
