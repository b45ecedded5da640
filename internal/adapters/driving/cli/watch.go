package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/grounded-labs/grounder/internal/core/domain"
	"github.com/grounded-labs/grounder/internal/logger"
)

// settleDelay lets editors and download managers finish writing before
// a dropped file is picked up.
const settleDelay = 500 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch <directory>",
	Short: "Watch a drop folder and ingest files placed into it",
	Long: `Watch monitors a directory and ingests every file created or moved into
it. Useful as a zero-friction ingestion path: drop a text file into the
folder and it lands in the session's knowledge base.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := args[0]
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("watch %s: not a directory", dir)
		}

		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.close()

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("create watcher: %w", err)
		}
		defer watcher.Close()

		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}

		cmd.Printf("watching %s (session %s); press Ctrl-C to stop\n", dir, rt.store.SessionID())

		for {
			select {
			case <-cmd.Context().Done():
				return nil
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				logger.Warn("watch: %v", err)
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				path := event.Name
				go func() {
					time.Sleep(settleDelay)
					if err := ingestDroppedFile(cmd, rt, path); err != nil {
						logger.Warn("watch: ingest %s: %v", path, err)
					}
				}()
			}
		}
	},
}

// ingestDroppedFile ingests one file that appeared in the watched
// directory. Directories and unreadable entries are skipped.
func ingestDroppedFile(cmd *cobra.Command, rt *runtime, path string) error {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	report, err := rt.ingestor.Ingest(cmd.Context(), domain.IngestRequest{
		Files: []domain.FileUpload{{Name: filepath.Base(path), Content: content}},
	})
	if err != nil {
		return err
	}

	cmd.Printf("%s: %s\n", filepath.Base(path), report.Message)
	return nil
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
