package cli

import (
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage the knowledge base session",
}

var sessionNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Start a fresh session (prior sessions stay on disk)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.close()

		id, err := rt.store.StartNewSession(cmd.Context())
		if err != nil {
			return err
		}
		if err := writeSessionID(rt.cfg.Storage.DataDir, id); err != nil {
			return err
		}
		cmd.Printf("started session %s\n", id)
		return nil
	},
}

var sessionClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all documents from the current session",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.close()

		if err := rt.store.Clear(cmd.Context()); err != nil {
			return err
		}
		cmd.Printf("cleared session %s\n", rt.store.SessionID())
		return nil
	},
}

var sessionShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current session id and document count",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.close()

		cmd.Printf("session %s: %d chunks\n", rt.store.SessionID(), rt.store.Count())
		return nil
	},
}

func init() {
	sessionCmd.AddCommand(sessionNewCmd, sessionClearCmd, sessionShowCmd)
	rootCmd.AddCommand(sessionCmd)
}
