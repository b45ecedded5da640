package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/grounded-labs/grounder/internal/adapters/driving/httpapi"
	"github.com/grounded-labs/grounder/internal/logger"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.close()

		answerer, err := rt.answerer()
		if err != nil {
			return err
		}

		addr := rt.cfg.Server.Addr
		if serveAddr != "" {
			addr = serveAddr
		}

		server := httpapi.NewServer(httpapi.Config{
			Addr:   addr,
			APIKey: rt.cfg.Server.APIKey,
		}, rt.ingestor, answerer, rt.store)

		// Graceful shutdown on SIGINT/SIGTERM.
		done := make(chan os.Signal, 1)
		signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-done
			logger.Info("shutting down")
			if err := server.Shutdown(); err != nil {
				logger.Warn("shutdown: %v", err)
			}
		}()

		return server.Listen()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
