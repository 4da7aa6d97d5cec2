package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"interview_protocol/generator"
	"interview_protocol/server"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web interface",
	Long: `Serve starts the HTTP server: the single-page interface, its JSON API, the
server-sent event stream and /metrics.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadRuntime(cmd)
		if err != nil {
			return err
		}
		producer, err := buildProducer(cfg.LLM)
		if err != nil {
			return err
		}
		agent, err := generator.NewAgent(producer)
		if err != nil {
			return err
		}
		app, err := server.New(agent,
			server.WithLogger(logger),
			server.WithCapture(buildCapture(cfg.Export)),
			server.WithExportDir(cfg.Export.Dir),
			server.WithSettle(cfg.Export.Settle),
		)
		if err != nil {
			return err
		}

		listen := cfg.ServerAddr
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			listen = addr
		}
		srv := &http.Server{
			Addr:              listen,
			Handler:           app.Routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("starting web server", "addr", listen, "provider", cfg.LLM.Provider)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(shutdown)

		select {
		case err := <-serverErrors:
			app.Close()
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err

		case sig := <-shutdown:
			logger.Info("shutting down", "signal", sig.String())
			// Event streams never finish on their own.
			app.Close()

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				logger.Warn("graceful shutdown did not complete", "timeout", shutdownTimeout, "error", err)
				if err := srv.Close(); err != nil {
					logger.Error("closing server", "error", err)
				}
			}
			logger.Info("server stopped")
			return nil
		}
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides server_addr)")
	rootCmd.AddCommand(serveCmd)
}
