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

	"github.com/go-petr/ledger/cmd/httpserver"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup()
		if err != nil {
			return err
		}

		server, err := httpserver.New(a.repo, a.logger, a.config)
		if err != nil {
			a.logger.Error().Err(err).Msg("cannot create server")
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := &http.Server{
			Addr:              a.config.ServerAddress,
			Handler:           server,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)

		go func() {
			a.logger.Info().Str("address", srv.Addr).Msg("LEDGER API SERVER HAS STARTED")
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error().Err(err).Msg("cannot start server")
				return err
			}

			return nil
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error().Err(err).Msg("cannot shutdown server")
			return err
		}

		a.logger.Info().Msg("server stopped")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
