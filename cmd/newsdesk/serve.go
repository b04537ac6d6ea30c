package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pevans/newsdesk/api"
)

func newServeCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the editor API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := setup(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			uploader, uploadsDir, err := newUploader(a.cfg)
			if err != nil {
				return err
			}

			server := api.NewServer(a.store, a.gateway, uploader, a.logger)
			server.UploadsDir = uploadsDir

			if listen == "" {
				listen = a.cfg.Listen
			}
			httpServer := &http.Server{
				Addr:              listen,
				Handler:           server.SetupRouter(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("starting editor API server", "addr", listen, "remote", a.cfg.Remote.Type, "articles", a.store.Len())
				errCh <- httpServer.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			a.logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "address to listen on (overrides the config file)")
	return cmd
}
