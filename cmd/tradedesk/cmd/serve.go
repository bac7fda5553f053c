package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/betbot/tradedesk/pkg/logger"
	"github.com/betbot/tradedesk/pkg/shutdown"
)

const gracefulShutdownPeriod = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		sm := shutdown.NewManager()
		defer func() {
			sctx, scancel := context.WithTimeout(context.Background(), gracefulShutdownPeriod)
			defer scancel()
			sm.Shutdown(sctx)
		}()

		a, err := newApp(ctx, cfg, sm)
		if err != nil {
			return err
		}

		if cfg.Bots.SeedOnStart {
			if _, err := a.bots.SeedDemo(ctx); err != nil {
				logger.Warnf("seed demo bots failed: %v", err)
			}
		}

		httpSrv := &http.Server{
			Addr:              cfg.Listen,
			Handler:           a.api.Router(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		sm.OnShutdown("http", func(ctx context.Context) error { return httpSrv.Shutdown(ctx) })

		errCh := make(chan error, 1)
		go func() {
			logger.Infof("tradedesk listening on %s (store=%s oracle=%s)", cfg.Listen, cfg.Store.Driver, cfg.Oracle.Kind)
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		stopCh := make(chan os.Signal, 1)
		signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
		defer signal.Stop(stopCh)

		select {
		case sig := <-stopCh:
			logger.Infof("received %s, shutting down", sig)
			return nil
		case err := <-errCh:
			return err
		}
	},
}
