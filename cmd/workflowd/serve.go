package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/flowcore/workflowcore/internal/config"
	"github.com/flowcore/workflowcore/internal/observability"
)

// buildServeCmd starts the workflow executor process: it loads config,
// wires every collaborator, serves /healthz and /metrics, and drives
// queued executions to completion. Grounded on the teacher's
// buildServeCmd (cmd/nexus) long-running-process shape: construct
// services, start a listener, block on signal, then shut down.
func buildServeCmd() *cobra.Command {
	var pollInterval time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the workflow executor process",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			logger := observability.NewLogger(observability.LogConfig{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
			})

			a, err := buildApp(cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			mux := http.NewServeMux()
			mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte("ok"))
			})
			metricsMux := http.NewServeMux()
			metricsMux.Handle("/metrics", promhttp.Handler())

			srv := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port), Handler: mux}
			metricsSrv := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.MetricsPort), Handler: metricsMux}

			errCh := make(chan error, 2)
			go func() { errCh <- srv.ListenAndServe() }()
			go func() { errCh <- metricsSrv.ListenAndServe() }()

			if pollInterval <= 0 {
				pollInterval = 500 * time.Millisecond
			}
			driver := newExecutionDriver(a.scheduler, a.store, logger, pollInterval)
			go driver.run(ctx)

			logger.Info(ctx, "workflowd serving", "addr", srv.Addr, "metricsAddr", metricsSrv.Addr)

			select {
			case <-ctx.Done():
			case err := <-errCh:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			}

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = srv.Shutdown(shutdownCtx)
			_ = metricsSrv.Shutdown(shutdownCtx)
			return nil
		},
	}
	cmd.Flags().DurationVar(&pollInterval, "poll-interval", 500*time.Millisecond, "how often to advance running executions")
	return cmd
}
