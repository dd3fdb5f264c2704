package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jobward/internal/config"
	"jobward/internal/logger"
	"jobward/internal/observability"
	"jobward/internal/proc"
	"jobward/internal/supervisor"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the supervisor loop",
	Long: `Start the supervisor. It polls the store for due jobs, spawns one
worker process per job up to the configured cap, and reaps finished
workers. SIGINT, SIGTERM and SIGQUIT trigger a graceful shutdown that
terminates running workers and requeues their jobs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		return runServe(cmd.Context(), cfg)
	},
}

func runServe(ctx context.Context, cfg *config.Config) error {
	log := logger.New(cfg.LogLevel)

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if cfg.OTELEndpoint != "" {
		shutdownTracer, err := observability.InitTracer(ctx, "jobward", cfg.OTELEndpoint)
		if err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		defer func() {
			if err := shutdownTracer(context.Background()); err != nil {
				log.Warn("failed to shut down tracer", "error", err)
			}
		}()
	}

	metricsHandler, shutdownMetrics, err := observability.InitMetrics()
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	defer func() {
		if err := shutdownMetrics(context.Background()); err != nil {
			log.Warn("failed to shut down metrics", "error", err)
		}
	}()

	// Observable gauge backed by the store, queried only when scraped.
	meter := otel.Meter("jobward-supervisor")
	_, err = meter.Int64ObservableGauge("jobward.jobs.running",
		metric.WithDescription("Number of jobs currently running"),
		metric.WithInt64Callback(func(ctx context.Context, obs metric.Int64Observer) error {
			count, err := st.CountRunning(ctx)
			if err != nil {
				log.Warn("failed to count running jobs for scrape", "error", err)
				return nil
			}
			obs.Observe(int64(count))
			return nil
		}),
	)
	if err != nil {
		log.Warn("failed to register running jobs gauge", "error", err)
	}

	_, err = meter.Int64ObservableGauge("jobward.queue.depth",
		metric.WithDescription("Number of jobs waiting in the queue"),
		metric.WithInt64Callback(func(ctx context.Context, obs metric.Int64Observer) error {
			count, err := st.CountQueued(ctx)
			if err != nil {
				log.Warn("failed to count queued jobs for scrape", "error", err)
				return nil
			}
			obs.Observe(int64(count))
			return nil
		}),
	)
	if err != nil {
		log.Warn("failed to register queue depth gauge", "error", err)
	}

	metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux(metricsHandler)}
	go func() {
		log.Info("metrics server listening", "addr", cfg.MetricsAddr)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server stopped", "error", err)
		}
	}()

	launcher, err := proc.NewSelfLauncher()
	if err != nil {
		return err
	}
	if cfgFile != "" {
		launcher.Args = append(launcher.Args, "--config", cfgFile)
	}

	sup := supervisor.New(st, launcher, proc.OSSignaler{}, supervisor.Config{
		PollingInterval:   cfg.PollingInterval,
		MaxConcurrentJobs: cfg.MaxConcurrentJobs,
	}, log)

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.Debug("sd_notify unavailable", "error", err)
	}

	log.Info("supervisor starting",
		"polling_interval", sup.Config().PollingInterval,
		"max_concurrent_jobs", sup.Config().MaxConcurrentJobs,
		"store_driver", cfg.StoreDriver,
		"pid", os.Getpid(),
	)

	runErr := sup.Run(runCtx)

	if _, err := daemon.SdNotify(false, daemon.SdNotifyStopping); err != nil {
		log.Debug("sd_notify unavailable", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("metrics server shutdown", "error", err)
	}

	return runErr
}

func metricsMux(h http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", h)
	return mux
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
