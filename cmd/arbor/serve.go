package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/aretw0/arbor"
	httpAdapter "github.com/aretw0/arbor/internal/adapters/http"
	"github.com/aretw0/arbor/internal/cli"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Serves tree builds as a JSON API over HTTP, with Prometheus metrics on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetString("port")
		levelName, _ := cmd.Flags().GetString("log-level")
		maxIterations, _ := cmd.Flags().GetInt("max-iterations")
		maxSymbols, _ := cmd.Flags().GetInt("max-symbols")
		cacheSpec, _ := cmd.Flags().GetString("cache")
		workers, _ := cmd.Flags().GetInt("workers")
		rps, _ := cmd.Flags().GetFloat64("rate")
		burst, _ := cmd.Flags().GetInt("burst")

		level, err := logging.ParseLevel(levelName)
		if err != nil {
			return err
		}
		logger := logging.NewJSON(os.Stderr, level)

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics, err := observability.NewMetrics(reg)
		if err != nil {
			return err
		}

		engineOpts := []arbor.Option{
			arbor.WithLogger(logger),
			arbor.WithMetrics(metrics),
			arbor.WithWorkers(workers),
			arbor.WithMaxSymbols(maxSymbols),
		}
		cache, locker, closeCache, err := cli.OpenCache(cacheSpec)
		if err != nil {
			return err
		}
		defer closeCache()
		if cache != nil {
			engineOpts = append(engineOpts, arbor.WithCache(cache))
		}
		if locker != nil {
			engineOpts = append(engineOpts, arbor.WithLocker(locker, arbor.DefaultLockTTL))
		}

		serverOpts := []httpAdapter.Option{
			httpAdapter.WithLogger(logger),
			httpAdapter.WithMaxIterations(maxIterations),
			httpAdapter.WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
		}
		if rps > 0 {
			serverOpts = append(serverOpts, httpAdapter.WithRateLimit(rate.Limit(rps), max(burst, 1)))
		}
		handler := httpAdapter.NewHandler(arbor.New(engineOpts...), serverOpts...)

		srv := &http.Server{
			Addr:              ":" + port,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("starting arbor server", "addr", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			return err

		case <-sigCtx.Done():
			logger.Info("starting shutdown", "signal", sigCtx.Signal())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("graceful shutdown did not complete", "error", err)
				if err := srv.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			}
			logger.Info("arbor server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().String("log-level", "info", "Log level: debug, info, warn or error")
	serveCmd.Flags().Int("max-iterations", httpAdapter.DefaultMaxIterations, "Largest iteration count a request may ask for")
	serveCmd.Flags().Int("max-symbols", httpAdapter.DefaultMaxSymbols, "Longest generation a request may grow (0 = unlimited)")
	serveCmd.Flags().Float64("rate", 0, "Build/evolve requests per second (0 = unlimited)")
	serveCmd.Flags().Int("burst", 10, "Requests allowed above --rate in a burst")
}
