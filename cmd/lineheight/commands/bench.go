package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/lineheight/internal/report"
	"github.com/Sumatoshi-tech/lineheight/internal/workload"
	"github.com/Sumatoshi-tech/lineheight/pkg/config"
	"github.com/Sumatoshi-tech/lineheight/pkg/lineheight"
	"github.com/Sumatoshi-tech/lineheight/pkg/observability"
)

const (
	benchMeterName      = "lineheight"
	metricsShutdownWait = 5 * time.Second
)

// errWorkloadRunning makes /readyz answer 503 until the workload is done.
var errWorkloadRunning = errors.New("workload still running")

type benchFlags struct {
	lines       int
	overrides   int
	ops         int
	batch       int
	seed        uint64
	metricsAddr string
	profileDir  string
}

// NewBenchCommand creates the bench subcommand.
func NewBenchCommand(app *App) *cobra.Command {
	var bf benchFlags

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Drive a tracker with a reproducible random workload",
		Long: `Seed a tracker with random overrides, then apply a random mix of upserts,
removals, insertions and deletions, reading after every batch.

With --metrics-addr, Prometheus metrics are served on /metrics (with /healthz
and /readyz) during the run and until interrupted afterwards.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := app.start(observability.ModeBench)
			if err != nil {
				return err
			}
			defer sess.close()

			return runBench(cmd.Context(), cmd.OutOrStdout(), sess, benchConfig(sess.cfg, cmd.Flags(), bf), bf)
		},
	}

	cmd.Flags().IntVar(&bf.lines, "lines", config.DefaultBenchLines, "initial document length")
	cmd.Flags().IntVar(&bf.overrides, "overrides", config.DefaultBenchOverrides, "overrides seeded before timing")
	cmd.Flags().IntVar(&bf.ops, "ops", config.DefaultBenchOps, "timed mutations")
	cmd.Flags().IntVar(&bf.batch, "batch", config.DefaultBenchBatch, "mutations between reads")
	cmd.Flags().Uint64Var(&bf.seed, "seed", config.DefaultBenchSeed, "random seed")
	cmd.Flags().StringVar(&bf.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9464)")
	cmd.Flags().StringVar(&bf.profileDir, "profile-dir", "", "write CPU and heap profiles into this directory")

	return cmd
}

// benchConfig starts from the bench config section and applies the flags the
// user set explicitly.
func benchConfig(cfg *config.Config, flags *pflag.FlagSet, bf benchFlags) workload.Config {
	wc := workload.Config{
		Lines:         cfg.Bench.Lines,
		Overrides:     cfg.Bench.Overrides,
		Ops:           cfg.Bench.Ops,
		Batch:         cfg.Bench.Batch,
		Seed:          cfg.Bench.Seed,
		DefaultHeight: cfg.Engine.DefaultHeight,
	}

	if flags.Changed("lines") {
		wc.Lines = bf.lines
	}

	if flags.Changed("overrides") {
		wc.Overrides = bf.overrides
	}

	if flags.Changed("ops") {
		wc.Ops = bf.ops
	}

	if flags.Changed("batch") {
		wc.Batch = bf.batch
	}

	if flags.Changed("seed") {
		wc.Seed = bf.seed
	}

	return wc
}

func runBench(ctx context.Context, w io.Writer, sess *session, wc workload.Config, bf benchFlags) error {
	logger := sess.logger()
	meter := sess.providers.Meter

	var ready atomic.Bool

	addr := bf.metricsAddr
	if addr == "" {
		addr = sess.cfg.Server.MetricsAddr
	}

	var srv *http.Server

	if addr != "" {
		metricsHandler, mp, err := observability.PrometheusHandler()
		if err != nil {
			return err
		}

		meter = mp.Meter(benchMeterName)

		red, err := observability.NewREDMetrics(meter)
		if err != nil {
			return err
		}

		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("listen %s: %w", addr, err)
		}

		srv = &http.Server{
			Handler: newMetricsMux(sess.providers.Tracer, red, metricsHandler, func(context.Context) error {
				if !ready.Load() {
					return errWorkloadRunning
				}

				return nil
			}),
			ReadTimeout:  sess.cfg.Server.ReadTimeout,
			WriteTimeout: sess.cfg.Server.WriteTimeout,
		}

		go func() {
			if serveErr := srv.Serve(ln); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
				logger.Error("metrics server failed", "error", serveErr)
			}
		}()

		logger.InfoContext(ctx, "metrics server listening", "addr", ln.Addr().String())
	}

	engine, err := observability.NewEngineMetrics(meter)
	if err != nil {
		return err
	}

	prof, err := workload.NewProfiler(bf.profileDir)
	if err != nil {
		return err
	}

	if err := prof.StartCPU(); err != nil {
		return err
	}

	if err := prof.Sample("before"); err != nil {
		return err
	}

	logger.InfoContext(ctx, "bench started",
		"lines", wc.Lines, "overrides", wc.Overrides, "ops", wc.Ops, "batch", wc.Batch, "seed", wc.Seed)

	tr, stats, runErr := workload.Run(ctx, wc, lineheight.WithObserver(engine))
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		_ = prof.StopCPU()

		return runErr
	}

	if err := prof.StopCPU(); err != nil {
		return err
	}

	if err := prof.Sample("after"); err != nil {
		return err
	}

	ready.Store(true)

	if err := renderBench(w, tr, stats, wc, prof.Samples); err != nil {
		return err
	}

	if srv == nil {
		return nil
	}

	if ctx.Err() == nil {
		logger.InfoContext(ctx, "serving metrics until interrupted")
		<-ctx.Done()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownWait)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown metrics server: %w", err)
	}

	return nil
}

func renderBench(w io.Writer, tr *lineheight.Tracker, stats workload.Stats, wc workload.Config, samples []workload.HeapSample) error {
	if err := report.Throughput(w, "setup", wc.Overrides, stats.Setup); err != nil {
		return err
	}

	if err := report.Throughput(w, "mutations", stats.Ops(), stats.Elapsed); err != nil {
		return err
	}

	if err := report.Workload(w, stats); err != nil {
		return err
	}

	if err := report.Heap(w, samples); err != nil {
		return err
	}

	return report.Summary(w, tr, stats.Lines)
}

// newMetricsMux serves /metrics, /healthz and /readyz behind the tracing and
// RED middleware.
func newMetricsMux(tracer trace.Tracer, red *observability.REDMetrics, metrics http.Handler, ready observability.ReadyCheck) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics)
	mux.Handle("/healthz", observability.HealthHandler())
	mux.Handle("/readyz", observability.ReadyHandler(ready))

	return observability.HTTPMiddleware(tracer, red, mux)
}
