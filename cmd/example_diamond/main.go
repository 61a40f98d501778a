package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/birdayz/kstats"
	"github.com/birdayz/kstats/kdag"
	"github.com/birdayz/kstats/kerror"
	"github.com/birdayz/kstats/kmetrics"
	klog "github.com/birdayz/kstats/pkg/log"
	"github.com/go-logr/logr"
	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type options struct {
	runs        int
	workers     int
	failRate    float64
	maxTaskTime time.Duration
	metricsAddr string
	hold        bool
	verbosity   int
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "example_diamond",
		Short: "Profile simulated runs of a diamond shaped task graph",
		Long: `example_diamond runs a four task diamond (top, left, right, bottom)
many times, records every route into a kstats registry and prints the
aggregated timings.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.runs < 0 || opts.workers < 1 {
				return errors.New("invalid flags: --runs must be >= 0 and --workers >= 1")
			}
			if opts.failRate < 0 || opts.failRate > 1 {
				return errors.New("invalid flags: --fail-rate must be within [0, 1]")
			}
			log := klog.New("example_diamond", opts.verbosity)
			return run(cmd.Context(), cmd.OutOrStdout(), log, opts)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&opts.runs, "runs", 100, "number of simulated runs")
	flags.IntVar(&opts.workers, "workers", 4, "number of runs executed concurrently")
	flags.Float64Var(&opts.failRate, "fail-rate", 0, "probability of a task failing")
	flags.DurationVar(&opts.maxTaskTime, "max-task-time", 5*time.Millisecond, "upper bound of a simulated task duration")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	flags.BoolVar(&opts.hold, "hold", false, "keep serving metrics after the runs until interrupted")
	flags.CountVarP(&opts.verbosity, "verbose", "v", "log verbosity, repeat for more")

	return cmd
}

func buildDiamond() *kdag.DAG {
	b := kdag.NewBuilder()
	b.MustAddTask("top")
	b.MustAddTask("left", "top")
	b.MustAddTask("right", "top")
	b.MustAddTask("bottom", "left", "right")
	return b.MustBuild()
}

func run(ctx context.Context, out io.Writer, log logr.Logger, opts options) error {
	reg := kstats.NewRegistry(kstats.WithLogr(log.WithName("registry")))
	dag := buildDiamond()
	profile := kdag.NewProfile(dag, reg.LookupOrCreate("diamond"), kdag.WithProfileLogr(log.WithName("profile")))

	if opts.metricsAddr != "" {
		srv := serveMetrics(log, opts.metricsAddr, reg)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	engine := &engine{
		dag:         dag,
		profile:     profile,
		failRate:    opts.failRate,
		maxTaskTime: opts.maxTaskTime,
	}

	var failures kerror.Collector
	failed, err := runAll(ctx, engine, opts.runs, opts.workers, &failures)
	if err != nil {
		return err
	}

	if err := printReport(out, reg.Report()); err != nil {
		return err
	}

	if err := failures.Err(); err != nil {
		fmt.Fprintf(out, "\n%d of %d runs failed (%s)\n", failed, opts.runs, kerror.KindOf(err))
		fmt.Fprintln(out, err)
		if kerror.IsFatal(err) {
			log.Info("Stalled runs detected")
		}
	}

	if opts.hold && opts.metricsAddr != "" {
		log.Info("Serving metrics until interrupted", "addr", opts.metricsAddr)
		<-ctx.Done()
	}
	return nil
}

// runAll executes runs on workers goroutines. Failed runs are added to
// failures; the returned error is only set when ctx is cancelled.
func runAll(ctx context.Context, e *engine, runs, workers int, failures *kerror.Collector) (int, error) {
	grp, ctx := errgroup.WithContext(ctx)

	next := make(chan int)
	grp.Go(func() error {
		defer close(next)
		for i := 0; i < runs; i++ {
			select {
			case next <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	results := make(chan error, workers)
	var collect errgroup.Group
	failed := 0
	collect.Go(func() error {
		for err := range results {
			failed++
			failures.Add(err)
		}
		return nil
	})

	for w := 0; w < workers; w++ {
		grp.Go(func() error {
			for i := range next {
				if err := e.execute(ctx); err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					results <- fmt.Errorf("run %d: %w", i, err)
				}
			}
			return nil
		})
	}

	err := grp.Wait()
	close(results)
	_ = collect.Wait()
	return failed, err
}

func serveMetrics(log logr.Logger, addr string, reg *kstats.Registry) *http.Server {
	preg := prometheus.NewRegistry()
	preg.MustRegister(kmetrics.NewCollector(reg))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(preg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(err, "Metrics server failed", "addr", addr)
		}
	}()
	log.Info("Serving metrics", "addr", addr)
	return srv
}

func printReport(out io.Writer, report kstats.Report) error {
	table := tablewriter.NewWriter(out)
	table.Header("Graph", "Path", "Task", "Calls", "Total", "Min", "Max", "Avg")

	for _, g := range report.Graphs {
		for i, p := range g.Paths {
			if err := table.Append(row(g.Name, fmt.Sprintf("%d %s", i, p.Route()), "", p.Stats)...); err != nil {
				return err
			}
			for _, s := range p.Segments {
				if err := table.Append(row("", "", s.Task, s.Stats)...); err != nil {
					return err
				}
			}
		}
	}
	return table.Render()
}

func row(graph, path, task string, s kstats.Stats) []any {
	if s.Called == 0 {
		return []any{graph, path, task, "0", "-", "-", "-", "-"}
	}
	avg, _ := s.Average()
	return []any{
		graph,
		path,
		task,
		fmt.Sprint(s.Called),
		s.Aggregate.String(),
		s.Min.String(),
		s.Max.String(),
		avg.String(),
	}
}
