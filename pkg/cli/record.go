package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/danpilch/memsample/pkg/debug"
	"github.com/danpilch/memsample/pkg/engine"
	"github.com/danpilch/memsample/pkg/export"
	"github.com/danpilch/memsample/pkg/output"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type recordOptions struct {
	duration   time.Duration
	exportPath string
	format     string
	timing     bool
	pprofAddr  string
	trendWidth int
}

func NewRecordCommand(root *RootCommand) *cobra.Command {
	opts := &recordOptions{}

	cmd := &cobra.Command{
		Use:   "record [pattern...]",
		Short: "Sample matching metrics until the duration elapses or a signal arrives",
		Long: `Discover the metrics matching the patterns, sample them at the configured
interval and print a summary of every series once sampling stops. Sampling stops
after --duration, on SIGINT/SIGTERM, or when the source keeps failing.`,
		Example: `  memsample record --duration 10s
  memsample record 'Mem.*' SwapUsed --interval 100ms --export run.parquet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(cmd, root, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.DurationVar(&opts.duration, "duration", 0, "Stop after this long (0 = until interrupted)")
	flags.StringVar(&opts.exportPath, "export", "", "Write the recorded series to this file")
	flags.StringVar(&opts.format, "format", "", "Export format (jsonl, parquet, html); inferred from the file extension when empty")
	flags.BoolVar(&opts.timing, "timing", false, "Print source read timings after recording")
	flags.StringVar(&opts.pprofAddr, "pprof", "", "Serve pprof on this address while recording")
	flags.IntVar(&opts.trendWidth, "trend-width", 30, "Maximum sparkline width in the summary table")

	return cmd
}

func runRecord(cmd *cobra.Command, root *RootCommand, opts *recordOptions, args []string) error {
	cfg := root.Config()
	logger := root.Logger()

	if opts.format != "" {
		if _, ok := export.Get(opts.format); !ok {
			return fmt.Errorf("unknown export format %q (supported: %v)", opts.format, export.Names())
		}
	}

	var timed *debug.TimedSource
	src := root.Source()
	if opts.timing {
		timed = debug.NewTimedSource(cfg.Source, src)
		src = timed
	}

	if opts.pprofAddr != "" {
		srv, err := debug.StartPprofServer(opts.pprofAddr, logger)
		if err != nil {
			return err
		}
		defer srv.Stop()
		fmt.Fprintf(cmd.ErrOrStderr(), "pprof: http://%s/debug/pprof/\n", srv.Addr())
	}

	eng := engine.New(src,
		engine.WithLogger(logger),
		engine.WithInterval(cfg.Interval),
		engine.WithFailureThreshold(cfg.FailureThreshold),
	)
	descs, err := eng.Discover(root.patterns(args)...)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if opts.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.duration)
		defer cancel()
	}

	if err := eng.Start(); err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"metrics":  len(descs),
		"interval": eng.Interval(),
	}).Info("recording started")

	waitForStop(ctx, eng, 50*time.Millisecond)
	eng.Stop()

	status := eng.Status()
	logger.WithFields(logrus.Fields{
		"ticks":   eng.Ticks(),
		"skipped": status.Skipped,
	}).Info("recording stopped")

	series := make([]output.Series, 0, len(descs))
	for _, d := range descs {
		points, err := eng.AllValues(d.ID)
		if err != nil {
			return err
		}
		series = append(series, output.Series{Metric: d, Points: points})
	}

	f := root.Formatter(cmd.OutOrStdout())
	f.SetTrendWidth(opts.trendWidth)
	if err := f.RenderSeries(series); err != nil {
		return err
	}

	if opts.exportPath != "" {
		run := export.NewRun(series)
		if err := export.WriteFile(opts.exportPath, opts.format, run); err != nil {
			return err
		}
		logger.WithFields(logrus.Fields{
			"path":   opts.exportPath,
			"run_id": run.ID.String(),
		}).Info("series exported")
	}

	if timed != nil {
		debug.TimingReport(cmd.OutOrStdout(), []debug.ReadTiming{timed.Timing()})
	}

	if status.Err != nil {
		return fmt.Errorf("sampling halted: %w", status.Err)
	}
	return nil
}

// waitForStop blocks until ctx is done or the engine halts on its own.
func waitForStop(ctx context.Context, eng *engine.Engine, poll time.Duration) {
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if eng.Status().State == engine.Stopped {
				return
			}
		}
	}
}
