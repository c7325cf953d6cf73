// Package cli implements the memsample command tree.
package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/danpilch/memsample/pkg/config"
	"github.com/danpilch/memsample/pkg/meminfo"
	"github.com/danpilch/memsample/pkg/output"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RootCommand holds the state shared by all subcommands.
type RootCommand struct {
	cmd    *cobra.Command
	v      *viper.Viper
	cfg    config.Config
	logger *logrus.Logger
}

// NewRootCommand builds the command tree.
func NewRootCommand() *RootCommand {
	root := &RootCommand{
		v:   config.NewViper(),
		cfg: config.Default(),
	}

	cmd := &cobra.Command{
		Use:   "memsample",
		Short: "Sample memory counters from /proc/meminfo",
		Long: `memsample discovers the memory counters exposed by the kernel's meminfo
table, samples them at a fixed interval and keeps an in-memory time series
per metric, including the derived MemUsed and SwapUsed.`,
		SilenceUsage:      true,
		PersistentPreRunE: root.persistentPreRunE,
	}

	d := config.Default()
	pflags := cmd.PersistentFlags()
	pflags.String("config", "", "Config file path (yaml, json or toml)")
	pflags.String("source", d.Source, "Path of the meminfo table")
	pflags.String("interval", d.Interval.String(), "Sampling interval, e.g. 10ms, 250us, 1s")
	pflags.Int("failure-threshold", d.FailureThreshold, "Consecutive failed reads before sampling halts (0 = never)")
	pflags.String("log-level", d.Log.Level, "Log level (debug, info, warn, error)")
	pflags.String("log-format", d.Log.Format, "Log format (text, json)")
	pflags.StringP("output", "o", d.Output, "Output format (table, json, tsv)")

	_ = config.BindFlags(root.v, pflags)

	root.cmd = cmd
	root.addSubCommands()
	return root
}

func (r *RootCommand) persistentPreRunE(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(r.v)
	if err != nil {
		return err
	}
	r.cfg = cfg

	r.logger, err = NewLogger(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	r.logger.WithFields(logrus.Fields{
		"source":   cfg.Source,
		"interval": cfg.Interval,
	}).Debug("configuration loaded")
	return nil
}

func (r *RootCommand) addSubCommands() {
	r.cmd.AddCommand(NewDiscoverCommand(r))
	r.cmd.AddCommand(NewRecordCommand(r))
	r.cmd.AddCommand(NewRawCommand(r))
	r.cmd.AddCommand(NewCrosscheckCommand(r))
	r.cmd.AddCommand(NewBenchCommand(r))
	r.cmd.AddCommand(NewBaselineCommand(r))
	r.cmd.AddCommand(NewVersionCommand(r))
}

// Command returns the cobra root command.
func (r *RootCommand) Command() *cobra.Command {
	return r.cmd
}

// Config returns the configuration resolved for the running command.
func (r *RootCommand) Config() config.Config {
	return r.cfg
}

// Logger returns the configured logger.
func (r *RootCommand) Logger() *logrus.Logger {
	if r.logger == nil {
		r.logger = logrus.New()
		r.logger.SetLevel(logrus.WarnLevel)
	}
	return r.logger
}

// Source returns the configured meminfo source.
func (r *RootCommand) Source() meminfo.Source {
	return meminfo.NewFile(r.cfg.Source)
}

// Formatter returns a formatter for the configured output format.
func (r *RootCommand) Formatter(w io.Writer) *output.Formatter {
	return output.NewFormatter(output.Format(r.cfg.Output), w)
}

// patterns returns the positional patterns, falling back to the configured one.
func (r *RootCommand) patterns(args []string) []string {
	if len(args) > 0 {
		return args
	}
	if r.cfg.Pattern != "" {
		return []string{r.cfg.Pattern}
	}
	return nil
}

// ExecuteContext runs the command tree.
func (r *RootCommand) ExecuteContext(ctx context.Context) error {
	return r.cmd.ExecuteContext(ctx)
}

// Execute runs the CLI and exits non-zero on error. SIGINT and SIGTERM cancel
// the command context so a running recording stops cleanly.
func Execute() {
	root := NewRootCommand()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
