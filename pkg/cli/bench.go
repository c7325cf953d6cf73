package cli

import (
	"github.com/danpilch/memsample/pkg/benchmark"
	"github.com/spf13/cobra"
)

func NewBenchCommand(root *RootCommand) *cobra.Command {
	opts := benchmark.DefaultOptions()

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure parse-pass latency to size the sampling interval",
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := benchmark.Run(root.Source(), opts)
			if err != nil {
				return err
			}
			benchmark.RenderResults(cmd.OutOrStdout(), results, benchmark.MeasureOverhead(), root.Config().Interval)
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.Iterations, "iterations", opts.Iterations, "Measured iterations per stage")
	cmd.Flags().IntVar(&opts.Warmup, "warmup", opts.Warmup, "Warmup iterations per stage")
	return cmd
}
