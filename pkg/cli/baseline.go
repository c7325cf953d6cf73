package cli

import (
	"fmt"
	"regexp"

	"github.com/danpilch/memsample/pkg/baseline"
	"github.com/spf13/cobra"
)

func NewBaselineCommand(root *RootCommand) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Save memory counter snapshots and compare against them",
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", "", "Baseline directory (default ~/.memsample/baselines)")

	save := &cobra.Command{
		Use:   "save NAME [pattern...]",
		Short: "Save the current counters as a named baseline",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			metrics, err := baseline.Snapshot(root.Source(), root.patterns(args[1:])...)
			if err != nil {
				return err
			}
			b := baseline.NewBaseline(args[0], metrics)
			b.Metadata = map[string]string{"source": root.Config().Source}
			if err := b.Save(dir); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved baseline %q with %d metrics\n", b.Name, len(metrics))
			return nil
		},
	}

	compare := &cobra.Command{
		Use:   "compare NAME",
		Short: "Compare the current counters against a saved baseline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := baseline.Load(args[0], dir)
			if err != nil {
				return err
			}
			names := make([]string, len(b.Metrics))
			for i, m := range b.Metrics {
				names[i] = regexp.QuoteMeta(m.Name)
			}
			current, err := baseline.Snapshot(root.Source(), names...)
			if err != nil {
				return err
			}
			baseline.RenderComparison(cmd.OutOrStdout(), b, baseline.Compare(b, current))
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List saved baselines",
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := baseline.List(dir)
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}

	cmd.AddCommand(save, compare, list)
	return cmd
}
