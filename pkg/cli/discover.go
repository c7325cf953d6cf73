package cli

import (
	"github.com/danpilch/memsample/pkg/engine"
	"github.com/spf13/cobra"
)

func NewDiscoverCommand(root *RootCommand) *cobra.Command {
	return &cobra.Command{
		Use:   "discover [pattern...]",
		Short: "List the metrics matching a pattern",
		Long: `Parse the meminfo table once and print the metrics a recording would
sample. Patterns are anchored regular expressions over field names; several
patterns are alternatives. Without a pattern every field is listed.`,
		Example: `  memsample discover
  memsample discover 'Mem.*' SwapUsed -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := root.Config()
			eng := engine.New(root.Source(),
				engine.WithLogger(root.Logger()),
				engine.WithInterval(cfg.Interval),
				engine.WithFailureThreshold(cfg.FailureThreshold),
			)

			if _, err := eng.Discover(root.patterns(args)...); err != nil {
				return err
			}
			return root.Formatter(cmd.OutOrStdout()).RenderCatalog(eng.Catalog())
		},
	}
}
