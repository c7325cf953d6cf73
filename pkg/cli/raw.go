package cli

import (
	"github.com/danpilch/memsample/pkg/debug"
	"github.com/danpilch/memsample/pkg/meminfo"
	"github.com/spf13/cobra"
)

func NewRawCommand(root *RootCommand) *cobra.Command {
	return &cobra.Command{
		Use:   "raw [pattern...]",
		Short: "Dump every parsed field of one read",
		Long: `Read the meminfo table once and show each field's raw value and suffix,
its normalized value and unit, and whether the pattern reports it, the mandatory
set uses it, or it is derived.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := meminfo.CompilePattern(root.patterns(args)...)
			if err != nil {
				return err
			}

			rc, err := root.Source().Open()
			if err != nil {
				return err
			}
			defer rc.Close()

			fields, err := debug.CollectRawFields(rc, report)
			if err != nil {
				return err
			}
			debug.DumpRawFields(cmd.OutOrStdout(), fields)
			return nil
		},
	}
}
