package cli

import (
	"errors"

	"github.com/danpilch/memsample/pkg/crosscheck"
	"github.com/danpilch/memsample/pkg/meminfo"
	"github.com/danpilch/memsample/pkg/output"
	"github.com/spf13/cobra"
)

// ErrCrosscheckFailed is returned when sources conflict or a sanity check fails.
var ErrCrosscheckFailed = errors.New("cross-check failed")

func NewCrosscheckCommand(root *RootCommand) *cobra.Command {
	return &cobra.Command{
		Use:   "crosscheck",
		Short: "Compare meminfo totals against sysinfo(2) and check constraints",
		RunE: func(cmd *cobra.Command, args []string) error {
			pass, err := meminfo.Read(root.Source(), nil, meminfo.Mandatory)
			if err != nil {
				return err
			}

			alt, err := crosscheck.AlternativeSources()
			if err != nil {
				root.Logger().WithError(err).Warn("no alternative memory source; running sanity checks only")
			}

			validations := crosscheck.RunCrossChecks(pass, alt)
			sanity := crosscheck.RunSanityChecks(pass)

			w := cmd.OutOrStdout()
			if output.Format(root.Config().Output) == output.FormatJSON {
				if err := crosscheck.ReportJSON(w, validations, sanity); err != nil {
					return err
				}
			} else {
				crosscheck.Report(w, validations, sanity)
			}

			if crosscheck.Failed(validations, sanity) {
				return ErrCrosscheckFailed
			}
			return nil
		},
	}
}
