package cli

import (
	"encoding/json"
	"fmt"

	"github.com/danpilch/memsample/pkg/output"
	"github.com/spf13/cobra"
)

var (
	cliVersion   = "dev"
	cliBuildDate = "unknown"
	cliGitCommit = "unknown"
)

// SetVersion records build information reported by the version command.
func SetVersion(version, buildDate, gitCommit string) {
	cliVersion = version
	cliBuildDate = buildDate
	cliGitCommit = gitCommit
}

func NewVersionCommand(root *RootCommand) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if output.Format(root.Config().Output) == output.FormatJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]string{
					"version":   cliVersion,
					"buildDate": cliBuildDate,
					"gitCommit": cliGitCommit,
				})
			}
			fmt.Fprintf(w, "memsample version %s\n", cliVersion)
			fmt.Fprintf(w, "  Commit: %s\n", cliGitCommit)
			fmt.Fprintf(w, "  Built:  %s\n", cliBuildDate)
			return nil
		},
	}
}
