package cmd

import (
	"github.com/spf13/cobra"
	"github.com/tinwren/hdlcov/internal/domain"
	m "github.com/tinwren/hdlcov/internal/model"
)

// viewCmd represents the view command.
var viewCmd = newViewCmd()

func newViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "View the manifest of a previous instrumentation run",
		Long:  "View the manifest of a previous instrumentation run from a reports directory.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}

			return workflow.View(domain.ViewArgs{Reports: m.Path(cfg.Reports)})
		},
	}

	return cmd
}

func init() {
	rootCmd.AddCommand(viewCmd)
}
