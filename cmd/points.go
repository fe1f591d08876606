package cmd

import (
	"github.com/spf13/cobra"

	"github.com/tinwren/hdlcov/internal/domain"
)

var pointsLongDescription = `List the coverage points each netlist would receive without writing
any instrumented output.

Counts are reported per file and split by family (line, branch, toggle,
user). Family toggles and --max-width select the same point set an
instrumentation run would emit.`

// pointsCmd represents the points command.
var pointsCmd = newPointsCmd()
var pointsParallelFlag int
var pointsExcludeFlags []string

func newPointsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "points [paths...]",
		Short: "List netlists and coverage point counts",
		Long:  pointsLongDescription,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}

			return workflow.Points(domain.PointsArgs{
				Paths:   parsePaths(args),
				Exclude: append(cfg.Exclude, pointsExcludeFlags...),
				Options: coverageOptions(cfg),
				Threads: resolveThreads(cmd, cfg, pointsParallelFlag),
			})
		},
	}
	cmd.Flags().IntVarP(&pointsParallelFlag, "parallel", "p", 0, "number of netlists analyzed in parallel (0 = one per CPU)")
	cmd.Flags().StringArrayVarP(&pointsExcludeFlags, "exclude", "x", nil, "exclude files matching regex (can be repeated)")

	return cmd
}

func init() {
	rootCmd.AddCommand(pointsCmd)
}
