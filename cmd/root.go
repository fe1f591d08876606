// Package cmd provides the root command and CLI setup for hdlcov.
package cmd

import (
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/tinwren/hdlcov/internal/adapter"
	"github.com/tinwren/hdlcov/internal/config"
	"github.com/tinwren/hdlcov/internal/controller"
	"github.com/tinwren/hdlcov/internal/coverage"
	"github.com/tinwren/hdlcov/internal/domain"
	"github.com/tinwren/hdlcov/internal/log"
	m "github.com/tinwren/hdlcov/internal/model"
)

var netlistFS adapter.NetlistFS
var netlistStore adapter.NetlistStore
var manifestStore adapter.ManifestStore
var workflow domain.Workflow
var ui controller.UI

func init() {
	ui = controller.NewUI(rootCmd, controller.IsTTY(os.Stdout))
	netlistFS = adapter.NewLocalNetlistFS()
	netlistStore = adapter.NewNetlistStore()
	manifestStore = adapter.NewManifestStore()
	workflow = domain.NewWorkflow(netlistFS, netlistStore, manifestStore, ui, log.Default())
}

// Flags every command inherits.
var lineFlag bool
var toggleFlag bool
var userFlag bool
var underscoreFlag bool
var maxWidthFlag int
var traceFlag bool
var outFlag string
var reportsFlag string
var configFlag string
var verboseFlag bool

// Flags local to the root command.
var pointsFlag bool
var forceFlag bool
var parallelFlag int
var excludeFlags []string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hdlcov [paths...]",
		Short: "Coverage instrumentation for elaborated HDL netlists",
		Long: `Hdlcov inserts line, branch, toggle and user coverage points into
elaborated netlist archives and writes instrumented copies alongside a
manifest of the run.

Paths may name archives or directories:
  - ./...             recursively scan current directory
  - ./rtl/...         recursively scan rtl directory
  - core.vnl top.vnl  instrument individual archives`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}

			pointsArgs := domain.PointsArgs{
				Paths:   parsePaths(args),
				Exclude: append(cfg.Exclude, excludeFlags...),
				Options: coverageOptions(cfg),
				Threads: resolveThreads(cmd, cfg, parallelFlag),
			}
			if pointsFlag {
				return workflow.Points(pointsArgs)
			}

			return workflow.Instrument(domain.InstrumentArgs{
				PointsArgs: pointsArgs,
				Out:        m.Path(cfg.Out),
				Reports:    m.Path(cfg.Reports),
				UseCache:   !forceFlag,
			})
		},
	}
	cmd.Flags().BoolVar(&pointsFlag, "points", false, "list coverage points per file instead of instrumenting")
	cmd.Flags().BoolVar(&forceFlag, "force", false, "reinstrument every netlist, ignoring the cached manifest")
	cmd.Flags().IntVarP(&parallelFlag, "parallel", "p", 0, "number of netlists instrumented in parallel (0 = one per CPU)")
	cmd.Flags().StringArrayVarP(&excludeFlags, "exclude", "x", nil, "exclude files matching regex (can be repeated)")

	cmd.PersistentFlags().BoolVar(&lineFlag, "line", true, "instrument line and branch coverage")
	cmd.PersistentFlags().BoolVar(&toggleFlag, "toggle", false, "instrument toggle coverage")
	cmd.PersistentFlags().BoolVar(&userFlag, "user", false, "instrument user-declared coverage points")
	cmd.PersistentFlags().BoolVar(&underscoreFlag, "underscore", false, "also cover signals whose names begin with an underscore")
	cmd.PersistentFlags().IntVar(&maxWidthFlag, "max-width", 256, "widest signal (width times elements) still eligible for toggle points")
	cmd.PersistentFlags().BoolVar(&traceFlag, "trace", false, "synthesize traced counter variables for coverage increments")
	cmd.PersistentFlags().StringVarP(&outFlag, "out", "o", ".hdlcov-out", "directory instrumented archives are written to")
	cmd.PersistentFlags().StringVar(&reportsFlag, "reports", ".hdlcov-reports", "directory run manifests are kept in")
	cmd.PersistentFlags().StringVar(&configFlag, "config", "", "read configuration from this file instead of the default locations")
	cmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable debug logging")

	return cmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// parsePaths converts positional arguments to netlist paths, defaulting
// to the current directory.
func parsePaths(args []string) []m.Path {
	if len(args) == 0 {
		return []m.Path{"."}
	}

	paths := make([]m.Path, 0, len(args))
	for _, arg := range args {
		paths = append(paths, m.Path(arg))
	}

	return paths
}

func coverageOptions(cfg *config.Config) coverage.Options {
	return coverage.Options{
		Line:          cfg.Line,
		Toggle:        cfg.Toggle,
		User:          cfg.User,
		Underscore:    cfg.Underscore,
		MaxWidth:      cfg.MaxWidth,
		TraceCoverage: cfg.Trace,
	}
}

// resolveThreads picks the worker count: an explicit --parallel wins over
// the configured value, and zero means one worker per CPU.
func resolveThreads(cmd *cobra.Command, cfg *config.Config, flagValue int) int {
	threads := cfg.Parallel
	if cmd.Flags().Changed("parallel") {
		threads = flagValue
	}
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	return threads
}

// resolveConfig builds the effective configuration: defaults, then config
// files, then environment, then any flag set explicitly on the command line.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("line") {
		cfg.Line = lineFlag
	}
	if flags.Changed("toggle") {
		cfg.Toggle = toggleFlag
	}
	if flags.Changed("user") {
		cfg.User = userFlag
	}
	if flags.Changed("underscore") {
		cfg.Underscore = underscoreFlag
	}
	if flags.Changed("max-width") {
		cfg.MaxWidth = maxWidthFlag
	}
	if flags.Changed("trace") {
		cfg.Trace = traceFlag
	}
	if flags.Changed("out") {
		cfg.Out = outFlag
	}
	if flags.Changed("reports") {
		cfg.Reports = reportsFlag
	}
	if verboseFlag {
		cfg.Verbose = true
	}

	if cfg.Verbose {
		log.Default().SetLevel(log.DebugLevel)
	}

	return cfg, nil
}

func loadConfig() (*config.Config, error) {
	if configFlag != "" {
		return config.LoadFromFile(configFlag)
	}

	return config.Load()
}
