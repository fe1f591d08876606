// Package domain contains the core coverage instrumentation workflow.
package domain

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/tinwren/hdlcov/internal/adapter"
	"github.com/tinwren/hdlcov/internal/controller"
	"github.com/tinwren/hdlcov/internal/coverage"
	"github.com/tinwren/hdlcov/internal/log"
	m "github.com/tinwren/hdlcov/internal/model"
	"golang.org/x/sync/errgroup"
)

// PointsArgs carries the inputs for the Points operation.
type PointsArgs struct {
	Paths   []m.Path
	Exclude []string
	Options coverage.Options
	Threads int
}

// InstrumentArgs carries the inputs for the Instrument operation.
type InstrumentArgs struct {
	PointsArgs

	// Out is the directory instrumented archives are written into.
	Out m.Path
	// Reports is the directory the run manifest is kept in.
	Reports m.Path
	// UseCache skips files whose archives have not changed since the
	// manifest in Reports was written.
	UseCache bool
}

// ViewArgs carries the inputs for the View operation.
type ViewArgs struct {
	Reports m.Path
}

// Workflow defines the interface for coverage instrumentation operations.
type Workflow interface {
	Instrument(args InstrumentArgs) error
	Points(args PointsArgs) error
	View(args ViewArgs) error
}

type workflow struct {
	fs        adapter.NetlistFS
	store     adapter.NetlistStore
	manifests adapter.ManifestStore
	ui        controller.UI
	log       log.Logger
}

// NewWorkflow creates a new Workflow instance with the provided collaborators.
func NewWorkflow(
	fs adapter.NetlistFS,
	store adapter.NetlistStore,
	manifests adapter.ManifestStore,
	ui controller.UI,
	logger log.Logger,
) Workflow {
	if logger == nil {
		logger = log.Default()
	}

	return &workflow{
		fs:        fs,
		store:     store,
		manifests: manifests,
		ui:        ui,
		log:       logger,
	}
}

// Instrument rewrites every discovered netlist archive with coverage
// instrumentation and records the outcome in the run manifest.
func (w *workflow) Instrument(args InstrumentArgs) error {
	discovered, err := w.fs.Get(args.Paths, args.Exclude)
	if err != nil {
		return fmt.Errorf("failed to get netlists: %w", err)
	}

	files := discovered

	if args.UseCache {
		files, err = w.manifests.CheckUpdates(args.Reports, discovered)
		if err != nil {
			return fmt.Errorf("failed to check cached reports: %w", err)
		}

		w.log.Info("cache check", "discovered", len(discovered), "changed", len(files))
	}

	if err := w.ui.Start(controller.WithRunMode()); err != nil {
		return fmt.Errorf("failed to start UI: %w", err)
	}
	defer w.ui.Close()

	if err := w.fs.MkdirAll(args.Out, 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	threads := args.Threads
	if threads <= 0 {
		threads = 1
	}

	w.ui.DisplayConcurrencyInfo(threads)
	w.ui.DisplayUpcomingFilesInfo(len(files))

	results := w.instrumentAll(files, args, threads)
	runErr := collectFailures(results)

	manifest := w.collectManifest(args.Reports, discovered, results)
	if err := w.manifests.SaveManifest(args.Reports, manifest); err != nil {
		return fmt.Errorf("failed to save manifest: %w", err)
	}

	if err := w.ui.DisplaySummary(results, runErr); err != nil {
		return err
	}

	w.ui.Wait()

	return runErr
}

// Points counts the coverage points each discovered archive would receive,
// without writing anything.
func (w *workflow) Points(args PointsArgs) error {
	files, err := w.fs.Get(args.Paths, args.Exclude)
	if err != nil {
		return fmt.Errorf("failed to get netlists: %w", err)
	}

	threads := args.Threads
	if threads <= 0 {
		threads = 1
	}

	points := make([][]m.Point, len(files))

	var g errgroup.Group

	g.SetLimit(threads)

	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			root, err := w.store.Load(file.Origin)
			if err != nil {
				return fmt.Errorf("failed to load netlist %s: %w", file.Origin, err)
			}

			coverage.Instrument(root, args.Options, w.log)
			points[i] = coverage.Collect(root)

			return nil
		})
	}

	countErr := g.Wait()

	if err := w.ui.Start(controller.WithPointsMode()); err != nil {
		return fmt.Errorf("failed to start UI: %w", err)
	}
	defer w.ui.Close()

	byFile := make(map[m.Path][]m.Point, len(files))
	for i, file := range files {
		byFile[file.Origin] = points[i]
	}

	if err := w.ui.DisplayPoints(byFile, countErr); err != nil {
		return err
	}

	w.ui.Wait()

	return nil
}

// View replays the manifest saved by a previous instrumentation run.
func (w *workflow) View(args ViewArgs) error {
	results, err := w.manifests.LoadManifest(args.Reports)
	if err != nil {
		return fmt.Errorf("failed to load manifest: %w", err)
	}

	if err := w.ui.Start(controller.WithRunMode()); err != nil {
		return fmt.Errorf("failed to start UI: %w", err)
	}
	defer w.ui.Close()

	w.ui.DisplayUpcomingFilesInfo(len(results))

	byFile := make(map[m.Path]m.FileResult, len(results))

	for _, res := range results {
		w.ui.DisplayCompletedFileInfo(res.Netlist.Origin, res.Report)
		byFile[res.Netlist.Origin] = res
	}

	if err := w.ui.DisplaySummary(byFile, nil); err != nil {
		return err
	}

	w.ui.Wait()

	return nil
}

// fileOutcome holds the result of instrumenting a single netlist archive.
type fileOutcome struct {
	origin m.Path
	result m.FileResult
}

// instrumentAll fans the files out over a worker pool and gathers the
// per-file results.
func (w *workflow) instrumentAll(files []m.NetlistFile, args InstrumentArgs, threads int) map[m.Path]m.FileResult {
	results := make(map[m.Path]m.FileResult, len(files))

	jobs := make(chan m.NetlistFile, len(files))
	outcomes := make(chan fileOutcome, len(files))

	var wg sync.WaitGroup

	// Start worker pool
	for id := 0; id < threads; id++ {
		id := id
		wg.Add(1)

		go func() {
			defer wg.Done()

			w.instrumentWorker(id, jobs, outcomes, args)
		}()
	}

	// Send jobs to workers
	for _, file := range files {
		jobs <- file
	}

	close(jobs)

	// Wait for all workers to complete
	wg.Wait()
	close(outcomes)

	// Collect results
	for out := range outcomes {
		results[out.origin] = out.result
	}

	return results
}

// instrumentWorker processes files from the jobs channel and sends results
// to outcomes.
func (w *workflow) instrumentWorker(id int, jobs <-chan m.NetlistFile, outcomes chan<- fileOutcome, args InstrumentArgs) {
	for file := range jobs {
		w.ui.DisplayStartingFileInfo(file.Origin, id)

		result := w.instrumentFile(file, args)

		w.ui.DisplayCompletedFileInfo(file.Origin, result.Report)
		outcomes <- fileOutcome{origin: file.Origin, result: result}
	}
}

// instrumentFile loads one archive, attaches coverage instrumentation and
// writes the rewritten archive under the output directory.
func (w *workflow) instrumentFile(file m.NetlistFile, args InstrumentArgs) m.FileResult {
	report := m.Report{
		Origin: file.Origin,
		Hash:   file.Hash,
		When:   time.Now(),
	}

	root, err := w.store.Load(file.Origin)
	if err != nil {
		report.Failure = fmt.Sprintf("failed to load netlist: %v", err)
		return m.FileResult{Netlist: file, Report: report}
	}

	coverage.Instrument(root, args.Options, w.log)
	points := coverage.Collect(root)

	output := w.fs.JoinPath(string(args.Out), filepath.Base(string(file.Origin)))

	if err := w.store.Save(output, root); err != nil {
		report.Failure = fmt.Sprintf("failed to save instrumented netlist: %v", err)
		return m.FileResult{Netlist: file, Report: report}
	}

	report.Output = output
	report.Counts = m.CountPoints(points)

	w.log.Info("instrumented netlist", "origin", file.Origin, "points", report.Counts.Total())

	return m.FileResult{Netlist: file, Points: points, Report: report}
}

// collectManifest assembles the manifest entries for the save, in discovery
// order. Files the cache check skipped keep their entry from the previous
// manifest.
func (w *workflow) collectManifest(reports m.Path, discovered []m.NetlistFile, results map[m.Path]m.FileResult) []m.FileResult {
	var prior map[m.Path]m.FileResult

	if len(results) < len(discovered) {
		if previous, err := w.manifests.LoadManifest(reports); err == nil {
			prior = make(map[m.Path]m.FileResult, len(previous))
			for _, res := range previous {
				prior[res.Netlist.Origin] = res
			}
		}
	}

	manifest := make([]m.FileResult, 0, len(discovered))

	for _, file := range discovered {
		if res, ok := results[file.Origin]; ok {
			manifest = append(manifest, res)
			continue
		}

		if res, ok := prior[file.Origin]; ok {
			manifest = append(manifest, res)
		}
	}

	return manifest
}

// collectFailures aggregates per-file failures into a single error.
func collectFailures(results map[m.Path]m.FileResult) error {
	var failures []error

	for _, res := range results {
		if res.Report.Failure == "" {
			continue
		}

		failures = append(failures, fmt.Errorf("%s: %s", res.Netlist.Origin, res.Report.Failure))
	}

	if len(failures) == 0 {
		return nil
	}

	return fmt.Errorf("errors occurred during instrumentation: %w", errors.Join(failures...))
}
