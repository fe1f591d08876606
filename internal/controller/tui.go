package controller

import (
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	m "github.com/tinwren/hdlcov/internal/model"
)

// TUI implements UI using Bubble Tea for interactive display.
type TUI struct {
	output io.Writer

	mu      sync.Mutex
	program *tea.Program
	done    chan struct{}
	started bool
}

// NewTUI creates a new TUI writing to output.
func NewTUI(output io.Writer) *TUI {
	return &TUI{output: output}
}

// Start builds the model for the requested mode and launches the program in
// the background. Progress arrives through the Display methods.
func (t *TUI) Start(options ...StartOption) error {
	cfg := &StartConfig{}
	for _, option := range options {
		option(cfg)
	}

	var model tea.Model

	switch cfg.mode {
	case ModeRun:
		model = newRunModel()
	default:
		model = newPointsModel()
	}

	return t.startWithModel(model)
}

func (t *TUI) startWithModel(model tea.Model) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.started {
		return nil
	}

	t.program = tea.NewProgram(model,
		tea.WithOutput(t.output),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	t.done = make(chan struct{})
	t.started = true

	go func(program *tea.Program, done chan struct{}) {
		_, _ = program.Run()
		close(done)
	}(t.program, t.done)

	return nil
}

func (t *TUI) ensureStarted() {
	t.mu.Lock()
	started := t.started
	t.mu.Unlock()

	if started {
		return
	}

	_ = t.Start()
}

func (t *TUI) send(msg tea.Msg) {
	t.mu.Lock()
	program := t.program
	t.mu.Unlock()

	if program == nil {
		return
	}

	program.Send(msg)
}

// Close quits the program and waits for the terminal to be restored.
// Safe to call multiple times and without a prior Start.
func (t *TUI) Close() {
	t.mu.Lock()
	program := t.program
	done := t.done
	t.program = nil
	t.mu.Unlock()

	if program == nil {
		return
	}

	program.Quit()

	if done != nil {
		<-done
	}
}

// Wait blocks until the user closes the UI.
func (t *TUI) Wait() {
	t.mu.Lock()
	done := t.done
	t.mu.Unlock()

	if done == nil {
		return
	}

	<-done
}

// DisplayPoints sends the per-file point counts to the points model.
func (t *TUI) DisplayPoints(points map[m.Path][]m.Point, err error) error {
	if err != nil {
		return err
	}

	t.ensureStarted()

	fileCounts := make(map[string]int, len(points))
	total := 0

	for path, filePoints := range points {
		fileCounts[string(path)] = len(filePoints)
		total += len(filePoints)
	}

	t.send(pointsMsg{
		total:      total,
		paths:      len(points),
		fileCounts: fileCounts,
	})

	return nil
}

// DisplayConcurrencyInfo shows concurrency settings.
func (t *TUI) DisplayConcurrencyInfo(threads int) {
	t.ensureStarted()
	t.send(concurrencyMsg{threads: threads})
}

// DisplayUpcomingFilesInfo shows the number of netlists about to be processed.
func (t *TUI) DisplayUpcomingFilesInfo(count int) {
	t.ensureStarted()
	t.send(upcomingMsg{count: count})
}

// DisplayStartingFileInfo shows the netlist a worker picked up.
func (t *TUI) DisplayStartingFileInfo(origin m.Path, threadID int) {
	t.ensureStarted()
	t.send(startFileMsg{origin: string(origin), worker: threadID})
}

// DisplayCompletedFileInfo shows the outcome for one netlist.
func (t *TUI) DisplayCompletedFileInfo(origin m.Path, report m.Report) {
	t.ensureStarted()

	status := "ok"
	if report.Failure != "" {
		status = "failed"
	}

	t.send(completedFileMsg{
		origin:  string(origin),
		status:  status,
		points:  report.Counts.Total(),
		failure: report.Failure,
	})
}

// DisplaySummary sends the aggregate totals to the run model. Failed files
// stay visible as rows; the aggregate error is reported by the caller after
// the UI is done.
func (t *TUI) DisplaySummary(results map[m.Path]m.FileResult, _ error) error {
	t.ensureStarted()

	var counts m.PointCounts

	failed := 0

	for _, result := range results {
		if result.Report.Failure != "" {
			failed++
			continue
		}

		counts.Merge(result.Report.Counts)
	}

	t.send(summaryMsg{
		files:  len(results),
		failed: failed,
		counts: counts,
	})

	return nil
}
