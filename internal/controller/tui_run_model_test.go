package controller

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	m "github.com/tinwren/hdlcov/internal/model"
)

func TestFileRow_FilterValue(t *testing.T) {
	row := fileRow{file: "rtl/a.vnl", status: "failed", points: 0}
	got := row.FilterValue()
	if !strings.Contains(got, "rtl/a.vnl") || !strings.Contains(got, "failed") {
		t.Fatalf("FilterValue() = %q", got)
	}
}

func TestRunModel_HandleStartAndComplete(t *testing.T) {
	rm := newRunModel()
	rm = rm.handleStartFile(startFileMsg{origin: "rtl/a.vnl", worker: 1})
	if !rm.rendered {
		t.Fatalf("handleStartFile did not set rendered")
	}
	if rm.workerFiles[1] != "rtl/a.vnl" {
		t.Fatalf("worker tracking not set")
	}

	rm.totalFiles = 1
	rm = rm.handleCompletedFile(completedFileMsg{origin: "rtl/a.vnl", status: "ok", points: 3})
	if rm.completedCount != 1 || rm.progressPercent != 1 || !rm.finished {
		t.Fatalf("handleCompletedFile did not complete progress")
	}
	if len(rm.results) != 1 {
		t.Fatalf("results length = %d, want 1", len(rm.results))
	}
	if len(rm.resultsList.Items()) != 1 {
		t.Fatalf("results list items = %d, want 1", len(rm.resultsList.Items()))
	}

	// when totalFiles is zero, progress should not update
	rm.totalFiles = 0
	rm = rm.handleCompletedFile(completedFileMsg{origin: "rtl/b.vnl", status: "failed", failure: "boom"})
	if rm.progressPercent != 1 {
		t.Fatalf("progressPercent = %v, want 1", rm.progressPercent)
	}
}

func TestRunModel_HandleKeyMsgAndTick(t *testing.T) {
	rm := newRunModel()
	rm.finished = true
	rm.rendered = true
	rm.resultsList.SetItems([]list.Item{
		fileRow{file: "rtl/a.vnl", status: "ok", points: 2},
		fileRow{file: "rtl/b.vnl", status: "failed", points: 0},
	})

	rm.lastSelected = -1
	updated, _ := rm.handleKeyMsg(tea.KeyMsg{Type: tea.KeyDown})
	if updated.lastSelected == -1 {
		t.Fatalf("expected selection to update")
	}

	_, cmd := updated.handleKeyMsg(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatalf("expected quit cmd")
	}

	updated.animOffset = 0
	model, _ := updated.handleTickMsg(tickMsg(time.Now()))
	if model.animOffset != 1 {
		t.Fatalf("animOffset = %d, want 1", model.animOffset)
	}

	updated.finished = false
	expectedOffset := updated.animOffset
	model, _ = updated.handleTickMsg(tickMsg(time.Now()))
	if model.animOffset != expectedOffset {
		t.Fatalf("animOffset changed unexpectedly")
	}

	fresh := newRunModel()
	_, cmd = fresh.handleKeyMsg(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	if cmd != nil {
		t.Fatalf("expected nil cmd when not finished")
	}
}

func TestRunModel_WindowSizeAndViews(t *testing.T) {
	rm := newRunModel()
	rm = rm.handleWindowSize(tea.WindowSizeMsg{Width: 10, Height: 5})
	if rm.progressBar.Width != 20 {
		t.Fatalf("progress bar width = %d, want 20", rm.progressBar.Width)
	}

	rm = rm.handleWindowSize(tea.WindowSizeMsg{Width: 80, Height: 30})
	if rm.progressBar.Width != 72 {
		t.Fatalf("progress bar width = %d, want 72", rm.progressBar.Width)
	}

	if got := rm.View(); got != "Initializing instrumentation…\n" {
		t.Fatalf("View() before rendered = %q", got)
	}

	rm.rendered = true

	rm.threads = 1
	rm.totalFiles = 2
	rm.completedCount = 1
	progressView := rm.viewProgress()
	if !strings.Contains(progressView, "hdlcov Instrumentation") {
		t.Fatalf("viewProgress missing title")
	}

	rm.finished = true
	rm.results = []fileRow{{status: "ok", points: 2}, {status: "failed"}}
	resultsView := rm.viewResults()
	if !strings.Contains(resultsView, "hdlcov Results") {
		t.Fatalf("viewResults missing title")
	}

	box := rm.renderResultsBox("6")
	if !strings.Contains(box, "Status") {
		t.Fatalf("renderResultsBox missing headers")
	}

	if got := rm.summaryFailedCount(); got != 1 {
		t.Fatalf("summaryFailedCount = %d, want 1", got)
	}
	if got := rm.summaryPointTotal(); got != 2 {
		t.Fatalf("summaryPointTotal = %d, want 2", got)
	}

	// worker box with multiple workers and idle
	rm.threads = 2
	rm.workerFiles = map[int]string{0: "", 1: "rtl/path/to/long/netlist.vnl"}
	workerBox := rm.renderWorkerBox("6")
	if !strings.Contains(workerBox, "Worker") {
		t.Fatalf("renderWorkerBox missing worker label")
	}
	if !strings.Contains(workerBox, "idle") {
		t.Fatalf("renderWorkerBox missing idle slot")
	}

	// Single worker mode (no worker labels)
	rm.threads = 1
	rm.workerFiles = map[int]string{0: "netlist.vnl"}
	workerBox = rm.renderWorkerBox("6")
	if strings.Contains(workerBox, "Worker") {
		t.Fatalf("single worker mode should not have Worker label")
	}
}

func TestFileRowDelegateStyles(t *testing.T) {
	delegate := fileRowDelegate{}
	row := fileRow{file: "rtl/path/to/netlist.vnl", status: "custom", points: 1}

	_, _, _, display := delegate.stylesAndFile(row, false, 10)
	if len([]rune(display)) == 0 {
		t.Fatalf("expected display file for unselected")
	}

	_, _, _, display = delegate.stylesAndFile(row, true, 10)
	if len([]rune(display)) == 0 {
		t.Fatalf("expected display file for selected")
	}
}

func TestFileRowDelegate_Render(t *testing.T) {
	delegate := fileRowDelegate{}
	items := []list.Item{fileRow{file: "short.vnl", status: "ok", points: 4}}
	lm := list.New(items, delegate, 60, 5)
	var buf strings.Builder
	delegate.Render(&buf, lm, 0, items[0])
	if !strings.Contains(buf.String(), "short.vnl") {
		t.Fatalf("render output missing file")
	}

	// Render with bad item type should not panic
	buf.Reset()
	delegate.Render(&buf, lm, 0, struct{ list.Item }{})

	// Test delegate methods
	if delegate.Height() != 1 {
		t.Fatalf("Height() = %d, want 1", delegate.Height())
	}
	if delegate.Spacing() != 0 {
		t.Fatalf("Spacing() = %d, want 0", delegate.Spacing())
	}
	if cmd := delegate.Update(nil, &lm); cmd != nil {
		t.Fatalf("Update() returned cmd")
	}
}

func TestRunModel_UpdateSwitch(t *testing.T) {
	rm := newRunModel()
	if cmd := rm.Init(); cmd == nil {
		t.Fatalf("Init() returned nil cmd")
	}

	if view := rm.View(); !strings.Contains(view, "Initializing") {
		t.Fatalf("View before start should show initializing")
	}

	_, _ = rm.Update(tea.WindowSizeMsg{Width: 50, Height: 10})
	_, _ = rm.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	_, _ = rm.Update(tickMsg(time.Now()))
	model, _ := rm.Update(startFileMsg{origin: "rtl/a.vnl", worker: 0})
	rm = model.(runModel)

	if view := rm.View(); !strings.Contains(view, "hdlcov Instrumentation") {
		t.Fatalf("View after start should show instrumentation")
	}

	_, _ = rm.Update(completedFileMsg{origin: "rtl/a.vnl", status: "ok", points: 2})
	_, _ = rm.Update(concurrencyMsg{threads: 2})
	_, _ = rm.Update(upcomingMsg{count: 10})
	_, _ = rm.Update(pointsMsg{})

	model, _ = rm.Update(summaryMsg{files: 1, failed: 0, counts: m.PointCounts{Line: 2}})
	rm = model.(runModel)
	if !rm.finished || !rm.haveSummary {
		t.Fatalf("summaryMsg did not finish the run")
	}
	if rm.summaryFileCount() != 1 || rm.summaryPointTotal() != 2 || rm.summaryFailedCount() != 0 {
		t.Fatalf("summary totals not taken from message")
	}

	// Set filtering and test tick skip
	rm.resultsList.SetFilteringEnabled(true)
	_, _ = rm.resultsList.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	_, cmd := rm.handleTickMsg(tickMsg(time.Now()))
	_ = cmd
}

func TestRunModel_ParallelWorkerTracking(t *testing.T) {
	// Simulates parallel instrumentation with 4 workers and verifies that
	// each worker slot tracks its own netlist
	rm := newRunModel()
	rm.threads = 4
	rm.totalFiles = 4
	rm.workerFiles = make(map[int]string)

	rm = rm.handleStartFile(startFileMsg{origin: "rtl/one.vnl", worker: 0})
	rm = rm.handleStartFile(startFileMsg{origin: "rtl/two.vnl", worker: 1})
	rm = rm.handleStartFile(startFileMsg{origin: "rtl/three.vnl", worker: 2})
	rm = rm.handleStartFile(startFileMsg{origin: "rtl/four.vnl", worker: 3})

	for i, want := range []string{"rtl/one.vnl", "rtl/two.vnl", "rtl/three.vnl", "rtl/four.vnl"} {
		if rm.workerFiles[i] != want {
			t.Fatalf("worker %d file = %q, want %q", i, rm.workerFiles[i], want)
		}
	}

	// Completions arrive in a different order (2, 0, 3, 1)
	rm = rm.handleCompletedFile(completedFileMsg{origin: "rtl/three.vnl", status: "ok", points: 3})
	rm = rm.handleCompletedFile(completedFileMsg{origin: "rtl/one.vnl", status: "failed"})
	rm = rm.handleCompletedFile(completedFileMsg{origin: "rtl/four.vnl", status: "ok", points: 4})
	rm = rm.handleCompletedFile(completedFileMsg{origin: "rtl/two.vnl", status: "ok", points: 2})

	if len(rm.results) != 4 {
		t.Fatalf("results length = %d, want 4", len(rm.results))
	}

	// Results are recorded in completion order
	expectedFiles := []string{"rtl/three.vnl", "rtl/one.vnl", "rtl/four.vnl", "rtl/two.vnl"}
	for i, expected := range expectedFiles {
		if rm.results[i].file != expected {
			t.Fatalf("result[%d].file = %q, want %q", i, rm.results[i].file, expected)
		}
	}

	if rm.completedCount != 4 {
		t.Fatalf("completedCount = %d, want 4", rm.completedCount)
	}
	if !rm.finished {
		t.Fatal("finished should be true")
	}
	if rm.progressPercent != 1.0 {
		t.Fatalf("progressPercent = %v, want 1.0", rm.progressPercent)
	}
}
