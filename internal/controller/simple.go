package controller

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	m "github.com/tinwren/hdlcov/internal/model"
)

// SimpleUI implements UI using cobra Command's output stream.
type SimpleUI struct {
	cmd *cobra.Command
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// Start initializes the UI.
func (s *SimpleUI) Start(_ ...StartOption) error {
	return nil
}

// Close finalizes the UI.
func (s *SimpleUI) Close() {

}

// Wait returns immediately; plain text output has nothing to hold open.
func (s *SimpleUI) Wait() {

}

// DisplayPoints prints the per-file coverage point counts or error.
func (s *SimpleUI) DisplayPoints(points map[m.Path][]m.Point, err error) error {
	if err != nil {
		s.printf("point count error: %v\n", err)
		return err
	}

	pathsList := make([]string, 0, len(points))
	for path := range points {
		pathsList = append(pathsList, string(path))
	}

	sort.Strings(pathsList)

	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Path", "Line", "Branch", "Toggle", "User", "Total"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_CENTER,
		tablewriter.ALIGN_CENTER,
		tablewriter.ALIGN_CENTER,
		tablewriter.ALIGN_CENTER,
		tablewriter.ALIGN_CENTER,
	})

	var total m.PointCounts

	for _, pathStr := range pathsList {
		counts := m.CountPoints(points[m.Path(pathStr)])
		table.Append([]string{
			pathStr,
			fmt.Sprintf("%d", counts.Line),
			fmt.Sprintf("%d", counts.Branch),
			fmt.Sprintf("%d", counts.Toggle),
			fmt.Sprintf("%d", counts.User),
			fmt.Sprintf("%d", counts.Total()),
		})

		total.Merge(counts)
	}

	table.SetFooter([]string{
		fmt.Sprintf("Total Files %d", len(pathsList)),
		fmt.Sprintf("%d", total.Line),
		fmt.Sprintf("%d", total.Branch),
		fmt.Sprintf("%d", total.Toggle),
		fmt.Sprintf("%d", total.User),
		fmt.Sprintf("%d", total.Total()),
	})

	table.Render()
	s.printf("\n%s", tableBuffer.String())

	return nil
}

// DisplayConcurrencyInfo shows concurrency settings.
func (s *SimpleUI) DisplayConcurrencyInfo(threads int) {
	s.printf("Running with %d worker(s)\n", threads)
}

// DisplayUpcomingFilesInfo shows the number of netlists about to be processed.
func (s *SimpleUI) DisplayUpcomingFilesInfo(count int) {
	s.printf("Upcoming netlists: %d\n", count)
}

// DisplayStartingFileInfo shows the netlist a worker picked up.
func (s *SimpleUI) DisplayStartingFileInfo(origin m.Path, threadID int) {
	s.printf("Starting %s (worker %d)\n", origin, threadID)
}

// DisplayCompletedFileInfo shows the outcome for one netlist.
func (s *SimpleUI) DisplayCompletedFileInfo(origin m.Path, report m.Report) {
	if report.Failure != "" {
		s.printf("Completed %s -> failed: %s\n", origin, report.Failure)
		return
	}

	s.printf("Completed %s -> %d points\n", origin, report.Counts.Total())
}

// DisplaySummary prints the per-file instrumentation outcome table. Failed
// files appear as rows; the aggregate error is reported by the caller.
func (s *SimpleUI) DisplaySummary(results map[m.Path]m.FileResult, _ error) error {
	pathsList := make([]string, 0, len(results))
	for path := range results {
		pathsList = append(pathsList, string(path))
	}

	sort.Strings(pathsList)

	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Path", "Status", "Points"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_CENTER,
		tablewriter.ALIGN_CENTER,
	})

	totalPoints := 0
	failed := 0

	for _, pathStr := range pathsList {
		report := results[m.Path(pathStr)].Report

		status := "ok"
		if report.Failure != "" {
			status = "failed"
			failed++
		}

		table.Append([]string{pathStr, status, fmt.Sprintf("%d", report.Counts.Total())})

		totalPoints += report.Counts.Total()
	}

	table.SetFooter([]string{
		fmt.Sprintf("Total Files %d", len(pathsList)),
		fmt.Sprintf("Failed %d", failed),
		fmt.Sprintf("%d", totalPoints),
	})

	table.Render()
	s.printf("\n%s", tableBuffer.String())

	return nil
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}
