// Package controller provides output adapters for displaying coverage
// instrumentation progress and results.
package controller

import (
	m "github.com/tinwren/hdlcov/internal/model"
)

// StartMode defines the mode of operation for the UI.
type StartMode int

// Available StartMode values.
const (
	ModePoints StartMode = iota
	ModeRun
)

// StartOption is a functional option for Start method.
type StartOption func(*StartConfig)

// StartConfig holds configuration for starting the UI.
type StartConfig struct {
	mode StartMode
}

// WithPointsMode sets the UI to coverage point listing mode.
func WithPointsMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModePoints
	}
}

// WithRunMode sets the UI to instrumentation run mode.
func WithRunMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeRun
	}
}

// UI defines the interface for displaying instrumentation progress and
// results. Implementations can use different output methods (simple text,
// TUI, etc).
type UI interface {
	Start(options ...StartOption) error
	Close()
	Wait() // Wait for UI to finish (user closes it)
	DisplayPoints(points map[m.Path][]m.Point, err error) error
	DisplayConcurrencyInfo(threads int)
	DisplayUpcomingFilesInfo(count int)
	DisplayStartingFileInfo(origin m.Path, threadID int)
	DisplayCompletedFileInfo(origin m.Path, report m.Report)
	DisplaySummary(results map[m.Path]m.FileResult, err error) error
}
