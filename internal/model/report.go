package model

import "time"

// Report records the outcome of instrumenting a single netlist file.
type Report struct {
	Origin Path   // netlist file that was instrumented
	Output Path   // where the instrumented netlist was written
	Hash   string // content hash of the input archive
	Counts PointCounts
	When   time.Time
	// Failure carries the error message when instrumentation failed;
	// empty on success.
	Failure string
}

// FileResult holds the instrumentation results for a single netlist file.
type FileResult struct {
	Netlist NetlistFile
	Points  []Point
	Report  Report
}
