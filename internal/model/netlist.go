// Package model defines the data structures shared by the coverage
// instrumentation pipeline.
package model

// Path represents a file system path.
type Path string

// NetlistFile identifies one serialized netlist on disk.
type NetlistFile struct {
	Hash   string
	Origin Path
	// Modules lists the elaborated module names the archive contains,
	// in declaration order.
	Modules []string
}
