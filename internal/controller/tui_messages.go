package controller

import (
	m "github.com/tinwren/hdlcov/internal/model"
)

// Message types.
type pointsMsg struct {
	total      int
	paths      int
	fileCounts map[string]int
}

type upcomingMsg struct {
	count int
}

type startFileMsg struct {
	origin string
	worker int
}

type completedFileMsg struct {
	origin  string
	status  string
	points  int
	failure string
}

type concurrencyMsg struct {
	threads int
}

type summaryMsg struct {
	files  int
	failed int
	counts m.PointCounts
}

// List item types.
type fileItem struct {
	path  string
	count int
}

func (f fileItem) FilterValue() string {
	return f.path
}
