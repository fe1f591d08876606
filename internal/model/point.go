package model

import "strings"

// PointKind represents the coverage family a point belongs to.
type PointKind string

const (
	// PointLine counts executions of a statement range.
	PointLine PointKind = "line"
	// PointBranch counts executions of one arm of a conditional.
	PointBranch PointKind = "branch"
	// PointToggle counts transitions of a single signal bit.
	PointToggle PointKind = "toggle"
	// PointUser counts hits of a user-written cover statement.
	PointUser PointKind = "user"
	// PointUnknown is reported for pages outside the known namespaces.
	PointUnknown PointKind = "unknown"
)

// Point is the flattened, report-facing view of one coverage descriptor.
type Point struct {
	Module   string
	Filename string
	Lineno   int
	Page     string
	Comment  string
	LinesCov string
	Offset   int
	Hier     string
}

// Kind derives the coverage family from the descriptor's page namespace.
func (p Point) Kind() PointKind {
	switch {
	case strings.HasPrefix(p.Page, "v_line/"):
		return PointLine
	case strings.HasPrefix(p.Page, "v_branch/"):
		return PointBranch
	case strings.HasPrefix(p.Page, "v_toggle/"):
		return PointToggle
	case strings.HasPrefix(p.Page, "v_user/"):
		return PointUser
	}
	return PointUnknown
}

// PointCounts tallies points per coverage family.
type PointCounts struct {
	Line   int
	Branch int
	Toggle int
	User   int
}

// Add bumps the counter for one point's family.
func (c *PointCounts) Add(p Point) {
	switch p.Kind() {
	case PointLine:
		c.Line++
	case PointBranch:
		c.Branch++
	case PointToggle:
		c.Toggle++
	case PointUser:
		c.User++
	}
}

// Merge adds another tally into this one.
func (c *PointCounts) Merge(other PointCounts) {
	c.Line += other.Line
	c.Branch += other.Branch
	c.Toggle += other.Toggle
	c.User += other.User
}

// Total returns the number of points across all families.
func (c PointCounts) Total() int {
	return c.Line + c.Branch + c.Toggle + c.User
}

// CountPoints tallies a point list per family.
func CountPoints(points []Point) PointCounts {
	var counts PointCounts
	for _, p := range points {
		counts.Add(p)
	}
	return counts
}
