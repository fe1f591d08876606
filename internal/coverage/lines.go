package coverage

import (
	"sort"
	"strconv"

	"github.com/tinwren/hdlcov/internal/ast"
)

// lineTrack records the node's source lines against the current handle.
// Only lines from the scope's home file are tracked; lines pulled in
// from an include file would be meaningless in the home file's ranges.
func (in *instrumenter) lineTrack(n ast.Node) {
	if !in.lineCoverageOn(&in.state, n) {
		return
	}
	if in.state.node == nil || in.state.node.Loc().Filename != n.Loc().Filename {
		return
	}
	set := in.handleLines[in.state.handle]
	if set == nil {
		set = make(map[int]struct{})
		in.handleLines[in.state.handle] = set
	}
	for line := n.Loc().FirstLine; line <= n.Loc().LastLine; line++ {
		set[line] = struct{}{}
	}
}

// linesCov returns the scope's tracked lines as a comma separated list
// of ranges.
func (in *instrumenter) linesCov(s checkState) string {
	set := in.handleLines[s.handle]
	lines := make([]int, 0, len(set))
	for line := range set {
		lines = append(lines, line)
	}
	sort.Ints(lines)
	return formatLineRanges(lines)
}

func linesFirstLast(first, last int) string {
	switch {
	case first != 0 && first == last:
		return strconv.Itoa(first)
	case first != 0 && last != 0:
		return strconv.Itoa(first) + "-" + strconv.Itoa(last)
	default:
		return ""
	}
}

// formatLineRanges coalesces ascending line numbers into "a", "a-b",
// comma separated runs.
func formatLineRanges(lines []int) string {
	var out string
	first := 0
	last := 0
	for _, line := range lines {
		switch {
		case first == 0:
			first, last = line, line
		case line == last+1:
			last++
		default:
			if out != "" {
				out += ","
			}
			out += linesFirstLast(first, last)
			first, last = line, line
		}
	}
	if first != 0 {
		if out != "" {
			out += ","
		}
		out += linesFirstLast(first, last)
	}
	return out
}
