package coverage

import "testing"

func TestFormatLineRanges(t *testing.T) {
	tests := []struct {
		name     string
		lines    []int
		expected string
	}{
		{name: "empty", lines: nil, expected: ""},
		{name: "single line", lines: []int{8}, expected: "8"},
		{name: "contiguous run", lines: []int{3, 4, 5}, expected: "3-5"},
		{name: "runs and gaps", lines: []int{3, 4, 5, 7, 9, 10}, expected: "3-5,7,9-10"},
		{name: "all isolated", lines: []int{1, 3, 5}, expected: "1,3,5"},
		{name: "pair collapses to range", lines: []int{6, 7}, expected: "6-7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatLineRanges(tt.lines); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestLinesFirstLast(t *testing.T) {
	tests := []struct {
		name        string
		first, last int
		expected    string
	}{
		{name: "single line", first: 4, last: 4, expected: "4"},
		{name: "span", first: 4, last: 9, expected: "4-9"},
		{name: "unset", first: 0, last: 0, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := linesFirstLast(tt.first, tt.last); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}
