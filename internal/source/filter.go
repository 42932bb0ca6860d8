package source

import (
	"slices"

	"github.com/sahilm/fuzzy"
)

// Filter returns the lines matching pattern, in file order. An empty pattern
// matches every line.
func Filter(pattern string, lines []Line) []Line {
	if pattern == "" {
		return lines
	}
	matches := fuzzy.Find(pattern, Texts(lines))
	slices.SortFunc(matches, func(a, b fuzzy.Match) int {
		return a.Index - b.Index
	})
	out := make([]Line, 0, len(matches))
	for _, m := range matches {
		out = append(out, lines[m.Index])
	}
	return out
}
