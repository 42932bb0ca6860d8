// Package source feeds lines of a file to a virtualized list: a page at a
// time, as the file grows, highlighted and filtered.
package source

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

const gutterWidth = 7

// Line is a single line of a file. Number is 1-based.
type Line struct {
	Number int
	Text   string
	// Styled is Text with ANSI styles, when highlighted.
	Styled string
}

// ID implements list.Item.
func (l Line) ID() string {
	return strconv.Itoa(l.Number)
}

// Render implements list.Item. Lines longer than width wrap under the
// gutter, so a single line may take several rows.
func (l Line) Render(width int) string {
	body := l.Text
	if l.Styled != "" {
		body = l.Styled
	}
	gutter := fmt.Sprintf("%*d ", gutterWidth-1, l.Number)
	avail := max(width-gutterWidth, 1)
	wrapped := strings.Split(ansi.Wrap(body, avail, ""), "\n")
	indent := strings.Repeat(" ", gutterWidth)
	for i := range wrapped {
		if i == 0 {
			wrapped[i] = gutter + wrapped[i]
		} else {
			wrapped[i] = indent + wrapped[i]
		}
	}
	return strings.Join(wrapped, "\n")
}

// Texts returns the raw text of lines.
func Texts(lines []Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text
	}
	return out
}

func clean(text string) string {
	text = strings.TrimRight(text, "\r\n")
	return strings.ReplaceAll(text, "\t", "    ")
}
