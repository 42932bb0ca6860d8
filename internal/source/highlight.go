package source

import (
	"bytes"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// DefaultTheme is the chroma style used when none is configured.
const DefaultTheme = "monokai"

// Highlighter styles single lines for the language detected from a file
// name. Lines are tokenised one at a time, so constructs spanning lines are
// highlighted per line.
type Highlighter struct {
	lexer     chroma.Lexer
	style     *chroma.Style
	formatter chroma.Formatter
}

// NewHighlighter returns a highlighter for filename, or nil when no lexer
// matches it.
func NewHighlighter(filename, theme string) *Highlighter {
	lexer := lexers.Match(filename)
	if lexer == nil {
		return nil
	}
	style := styles.Get(theme)
	if style == nil {
		style = styles.Fallback
	}
	formatter := formatters.Get("terminal16m")
	if formatter == nil {
		formatter = formatters.Fallback
	}
	return &Highlighter{
		lexer:     chroma.Coalesce(lexer),
		style:     style,
		formatter: formatter,
	}
}

// Language returns the lexer name.
func (h *Highlighter) Language() string {
	return h.lexer.Config().Name
}

// Line returns text with ANSI styles, or text unchanged when highlighting
// fails.
func (h *Highlighter) Line(text string) string {
	if h == nil || text == "" {
		return text
	}
	it, err := h.lexer.Tokenise(nil, text+"\n")
	if err != nil {
		return text
	}
	var buf bytes.Buffer
	if err := h.formatter.Format(&buf, h.style, it); err != nil {
		return text
	}
	return strings.TrimRight(buf.String(), "\n")
}

// Apply fills Styled for every line.
func (h *Highlighter) Apply(lines []Line) []Line {
	if h == nil {
		return lines
	}
	for i := range lines {
		lines[i].Styled = h.Line(lines[i].Text)
	}
	return lines
}
