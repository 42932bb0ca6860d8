package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLines(t *testing.T, n int, trailingNewline bool) string {
	t.Helper()
	var sb strings.Builder
	for i := range n {
		fmt.Fprintf(&sb, "line %d", i+1)
		if i < n-1 || trailingNewline {
			sb.WriteString("\n")
		}
	}
	path := filepath.Join(t.TempDir(), "input.txt")
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o644))
	return path
}

func TestFileSourcePaging(t *testing.T) {
	t.Parallel()

	path := writeLines(t, 25, true)
	src, err := Open(path, 10)
	require.NoError(t, err)
	t.Cleanup(func() { _ = src.Close() })

	ctx := context.Background()
	page, err := src.Next(ctx)
	require.NoError(t, err)
	require.Len(t, page, 10)
	assert.Equal(t, Line{Number: 1, Text: "line 1"}, page[0])
	assert.False(t, src.Done())

	page, err = src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 11, page[0].Number)

	page, err = src.Next(ctx)
	require.NoError(t, err)
	require.Len(t, page, 5)
	assert.Equal(t, "line 25", page[4].Text)
	assert.True(t, src.Done())

	_, err = src.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)

	offset, read := src.Offset()
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, info.Size(), offset)
	assert.Equal(t, 25, read)
}

func TestFileSourceLastLineWithoutNewline(t *testing.T) {
	t.Parallel()

	src, err := Open(writeLines(t, 3, false), 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = src.Close() })

	all, err := src.All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"line 1", "line 2", "line 3"}, Texts(all))
}

func TestFileSourceCleansLines(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tabs.txt")
	require.NoError(t, os.WriteFile(path, []byte("a\tb\r\n"), 0o644))
	src, err := Open(path, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = src.Close() })

	all, err := src.All(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "a    b", all[0].Text)
}

func TestOpenMissing(t *testing.T) {
	t.Parallel()

	_, err := Open(filepath.Join(t.TempDir(), "nope"), 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLineRender(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "     3 hello", Line{Number: 3, Text: "hello"}.Render(20))
	assert.Equal(t, "3", Line{Number: 3}.ID())

	wrapped := Line{Number: 1, Text: "abcdefghij"}.Render(12)
	assert.Equal(t, "     1 abcde\n       fghij", wrapped)

	styled := Line{Number: 2, Text: "x", Styled: "\x1b[1mx\x1b[m"}.Render(20)
	assert.Equal(t, "     2 x", ansi.Strip(styled))
}

func TestFilter(t *testing.T) {
	t.Parallel()

	lines := []Line{
		{Number: 1, Text: "func main() {"},
		{Number: 2, Text: "\tfmt.Println()"},
		{Number: 3, Text: "}"},
		{Number: 4, Text: "func helper() {}"},
	}
	got := Filter("func", lines)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Number)
	assert.Equal(t, 4, got[1].Number)

	assert.Equal(t, lines, Filter("", lines))
	assert.Empty(t, Filter("zzz", lines))
}

func TestHighlighter(t *testing.T) {
	t.Parallel()

	h := NewHighlighter("main.go", DefaultTheme)
	require.NotNil(t, h)
	assert.Equal(t, "Go", h.Language())

	out := h.Line("package main")
	assert.Contains(t, out, "\x1b[")
	assert.Equal(t, "package main", ansi.Strip(out))
	assert.Empty(t, h.Line(""))

	lines := h.Apply([]Line{{Number: 1, Text: "func f() {}"}})
	assert.Equal(t, "func f() {}", ansi.Strip(lines[0].Styled))

	assert.Nil(t, NewHighlighter("no-such-language.zzzz", DefaultTheme))
	var none *Highlighter
	assert.Equal(t, "text", none.Line("text"))
}

func TestFollow(t *testing.T) {
	t.Parallel()

	path := writeLines(t, 2, true)
	src, err := Open(path, 10)
	require.NoError(t, err)
	t.Cleanup(func() { _ = src.Close() })
	_, err = src.All(context.Background())
	require.NoError(t, err)

	offset, read := src.Offset()
	f, err := Follow(path, offset, read, true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Stop() })

	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = file.WriteString("line 3\n")
	require.NoError(t, err)
	require.NoError(t, file.Close())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	line, err := f.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, Line{Number: 3, Text: "line 3"}, line)
}

func TestFollowCompletesPartialLine(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "partial.txt")
	require.NoError(t, os.WriteFile(path, []byte("line 1\nline 2\npart"), 0o644))
	src, err := Open(path, 10, WithFollow())
	require.NoError(t, err)
	t.Cleanup(func() { _ = src.Close() })

	all, err := src.All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"line 1", "line 2"}, Texts(all))
	assert.True(t, src.Done())

	offset, read := src.Offset()
	assert.Equal(t, int64(len("line 1\nline 2\n")), offset)
	assert.Equal(t, 2, read)

	f, err := Follow(path, offset, read, true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Stop() })

	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = file.WriteString("ial\n")
	require.NoError(t, err)
	require.NoError(t, file.Close())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	line, err := f.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, Line{Number: 3, Text: "partial"}, line)
}

func TestFollowCanceled(t *testing.T) {
	t.Parallel()

	path := writeLines(t, 1, true)
	f, err := Follow(path, 0, 0, true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Stop() })

	line, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, line.Number)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
