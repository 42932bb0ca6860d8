package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// DefaultPageSize is the number of lines read per page.
const DefaultPageSize = 200

// FileSource reads a file a page of lines at a time. Pages are requested when
// the list reports that its end was reached.
type FileSource struct {
	path     string
	pageSize int

	mu     sync.Mutex
	f      *os.File
	r      *bufio.Reader
	offset int64
	read   int
	done   bool
	follow bool
}

// OpenOption configures a [FileSource].
type OpenOption func(*FileSource)

// WithFollow holds back a last line that has no newline yet. It is left out
// of the offset, so a follower starting there delivers it once complete.
func WithFollow() OpenOption {
	return func(s *FileSource) {
		s.follow = true
	}
}

// Open opens path for paged reading.
func Open(path string, pageSize int, opts ...OpenOption) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open source: %w", err)
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	s := &FileSource{
		path:     path,
		pageSize: pageSize,
		f:        f,
		r:        bufio.NewReader(f),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Path returns the file path.
func (s *FileSource) Path() string {
	return s.path
}

// Next reads the next page. It returns io.EOF once the file is exhausted and
// no lines were read.
func (s *FileSource) Next(ctx context.Context) ([]Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return nil, io.EOF
	}

	lines := make([]Line, 0, s.pageSize)
	for len(lines) < s.pageSize {
		if err := ctx.Err(); err != nil {
			return lines, err
		}
		text, err := s.r.ReadString('\n')
		partial := errors.Is(err, io.EOF) && s.follow
		if text != "" && !partial && (err == nil || errors.Is(err, io.EOF)) {
			s.offset += int64(len(text))
			s.read++
			lines = append(lines, Line{Number: s.read, Text: clean(text)})
		}
		if errors.Is(err, io.EOF) {
			s.done = true
			break
		}
		if err != nil {
			return lines, fmt.Errorf("failed to read %s: %w", s.path, err)
		}
	}
	slog.Debug("Read source page", "path", s.path, "lines", len(lines), "total", s.read)
	if len(lines) == 0 {
		return nil, io.EOF
	}
	return lines, nil
}

// All reads every remaining page.
func (s *FileSource) All(ctx context.Context) ([]Line, error) {
	var all []Line
	for {
		page, err := s.Next(ctx)
		all = append(all, page...)
		if errors.Is(err, io.EOF) {
			return all, nil
		}
		if err != nil {
			return all, err
		}
	}
}

// Done reports whether the whole file was read.
func (s *FileSource) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Offset returns the number of bytes consumed and the number of lines read.
func (s *FileSource) Offset() (int64, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offset, s.read
}

func (s *FileSource) Close() error {
	return s.f.Close()
}
