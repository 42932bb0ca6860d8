package source

import (
	"context"
	"fmt"
	"io"

	"github.com/nxadm/tail"
)

// Follower delivers lines appended to a file after a known offset.
type Follower struct {
	t    *tail.Tail
	next int
}

// Follow tails path from offset. The first line delivered is numbered
// after lines.
func Follow(path string, offset int64, lines int, poll bool) (*Follower, error) {
	t, err := tail.TailFile(path, tail.Config{
		Location:  &tail.SeekInfo{Offset: offset, Whence: io.SeekStart},
		ReOpen:    true,
		Follow:    true,
		MustExist: true,
		Poll:      poll,
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to follow %s: %w", path, err)
	}
	return &Follower{t: t, next: lines}, nil
}

// Wait blocks until the next line is appended, ctx is done or the follower
// is stopped.
func (f *Follower) Wait(ctx context.Context) (Line, error) {
	select {
	case <-ctx.Done():
		return Line{}, ctx.Err()
	case l, ok := <-f.t.Lines:
		if !ok {
			return Line{}, io.EOF
		}
		if l.Err != nil {
			return Line{}, fmt.Errorf("failed to follow %s: %w", f.t.Filename, l.Err)
		}
		f.next++
		return Line{Number: f.next, Text: clean(l.Text)}, nil
	}
}

// Stop stops following and releases the file watch.
func (f *Follower) Stop() error {
	err := f.t.Stop()
	f.t.Cleanup()
	return err
}
