package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// TailOptions controls one Tail call. A negative Cursor asks for the last
// Limit lines of the file; otherwise reading starts at the cursor byte
// offset.
type TailOptions struct {
	Cursor int64
	Limit  int
	Follow bool
	Wait   time.Duration
}

// TailResult carries the lines read and the cursor for the next call.
type TailResult struct {
	Lines  []string
	Cursor int64
}

// Tail reads log lines according to opts. A missing file is not an error;
// it yields no lines and a zero cursor. With Follow set and nothing new to
// read, Tail polls until Wait elapses or the context is canceled.
func Tail(ctx context.Context, path string, opts TailOptions) (TailResult, error) {
	if opts.Wait < 0 {
		opts.Wait = 0
	}

	if opts.Cursor < 0 {
		lines, cursor, err := tailEnd(path, opts.Limit)
		if err != nil {
			return TailResult{}, err
		}
		result := TailResult{Lines: lines, Cursor: cursor}
		if opts.Follow && opts.Wait > 0 && len(lines) == 0 {
			return pollForLines(ctx, path, cursor, opts.Wait)
		}
		return result, nil
	}

	lines, cursor, err := readAfter(path, opts.Cursor)
	if err != nil {
		return TailResult{}, err
	}
	result := TailResult{Lines: lines, Cursor: cursor}
	if opts.Follow && opts.Wait > 0 && len(lines) == 0 {
		return pollForLines(ctx, path, cursor, opts.Wait)
	}
	return result, nil
}

// tailEnd returns the last limit lines of the file and a cursor at its end.
func tailEnd(path string, limit int) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	end, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, 0, fmt.Errorf("seek log file: %w", err)
	}
	if limit <= 0 {
		return nil, end, nil
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, 0, fmt.Errorf("seek log file: %w", err)
	}

	ring := make([]string, limit)
	count := 0
	next := 0
	scanner := newLineScanner(file)
	for scanner.Scan() {
		ring[next] = scanner.Text()
		next = (next + 1) % limit
		if count < limit {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read log file: %w", err)
	}

	lines := make([]string, count)
	if count == limit {
		for i := 0; i < count; i++ {
			lines[i] = ring[(next+i)%limit]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, end, nil
}

// readAfter returns every complete line past the cursor and the new cursor.
// A cursor beyond the file (after truncation or rotation) snaps to the end.
func readAfter(path string, cursor int64) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, 0, fmt.Errorf("stat log file: %w", err)
	}
	if cursor > info.Size() {
		cursor = info.Size()
	}
	if _, err := file.Seek(cursor, io.SeekStart); err != nil {
		return nil, 0, fmt.Errorf("seek log file: %w", err)
	}

	var lines []string
	scanner := newLineScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read log file: %w", err)
	}
	next, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, 0, fmt.Errorf("determine log cursor: %w", err)
	}
	return lines, next, nil
}

func pollForLines(ctx context.Context, path string, cursor int64, wait time.Duration) (TailResult, error) {
	deadline := time.Now().Add(wait)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		lines, next, err := readAfter(path, cursor)
		if err != nil {
			return TailResult{Cursor: cursor}, err
		}
		if len(lines) > 0 || time.Now().After(deadline) {
			return TailResult{Lines: lines, Cursor: next}, nil
		}
		select {
		case <-ctx.Done():
			return TailResult{Cursor: next}, ctx.Err()
		case <-ticker.C:
		}
	}
}

func newLineScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return scanner
}
