package logtail

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
)

// DefaultPoll is how often Follow checks a file for new data.
const DefaultPoll = 250 * time.Millisecond

// Snapshot returns at most maxLines complete lines from the end of the file
// at path, and the byte offset they end at, so a Follow started from that
// offset sees no gaps or duplicates. A non-positive maxLines returns every
// line.
func Snapshot(path string, maxLines int) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	var (
		ring   []string
		offset int64
		count  int
		idx    int
	)
	if maxLines > 0 {
		ring = make([]string, maxLines)
	}

	reader := bufio.NewReaderSize(file, 64*1024)
	for {
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, 0, fmt.Errorf("read log: %w", err)
		}
		// A trailing partial line is left for Follow.
		if !strings.HasSuffix(line, "\n") {
			break
		}
		offset += int64(len(line))
		text := trimEOL(line)
		if maxLines <= 0 {
			ring = append(ring, text)
			count++
			continue
		}
		ring[idx] = text
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}

	lines := make([]string, count)
	if maxLines > 0 && count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, offset, nil
}

// FollowOptions tune Follow.
type FollowOptions struct {
	Offset int64
	Poll   time.Duration
	Clock  clock.Clock
}

// Follow reads complete lines appended to path after opts.Offset and hands
// each to emit until ctx is done or emit returns false. When the file
// shrinks below the read position it is treated as truncated and read again
// from the start.
func Follow(ctx context.Context, path string, opts FollowOptions, emit func(string) bool) error {
	poll := opts.Poll
	if poll <= 0 {
		poll = DefaultPoll
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	pos, err := file.Seek(opts.Offset, io.SeekStart)
	if err != nil {
		return fmt.Errorf("seek log: %w", err)
	}

	reader := bufio.NewReader(file)
	var partial strings.Builder
	for {
		if ctx.Err() != nil {
			return nil
		}

		chunk, err := reader.ReadString('\n')
		pos += int64(len(chunk))
		if strings.HasSuffix(chunk, "\n") {
			partial.WriteString(chunk)
			line := trimEOL(partial.String())
			partial.Reset()
			if !emit(line) {
				return nil
			}
			continue
		}
		partial.WriteString(chunk)
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read log: %w", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-clk.After(poll):
		}

		info, err := file.Stat()
		if err != nil {
			continue
		}
		if info.Size() < pos {
			if _, err := file.Seek(0, io.SeekStart); err != nil {
				return fmt.Errorf("seek log: %w", err)
			}
			pos = 0
			partial.Reset()
			reader.Reset(file)
		}
	}
}

func trimEOL(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}
