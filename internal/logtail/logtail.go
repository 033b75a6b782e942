package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Options select which lines Read returns.
type Options struct {
	MaxLines int    // zero or less returns every matching line
	Contains string // case-insensitive filter, applied before MaxLines
}

// Read returns the last matching lines of the log file at path. A missing
// file yields no lines; mantle creates its log on first start.
func Read(path string, opts Options) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer func() { _ = file.Close() }()

	needle := strings.ToLower(strings.TrimSpace(opts.Contains))
	tail := newRing(opts.MaxLines)

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if needle != "" && !strings.Contains(strings.ToLower(line), needle) {
			continue
		}
		tail.push(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	return tail.lines(), nil
}

// ring keeps the last size lines, or every line when size is not positive.
type ring struct {
	size  int
	buf   []string
	next  int
	count int
}

func newRing(size int) *ring {
	r := &ring{size: size}
	if size > 0 {
		r.buf = make([]string, size)
	}
	return r
}

func (r *ring) push(line string) {
	if r.size <= 0 {
		r.buf = append(r.buf, line)
		r.count++
		return
	}
	r.buf[r.next] = line
	r.next = (r.next + 1) % r.size
	if r.count < r.size {
		r.count++
	}
}

func (r *ring) lines() []string {
	out := make([]string, r.count)
	if r.size <= 0 || r.count < r.size {
		copy(out, r.buf[:r.count])
		return out
	}
	for i := range out {
		out[i] = r.buf[(r.next+i)%r.size]
	}
	return out
}
