package terminal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
)

// Console owns the terminal: one goroutine reads lines, everything else
// writes through Printf. It doubles as the imagesource.Prompter.
type Console struct {
	in    io.Reader
	out   io.Writer
	lines chan string

	start sync.Once
	mu    sync.Mutex
}

func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{in: in, out: out, lines: make(chan string)}
}

// Lines yields input lines and is closed at end of input.
func (c *Console) Lines() <-chan string {
	c.start.Do(func() {
		go func() {
			defer close(c.lines)
			scanner := bufio.NewScanner(c.in)
			for scanner.Scan() {
				c.lines <- scanner.Text()
			}
		}()
	})
	return c.lines
}

func (c *Console) Printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

func (c *Console) Prompt(ctx context.Context, question string) (string, error) {
	c.Printf("%s", question)
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-c.Lines():
		if !ok {
			return "", io.EOF
		}
		return line, nil
	}
}
