package gate

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// LinePrompter asks on Out and reads one line from In. Only "y" or "yes"
// confirm; anything else, including end of input, declines.
//
// A read cannot be interrupted, so when ctx ends first the read stays
// outstanding and the next Confirm on the same prompter takes its line.
// At most one reader goroutine exists per prompter.
type LinePrompter struct {
	In  io.Reader
	Out io.Writer

	mu      sync.Mutex
	reader  *bufio.Reader
	pending chan lineResult
}

type lineResult struct {
	line string
	err  error
}

func (p *LinePrompter) Confirm(ctx context.Context, prompt Prompt) (bool, error) {
	fmt.Fprintf(p.Out, "%s [y/N]: ", prompt.Message())

	select {
	case <-ctx.Done():
		fmt.Fprintln(p.Out)
		return false, ctx.Err()
	case r := <-p.readLine():
		p.mu.Lock()
		p.pending = nil
		p.mu.Unlock()
		if r.err != nil && r.err != io.EOF {
			return false, fmt.Errorf("failed to read answer: %w", r.err)
		}
		return IsYes(r.line), nil
	}
}

// readLine returns the outstanding read, starting one if there is none.
func (p *LinePrompter) readLine() <-chan lineResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending != nil {
		return p.pending
	}
	if p.reader == nil {
		p.reader = bufio.NewReader(p.In)
	}
	ch := make(chan lineResult, 1)
	p.pending = ch
	r := p.reader
	go func() {
		line, err := r.ReadString('\n')
		ch <- lineResult{line, err}
	}()
	return ch
}

// IsYes reports whether answer is an explicit confirmation.
func IsYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}
