package workerpool

import (
	"context"
	"runtime"
)

// Pool bounds how many CPU-heavy jobs (spreadsheet decoding, large parses)
// run at once so they do not starve the request-handling goroutines.
type Pool struct {
	slots chan struct{}
}

func New(size int) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	return &Pool{slots: make(chan struct{}, size)}
}

// Run executes fn on the caller's goroutine once a slot is free. It returns
// the context error when the caller gives up before a slot opens.
func (p *Pool) Run(ctx context.Context, fn func() error) error {
	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-p.slots }()
	return fn()
}
