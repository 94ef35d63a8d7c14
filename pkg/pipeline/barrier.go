/*
Copyright © 2025 The convoy authors

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/

package pipeline

import (
	"context"
	"sync"
)

// Barrier is the fan-out join: manifest assembly must observe every
// per-architecture publish as successful before it runs. When the pipeline
// executes under an external scheduler the job-dependency graph plays this
// role; `convoy run` uses this in-process equivalent instead.
//
// A Barrier admits the dependent stage after exactly n Done calls, or
// refuses it with the first recorded failure. Completions past n and
// failures past the first are ignored.
type Barrier struct {
	mu        sync.Mutex
	remaining int
	err       error
	released  chan struct{}
	failed    chan struct{}
}

// NewBarrier creates a barrier waiting on n completion signals. A barrier
// on zero signals admits immediately.
func NewBarrier(n int) *Barrier {
	b := &Barrier{
		remaining: n,
		released:  make(chan struct{}),
		failed:    make(chan struct{}),
	}
	if n <= 0 {
		close(b.released)
	}
	return b
}

// Done signals one completed unit of work.
func (b *Barrier) Done() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.remaining <= 0 {
		return
	}
	b.remaining--
	if b.remaining == 0 {
		close(b.released)
	}
}

// Fail records a failure. Only the first failure is kept; it permanently
// refuses admission.
func (b *Barrier) Fail(err error) {
	if err == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.err == nil {
		b.err = err
		close(b.failed)
	}
}

// Wait blocks until every unit has signalled completion, a failure was
// recorded, or the context is cancelled. It returns nil only when all
// units completed.
func (b *Barrier) Wait(ctx context.Context) error {
	// A recorded failure wins over a concurrent release.
	select {
	case <-b.failed:
		b.mu.Lock()
		defer b.mu.Unlock()
		return b.err
	default:
	}

	select {
	case <-b.released:
		return nil
	case <-b.failed:
		b.mu.Lock()
		defer b.mu.Unlock()
		return b.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
