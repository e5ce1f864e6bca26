package pool

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Markers used in the slot columns of each progress line.
const (
	markBegin = '┌'
	markLog   = '├'
	markEnd   = '└'
	markHold  = '│'
)

// Options configures a Pool.
type Options struct {
	// Total is the number of tasks expected, used as the denominator of
	// the progress fraction. Display only: Submit enforces no cap, and
	// submitting more tasks than Total is allowed.
	Total int

	// Concurrency is the maximum number of task bodies running at once,
	// and also the number of slot columns in the output.
	// Default: 20
	Concurrency int

	// Output is where progress lines are written.
	// Default: os.Stdout
	Output io.Writer
}

// Pool admits submitted task bodies through a concurrency gate and renders
// one progress line per lifecycle event.
type Pool struct {
	total       int
	concurrency int
	out         io.Writer
	sem         *semaphore.Weighted
	wg          sync.WaitGroup

	// mu serializes slot claims/releases, the completion counter, and
	// output rendering, so every line sees a consistent snapshot.
	mu        sync.Mutex
	completed int
	active    []bool // slot index -> occupied
	width     int    // digit width of total, keeps the fraction column fixed
}

// New creates a Pool with the given options.
func New(opts Options) *Pool {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 20
	}
	if opts.Total < 0 {
		opts.Total = 0
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Pool{
		total:       opts.Total,
		concurrency: opts.Concurrency,
		out:         opts.Output,
		sem:         semaphore.NewWeighted(int64(opts.Concurrency)),
		active:      make([]bool, opts.Concurrency),
		width:       len(strconv.Itoa(opts.Total)),
	}
}

// Submit schedules body to run as soon as the gate admits it. Submit never
// blocks the caller; the body runs on its own goroutine once fewer than
// Concurrency bodies are executing. If ctx is canceled before admission,
// the body never runs.
//
// The body reports its lifecycle through the provided Task. A body that
// returns after Beginf without calling Endf (including by panicking) has
// its slot released and its end line synthesized, so a misbehaving task
// cannot leak a slot or a gate admission.
func (p *Pool) Submit(ctx context.Context, body func(*Task)) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		if err := p.sem.Acquire(ctx, 1); err != nil {
			return
		}
		defer p.sem.Release(1)

		// Acquire can succeed on a done context when capacity is free.
		if ctx.Err() != nil {
			return
		}

		t := &Task{pool: p}
		defer t.abandon()
		body(t)
	}()
}

// Wait blocks until every submitted task body has returned.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Completed reports how many tasks have ended so far.
func (p *Pool) Completed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.completed
}

// Notef writes a line that belongs to no task. Columns of active slots
// still render, so the note stays aligned with the task lines around it.
func (p *Pool) Notef(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.renderLine(-1, 0, fmt.Sprintf(format, args...))
}

// beginTask claims the lowest free slot for t and renders its opening line.
func (p *Pool) beginTask(t *Task, msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t.slot = p.claimSlot()
	p.renderLine(t.slot, markBegin, msg)
}

// logTask renders an intermediate line for t.
func (p *Pool) logTask(t *Task, msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.renderLine(t.slot, markLog, msg)
}

// endTask counts t as completed, renders its closing line, and frees its
// slot, in that order, so the closing line still shows the slot occupied.
func (p *Pool) endTask(t *Task, msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completed++
	p.renderLine(t.slot, markEnd, msg)
	p.releaseSlot(t.slot)
}

// claimSlot returns the lowest slot index not currently occupied and marks
// it occupied. The gate admits at most Concurrency concurrent tasks and
// slots are drawn from exactly Concurrency indices, so a caller validly
// inside the gate always finds a free slot. Callers hold p.mu.
func (p *Pool) claimSlot() int {
	for i, occupied := range p.active {
		if !occupied {
			p.active[i] = true
			return i
		}
	}
	panic("pool: no free slot; gate and slot accounting out of sync")
}

// releaseSlot marks slot free. Releasing an already-free or out-of-range
// slot is a no-op. Callers hold p.mu.
func (p *Pool) releaseSlot(slot int) {
	if slot >= 0 && slot < len(p.active) {
		p.active[slot] = false
	}
}

// renderLine writes one progress line: the completed/total fraction padded
// to the digit width of total, one marker column per slot, a separating
// space, then the message. A slot of -1 renders no marker. Callers hold
// p.mu.
func (p *Pool) renderLine(slot int, marker rune, msg string) {
	var b strings.Builder
	fmt.Fprintf(&b, "[%*d/%*d]", p.width, p.completed, p.width, p.total)
	for i, occupied := range p.active {
		switch {
		case i == slot:
			b.WriteRune(marker)
		case occupied:
			b.WriteRune(markHold)
		default:
			b.WriteByte(' ')
		}
	}
	b.WriteByte(' ')
	b.WriteString(msg)
	b.WriteByte('\n')
	io.WriteString(p.out, b.String())
}
