package pool

import "fmt"

type taskState int

const (
	stateUnstarted taskState = iota
	stateActive
	stateDone
)

// Task is the handle an admitted task body uses to report its lifecycle.
// A body calls Beginf exactly once, Logf any number of times, then Endf
// exactly once. Calls out of that order panic: slots are a shared, reused
// resource, so misuse must fail fast rather than corrupt another task's
// row.
//
// A Task is used by a single body and never reused. It is not safe for
// concurrent use.
type Task struct {
	pool  *Pool
	slot  int
	state taskState
}

// Beginf claims a slot and renders the task's opening line.
func (t *Task) Beginf(format string, args ...any) {
	if t.state != stateUnstarted {
		panic("pool: Beginf called on a started task")
	}
	t.state = stateActive
	t.pool.beginTask(t, fmt.Sprintf(format, args...))
}

// Logf renders an intermediate line for the task.
func (t *Task) Logf(format string, args ...any) {
	if t.state != stateActive {
		panic("pool: Logf called outside Beginf/Endf")
	}
	t.pool.logTask(t, fmt.Sprintf(format, args...))
}

// Endf renders the task's closing line, frees its slot, and counts the
// task as completed. Failure is reported the same way as success: the
// message text is the only channel, the pool itself has no notion of a
// failed task.
func (t *Task) Endf(format string, args ...any) {
	if t.state != stateActive {
		panic("pool: Endf called outside Beginf/Endf")
	}
	t.state = stateDone
	t.pool.endTask(t, fmt.Sprintf(format, args...))
}

// abandon closes out a task whose body returned or panicked between Beginf
// and Endf. The slot must be released on every exit path or the pool would
// leak a row and a gate admission forever.
func (t *Task) abandon() {
	if t.state == stateActive {
		t.Endf("abandoned")
	}
}
