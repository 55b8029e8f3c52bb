package threadpool

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// TaskPriority orders work in the global queue. Lower values run first.
type TaskPriority int

const (
	Critical TaskPriority = iota // immediate execution needed (e.g. chunks at the observer)
	High                         // chunks in view frustum
	Normal                       // chunks at medium distance
	Low                          // distant chunks, cleanup tasks
	Idle                         // only run when nothing else is pending
)

func (p TaskPriority) String() string {
	switch p {
	case Critical:
		return "critical"
	case High:
		return "high"
	case Normal:
		return "normal"
	case Low:
		return "low"
	case Idle:
		return "idle"
	default:
		return "unknown"
	}
}

// TaskID is a unique, monotonically increasing task identifier.
type TaskID uint64

// Task wraps a unit of work with scheduling metadata. seq is the submission
// order, used as the priority tie-break in place of a wall-clock timestamp.
type Task struct {
	id        TaskID
	diagID    uuid.UUID
	priority  TaskPriority
	name      string
	fn        func()
	cancelled *atomic.Bool
	seq       uint64
	submitted time.Time
}

// ID returns the task's unique identifier.
func (t *Task) ID() TaskID { return t.id }

// DiagID returns the task's diagnostic correlation id, for cross-referencing
// log lines with a specific submission.
func (t *Task) DiagID() uuid.UUID { return t.diagID }

// Name returns the task's diagnostic name.
func (t *Task) Name() string { return t.name }

// Priority returns the task's scheduling priority.
func (t *Task) Priority() TaskPriority { return t.priority }

// IsCancelled reports whether the task's cancellation flag is set.
func (t *Task) IsCancelled() bool { return t.cancelled.Load() }

func newTask(fn func(), priority TaskPriority, name string, id TaskID, seq uint64) *Task {
	return &Task{
		id:        id,
		diagID:    uuid.New(),
		priority:  priority,
		name:      name,
		fn:        fn,
		cancelled: &atomic.Bool{},
		seq:       seq,
		submitted: time.Now(),
	}
}

// less implements the (priority, submission order) comparison: lower
// priority enum value wins; ties broken by earlier submission.
func (t *Task) less(other *Task) bool {
	if t.priority != other.priority {
		return t.priority < other.priority
	}
	return t.seq < other.seq
}
