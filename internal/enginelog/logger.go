// Package enginelog is a single-producer-many-producer, single-consumer
// structured logger (component I): callers enqueue onto a buffered channel
// guarded by an atomic per-level filter, and a background goroutine
// formats and sinks entries to the console and/or a log file.
package enginelog

import (
	"fmt"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Entry is one queued log record.
type Entry struct {
	Level   Level
	Message string
	File    string
	Line    int
	Time    time.Time
}

// Logger is the async logger. Zero value is not usable; construct with New.
type Logger struct {
	level Level32

	consoleOutput     atomic.Bool
	fileOutput        atomic.Bool
	includeTimestamp  atomic.Bool
	includeSourceInfo atomic.Bool

	entries chan Entry
	done    chan struct{}
	wg      sync.WaitGroup

	pendingMu   sync.Mutex
	pendingCond *sync.Cond
	pending     int

	fileMu       sync.Mutex
	file         *os.File
	fileDegraded atomic.Bool

	entriesTotal *prometheus.CounterVec
	droppedTotal prometheus.Counter
}

// Level32 is an atomic Level.
type Level32 struct{ v atomic.Int32 }

func (l *Level32) Load() Level     { return Level(l.v.Load()) }
func (l *Level32) Store(lv Level)  { l.v.Store(int32(lv)) }

// New creates a logger filtering at level, with console output on, file
// output off, and a queue of bufferSize pending entries before enqueue
// starts dropping.
func New(level Level, bufferSize int) *Logger {
	if bufferSize <= 0 {
		bufferSize = 1024
	}
	l := &Logger{
		entries: make(chan Entry, bufferSize),
		done:    make(chan struct{}),
		entriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "voxelcore_log_entries_total",
			Help: "Log entries enqueued, by level.",
		}, []string{"level"}),
		droppedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "voxelcore_log_dropped_total",
			Help: "Log entries dropped because the queue was full.",
		}),
	}
	l.level.Store(level)
	l.consoleOutput.Store(true)
	l.includeTimestamp.Store(true)
	l.includeSourceInfo.Store(true)
	l.pendingCond = sync.NewCond(&l.pendingMu)

	l.wg.Add(1)
	go l.run()
	return l
}

// SetLevel changes the minimum enabled severity.
func (l *Logger) SetLevel(level Level) { l.level.Store(level) }

// Level returns the current minimum enabled severity.
func (l *Logger) Level() Level { return l.level.Load() }

// IsLevelEnabled reports whether level passes the current filter, without
// allocating or formatting anything — callers building expensive messages
// should guard with this first.
func (l *Logger) IsLevelEnabled(level Level) bool { return level <= l.level.Load() }

// SetConsoleOutput enables/disables writing to stdout/stderr.
func (l *Logger) SetConsoleOutput(enabled bool) { l.consoleOutput.Store(enabled) }

// SetIncludeTimestamp toggles the "HH:MM:SS.mmm" prefix.
func (l *Logger) SetIncludeTimestamp(enabled bool) { l.includeTimestamp.Store(enabled) }

// SetIncludeSourceInfo toggles the "(file:line)" suffix.
func (l *Logger) SetIncludeSourceInfo(enabled bool) { l.includeSourceInfo.Store(enabled) }

// AddLogFile opens path for append and enables file output. If a file sink
// was already open, it is closed first.
func (l *Logger) AddLogFile(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("enginelog: open log file: %w", err)
	}
	l.fileMu.Lock()
	if l.file != nil {
		l.file.Close()
	}
	l.file = f
	l.fileDegraded.Store(false)
	l.fileMu.Unlock()
	l.fileOutput.Store(true)
	return nil
}

// RegisterMetrics registers the entries/dropped counters with reg.
func (l *Logger) RegisterMetrics(reg prometheus.Registerer) error {
	if err := reg.Register(l.entriesTotal); err != nil {
		return err
	}
	return reg.Register(l.droppedTotal)
}

func (l *Logger) enqueue(e Entry) {
	select {
	case l.entries <- e:
		l.entriesTotal.WithLabelValues(e.Level.String()).Inc()
		l.pendingMu.Lock()
		l.pending++
		l.pendingMu.Unlock()
	default:
		l.droppedTotal.Inc()
	}
}

func (l *Logger) markProcessed() {
	l.pendingMu.Lock()
	l.pending--
	if l.pending == 0 {
		l.pendingCond.Broadcast()
	}
	l.pendingMu.Unlock()
}

func (l *Logger) log(level Level, format string, args ...any) {
	if !l.IsLevelEnabled(level) {
		return
	}
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		file, line = "unknown", 0
	}
	l.enqueue(Entry{
		Level:   level,
		Message: fmt.Sprintf(format, args...),
		File:    file,
		Line:    line,
		Time:    time.Now(),
	})
}

func (l *Logger) Fatalf(format string, args ...any) { l.log(Fatal, format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.log(Error, format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.log(Warn, format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.log(Info, format, args...) }
func (l *Logger) Debugf(format string, args ...any) { l.log(Debug, format, args...) }
func (l *Logger) Tracef(format string, args ...any) { l.log(Trace, format, args...) }

func (l *Logger) run() {
	defer l.wg.Done()
	for {
		select {
		case e, ok := <-l.entries:
			if !ok {
				return
			}
			l.process(e)
			l.markProcessed()
		case <-l.done:
			l.drain()
			return
		}
	}
}

func (l *Logger) drain() {
	for {
		select {
		case e, ok := <-l.entries:
			if !ok {
				return
			}
			l.process(e)
			l.markProcessed()
		default:
			return
		}
	}
}

func (l *Logger) process(e Entry) {
	formatted := l.format(e)

	if l.consoleOutput.Load() {
		out := os.Stdout
		if e.Level <= Error {
			out = os.Stderr
		}
		fmt.Fprintln(out, e.Level.ansiColor()+formatted+ansiReset)
	}

	if l.fileOutput.Load() {
		l.writeFile(formatted)
	}
}

func (l *Logger) format(e Entry) string {
	s := ""
	if l.includeTimestamp.Load() {
		s += e.Time.Format("15:04:05.000") + " "
	}
	s += "[" + e.Level.String() + "]"
	if l.includeSourceInfo.Load() {
		s += fmt.Sprintf(" (%s:%d)", e.File, e.Line)
	}
	s += " " + e.Message
	return s
}

func (l *Logger) writeFile(formatted string) {
	l.fileMu.Lock()
	defer l.fileMu.Unlock()

	if l.file == nil {
		return
	}
	if _, err := l.file.WriteString(formatted + "\n"); err != nil {
		l.fileOutput.Store(false)
		if !l.fileDegraded.Swap(true) {
			fmt.Fprintf(os.Stderr, "enginelog: file sink failed, degrading to console only: %v\n", err)
		}
	}
}

// Flush blocks until every entry enqueued so far has been processed,
// without stopping the background goroutine. Mirrors
// uploader.AsyncUploader.WaitForCompletion for component G.
func (l *Logger) Flush() {
	l.pendingMu.Lock()
	defer l.pendingMu.Unlock()
	for l.pending > 0 {
		l.pendingCond.Wait()
	}
}

// Shutdown stops the background goroutine after draining the queue, and
// closes any open log file.
func (l *Logger) Shutdown() {
	close(l.done)
	l.wg.Wait()

	l.fileMu.Lock()
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
	l.fileMu.Unlock()
}
