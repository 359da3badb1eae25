// Package logwriter provides a process-wide, thread-safe logging facility
// that buffers rendered entries in memory and flushes them to a single
// append-only log file.
//
// Entries are rendered once, queued in insertion order, and drained to disk
// whenever the queue reaches the flush threshold or the writer is closed.
// A single mutex guards both the queue and the file handle, so concurrent
// callers never interleave bytes within a line and no enqueued entry is
// lost or duplicated.
//
// # Basic Usage
//
// Construct a writer explicitly and own its lifetime:
//
//	w, err := logwriter.New(logwriter.Config{Path: "/var/log/app.log"})
//	if err != nil {
//		return err
//	}
//	defer w.Close()
//
//	w.Info("service started")
//	w.Warnf("cache miss for {0}", key)
//	w.LogError("failed to connect", err)
//
// # Process-Wide Singleton
//
// Alternatively, configure the package-level instance once and use it from
// anywhere in the process. The instance is created lazily on first use and
// released by Shutdown. The log file path has no implicit default: using
// the package-level functions before Configure returns ErrNotConfigured:
//
//	logwriter.Configure(logwriter.Config{Path: "/var/log/app.log"})
//	defer logwriter.Shutdown()
//
//	logwriter.Info("service started")
//
// # Severities
//
// Five severities are exposed: Verbose, Debug, Info, Warn and Error.
// Verbose calls are accepted but deliberately never persisted: they are
// dropped before any formatting or queuing work. This mirrors the observed
// behavior of the system this package was extracted from; the discrepancy
// between Verbose being a first-class severity and never reaching the file
// is flagged in the package tests rather than silently changed.
//
// # Rendered Format
//
// Each entry is a single text line:
//
//	2026-01-02 15:04:05.000    Info | service started
//
// The timestamp layout and the argument formatting used by the templated
// methods are fixed and locale-independent, so output is deterministic
// regardless of the host locale. The file is plain UTF-8 text with one
// entry per line; no header, no rotation, no structured format.
//
// # Errors
//
// Open and write failures surface as wrapped I/O errors to the caller of
// the operation that triggered them; they are never retried and never
// logged recursively through this same facility. Template mismatches
// surface as *FormatError and leave the queue untouched. Closing an
// already-closed writer returns ErrClosed.
package logwriter

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// DefaultFlushThreshold is the queue length at which a writer drains its
// pending entries to disk.
const DefaultFlushThreshold = 100

// entryTimeLayout is the fixed, locale-independent layout for entry
// timestamps. Timestamps are rendered in local time.
const entryTimeLayout = "2006-01-02 15:04:05.000"

// lineSeparator terminates every line written to the log file.
const lineSeparator = "\n"

// ErrClosed is returned when an operation is invoked on a writer whose
// stream has already been closed.
var ErrClosed = errors.New("logwriter: writer is closed")

// Config holds the settings for a Writer.
type Config struct {
	// Path is the log file location. The file is created if absent and
	// always opened in append mode. Required.
	Path string

	// FlushThreshold is the number of pending entries that triggers an
	// automatic flush. Values below 1 fall back to DefaultFlushThreshold.
	FlushThreshold int

	// Echo is an optional secondary diagnostic sink. When non-nil, every
	// rendered entry is also written to it from a detached goroutine on a
	// best-effort basis: echo writes may race, lag, or fail without any
	// effect on the primary stream.
	Echo io.Writer
}

// Writer buffers rendered log entries and appends them to a single log
// file. All methods are safe for concurrent use. A Writer must be released
// with Close, which flushes remaining entries and closes the stream.
type Writer struct {
	mu        sync.Mutex
	file      *os.File
	pending   []string
	closed    bool
	threshold int
	echo      io.Writer

	// now is swappable in tests to make rendered timestamps deterministic.
	now func() time.Time
}

// New creates a Writer for the configured path, opening (or creating) the
// log file in append mode with read access left available to other
// processes. The open failure is not retried and propagates to the caller.
func New(cfg Config) (*Writer, error) {
	if cfg.Path == "" {
		return nil, errors.New("logwriter: log file path cannot be empty")
	}
	if cfg.FlushThreshold < 1 {
		cfg.FlushThreshold = DefaultFlushThreshold
	}

	file, err := openLogFile(cfg.Path)
	if err != nil {
		return nil, err
	}

	return &Writer{
		file:      file,
		pending:   make([]string, 0, cfg.FlushThreshold),
		threshold: cfg.FlushThreshold,
		echo:      cfg.Echo,
		now:       time.Now,
	}, nil
}

// openLogFile opens a log file for appending after validating the path and
// creating parent directories.
func openLogFile(path string) (*os.File, error) {
	cleanPath := filepath.Clean(path)

	dir := filepath.Dir(cleanPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("logwriter: failed to create log directory %s: %w", dir, err)
	}

	// Refuse symlinks and non-regular files so the append-only invariant
	// holds for the path the caller configured.
	if info, err := os.Lstat(cleanPath); err == nil {
		if info.Mode()&os.ModeSymlink != 0 {
			return nil, fmt.Errorf("logwriter: refusing to open symlink for log file: %s", cleanPath)
		}
		if !info.Mode().IsRegular() {
			return nil, fmt.Errorf("logwriter: log path must be a regular file: %s", cleanPath)
		}
	}

	file, err := os.OpenFile(cleanPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logwriter: failed to open log file %s: %w", cleanPath, err)
	}
	return file, nil
}

// Log renders one entry at the given severity and enqueues it. The entry is
// flushed to disk together with the rest of the queue once the flush
// threshold is reached. Verbose entries are dropped before any formatting
// or queuing work. A write failure from a threshold flush propagates to
// this call.
func (w *Writer) Log(severity Severity, message string) error {
	if severity == SeverityVerbose {
		return nil
	}
	return w.enqueue(w.render(severity, message))
}

// Logf renders the message template with the supplied arguments and logs
// the result at the given severity. Placeholders use indexed {0} syntax and
// fixed, locale-independent argument formatting; see the package
// documentation. A template/argument mismatch returns a *FormatError and
// enqueues nothing.
func (w *Writer) Logf(severity Severity, template string, args ...any) error {
	if severity == SeverityVerbose {
		return nil
	}
	message, err := renderTemplate(template, args)
	if err != nil {
		return err
	}
	return w.enqueue(w.render(severity, message))
}

// Verbose accepts a verbose message. Verbose entries are never persisted;
// the call is a deliberate no-op.
func (w *Writer) Verbose(message string) error { return w.Log(SeverityVerbose, message) }

// Debug logs a message at Debug severity.
func (w *Writer) Debug(message string) error { return w.Log(SeverityDebug, message) }

// Info logs a message at Info severity.
func (w *Writer) Info(message string) error { return w.Log(SeverityInfo, message) }

// Warn logs a message at Warn severity.
func (w *Writer) Warn(message string) error { return w.Log(SeverityWarn, message) }

// Error logs a message at Error severity.
func (w *Writer) Error(message string) error { return w.Log(SeverityError, message) }

// Verbosef accepts a templated verbose message. Verbose entries are never
// persisted; the call is a deliberate no-op.
func (w *Writer) Verbosef(template string, args ...any) error {
	return w.Logf(SeverityVerbose, template, args...)
}

// Debugf logs a templated message at Debug severity.
func (w *Writer) Debugf(template string, args ...any) error {
	return w.Logf(SeverityDebug, template, args...)
}

// Infof logs a templated message at Info severity.
func (w *Writer) Infof(template string, args ...any) error {
	return w.Logf(SeverityInfo, template, args...)
}

// Warnf logs a templated message at Warn severity.
func (w *Writer) Warnf(template string, args ...any) error {
	return w.Logf(SeverityWarn, template, args...)
}

// Errorf logs a templated message at Error severity.
func (w *Writer) Errorf(template string, args ...any) error {
	return w.Logf(SeverityError, template, args...)
}

// LogError logs err at Error severity. The entry body is the message,
// a line break, and the full rendering of err, including wrapped causes
// and a stack trace when the error carries one (errors created with
// github.com/pkg/errors render their stack through %+v). An empty message
// logs the error rendering alone; a nil err logs the message alone.
func (w *Writer) LogError(message string, err error) error {
	switch {
	case err == nil:
		return w.Log(SeverityError, message)
	case message == "":
		return w.Log(SeverityError, renderError(err))
	default:
		return w.Log(SeverityError, message+"\n"+renderError(err))
	}
}

// renderError produces the full description of an error, deferring to its
// verbose representation so wrapped causes and stack traces are included
// when available.
func renderError(err error) string {
	return fmt.Sprintf("%+v", err)
}

// render produces the single-line representation of an entry:
// timestamp, severity name left-padded to a fixed column, and message.
func (w *Writer) render(severity Severity, message string) string {
	return w.now().Format(entryTimeLayout) + " " + severity.column() + " | " + message
}

// enqueue appends a rendered line to the pending queue, echoes it to the
// diagnostic sink, and flushes the queue when the threshold is reached.
// The size check and the flush happen under the same lock acquisition as
// the append, so no other writer can interleave between them.
func (w *Writer) enqueue(line string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}

	w.pending = append(w.pending, line)
	w.echoLine(line)

	if len(w.pending) >= w.threshold {
		return w.flushLocked()
	}
	return nil
}

// echoLine forwards a rendered line to the diagnostic sink from a detached
// goroutine. Echo failures, including panics from the sink, are swallowed:
// the echo is observational and never load-bearing.
func (w *Writer) echoLine(line string) {
	if w.echo == nil {
		return
	}
	echo := w.echo
	go func() {
		defer func() { _ = recover() }()
		_, _ = io.WriteString(echo, line+lineSeparator)
	}()
}

// Flush drains all pending entries to the log file in FIFO order, each
// terminated by a line separator. On a write failure the queue is left
// intact and the error propagates to the caller.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}
	return w.flushLocked()
}

// flushLocked writes the pending queue to the file. Callers must hold mu.
// Entries are concatenated and written in a single call so a flush leaves
// the stream positioned exactly at the end of all flushed lines.
func (w *Writer) flushLocked() error {
	if len(w.pending) == 0 {
		return nil
	}

	var b strings.Builder
	for _, line := range w.pending {
		b.WriteString(line)
		b.WriteString(lineSeparator)
	}

	if _, err := w.file.WriteString(b.String()); err != nil {
		return fmt.Errorf("logwriter: failed to write log entries: %w", err)
	}

	w.pending = w.pending[:0]
	return nil
}

// Pending reports the number of rendered entries waiting to be flushed.
func (w *Writer) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

// Close flushes all pending entries, writes a trailing line terminator,
// and closes the stream. The writer is unusable afterwards; closing it a
// second time returns ErrClosed. Close is intentionally not idempotent.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}
	w.closed = true

	flushErr := w.flushLocked()
	if flushErr == nil {
		if _, err := w.file.WriteString(lineSeparator); err != nil {
			flushErr = fmt.Errorf("logwriter: failed to write trailing terminator: %w", err)
		}
	}

	if err := w.file.Close(); err != nil {
		if flushErr != nil {
			return flushErr
		}
		return fmt.Errorf("logwriter: failed to close log file: %w", err)
	}
	return flushErr
}

// Logger is the caller-facing surface of the facility, implemented by
// *Writer. It is useful for dependency injection and for substituting a
// test double in components that log.
type Logger interface {
	Log(severity Severity, message string) error
	Logf(severity Severity, template string, args ...any) error

	Verbose(message string) error
	Debug(message string) error
	Info(message string) error
	Warn(message string) error
	Error(message string) error

	Verbosef(template string, args ...any) error
	Debugf(template string, args ...any) error
	Infof(template string, args ...any) error
	Warnf(template string, args ...any) error
	Errorf(template string, args ...any) error

	LogError(message string, err error) error
}

var _ Logger = (*Writer)(nil)
