package logwriter

import (
	"errors"
	"os"
	"sync"

	"github.com/geekxflood/logwriter/logconf"
)

// ErrNoInstance is returned by Shutdown when no live package-level instance
// exists, either because none was ever created or because Shutdown already
// released it.
var ErrNoInstance = errors.New("logwriter: no live instance")

// ErrNotConfigured is returned when the package-level instance is used
// before Configure (or ConfigureFrom) has supplied a log file path. The
// path is an external input that must be resolved before first use; there
// is no implicit fallback location.
var ErrNotConfigured = errors.New("logwriter: not configured; call Configure before first use")

var (
	// instance is the process-wide writer, created lazily on first use.
	instance *Writer
	// instanceCfg is the configuration used for lazy construction.
	instanceCfg Config
	// instanceMu guards both of the above.
	instanceMu sync.Mutex
)

// Configure sets the configuration used to construct the package-level
// instance. It must be called before the first use of the instance;
// changing the configuration while an instance is live only affects the
// instance created after the next Shutdown.
func Configure(cfg Config) {
	instanceMu.Lock()
	defer instanceMu.Unlock()
	instanceCfg = cfg
}

// ConfigureFrom applies validated settings from a logconf provider. The
// echo setting, when enabled, directs the diagnostic echo to stderr.
func ConfigureFrom(settings logconf.Settings) {
	cfg := Config{
		Path:           settings.Path,
		FlushThreshold: settings.FlushThreshold,
	}
	if settings.Echo {
		cfg.Echo = os.Stderr
	}
	Configure(cfg)
}

// Instance returns the package-level writer, creating it from the
// configured settings if no live instance exists. Consecutive calls without
// an intervening Shutdown return the same instance. Using the instance
// before any configuration was applied returns ErrNotConfigured; creation
// failures propagate to the caller and are not retried.
func Instance() (*Writer, error) {
	instanceMu.Lock()
	defer instanceMu.Unlock()
	return instanceLocked()
}

// instanceLocked lazily constructs the writer. Callers must hold instanceMu.
func instanceLocked() (*Writer, error) {
	if instance != nil {
		return instance, nil
	}
	if instanceCfg.Path == "" {
		return nil, ErrNotConfigured
	}
	w, err := New(instanceCfg)
	if err != nil {
		return nil, err
	}
	instance = w
	return instance, nil
}

// Shutdown flushes the package-level instance, writes its trailing line
// terminator, closes the stream, and clears the instance slot so that the
// next use constructs a fresh writer over the same path in append mode.
// Calling Shutdown with no live instance returns ErrNoInstance.
func Shutdown() error {
	instanceMu.Lock()
	defer instanceMu.Unlock()

	if instance == nil {
		return ErrNoInstance
	}
	err := instance.Close()
	instance = nil
	return err
}

// Package-level convenience functions. Each one lazily constructs the
// instance when none exists, matching the facility's lifecycle: any logging
// call is enough to bring the writer up.

// Log logs a message at the given severity using the package-level instance.
func Log(severity Severity, message string) error {
	w, err := Instance()
	if err != nil {
		return err
	}
	return w.Log(severity, message)
}

// Logf logs a templated message at the given severity using the
// package-level instance.
func Logf(severity Severity, template string, args ...any) error {
	w, err := Instance()
	if err != nil {
		return err
	}
	return w.Logf(severity, template, args...)
}

// Verbose accepts a verbose message using the package-level instance.
func Verbose(message string) error { return Log(SeverityVerbose, message) }

// Debug logs a debug message using the package-level instance.
func Debug(message string) error { return Log(SeverityDebug, message) }

// Info logs an informational message using the package-level instance.
func Info(message string) error { return Log(SeverityInfo, message) }

// Warn logs a warning message using the package-level instance.
func Warn(message string) error { return Log(SeverityWarn, message) }

// Error logs an error message using the package-level instance.
func Error(message string) error { return Log(SeverityError, message) }

// Verbosef accepts a templated verbose message using the package-level
// instance.
func Verbosef(template string, args ...any) error {
	return Logf(SeverityVerbose, template, args...)
}

// Debugf logs a templated debug message using the package-level instance.
func Debugf(template string, args ...any) error {
	return Logf(SeverityDebug, template, args...)
}

// Infof logs a templated informational message using the package-level
// instance.
func Infof(template string, args ...any) error {
	return Logf(SeverityInfo, template, args...)
}

// Warnf logs a templated warning message using the package-level instance.
func Warnf(template string, args ...any) error {
	return Logf(SeverityWarn, template, args...)
}

// Errorf logs a templated error message using the package-level instance.
func Errorf(template string, args ...any) error {
	return Logf(SeverityError, template, args...)
}

// LogError logs an error with an optional leading message using the
// package-level instance.
func LogError(message string, err error) error {
	w, instErr := Instance()
	if instErr != nil {
		return instErr
	}
	return w.LogError(message, err)
}
