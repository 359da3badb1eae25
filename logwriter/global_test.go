package logwriter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/geekxflood/logwriter/logconf"
)

func TestInstanceReuse(t *testing.T) {
	Configure(Config{Path: filepath.Join(t.TempDir(), "singleton.log")})
	t.Cleanup(func() { _ = Shutdown() })

	first, err := Instance()
	if err != nil {
		t.Fatalf("Instance() failed: %v", err)
	}
	second, err := Instance()
	if err != nil {
		t.Fatalf("Instance() failed: %v", err)
	}
	if first != second {
		t.Error("consecutive Instance() calls returned different writers")
	}
}

func TestShutdownResetsInstance(t *testing.T) {
	path := filepath.Join(t.TempDir(), "singleton.log")
	Configure(Config{Path: path})
	t.Cleanup(func() { _ = Shutdown() })

	first, err := Instance()
	if err != nil {
		t.Fatalf("Instance() failed: %v", err)
	}
	if err := Info("before shutdown"); err != nil {
		t.Fatalf("Info() failed: %v", err)
	}
	if err := Shutdown(); err != nil {
		t.Fatalf("Shutdown() failed: %v", err)
	}

	// The next access constructs a fresh writer over the same path in
	// append mode, preserving prior file contents.
	second, err := Instance()
	if err != nil {
		t.Fatalf("Instance() after Shutdown failed: %v", err)
	}
	if first == second {
		t.Error("Instance() after Shutdown returned the closed writer")
	}
	if err := Info("after shutdown"); err != nil {
		t.Fatalf("Info() failed: %v", err)
	}
	if err := Shutdown(); err != nil {
		t.Fatalf("Shutdown() failed: %v", err)
	}

	content := readLog(t, path)
	before := strings.Index(content, "before shutdown")
	after := strings.Index(content, "after shutdown")
	if before < 0 || after < 0 || after < before {
		t.Errorf("expected both entries in order, got: %q", content)
	}
}

func TestShutdownWithoutInstance(t *testing.T) {
	Configure(Config{Path: filepath.Join(t.TempDir(), "unused.log")})

	if err := Shutdown(); !errors.Is(err, ErrNoInstance) {
		t.Errorf("Shutdown() without instance = %v, want ErrNoInstance", err)
	}
	// A second Shutdown without an intervening use is the same caller error.
	if err := Shutdown(); !errors.Is(err, ErrNoInstance) {
		t.Errorf("repeated Shutdown() = %v, want ErrNoInstance", err)
	}
}

func TestUnconfiguredUseFails(t *testing.T) {
	// Put the package-level state back to what a process that never
	// configured the facility would see.
	instanceMu.Lock()
	instance = nil
	instanceCfg = Config{}
	instanceMu.Unlock()

	if _, err := Instance(); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Instance() without Configure = %v, want ErrNotConfigured", err)
	}
	if err := Info("never persisted"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Info() without Configure = %v, want ErrNotConfigured", err)
	}
	// No fallback file may appear in the working directory.
	if _, err := os.Stat("logwriter.log"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("found a fallback log file, stat err = %v", err)
	}
}

func TestConfigureFromProvider(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "provided.log")
	confPath := filepath.Join(dir, "logging.yaml")

	content := fmt.Sprintf("logging:\n  path: %q\n  flush_threshold: 10\n", logPath)
	if err := os.WriteFile(confPath, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	provider, err := logconf.NewProvider(logconf.Options{ConfigPath: confPath})
	if err != nil {
		t.Fatalf("NewProvider() failed: %v", err)
	}
	t.Cleanup(func() { _ = provider.Close() })

	ConfigureFrom(provider.Settings())
	t.Cleanup(func() { _ = Shutdown() })

	w, err := Instance()
	if err != nil {
		t.Fatalf("Instance() failed: %v", err)
	}
	if w.threshold != 10 {
		t.Errorf("flush threshold = %d, want 10 from provider", w.threshold)
	}

	if err := Info("configured via provider"); err != nil {
		t.Fatalf("Info() failed: %v", err)
	}
	if err := Shutdown(); err != nil {
		t.Fatalf("Shutdown() failed: %v", err)
	}

	if !strings.Contains(readLog(t, logPath), "configured via provider") {
		t.Error("entry missing from provider-configured log file")
	}
}

func TestLoggingImplicitlyConstructs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "implicit.log")
	Configure(Config{Path: path})
	t.Cleanup(func() { _ = Shutdown() })

	// No explicit Instance() call: the logging call itself brings the
	// writer up.
	if err := Warnf("disk usage at {0}%", 93); err != nil {
		t.Fatalf("Warnf() failed: %v", err)
	}
	if err := Shutdown(); err != nil {
		t.Fatalf("Shutdown() failed: %v", err)
	}

	if !strings.Contains(readLog(t, path), "disk usage at 93%") {
		t.Error("implicitly constructed writer did not persist the entry")
	}
}
