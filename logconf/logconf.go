// Package logconf resolves the log writer's file location and settings from
// a configuration file, using CUE (cuelang.org) for schema validation.
//
// The package ships its own schema: unlike a general-purpose configuration
// manager it validates exactly one document shape, the settings block of the
// logwriter facility. Supported sources are YAML and JSON files with
// environment variable substitution ($VAR, ${VAR}, ${VAR:-default}).
//
// # Basic Usage
//
// Load and validate the settings once, before the writer's first use:
//
//	provider, err := logconf.NewProvider(logconf.Options{
//		ConfigPath: "/etc/app/logging.yaml",
//	})
//	if err != nil {
//		return err
//	}
//	defer provider.Close()
//
//	settings := provider.Settings()
//	// settings.Path, settings.FlushThreshold, settings.Echo
//
// # Configuration File
//
// The expected document is a single "logging" block:
//
//	logging:
//	  path: "${LOG_DIR:-/var/log}/app.log"
//	  flush_threshold: 100
//	  echo: false
//
// Only path is required; flush_threshold defaults to 100 and echo to false.
//
// # Hot Reload
//
// With hot reload enabled, the provider watches the configuration file and
// re-resolves the settings when it changes. A reload that fails validation
// keeps the previous settings and reports the error to OnChange callbacks:
//
//	provider, err := logconf.NewProvider(logconf.Options{
//		ConfigPath:      "/etc/app/logging.yaml",
//		EnableHotReload: true,
//	})
//	if err != nil {
//		return err
//	}
//	defer provider.Close()
//
//	provider.OnChange(func(err error) {
//		if err != nil {
//			// reload failed, previous settings still in effect
//		}
//	})
package logconf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/encoding/yaml"
	"github.com/fsnotify/fsnotify"
)

// Schema is the CUE schema every configuration document is validated
// against. The flush threshold must be positive; path is required.
const Schema = `
logging: {
	path:            string
	flush_threshold: int & >0 | *100
	echo:            bool | *false
}
`

// Settings holds the validated log writer settings resolved from a
// configuration file.
type Settings struct {
	// Path is the log file location.
	Path string `json:"path"`

	// FlushThreshold is the pending-entry count that triggers a flush.
	FlushThreshold int `json:"flush_threshold"`

	// Echo enables the secondary diagnostic echo of rendered entries.
	Echo bool `json:"echo"`
}

// Options configures a Provider.
type Options struct {
	// ConfigPath is the configuration file to resolve settings from.
	// YAML (.yaml, .yml) and JSON (.json) are supported. Required.
	ConfigPath string

	// EnableHotReload watches ConfigPath and re-resolves settings when the
	// file changes.
	EnableHotReload bool

	// HotReloadContext controls the watcher lifecycle. A nil context falls
	// back to context.Background().
	HotReloadContext context.Context
}

// Provider gives access to validated settings with optional hot reload.
type Provider interface {
	// Settings returns the currently resolved settings.
	Settings() Settings

	// Reload re-reads and re-validates the configuration file. On failure
	// the previously resolved settings remain in effect.
	Reload() error

	// OnChange registers a callback invoked after every watched reload
	// attempt, successful or not. The callback receives the reload error,
	// nil on success.
	OnChange(callback func(error))

	// Close stops the watcher, if any, and releases resources.
	Close() error
}

// provider implements Provider.
type provider struct {
	configPath string
	schema     cue.Value
	cuectx     *cue.Context

	mu       sync.RWMutex
	settings Settings

	watcher   *fsnotify.Watcher
	cancel    context.CancelFunc
	closeMu   sync.Mutex
	callbacks []func(error)
	cbMu      sync.RWMutex
}

// NewProvider loads, validates, and decodes the configuration file, then
// optionally starts watching it for changes.
func NewProvider(opts Options) (Provider, error) {
	if opts.ConfigPath == "" {
		return nil, errors.New("logconf: config path is required")
	}

	cuectx := cuecontext.New()
	schema := cuectx.CompileString(Schema, cue.Filename("logwriter-schema"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("logconf: failed to compile schema: %w", err)
	}

	p := &provider{
		configPath: opts.ConfigPath,
		schema:     schema,
		cuectx:     cuectx,
	}

	if err := p.Reload(); err != nil {
		return nil, err
	}

	if opts.EnableHotReload {
		if err := p.startWatch(opts.HotReloadContext); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// Settings returns the currently resolved settings.
func (p *provider) Settings() Settings {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.settings
}

// Reload re-reads and re-validates the configuration file.
func (p *provider) Reload() error {
	settings, err := p.resolve()
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.settings = settings
	p.mu.Unlock()
	return nil
}

// resolve reads the configuration file, applies environment variable
// substitution, validates the document against the schema, and decodes the
// logging block.
func (p *provider) resolve() (Settings, error) {
	content, err := readConfigFile(p.configPath)
	if err != nil {
		return Settings{}, err
	}

	content = expandEnvironmentVariables(content)

	value, err := p.parseConfig(content)
	if err != nil {
		return Settings{}, err
	}

	unified := p.schema.Unify(value)
	if err := unified.Err(); err != nil {
		return Settings{}, fmt.Errorf("logconf: configuration does not match schema: %w", err)
	}
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return Settings{}, fmt.Errorf("logconf: configuration validation failed: %w", err)
	}

	var settings Settings
	if err := unified.LookupPath(cue.ParsePath("logging")).Decode(&settings); err != nil {
		return Settings{}, fmt.Errorf("logconf: failed to decode settings: %w", err)
	}
	return settings, nil
}

// parseConfig builds a CUE value from YAML or JSON content, selected by the
// file extension.
func (p *provider) parseConfig(content []byte) (cue.Value, error) {
	ext := strings.ToLower(filepath.Ext(p.configPath))

	switch ext {
	case ".yaml", ".yml":
		astFile, err := yaml.Extract(p.configPath, content)
		if err != nil {
			return cue.Value{}, fmt.Errorf("logconf: failed to extract YAML config: %w", err)
		}
		value := p.cuectx.BuildFile(astFile)
		if err := value.Err(); err != nil {
			return cue.Value{}, fmt.Errorf("logconf: failed to build YAML config: %w", err)
		}
		return value, nil
	case ".json":
		// CUE handles JSON natively.
		value := p.cuectx.CompileBytes(content, cue.Filename(p.configPath))
		if err := value.Err(); err != nil {
			return cue.Value{}, fmt.Errorf("logconf: failed to parse JSON config: %w", err)
		}
		return value, nil
	default:
		return cue.Value{}, fmt.Errorf("logconf: unsupported config file format: %s (supported: .yaml, .yml, .json)", ext)
	}
}

// OnChange registers a callback for watched reload attempts.
func (p *provider) OnChange(callback func(error)) {
	p.cbMu.Lock()
	defer p.cbMu.Unlock()
	p.callbacks = append(p.callbacks, callback)
}

// notify invokes all registered callbacks with the reload outcome.
func (p *provider) notify(err error) {
	p.cbMu.RLock()
	callbacks := make([]func(error), len(p.callbacks))
	copy(callbacks, p.callbacks)
	p.cbMu.RUnlock()

	for _, callback := range callbacks {
		if callback != nil {
			callback(err)
		}
	}
}

// startWatch begins watching the configuration file for changes.
func (p *provider) startWatch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("logconf: failed to create file watcher: %w", err)
	}
	if err := watcher.Add(p.configPath); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("logconf: failed to watch config file %s: %w", p.configPath, err)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)

	p.watcher = watcher
	p.cancel = cancel

	go p.watchFiles(ctx, watcher)
	return nil
}

// watchFiles reacts to write events on the configuration file. The watcher
// is passed in rather than read through the provider so a concurrent Close
// cannot pull it out from under the loop; a closed watcher ends the loop
// through its closed channels.
func (p *provider) watchFiles(ctx context.Context, watcher *fsnotify.Watcher) {
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Write == fsnotify.Write {
				// Small delay so the write is complete before re-reading.
				time.Sleep(100 * time.Millisecond)
				p.notify(p.Reload())
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			p.notify(fmt.Errorf("logconf: file watcher error: %w", err))

		case <-ctx.Done():
			return
		}
	}
}

// Close stops the watcher and releases resources. It is safe to call while
// a watched reload is in flight and safe to call more than once.
func (p *provider) Close() error {
	p.closeMu.Lock()
	defer p.closeMu.Unlock()

	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	if p.watcher != nil {
		watcher := p.watcher
		p.watcher = nil
		if err := watcher.Close(); err != nil {
			return fmt.Errorf("logconf: failed to close file watcher: %w", err)
		}
	}
	return nil
}

// readConfigFile reads the configuration file after basic path validation.
func readConfigFile(path string) ([]byte, error) {
	cleanPath := filepath.Clean(path)

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("logconf: failed to read config file %s: %w", cleanPath, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("logconf: config path must be a regular file: %s", cleanPath)
	}

	content, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("logconf: failed to read config file %s: %w", cleanPath, err)
	}

	if strings.TrimSpace(string(content)) == "" {
		return nil, fmt.Errorf("logconf: configuration file %s is empty", cleanPath)
	}
	return content, nil
}

// expandEnvironmentVariables substitutes environment variable references in
// the config content. ${VAR:-default} patterns are handled first, then
// standard $VAR and ${VAR} patterns via os.ExpandEnv.
func expandEnvironmentVariables(content []byte) []byte {
	expanded := expandWithDefaults(string(content))
	return []byte(os.ExpandEnv(expanded))
}

// expandWithDefaults handles the ${VAR:-default} syntax. Expressions without
// a default are left for os.ExpandEnv.
func expandWithDefaults(content string) string {
	var b strings.Builder
	b.Grow(len(content))

	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		expr := content[start+2 : end]
		sep := strings.Index(expr, ":-")
		if sep == -1 {
			// No default value; keep the expression for os.ExpandEnv.
			b.WriteString(content[:end+1])
			content = content[end+1:]
			continue
		}

		value := os.Getenv(expr[:sep])
		if value == "" {
			value = expr[sep+2:]
		}
		b.WriteString(content[:start])
		b.WriteString(value)
		content = content[end+1:]
	}

	b.WriteString(content)
	return b.String()
}
