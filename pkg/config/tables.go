package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/polisai/polis-whois/pkg/whois"
)

const reloadDebounce = 100 * time.Millisecond

// LoadTables reads a table override file. YAML is tried first, then JSON.
func LoadTables(path string) (whois.TableOverrides, error) {
	var o whois.TableOverrides

	// #nosec G304 -- File path is configured at startup
	data, err := os.ReadFile(path)
	if err != nil {
		return o, fmt.Errorf("failed to read tables file: %w", err)
	}

	if err := yaml.Unmarshal(data, &o); err != nil {
		if jsonErr := json.Unmarshal(data, &o); jsonErr != nil {
			return whois.TableOverrides{}, fmt.Errorf("failed to parse tables file %s: %w", path, err)
		}
	}
	return o, nil
}

// BuildTables loads path and builds parser tables from it. An empty path yields
// the builtin tables.
func BuildTables(path string) (*whois.Tables, error) {
	if path == "" {
		return whois.DefaultTables(), nil
	}
	o, err := LoadTables(path)
	if err != nil {
		return nil, err
	}
	t, err := whois.NewTables(o)
	if err != nil {
		return nil, fmt.Errorf("tables file %s: %w", path, err)
	}
	return t, nil
}

// TablesSink receives rebuilt tables. *whois.Parser satisfies it.
type TablesSink interface {
	SetTables(*whois.Tables)
}

// ReloadFunc observes the outcome of every reload attempt.
type ReloadFunc func(err error)

// TablesWatcher rebuilds parser tables whenever the table file changes. A file
// that fails to load or build leaves the previous tables in place.
type TablesWatcher struct {
	path     string
	sink     TablesSink
	onReload ReloadFunc
	logger   zerolog.Logger
	watcher  *fsnotify.Watcher
	cancel   context.CancelFunc
	done     chan struct{}

	mu    sync.Mutex
	timer *time.Timer
}

// NewTablesWatcher loads path once into sink and starts watching it. The
// initial load must succeed.
func NewTablesWatcher(path string, sink TablesSink, onReload ReloadFunc, logger zerolog.Logger) (*TablesWatcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	tables, err := BuildTables(absPath)
	if err != nil {
		return nil, err
	}
	sink.SetTables(tables)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch directory: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &TablesWatcher{
		path:     absPath,
		sink:     sink,
		onReload: onReload,
		logger:   logger.With().Str("component", "tables").Str("path", absPath).Logger(),
		watcher:  watcher,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go w.watchLoop(ctx)

	return w, nil
}

// Close stops the watcher and cleans up resources.
func (w *TablesWatcher) Close() error {
	w.cancel()
	err := w.watcher.Close()
	<-w.done

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return err
}

func (w *TablesWatcher) watchLoop(ctx context.Context) {
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.schedule()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("tables watcher error")
		}
	}
}

func (w *TablesWatcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(reloadDebounce, w.reload)
}

func (w *TablesWatcher) reload() {
	tables, err := BuildTables(w.path)
	if err != nil {
		w.logger.Error().Err(err).Msg("tables reload failed, keeping previous tables")
	} else {
		w.sink.SetTables(tables)
		w.logger.Info().Msg("tables reloaded")
	}
	if w.onReload != nil {
		w.onReload(err)
	}
}
