package rule

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// RuleFile is the top-level YAML structure of a rule definition file.
type RuleFile struct {
	Version string           `yaml:"version"`
	Rules   []AutomationRule `yaml:"rules"`
}

// FileStore is a Store backed by a YAML file. Rules are cached in
// memory and the cache is invalidated whenever the file changes on
// disk, so the engine sees authoring-side edits without a restart.
//
// Individual rules that fail Validate are not rejected here; the
// matcher excludes them per-dispatch and records a skipped execution
// log, so a single bad rule never hides its siblings.
type FileStore struct {
	path     string
	mu       sync.RWMutex
	rules    []AutomationRule
	version  string
	onChange []func([]AutomationRule)
	watcher  *fsnotify.Watcher
}

// NewFileStore creates a FileStore and performs the initial load.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// All returns the current rule set, unordered and unfiltered.
func (s *FileStore) All() []AutomationRule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]AutomationRule, len(s.rules))
	copy(out, s.rules)
	return out
}

// Version returns the version string of the loaded rule file.
func (s *FileStore) Version() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

func (s *FileStore) ListActiveForEvent(_ context.Context, event string) ([]AutomationRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []AutomationRule
	for _, r := range s.rules {
		if r.Active && r.ListensFor(event) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *FileStore) Get(_ context.Context, id int64) (AutomationRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.rules {
		if r.ID == id {
			return r, nil
		}
	}
	return AutomationRule{}, fmt.Errorf("rule %d not found", id)
}

// OnChange registers a callback invoked whenever the rule set reloads.
func (s *FileStore) OnChange(fn func([]AutomationRule)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

// Watch starts a background goroutine that invalidates the cache on
// file changes. Call the returned stop function to clean up.
func (s *FileStore) Watch() (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("rule watcher: %w", err)
	}
	if err := w.Add(s.path); err != nil {
		w.Close()
		return nil, fmt.Errorf("rule watcher add %s: %w", s.path, err)
	}
	s.watcher = w

	done := make(chan struct{})
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					if err := s.load(); err != nil {
						// Keep serving the previous rule set.
						slog.Warn("rule reload skipped", "path", s.path, "err", err)
					}
				}
			case <-w.Errors:
				// Ignore watcher errors.
			case <-done:
				return
			}
		}
	}()

	return func() { close(done) }, nil
}

// Reload forces an immediate re-read of the rule file.
func (s *FileStore) Reload() ([]AutomationRule, error) {
	if err := s.load(); err != nil {
		return nil, err
	}
	return s.All(), nil
}

func (s *FileStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read rules %s: %w", s.path, err)
	}
	var rf RuleFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return fmt.Errorf("parse rules %s: %w", s.path, err)
	}
	// Stable id order so reload diffs are readable in logs.
	sort.Slice(rf.Rules, func(i, j int) bool { return rf.Rules[i].ID < rf.Rules[j].ID })

	s.mu.Lock()
	s.rules = rf.Rules
	s.version = rf.Version
	callbacks := make([]func([]AutomationRule), len(s.onChange))
	copy(callbacks, s.onChange)
	s.mu.Unlock()

	for _, fn := range callbacks {
		fn(rf.Rules)
	}
	return nil
}
