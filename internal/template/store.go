package template

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
)

// Module names shipped with the default template set.
const (
	ModuleLanguage  = "language_practice"
	ModuleWellbeing = "wellbeing"
	ModuleCoding    = "coding"
)

// Defaults returns the built-in template set.
func Defaults() Template {
	return Template{
		SystemPrompt: "You are Solace, a warm and attentive personal companion. " +
			"You chat naturally, remember what the user has told you, and help them " +
			"stay on top of their day.",
		Guidelines: []string{
			"Keep replies short and conversational",
			"Refer back to earlier topics when they are relevant",
			"Never invent facts about the user",
		},
		TaskPrompt: "The user also keeps a personal task list. When they mention " +
			"something they need to do, acknowledge it and encourage them to track it. " +
			"Do not nag about overdue tasks unless asked.",
		ModulePrompts: map[string]string{
			ModuleLanguage: "The user is practicing a foreign language. Weave short, " +
				"gentle practice opportunities into the conversation and correct " +
				"mistakes kindly.",
			ModuleWellbeing: "The user may be stressed or low on energy. Be extra " +
				"supportive, suggest small breaks, and avoid piling on obligations.",
			ModuleCoding: "The user is working on a programming project. You may " +
				"discuss code directly and keep explanations precise.",
		},
		Style: Style{
			Tone:      "friendly",
			Verbosity: "concise",
		},
	}
}

// Store resolves named fragments from the default template set, optionally
// overlaid by a TOML file on disk.
type Store struct {
	mu   sync.RWMutex
	tmpl Template
	path string
}

// NewStore creates a Store serving the built-in defaults.
func NewStore() *Store {
	return &Store{tmpl: Defaults()}
}

// NewStoreFromFile creates a Store whose defaults are overlaid by the TOML
// template file at path. A missing file is not an error; the defaults apply.
func NewStoreFromFile(path string) (*Store, error) {
	s := &Store{tmpl: Defaults(), path: path}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the template file (if configured) and swaps in the merged
// result. Invalid file content is rejected and the previous set stays live.
func (s *Store) Reload() error {
	if s.path == "" {
		return nil
	}
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return nil
	}

	var override Override
	if _, err := toml.DecodeFile(s.path, &override); err != nil {
		return fmt.Errorf("template: load %s: %w", s.path, err)
	}

	merged := Merge(Defaults(), override)
	if errs := Validate(merged); len(errs) > 0 {
		return fmt.Errorf("template: %s rejected: %v", s.path, errs[0])
	}

	s.mu.Lock()
	s.tmpl = merged
	s.mu.Unlock()
	return nil
}

// Watch reloads the template file whenever it changes on disk. The caller
// owns the returned watcher and should Close it on shutdown.
func (s *Store) Watch() (*fsnotify.Watcher, error) {
	if s.path == "" {
		return nil, fmt.Errorf("template: no file configured to watch")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("template: create watcher: %w", err)
	}
	if err := watcher.Add(s.path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("template: watch %s: %w", s.path, err)
	}

	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := s.Reload(); err != nil {
					slog.Warn("template reload failed, keeping previous set", "error", err)
				} else {
					slog.Info("templates reloaded", "path", s.path)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("template watcher error", "error", err)
			}
		}
	}()

	return watcher, nil
}

// Template returns the current merged template set.
func (s *Store) Template() Template {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tmpl
}

// Fragment resolves a named fragment: "system", "task", or a module name.
// Returns ErrNotFound when nothing is registered under the name.
func (s *Store) Fragment(name string) (Fragment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.tmpl.Fragment(name)
}

// Empty reports whether the store has no usable fragments at all.
func (s *Store) Empty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tmpl.SystemPrompt == "" && s.tmpl.TaskPrompt == "" && len(s.tmpl.ModulePrompts) == 0
}
