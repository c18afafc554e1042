package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWindow is the quiet period before a batch of changes is delivered.
const DefaultWindow = 500 * time.Millisecond

// Op is the kind of filesystem change.
type Op string

const (
	OpCreate Op = "create"
	OpWrite  Op = "write"
	OpRemove Op = "remove"
	OpRename Op = "rename"
)

// Change is a spec file change. Path is relative to the workspace root and
// slash-separated.
type Change struct {
	Path string
	Op   Op
}

// Watcher watches the directories holding spec files and delivers batches of
// matching changes.
type Watcher struct {
	root    string
	fs      *fsnotify.Watcher
	filter  *PatternFilter
	batcher *Batcher
	logger  *slog.Logger
}

// New creates a watcher for the workspace at root. onChange runs on a timer
// goroutine, one batch at a time per quiet window.
func New(root string, filter *PatternFilter, window time.Duration, onChange func([]Change), logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if filter == nil {
		filter = NewPatternFilter(nil, nil)
	}
	if window <= 0 {
		window = DefaultWindow
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	return &Watcher{
		root:    root,
		fs:      w,
		filter:  filter,
		batcher: NewBatcher(window, onChange),
		logger:  logger,
	}, nil
}

// Start adds every existing directory under the filter's roots. Roots that do
// not exist yet are skipped.
func (w *Watcher) Start() error {
	added := 0
	for _, r := range w.filter.Roots() {
		dir := filepath.Join(w.root, filepath.FromSlash(r))
		if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
			w.logger.Debug("watch root missing", "dir", dir)
			continue
		}
		if err := w.addTree(dir); err != nil {
			return err
		}
		added++
	}
	if added == 0 {
		return fmt.Errorf("no spec directories to watch under %s", w.root)
	}
	return nil
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		name := d.Name()
		if p != dir && (strings.HasPrefix(name, ".") || name == "node_modules") {
			return filepath.SkipDir
		}
		if err := w.fs.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		return nil
	})
}

// Run delivers changes until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()
	defer w.batcher.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	op := opFor(event.Op)
	if op == "" {
		return
	}

	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.logger.Warn("failed to watch new directory", "dir", event.Name, "error", err)
			}
			return
		}
	}

	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)
	if !w.filter.Matches(rel) {
		return
	}
	w.logger.Debug("spec changed", "path", rel, "op", op)
	w.batcher.Add(Change{Path: rel, Op: op})
}

func opFor(op fsnotify.Op) Op {
	switch {
	case op.Has(fsnotify.Create):
		return OpCreate
	case op.Has(fsnotify.Write):
		return OpWrite
	case op.Has(fsnotify.Remove):
		return OpRemove
	case op.Has(fsnotify.Rename):
		return OpRename
	default:
		return ""
	}
}
