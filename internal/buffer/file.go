// Package buffer provides a file-backed text buffer host. The file on disk
// holds the canonical document text; the core only ever reads and replaces
// it as a whole.
package buffer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// File is a document on disk.
type File struct {
	path   string
	logger *slog.Logger

	mu sync.Mutex // serializes Replace
}

// Open returns a File for path. The file must exist and be a regular file;
// its contents are not read until Text is called.
func Open(path string, logger *slog.Logger) (*File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s is not a regular file", path)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &File{path: abs, logger: logger.With("file", abs)}, nil
}

func (f *File) Path() string { return f.path }

// Text reads the whole file.
func (f *File) Text() (string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", f.path, err)
	}
	return string(data), nil
}

// Replace writes text as the new file contents. The write goes to a
// temporary file in the same directory which is then renamed over the
// original, so readers never see a partial document. If anything fails the
// original is preserved.
func (f *File) Replace(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	perm := os.FileMode(0644)
	if info, err := os.Stat(f.path); err == nil {
		perm = info.Mode().Perm()
	}

	dir, base := filepath.Split(f.path)
	tmp, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	fail := func(err error) error {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace %s: %w", f.path, err)
	}
	if _, err := tmp.WriteString(text); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Chmod(perm); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace %s: %w", f.path, err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace %s: %w", f.path, err)
	}
	f.logger.Debug("file replaced", "bytes", len(text))
	return nil
}

// Watch emits the full text of the file every time it changes on disk,
// including changes made through Replace. Consecutive identical reads are
// collapsed. The channel is closed when ctx is done.
//
// The containing directory is watched rather than the file itself, so
// editors that save by renaming a new file into place keep being followed.
func (f *File) Watch(ctx context.Context) (<-chan string, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(f.path), err)
	}

	last, _ := f.Text()
	out := make(chan string)
	go func() {
		defer close(out)
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != f.path {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				text, err := f.Text()
				if err != nil {
					// Removed or mid-rename; the next event catches up.
					f.logger.Debug("skipping unreadable change", "error", err)
					continue
				}
				if text == last {
					continue
				}
				last = text
				select {
				case out <- text:
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				f.logger.Warn("watch error", "error", err)
			}
		}
	}()
	return out, nil
}
