package feature

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// FileSource serves flag overrides from a YAML file of `key: bool` pairs.
//
//	wigg-likes-data-layer: true
//	follow-user-data-layer: false
//
// Keys missing from the file have no opinion. Watch reloads the file when it
// changes so flags can be flipped without a restart.
type FileSource struct {
	path   string
	flags  atomic.Pointer[map[string]bool]
	logger *slog.Logger
}

// NewFileSource reads path once and returns a ready source.
func NewFileSource(path string, logger *slog.Logger) (*FileSource, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &FileSource{path: path, logger: logger}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Lookup implements Source.
func (s *FileSource) Lookup(_ context.Context, key string) (bool, bool, error) {
	flags := s.flags.Load()
	if flags == nil {
		return false, false, nil
	}
	value, ok := (*flags)[key]
	return value, ok, nil
}

// Keys returns the flag keys currently defined in the file.
func (s *FileSource) Keys() []string {
	flags := s.flags.Load()
	if flags == nil {
		return nil
	}
	keys := make([]string, 0, len(*flags))
	for k := range *flags {
		keys = append(keys, k)
	}
	return keys
}

// Reload re-reads the file. On error the previous values stay in effect.
func (s *FileSource) Reload() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return errors.Join(ErrInvalidFlagFile, err)
	}

	flags := make(map[string]bool)
	if err := yaml.Unmarshal(raw, &flags); err != nil {
		return errors.Join(ErrInvalidFlagFile, fmt.Errorf("%s: %w", s.path, err))
	}

	s.flags.Store(&flags)
	return nil
}

// Watch reloads the file on every write until ctx is done.
// The parent directory is watched so editors that replace the file by rename
// are handled.
func (s *FileSource) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		return err
	}

	target := filepath.Clean(s.path)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if err := s.Reload(); err != nil {
				s.logger.WarnContext(ctx, "flag file reload failed", slog.String("path", s.path), slog.Any("error", err))
				continue
			}
			s.logger.InfoContext(ctx, "flag file reloaded", slog.String("path", s.path))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.WarnContext(ctx, "flag file watcher error", slog.Any("error", err))
		}
	}
}
