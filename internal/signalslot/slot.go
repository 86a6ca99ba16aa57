// Package signalslot is the persisted fallback channel: a directory of small
// files, one per key, watched for changes with fsnotify. Any process on the
// device that shares the directory sees every write.
package signalslot

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/MrSnakeDoc/marks/internal/logger"
)

// FileSlot stores each key as a file under dir.
type FileSlot struct {
	dir string
	log logger.Logger
}

// New creates dir if needed.
func New(dir string, log logger.Logger) (*FileSlot, error) {
	if dir == "" {
		return nil, errors.New("signalslot: directory is required")
	}
	if log == nil {
		log = logger.Nop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create slot dir: %w", err)
	}
	return &FileSlot{dir: filepath.Clean(dir), log: log.With(logger.String("slot_dir", dir))}, nil
}

// Dir returns the watched directory.
func (s *FileSlot) Dir() string { return s.dir }

// Write replaces the value of key. The file is swapped in with a rename so
// readers never observe a partial payload.
func (s *FileSlot) Write(key string, payload []byte) error {
	if err := validKey(key); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, "."+key+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp slot file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write slot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close slot: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, key)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("publish slot: %w", err)
	}
	return nil
}

// Read returns the current value of key, or nil if it was never written.
func (s *FileSlot) Read(key string) ([]byte, error) {
	if err := validKey(key); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return data, err
}

// OnExternalChange calls handler with the new value each time key is
// written. Writes from this process are reported too.
func (s *FileSlot) OnExternalChange(key string, handler func(payload []byte)) (io.Closer, error) {
	if err := validKey(key); err != nil {
		return nil, err
	}
	if handler == nil {
		return nil, errors.New("signalslot: nil handler")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(s.dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", s.dir, err)
	}

	sub := &subscription{
		slot:    s,
		key:     key,
		watcher: w,
		done:    make(chan struct{}),
	}
	sub.wg.Add(1)
	go sub.run(handler)
	return sub, nil
}

type subscription struct {
	slot    *FileSlot
	key     string
	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
	err     error
}

func (sub *subscription) run(handler func([]byte)) {
	defer sub.wg.Done()

	for {
		select {
		case <-sub.done:
			return
		case ev, ok := <-sub.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != sub.key {
				continue
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			payload, err := sub.slot.Read(sub.key)
			if err != nil {
				sub.slot.log.Warn("read slot failed", logger.String("key", sub.key), logger.Error(err))
				continue
			}
			if len(payload) == 0 {
				// Truncated mid-write by a non-atomic writer; the following Write event carries the data.
				continue
			}
			select {
			case <-sub.done:
				return
			default:
			}
			handler(payload)
		case err, ok := <-sub.watcher.Errors:
			if !ok {
				return
			}
			sub.slot.log.Warn("slot watcher error", logger.Error(err))
		}
	}
}

func (sub *subscription) Close() error {
	sub.once.Do(func() {
		close(sub.done)
		sub.err = sub.watcher.Close()
		sub.wg.Wait()
	})
	return sub.err
}

func validKey(key string) error {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return fmt.Errorf("signalslot: invalid key %q", key)
	}
	return nil
}
