package surface

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"unicode/utf8"

	"github.com/fsnotify/fsnotify"
)

// ErrSurfaceClosed is returned when writing to a closed FileSurface
var ErrSurfaceClosed = errors.New("surface closed")

// FileSurface is a TextSurface backed by a file on disk. Changes made to the
// file by other programs are user edits. Its own writes go through a rename
// and are recognized by content, so they never come back as notifications.
// Any content that differs from what is held is an edit, including a revert
// to earlier content.
type FileSurface struct {
	mu          sync.Mutex
	path        string
	text        string
	// lastWritten is the content of this surface's latest write until an
	// outside edit is accepted
	lastWritten string
	caret       int
	closed      bool

	watcher  *fsnotify.Watcher
	edits    listeners[string]
	errors   chan error
	closeCh  chan struct{}
	closedWg sync.WaitGroup
}

// OpenFile reads path and starts watching it for external changes
func OpenFile(path string) (*FileSurface, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	// Watch the directory so saves that replace the file are still seen
	if err := w.Add(filepath.Dir(absPath)); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch directory: %w", err)
	}

	s := &FileSurface{
		path:    absPath,
		text:    string(data),
		watcher: w,
		errors:  make(chan error, 16),
		closeCh: make(chan struct{}),
	}

	s.closedWg.Add(1)
	go s.processLoop()

	return s, nil
}

// Path returns the absolute path of the backing file
func (s *FileSurface) Path() string {
	return s.path
}

// Text returns the last known file content
func (s *FileSurface) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

// ReplaceAllText writes text to the file through a temporary file and rename
func (s *FileSurface) ReplaceAllText(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSurfaceClosed
	}

	// reload waits on mu, so the events of this write are compared after
	// both fields are set
	if err := writeFileAtomic(s.path, text); err != nil {
		return err
	}
	s.lastWritten = text
	s.text = text
	s.caret = clamp(s.caret, 0, utf8.RuneCountInString(text))
	return nil
}

// CursorOffset returns the caret held for the file
func (s *FileSurface) CursorOffset() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.caret
}

// SetCursorOffset moves the caret. A file has no view, so scrollIntoView is
// ignored.
func (s *FileSurface) SetCursorOffset(offset int, scrollIntoView bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.caret = clamp(offset, 0, utf8.RuneCountInString(s.text))
	return nil
}

// OnUserEdit subscribes to external changes of the file
func (s *FileSurface) OnUserEdit(fn func(text string)) func() {
	return s.edits.add(fn)
}

// Errors returns watcher and read errors
func (s *FileSurface) Errors() <-chan error {
	return s.errors
}

// Close stops watching the file
func (s *FileSurface) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.closeCh)
	s.mu.Unlock()

	s.closedWg.Wait()
	close(s.errors)
	return s.watcher.Close()
}

func (s *FileSurface) processLoop() {
	defer s.closedWg.Done()

	for {
		select {
		case <-s.closeCh:
			return

		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if event.Name != s.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				s.reload()
			}

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.sendError(err)
		}
	}
}

// reload reads the file and notifies subscribers when the content is neither
// what is already held nor what this surface wrote last
func (s *FileSurface) reload() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.sendError(fmt.Errorf("failed to read file: %w", err))
		}
		return
	}
	text := string(data)

	s.mu.Lock()
	if s.closed || text == s.text || (s.lastWritten != "" && text == s.lastWritten) {
		s.mu.Unlock()
		return
	}
	s.text = text
	s.lastWritten = ""
	s.caret = clamp(s.caret, 0, utf8.RuneCountInString(text))
	s.mu.Unlock()

	s.edits.notify(text)
}

func (s *FileSurface) sendError(err error) {
	select {
	case s.errors <- err:
	default:
		// Channel full, drop error
	}
}

func writeFileAtomic(path, text string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	// CreateTemp uses 0600; keep the mode of the file being replaced
	if info, err := os.Stat(path); err == nil {
		if err := tmp.Chmod(info.Mode().Perm()); err != nil {
			tmp.Close()
			os.Remove(tmpName)
			return fmt.Errorf("failed to set file mode: %w", err)
		}
	}

	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace file: %w", err)
	}
	return nil
}
