package shader

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// watcher is the implementation of the Watcher interface.
type watcher struct {
	mu      *sync.Mutex
	fs      *fsnotify.Watcher
	byPath  map[string][]Shader
	dirs    map[string]bool
	stale   map[string]bool
	done    chan struct{}
	stopped chan struct{}
}

// Watcher watches the source files of file-backed shaders and records which of them changed.
// Events arrive on a background goroutine; the frame thread drains them with Stale and reloads
// the shaders itself, so no GPU work happens off the frame thread.
type Watcher interface {
	// Watch starts watching the shader's source file. Inline shaders are ignored.
	//
	// Parameters:
	//   - s: the shader to watch
	//
	// Returns:
	//   - error: an error if the file's directory cannot be watched
	Watch(s Shader) error

	// Stale returns the shaders whose files changed since the last call, and forgets them.
	//
	// Returns:
	//   - []Shader: the changed shaders
	Stale() []Shader

	// Close stops watching and waits for the event goroutine to exit.
	//
	// Returns:
	//   - error: an error from the underlying watcher
	Close() error
}

var _ Watcher = &watcher{}

// NewWatcher creates a Watcher and starts its event goroutine.
//
// Returns:
//   - Watcher: the new watcher
//   - error: an error if the OS watcher cannot be created
func NewWatcher() (Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create shader watcher: %w", err)
	}
	w := &watcher{
		mu:      &sync.Mutex{},
		fs:      fw,
		byPath:  make(map[string][]Shader),
		dirs:    make(map[string]bool),
		stale:   make(map[string]bool),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *watcher) Watch(s Shader) error {
	if s.Path() == "" {
		return nil
	}
	path, err := filepath.Abs(s.Path())
	if err != nil {
		return fmt.Errorf("shader %s: %w", s.Name(), err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	dir := filepath.Dir(path)
	if !w.dirs[dir] {
		if err := w.fs.Add(dir); err != nil {
			return fmt.Errorf("shader %s: failed to watch %s: %w", s.Name(), dir, err)
		}
		w.dirs[dir] = true
	}
	w.byPath[path] = append(w.byPath[path], s)
	return nil
}

func (w *watcher) Stale() []Shader {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.stale) == 0 {
		return nil
	}
	var out []Shader
	for path := range w.stale {
		out = append(out, w.byPath[path]...)
	}
	w.stale = make(map[string]bool)
	return out
}

func (w *watcher) Close() error {
	close(w.done)
	err := w.fs.Close()
	<-w.stopped
	return err
}

func (w *watcher) loop() {
	defer close(w.stopped)
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.markStale(event.Name)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			log.Printf("[Shader] watcher error: %v", err)
		}
	}
}

func (w *watcher) markStale(name string) {
	path, err := filepath.Abs(name)
	if err != nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.byPath[path]; ok {
		w.stale[path] = true
	}
}
