package file

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/patientforms/internal/core/domain"
	"github.com/custodia-labs/patientforms/internal/core/ports/driven"
	"github.com/custodia-labs/patientforms/internal/logger"
)

// Ensure LocaleWatcher implements the interface.
var _ driven.LocaleSource = (*LocaleWatcher)(nil)

// LocaleWatcher publishes the ui.locale setting and reloads it whenever the
// config file changes on disk.
type LocaleWatcher struct {
	store   *ConfigStore
	watcher *fsnotify.Watcher

	mu      sync.Mutex
	current string
	subs    map[int]func(string)
	nextSub int

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// NewLocaleWatcher starts watching the store's file. The directory is watched
// rather than the file so editors that replace the file are followed.
func NewLocaleWatcher(store *ConfigStore) (*LocaleWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create config watcher: %w", err)
	}
	dir := filepath.Dir(store.Path())
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch config directory %q: %w", dir, err)
	}

	w := &LocaleWatcher{
		store:   store,
		watcher: watcher,
		current: localeOf(store),
		subs:    make(map[int]func(string)),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Current returns the active locale.
func (w *LocaleWatcher) Current() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Subscribe registers fn for locale changes.
func (w *LocaleWatcher) Subscribe(fn func(string)) func() {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := w.nextSub
	w.nextSub++
	w.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			w.mu.Lock()
			defer w.mu.Unlock()
			delete(w.subs, id)
		})
	}
}

// Close stops watching. It is safe to call more than once.
func (w *LocaleWatcher) Close() error {
	w.once.Do(func() {
		close(w.stop)
		w.watcher.Close()
		<-w.done
	})
	return nil
}

func (w *LocaleWatcher) run() {
	defer close(w.done)
	target := filepath.Clean(w.store.Path())
	for {
		select {
		case <-w.stop:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("config: watch error: %v", err)
		}
	}
}

// reload rereads the file and notifies subscribers if the locale changed.
// A file that fails to parse keeps the previous locale.
func (w *LocaleWatcher) reload() {
	if err := w.store.Load(); err != nil {
		logger.Warn("config: reload failed, keeping locale: %v", err)
		return
	}
	locale := localeOf(w.store)

	w.mu.Lock()
	if locale == w.current {
		w.mu.Unlock()
		return
	}
	w.current = locale
	subs := make([]func(string), 0, len(w.subs))
	for _, fn := range w.subs {
		subs = append(subs, fn)
	}
	w.mu.Unlock()

	logger.Info("Locale changed to %s", locale)
	for _, fn := range subs {
		fn(locale)
	}
}

func localeOf(store driven.ConfigStore) string {
	if locale := store.GetString(KeyLocale); locale != "" {
		return locale
	}
	return domain.DefaultLocale
}
