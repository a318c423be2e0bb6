package model

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Holder publishes the current model. Callers load the handle once per
// request and use it for both schema and predictor.
type Holder struct {
	current atomic.Pointer[Model]
}

// NewHolder creates a holder, optionally with an initial model
func NewHolder(m *Model) *Holder {
	h := &Holder{}
	if m != nil {
		h.current.Store(m)
	}
	return h
}

// Current returns the published model or nil
func (h *Holder) Current() *Model { return h.current.Load() }

// Require returns the published model or ErrNoModel
func (h *Holder) Require() (*Model, error) {
	if m := h.current.Load(); m != nil {
		return m, nil
	}
	return nil, ErrNoModel
}

// Swap publishes m and returns the previous model
func (h *Holder) Swap(m *Model) *Model { return h.current.Swap(m) }

// Loaded reports whether a model is published
func (h *Holder) Loaded() bool { return h.current.Load() != nil }

// ReloadFunc observes reload outcomes
type ReloadFunc func(err error)

// Watcher reloads a FileStore artifact into a Holder when it changes on disk.
// A failed reload keeps the previous model.
type Watcher struct {
	store    *FileStore
	holder   *Holder
	logger   *slog.Logger
	debounce time.Duration
	onReload ReloadFunc
}

// NewWatcher creates a watcher. onReload may be nil.
func NewWatcher(store *FileStore, holder *Holder, logger *slog.Logger, onReload ReloadFunc) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		store:    store,
		holder:   holder,
		logger:   logger.With(slog.String("component", "model_watcher")),
		debounce: 200 * time.Millisecond,
		onReload: onReload,
	}
}

// Reload loads the artifact and publishes it on success
func (w *Watcher) Reload() error {
	m, err := w.store.Load()
	if err == nil {
		w.holder.Swap(m)
		w.logger.Info("model loaded",
			slog.String("path", w.store.Path()),
			slog.String("kind", m.Kind()),
			slog.Any("inputs", m.Inputs()),
			slog.Any("outputs", m.Outputs()))
	} else {
		w.logger.Error("model reload failed, keeping previous model",
			slog.String("path", w.store.Path()),
			slog.String("error", err.Error()))
	}
	if w.onReload != nil {
		w.onReload(err)
	}
	return err
}

// Run watches the artifact's directory until ctx is done. The directory is
// watched rather than the file so atomic replacements are seen.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	target := filepath.Clean(w.store.Path())
	if err := fw.Add(filepath.Dir(target)); err != nil {
		return err
	}
	w.logger.Info("watching model artifact", slog.String("path", target))

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			_ = w.Reload()
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("model watcher error", slog.String("error", err.Error()))
		}
	}
}
