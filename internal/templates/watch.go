package templates

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// DefaultDebounce is how long Watch waits for a burst of writes to settle.
const DefaultDebounce = 300 * time.Millisecond

// Watch reloads the registry whenever its overlay file changes, until ctx is
// done. The parent directory is watched rather than the file so editors that
// save by rename are still picked up. onReload, if set, is called after every
// reload attempt with its result.
func (r *Registry) Watch(ctx context.Context, debounce time.Duration, onReload func(error)) error {
	if r.path == "" {
		return errors.New("templates: no file to watch")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(r.path)
	if err != nil {
		_ = fsw.Close()
		return err
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return err
	}

	go func() {
		defer fsw.Close()
		// nil until a relevant event arrives; each event restarts the wait
		var fire <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-fsw.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
					fire = time.After(debounce)
				}
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				log.Warn().Err(err).Str("path", abs).Msg("template watcher error")
			case <-fire:
				fire = nil
				err := r.Reload()
				if err != nil {
					log.Error().Err(err).Str("path", abs).Msg("template reload failed; keeping previous set")
				} else {
					log.Info().Str("path", abs).Int("templates", len(r.List())).Msg("templates reloaded")
				}
				if onReload != nil {
					onReload(err)
				}
			}
		}
	}()
	return nil
}
