/*
Copyright (C) 2024-2026  Carl-Philip Hänsch

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.

	You should have received a copy of the GNU General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package config

import (
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/launix-de/zeppelin/internal/zlog"
)

// Watcher reloads the reloadable subset of a Config whenever the backing
// file changes on disk, copying those fields into its held Config under a
// mutex.
type Watcher struct {
	path string

	mu  sync.RWMutex
	cfg Config

	fsw *fsnotify.Watcher
}

// NewWatcher loads path once and starts watching it for writes. Call
// Close when done.
func NewWatcher(path string) (*Watcher, error) {
	cfg, err := Load(path, nil)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(path); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{path: path, cfg: cfg, fsw: fsw}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	log := zlog.WithComponent("config_watcher")
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			fresh, err := Load(w.path, nil)
			if err != nil {
				log.Warn().Err(err).Str("path", w.path).Msg("failed to reload config, keeping current values")
				continue
			}
			w.mu.Lock()
			ApplyReloadable(&w.cfg, fresh)
			w.mu.Unlock()
			log.Info().Str("path", w.path).Msg("reloaded reloadable config fields")
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("config watcher error")
		}
	}
}

// Current returns a point-in-time snapshot of the watched config.
func (w *Watcher) Current() Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.cfg
}

func (w *Watcher) Close() error {
	return w.fsw.Close()
}
