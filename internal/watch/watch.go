package watch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// store files worth reacting to
var watchedNames = map[string]bool{
	"domain_map.yaml": true,
	"logo_feats.json": true,
	"logo_files.json": true,
}

// WatchStore watches the reference-store directory and invokes onChange
// after external writes to the store files settle. Writes land in bursts
// (domain map, then feature cache), so events are debounced before the
// callback fires.
func WatchStore(ctx context.Context, dir string, onChange func()) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Error(err)
		return
	}
	defer watcher.Close()

	var mu sync.Mutex
	pending := false

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if !watchedNames[filepath.Base(event.Name)] {
					continue
				}
				mu.Lock()
				pending = true
				mu.Unlock()

			case <-ticker.C:
				mu.Lock()
				fire := pending
				pending = false
				mu.Unlock()
				if fire {
					log.Infof("Reference store changed on disk: %s", dir)
					onChange()
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Error(err)

			case <-ctx.Done():
				log.Info("Store watcher closed")
				return
			}
		}
	}()

	if err := watcher.Add(dir); err != nil {
		log.Error(err)
		return
	}
	log.Infof("Watching reference store: %s", dir)
	<-ctx.Done()
}
