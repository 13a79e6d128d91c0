// Package artifacts keeps an inventory of the files a scan produces by
// watching the output directory while probes run.
package artifacts

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/fsnotify/fsnotify"

	"webscout/pkg/logger"
)

// Inventory records every regular file created or written under a scan
// output directory. The watcher observes what actually landed on disk,
// independent of what each probe self-reported.
type Inventory struct {
	dir     string
	watcher *fsnotify.Watcher
	logger  *logger.Logger

	mu   sync.Mutex
	seen map[string]bool
	done chan struct{}
}

// Watch starts watching dir. Stop must be called to retrieve the
// inventory and release the watcher.
func Watch(ctx context.Context, dir string, log *logger.Logger) (*Inventory, error) {
	fi, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return nil, &os.PathError{Op: "watch", Path: dir, Err: os.ErrInvalid}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	inv := &Inventory{
		dir:     dir,
		watcher: watcher,
		logger:  log,
		seen:    make(map[string]bool),
		done:    make(chan struct{}),
	}
	go inv.loop(ctx)
	return inv, nil
}

func (inv *Inventory) loop(ctx context.Context) {
	defer close(inv.done)
	for {
		select {
		case event, ok := <-inv.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			fi, err := os.Stat(event.Name)
			if err != nil || fi.IsDir() {
				continue
			}
			inv.mu.Lock()
			inv.seen[event.Name] = true
			inv.mu.Unlock()
		case err, ok := <-inv.watcher.Errors:
			if !ok {
				return
			}
			inv.logger.WithError(err).Warn("Artifact watcher error")
		case <-ctx.Done():
			return
		}
	}
}

// Stop closes the watcher and returns the sorted inventory. Files that
// were written before the watcher started (or that inotify missed) are
// picked up by a final directory sweep.
func (inv *Inventory) Stop() []string {
	inv.watcher.Close()
	<-inv.done

	inv.mu.Lock()
	defer inv.mu.Unlock()

	entries, err := os.ReadDir(inv.dir)
	if err == nil {
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			inv.seen[filepath.Join(inv.dir, entry.Name())] = true
		}
	}

	paths := make([]string, 0, len(inv.seen))
	for path := range inv.seen {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}
