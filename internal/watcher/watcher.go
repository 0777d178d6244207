// Package watcher turns filesystem create events into orchestrator calls.
// It watches the vault recursively, registers new directories as they
// appear, and waits for a created file's size to settle before handing it
// over, since create events fire before writers finish.
package watcher

import (
	"context"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/JawadAlhindi/autoupload/internal/orchestrator"
	"github.com/JawadAlhindi/autoupload/internal/vault"
)

const settleInterval = 200 * time.Millisecond

// Watcher feeds vault file-creation events to the orchestrator.
type Watcher struct {
	vault *vault.Vault
	orch  *orchestrator.Orchestrator
}

// New builds a Watcher over the vault.
func New(v *vault.Vault, orch *orchestrator.Orchestrator) *Watcher {
	return &Watcher{vault: v, orch: orch}
}

// Run blocks until the context is cancelled, dispatching each created file to
// OnFileCreated. Events are handled one at a time so no two pipeline runs
// overlap.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := w.addRecursive(fw, w.vault.Root()); err != nil {
		return err
	}
	log.Printf("watching %s", w.vault.Root())

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) {
				continue
			}
			w.handleCreate(ctx, fw, ev.Name)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Printf("watch error: %v", err)
		}
	}
}

func (w *Watcher) handleCreate(ctx context.Context, fw *fsnotify.Watcher, absPath string) {
	if strings.HasPrefix(filepath.Base(absPath), ".") {
		return
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return
	}
	if info.IsDir() {
		if err := w.addRecursive(fw, absPath); err != nil {
			log.Printf("watch new folder %s: %v", absPath, err)
		}
		return
	}
	rel, err := w.vault.Rel(absPath)
	if err != nil {
		return
	}
	waitForSettle(ctx, absPath, info.Size())
	log.Printf("file created: %s", rel)
	w.orch.OnFileCreated(ctx, vault.NewFile(rel))
}

// addRecursive registers the directory and every non-hidden subdirectory.
func (w *Watcher) addRecursive(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && p != root {
			return filepath.SkipDir
		}
		return fw.Add(p)
	})
}

// waitForSettle re-stats until two successive sizes match, bounded to a few
// rounds so a stalled writer cannot wedge the event loop.
func waitForSettle(ctx context.Context, absPath string, size int64) {
	for i := 0; i < 10; i++ {
		select {
		case <-ctx.Done():
			return
		case <-time.After(settleInterval):
		}
		info, err := os.Stat(absPath)
		if err != nil {
			return
		}
		if info.Size() == size {
			return
		}
		size = info.Size()
	}
}
