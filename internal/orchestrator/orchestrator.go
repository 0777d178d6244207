// Package orchestrator drives the upload pipeline end to end. It has two
// entry points sharing the cache/dispatch machinery: OnFileCreated handles a
// single file detected in the watch folder, ProcessDocument rewrites every
// media reference in one note.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/JawadAlhindi/autoupload/internal/cache"
	"github.com/JawadAlhindi/autoupload/internal/config"
	"github.com/JawadAlhindi/autoupload/internal/scan"
	"github.com/JawadAlhindi/autoupload/internal/uploader"
	"github.com/JawadAlhindi/autoupload/internal/vault"
)

// Notifier delivers short user-facing messages; full detail goes to the log.
type Notifier func(msg string)

// Registry selects an uploader for a file.
type Registry interface {
	ForFile(f *vault.File) (uploader.Uploader, error)
}

// SettingsSource provides a configuration snapshot per operation.
type SettingsSource interface {
	Settings() config.Settings
}

// Orchestrator owns the scan → resolve → dedupe → upload → rewrite →
// relocate pipeline. Document text read-modify-write is serialized per note
// path; the cache serializes itself.
type Orchestrator struct {
	vault    *vault.Vault
	settings SettingsSource
	cache    *cache.Cache
	registry Registry
	notify   Notifier

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New wires an Orchestrator. A nil notifier discards notices.
func New(v *vault.Vault, settings SettingsSource, c *cache.Cache, registry Registry, notify Notifier) *Orchestrator {
	if notify == nil {
		notify = func(string) {}
	}
	return &Orchestrator{
		vault:    v,
		settings: settings,
		cache:    c,
		registry: registry,
		notify:   notify,
		locks:    map[string]*sync.Mutex{},
	}
}

func (o *Orchestrator) lockFor(notePath string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	l, ok := o.locks[notePath]
	if !ok {
		l = &sync.Mutex{}
		o.locks[notePath] = l
	}
	return l
}

// OnFileCreated handles one newly created file. Files outside the watch
// folder or without an upload category are skipped; a failure is reported and
// ends the flow for this file, with no retry.
func (o *Orchestrator) OnFileCreated(ctx context.Context, f *vault.File) {
	run := uuid.NewString()
	st := o.settings.Settings()
	watch := st.NormalizedWatchFolder()
	if !strings.HasPrefix(f.Path, watch) {
		log.Printf("run %s: %s is outside watch folder %s, skipping", run, f.Path, watch)
		return
	}
	category := uploader.Categorize(f.Ext)
	if category == uploader.CategoryNone {
		log.Printf("run %s: %s has no uploadable extension, skipping", run, f.Path)
		return
	}
	o.notify(fmt.Sprintf("Uploading %s: %s", category, f.Name))
	url, err := o.uploadFileByType(ctx, f)
	if err != nil {
		log.Printf("run %s: upload failed for %s: %v", run, f.Path, err)
		o.notify("Upload failed for " + f.Name)
		return
	}
	o.insertLink(st, f, url)
	o.notify("Uploaded " + f.Name + ": " + url)
	log.Printf("run %s: uploaded %s -> %s", run, f.Path, url)
}

// insertLink appends the image link to the configured inbox note, when one is
// set. Failure to write the note is logged only; the upload stands.
func (o *Orchestrator) insertLink(st config.Settings, f *vault.File, url string) {
	if st.InboxNote == "" {
		return
	}
	lock := o.lockFor(st.InboxNote)
	lock.Lock()
	defer lock.Unlock()
	text, err := o.vault.ReadText(st.InboxNote)
	if err != nil {
		text = ""
	}
	if text != "" && !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	text += scan.ImageLink(url) + "\n"
	if err := o.vault.WriteText(st.InboxNote, text); err != nil {
		log.Printf("append link for %s to %s: %v", f.Name, st.InboxNote, err)
	}
}

// ProcessDocument runs the three scanner passes over one note and reports
// whether the text changed. A failure on one reference leaves that reference
// unmodified and the batch continues; partial success is the expected
// outcome.
func (o *Orchestrator) ProcessDocument(ctx context.Context, notePath string) (bool, error) {
	lock := o.lockFor(notePath)
	lock.Lock()
	defer lock.Unlock()

	text, err := o.vault.ReadText(notePath)
	if err != nil {
		return false, err
	}
	// claimed maps a resolved file path to its URL for this run, so repeated
	// references reuse the URL without a second upload and later passes skip
	// files an earlier pass handled.
	claimed := map[string]string{}

	text, wikiChanged := o.referencePass(ctx, notePath, text, scan.WikiEmbeds, claimed)
	text, inlineChanged := o.referencePass(ctx, notePath, text, scan.InlineImages, claimed)
	text, bareChanged := o.fallbackPass(ctx, text, claimed)

	changed := wikiChanged || inlineChanged || bareChanged
	if changed {
		if err := o.vault.WriteText(notePath, text); err != nil {
			return false, err
		}
	}
	return changed, nil
}

// referencePass uploads every resolvable reference found by scanFn and
// applies all resulting edits to the text in one go.
func (o *Orchestrator) referencePass(ctx context.Context, notePath, text string, scanFn func(string) []scan.Reference, claimed map[string]string) (string, bool) {
	var edits []scan.Edit
	for _, ref := range scanFn(text) {
		f, err := o.vault.Resolve(ref.Target, notePath)
		if err != nil {
			log.Printf("reference %q in %s left unchanged: %v", ref.Target, notePath, err)
			continue
		}
		url, ok := claimed[f.Path]
		if !ok {
			url, err = o.uploadFileByType(ctx, f)
			if err != nil {
				log.Printf("upload failed for %s, reference left unchanged: %v", f.Path, err)
				o.notify("Upload failed for " + f.Name)
				continue
			}
			o.relocate(f)
			claimed[f.Path] = url
		}
		edits = append(edits, scan.Edit{Start: ref.Start, End: ref.End, Replacement: scan.ImageLink(url)})
	}
	return scan.Apply(text, edits), len(edits) > 0
}

// fallbackPass covers content pasted as a bare file name: every image file
// whose name appears verbatim in the text is uploaded, and any embed or
// inline syntax naming it is rewritten.
func (o *Orchestrator) fallbackPass(ctx context.Context, text string, claimed map[string]string) (string, bool) {
	files, err := o.vault.Files()
	if err != nil {
		log.Printf("list vault files: %v", err)
		return text, false
	}
	changed := false
	for _, f := range files {
		if uploader.Categorize(f.Ext) != uploader.CategoryImage {
			continue
		}
		if _, ok := claimed[f.Path]; ok {
			continue
		}
		if !strings.Contains(text, f.Name) {
			continue
		}
		url, err := o.uploadFileByType(ctx, f)
		if err != nil {
			log.Printf("upload failed for %s, occurrences left unchanged: %v", f.Path, err)
			o.notify("Upload failed for " + f.Name)
			continue
		}
		wiki, inline := scan.NamePatterns(f.Name)
		replacement := scan.ImageLink(url)
		next := wiki.ReplaceAllLiteralString(text, replacement)
		next = inline.ReplaceAllLiteralString(next, replacement)
		o.relocate(f)
		claimed[f.Path] = url
		if next != text {
			text = next
			changed = true
		}
	}
	return text, changed
}

// uploadFileByType returns the cached URL for the file's identity without any
// network call, or uploads via the registry and records the result before
// returning.
func (o *Orchestrator) uploadFileByType(ctx context.Context, f *vault.File) (string, error) {
	key := cache.Key(f.Name)
	if url, ok := o.cache.Get(key); ok {
		return url, nil
	}
	up, err := o.registry.ForFile(f)
	if err != nil {
		return "", err
	}
	data, err := o.vault.ReadBinary(f)
	if err != nil {
		return "", err
	}
	url, err := up.Upload(ctx, f, data)
	if err != nil {
		return "", err
	}
	if err := o.cache.Put(key, url); err != nil {
		// A failed persist costs a re-upload after a crash, nothing more.
		log.Printf("persist cache entry for %s: %v", f.Name, err)
	}
	return url, nil
}

// relocate moves an uploaded file into the watch folder. Best-effort: a
// failed move is logged and the upload and cache entry are kept.
func (o *Orchestrator) relocate(f *vault.File) {
	st := o.settings.Settings()
	folder := strings.TrimSuffix(st.WatchFolder, "/")
	if folder == "" {
		return
	}
	newPath := folder + "/" + f.Name
	if f.Path == newPath {
		return
	}
	if err := o.vault.Move(f, newPath); err != nil {
		log.Printf("relocate after upload: %v", err)
	}
}
