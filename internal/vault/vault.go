// Package vault is the boundary to the notes directory: file enumeration,
// binary and text reads, whole-document writes, relocation, and link-target
// resolution. Paths handed around are vault-relative and slash-separated.
package vault

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNotFound reports a reference that cannot be mapped to a file.
var ErrNotFound = errors.New("file not found in vault")

// File identifies a media file inside the vault.
type File struct {
	// Path is vault-relative with forward slashes, e.g. "notes/img/a.png".
	Path string
	// Name is the base name including extension.
	Name string
	// Ext is the lowercased extension without the leading dot.
	Ext string
}

// NewFile derives a File from a vault-relative path.
func NewFile(relPath string) *File {
	name := path.Base(relPath)
	ext := strings.TrimPrefix(path.Ext(name), ".")
	return &File{
		Path: relPath,
		Name: name,
		Ext:  strings.ToLower(ext),
	}
}

// Vault provides access to a directory of notes and media.
type Vault struct {
	root string
}

// Open validates that root is a directory and returns a Vault over it.
func Open(root string) (*Vault, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve vault path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("open vault: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open vault: %s is not a directory", abs)
	}
	return &Vault{root: abs}, nil
}

// Root returns the absolute vault directory.
func (v *Vault) Root() string {
	return v.root
}

// Abs maps a vault-relative path to an absolute filesystem path.
func (v *Vault) Abs(relPath string) string {
	return filepath.Join(v.root, filepath.FromSlash(relPath))
}

// Rel maps an absolute filesystem path back into the vault, reporting an
// error for paths outside it.
func (v *Vault) Rel(absPath string) (string, error) {
	rel, err := filepath.Rel(v.root, absPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("path %s is outside the vault", absPath)
	}
	return filepath.ToSlash(rel), nil
}

// Files lists every regular file in the vault in lexicographic path order.
// Dot-directories (.obsidian and friends) and dot-files are skipped.
func (v *Vault) Files() ([]*File, error) {
	var files []*File
	err := filepath.WalkDir(v.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") && p != v.root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, relErr := v.Rel(p)
		if relErr != nil {
			return nil
		}
		files = append(files, NewFile(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk vault: %w", err)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// ReadBinary returns the file's content.
func (v *Vault) ReadBinary(f *File) ([]byte, error) {
	data, err := os.ReadFile(v.Abs(f.Path))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Path, err)
	}
	return data, nil
}

// ReadText returns a document's text.
func (v *Vault) ReadText(relPath string) (string, error) {
	data, err := os.ReadFile(v.Abs(relPath))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", relPath, err)
	}
	return string(data), nil
}

// WriteText replaces a document's text in full.
func (v *Vault) WriteText(relPath, text string) error {
	if err := os.WriteFile(v.Abs(relPath), []byte(text), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", relPath, err)
	}
	return nil
}

// Move relocates a file inside the vault, creating parent directories as
// needed, and updates f.Path on success. An existing file at newPath is
// never overwritten.
func (v *Vault) Move(f *File, newPath string) error {
	if f.Path == newPath {
		return nil
	}
	dst := v.Abs(newPath)
	// os.Rename replaces an existing destination, which would clobber a
	// different file that happens to share the name.
	if _, err := os.Stat(dst); err == nil {
		return fmt.Errorf("move %s to %s: destination already exists", f.Path, newPath)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return fmt.Errorf("create folder for %s: %w", newPath, err)
	}
	if err := os.Rename(v.Abs(f.Path), dst); err != nil {
		return fmt.Errorf("move %s to %s: %w", f.Path, newPath, err)
	}
	f.Path = newPath
	return nil
}

// Resolve maps a reference target to a file. Primary resolution tries the
// target as a path relative to the referencing document's folder, then
// relative to the vault root, then as an exact name or path-suffix match.
// The fallback repeats the name/suffix scan case-insensitively. Files() walks
// in lexicographic order, so "first match" ties break lexicographically.
func (v *Vault) Resolve(target, fromPath string) (*File, error) {
	target = strings.TrimSpace(path.Clean(strings.ReplaceAll(target, "\\", "/")))
	if target == "" || target == "." {
		return nil, ErrNotFound
	}
	for _, candidate := range []string{
		path.Join(path.Dir(fromPath), target),
		target,
	} {
		if f := v.fileAt(candidate); f != nil {
			return f, nil
		}
	}
	files, err := v.Files()
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if f.Name == target || strings.HasSuffix(f.Path, "/"+target) {
			return f, nil
		}
	}
	lower := strings.ToLower(target)
	for _, f := range files {
		if strings.ToLower(f.Name) == lower || strings.HasSuffix(strings.ToLower(f.Path), "/"+lower) {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, target)
}

func (v *Vault) fileAt(relPath string) *File {
	if strings.HasPrefix(relPath, "..") {
		return nil
	}
	info, err := os.Stat(v.Abs(relPath))
	if err != nil || info.IsDir() {
		return nil
	}
	return NewFile(relPath)
}
