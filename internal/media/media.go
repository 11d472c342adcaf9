// Package media stores uploaded files on local disk and maps them to
// public URLs.
package media

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// URLPrefix is the path under which stored files are served.
const URLPrefix = "/media/"

// ItemImagePath returns a fresh relative path for an item image with the
// given extension, e.g. "uploads/item/<uuid>.jpg".
func ItemImagePath(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return path.Join("uploads", "item", uuid.New().String()+ext)
}

// Store keeps files below a root directory.
type Store struct {
	Root string
}

// NewStore returns a store rooted at dir, creating the directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating media directory: %w", err)
	}
	return &Store{Root: dir}, nil
}

// Save writes data to the relative path rel.
func (s *Store) Save(rel string, data []byte) error {
	full, err := s.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("creating media subdirectory: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return fmt.Errorf("writing media file: %w", err)
	}
	return nil
}

// Remove deletes the file at rel. Removing a missing file is not an error.
func (s *Store) Remove(rel string) error {
	if rel == "" {
		return nil
	}
	full, err := s.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing media file: %w", err)
	}
	return nil
}

// URL returns the public URL of rel.
func (s *Store) URL(rel string) string {
	return URLPrefix + rel
}

// Handler serves stored files below URLPrefix.
func (s *Store) Handler() http.Handler {
	return http.StripPrefix(strings.TrimSuffix(URLPrefix, "/"), http.FileServer(noDirFS{http.Dir(s.Root)}))
}

func (s *Store) resolve(rel string) (string, error) {
	clean := path.Clean("/" + rel)
	if clean == "/" || rel != strings.TrimPrefix(clean, "/") {
		return "", fmt.Errorf("invalid media path %q", rel)
	}
	return filepath.Join(s.Root, filepath.FromSlash(clean)), nil
}

// noDirFS hides directory listings.
type noDirFS struct {
	fs http.FileSystem
}

func (n noDirFS) Open(name string) (http.File, error) {
	f, err := n.fs.Open(name)
	if err != nil {
		return nil, err
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if stat.IsDir() {
		f.Close()
		return nil, fs.ErrNotExist
	}
	return f, nil
}
