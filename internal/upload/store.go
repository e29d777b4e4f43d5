// Package upload keeps uploaded product images in a flat directory under
// random, collision-resistant names.
package upload

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/atinyakov/herbcatalog/internal/models"
)

// DefaultExtensions are the image formats accepted when none are configured.
var DefaultExtensions = []string{".jpg", ".jpeg", ".png"}

const tempPattern = ".upload-*"

// FileInfo describes one stored file.
type FileInfo struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// Store persists uploads inside root on fs.
type Store struct {
	fs      afero.Fs
	root    string
	allowed map[string]struct{}
	newName func() string
}

// NewStore creates the root directory if needed and returns a Store accepting
// the given extensions (dot included, case-insensitive).
func NewStore(fs afero.Fs, root string, extensions []string) (*Store, error) {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	if err := fs.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload root: %w", err)
	}

	allowed := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[ext] = struct{}{}
	}

	return &Store{fs: fs, root: root, allowed: allowed, newName: randomName}, nil
}

// Root returns the upload directory.
func (s *Store) Root() string {
	return s.root
}

// CheckExtension returns the lower-cased extension of filename, or
// models.ErrUnsupportedFormat when it is not allowed.
func (s *Store) CheckExtension(filename string) (string, error) {
	ext := strings.ToLower(path.Ext(strings.ReplaceAll(filename, `\`, "/")))
	if _, ok := s.allowed[ext]; !ok || ext == "" {
		return "", fmt.Errorf("%w: %q", models.ErrUnsupportedFormat, ext)
	}
	return ext, nil
}

// Store writes the content of r under a new random name that keeps the
// extension of declaredName, and returns that name. The declared name is
// never used to build the path. The file appears under its final name only
// once it has been written completely.
func (s *Store) Store(r io.Reader, declaredName string) (string, error) {
	ext, err := s.CheckExtension(declaredName)
	if err != nil {
		return "", err
	}

	tmp, err := afero.TempFile(s.fs, s.root, tempPattern)
	if err != nil {
		return "", models.StorageError("create temp file", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
		return "", models.StorageError("write upload", err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return "", models.StorageError("close upload", err)
	}

	name := s.newName() + ext
	if err := s.fs.Rename(tmpName, filepath.Join(s.root, name)); err != nil {
		_ = s.fs.Remove(tmpName)
		return "", models.StorageError("rename upload", err)
	}
	return name, nil
}

// Remove deletes the stored file name. It returns false without error when
// the file does not exist.
func (s *Store) Remove(name string) (bool, error) {
	p, ok := s.path(name)
	if !ok {
		return false, nil
	}
	if err := s.fs.Remove(p); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, models.StorageError("remove upload", err)
	}
	return true, nil
}

// Open opens the stored file name for reading.
func (s *Store) Open(name string) (afero.File, error) {
	p, ok := s.path(name)
	// Stored names never start with a dot. Dot files are in-flight writes.
	if !ok || strings.HasPrefix(name, ".") {
		return nil, models.ErrNotFound
	}
	f, err := s.fs.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, models.ErrNotFound
		}
		return nil, models.StorageError("open upload", err)
	}
	return f, nil
}

// List enumerates the regular files in the upload root, including
// unfinished temporary files.
func (s *Store) List() ([]FileInfo, error) {
	entries, err := afero.ReadDir(s.fs, s.root)
	if err != nil {
		return nil, models.StorageError("list uploads", err)
	}

	files := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		if !e.Mode().IsRegular() {
			continue
		}
		files = append(files, FileInfo{Name: e.Name(), Size: e.Size(), ModTime: e.ModTime()})
	}
	return files, nil
}

// path resolves name inside the root. Names that are not a single path
// element are rejected.
func (s *Store) path(name string) (string, bool) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", false
	}
	return filepath.Join(s.root, name), true
}

func randomName() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}
