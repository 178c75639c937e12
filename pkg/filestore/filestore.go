package filestore

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StoredFile is the handle returned for a durably written attachment.
type StoredFile struct {
	Name         string // generated storage name, unique per write
	OriginalName string
	Path         string // absolute path on disk
	URL          string // public URL served by the static file route
}

// Store writes review images under a single configured directory and maps
// them to public URLs. Writes go through a temp file plus rename so a
// half-written file is never visible under its final name.
type Store struct {
	dir        string
	publicPath string
	log        *zap.Logger
}

func New(dir, publicPath string, log *zap.Logger) (*Store, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve upload dir %s: %w", dir, err)
	}

	if err := os.MkdirAll(absDir, 0755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", absDir, err)
	}

	return &Store{
		dir:        absDir,
		publicPath: strings.TrimSuffix(publicPath, "/"),
		log:        log.With(zap.String("component", "filestore")),
	}, nil
}

// Save writes the content under a fresh collision-resistant name
func (s *Store) Save(content io.Reader, originalName string) (*StoredFile, error) {
	storedName := uuid.New().String() + "_" + sanitizeName(originalName)
	finalPath := filepath.Join(s.dir, storedName)

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return nil, fmt.Errorf("write image content: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return nil, fmt.Errorf("sync image content: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return nil, fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, finalPath); err != nil {
		os.Remove(tmpName)
		return nil, fmt.Errorf("publish image %s: %w", storedName, err)
	}

	s.log.Debug("Image stored",
		zap.String("stored_name", storedName),
		zap.String("original_name", originalName),
	)

	return &StoredFile{
		Name:         storedName,
		OriginalName: originalName,
		Path:         finalPath,
		URL:          s.publicPath + "/" + storedName,
	}, nil
}

// Replace writes a new file for the attachment. The previous file is left
// untouched; callers remove it with Remove only after the record pointing
// at the new file has committed.
func (s *Store) Replace(oldName string, content io.Reader, originalName string) (*StoredFile, error) {
	stored, err := s.Save(content, originalName)
	if err != nil {
		return nil, err
	}

	s.log.Debug("Image replaced",
		zap.String("old_name", oldName),
		zap.String("new_name", stored.Name),
	)

	return stored, nil
}

// Remove deletes a stored file. Removing a file that is already gone is a no-op.
func (s *Store) Remove(storedName string) error {
	if storedName == "" {
		return nil
	}

	err := os.Remove(filepath.Join(s.dir, filepath.Base(storedName)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove image %s: %w", storedName, err)
	}

	return nil
}

// Dir returns the absolute directory backing the store, for the static file route
func (s *Store) Dir() string {
	return s.dir
}

// sanitizeName strips path components and whitespace from the client filename
func sanitizeName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	base = strings.ReplaceAll(base, " ", "_")
	if base == "" || base == "." || base == ".." {
		return "image"
	}
	return base
}
