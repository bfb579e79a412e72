// Package storage persists per-view style files.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fpp-modeler/backend/internal/models"
	"github.com/google/uuid"
)

// ErrNotFound is returned when no style file exists for a view.
var ErrNotFound = errors.New("style file not found")

const styleExt = ".json"

// StyleStore defines the interface for style file storage.
type StyleStore interface {
	Save(view string, r io.Reader) (*models.StyleFileInfo, error)
	Load(view string) ([]byte, *models.StyleFileInfo, error)
	Get(view string) (*models.StyleFileInfo, error)
	List(limit int) ([]*models.StyleFileInfo, error)
	Delete(view string) error
}

// LocalStore implements StyleStore using one JSON file per view in a folder.
type LocalStore struct {
	mu    sync.RWMutex
	dir   string
	files map[string]*models.StyleFileInfo
}

// NewLocalStore creates a LocalStore and indexes the style files already in
// dir.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating style directory: %w", err)
	}

	s := &LocalStore{
		dir:   dir,
		files: make(map[string]*models.StyleFileInfo),
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading style directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), styleExt) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		view := strings.TrimSuffix(e.Name(), styleExt)
		s.files[view] = &models.StyleFileInfo{
			ID:      uuid.New().String(),
			View:    view,
			Size:    info.Size(),
			SavedAt: info.ModTime(),
		}
	}

	return s, nil
}

// Dir returns the folder style files are written to.
func (s *LocalStore) Dir() string {
	return s.dir
}

// Save writes the style file for view, replacing any previous one. The file
// is written to a temporary name first and renamed into place.
func (s *LocalStore) Save(view string, r io.Reader) (*models.StyleFileInfo, error) {
	view = FileKey(view)
	path := s.path(view)

	tmp, err := os.CreateTemp(s.dir, "."+view+"-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}
	size, err := io.Copy(tmp, r)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("writing file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("replacing file: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	info, ok := s.files[view]
	if !ok {
		info = &models.StyleFileInfo{ID: uuid.New().String(), View: view}
		s.files[view] = info
	}
	info.Size = size
	info.SavedAt = time.Now()

	out := *info
	return &out, nil
}

// Load returns the content and metadata of the style file for view.
func (s *LocalStore) Load(view string) ([]byte, *models.StyleFileInfo, error) {
	view = FileKey(view)

	s.mu.RLock()
	info, ok := s.files[view]
	s.mu.RUnlock()
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, view)
	}

	data, err := os.ReadFile(s.path(view))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, view)
		}
		return nil, nil, fmt.Errorf("reading file: %w", err)
	}

	out := *info
	return data, &out, nil
}

// Get retrieves style file metadata for view.
func (s *LocalStore) Get(view string) (*models.StyleFileInfo, error) {
	view = FileKey(view)

	s.mu.RLock()
	defer s.mu.RUnlock()

	info, ok := s.files[view]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, view)
	}
	out := *info
	return &out, nil
}

// List returns the most recently saved style files. limit <= 0 returns all.
func (s *LocalStore) List(limit int) ([]*models.StyleFileInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*models.StyleFileInfo, 0, len(s.files))
	for _, info := range s.files {
		out := *info
		list = append(list, &out)
	}

	// Sort by SavedAt desc, then view name for a stable order
	sort.Slice(list, func(i, j int) bool {
		if !list[i].SavedAt.Equal(list[j].SavedAt) {
			return list[i].SavedAt.After(list[j].SavedAt)
		}
		return list[i].View < list[j].View
	})

	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

// Delete removes the style file for view.
func (s *LocalStore) Delete(view string) error {
	view = FileKey(view)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[view]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, view)
	}
	if err := os.Remove(s.path(view)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting file: %w", err)
	}
	delete(s.files, view)
	return nil
}

func (s *LocalStore) path(view string) string {
	return filepath.Join(s.dir, view+styleExt)
}

// FileKey maps a view key to a name that is safe to use as a file name.
func FileKey(view string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, view)
}
