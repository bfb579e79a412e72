// mock_storage.go - In-memory style store for testing
package testutil

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fpp-modeler/backend/internal/models"
	"github.com/fpp-modeler/backend/internal/storage"
)

// MockStyleStore implements storage.StyleStore in memory.
type MockStyleStore struct {
	mu    sync.RWMutex
	files map[string]*models.StyleFileInfo
	data  map[string][]byte

	// SaveErr, when set, is returned by every Save call.
	SaveErr error
}

// NewMockStyleStore creates an empty mock store.
func NewMockStyleStore() *MockStyleStore {
	return &MockStyleStore{
		files: make(map[string]*models.StyleFileInfo),
		data:  make(map[string][]byte),
	}
}

func (m *MockStyleStore) Save(view string, r io.Reader) (*models.StyleFileInfo, error) {
	if m.SaveErr != nil {
		return nil, m.SaveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return m.AddFile(view, data), nil
}

func (m *MockStyleStore) Load(view string) ([]byte, *models.StyleFileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info, ok := m.files[view]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", storage.ErrNotFound, view)
	}
	out := *info
	return append([]byte(nil), m.data[view]...), &out, nil
}

func (m *MockStyleStore) Get(view string) (*models.StyleFileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info, ok := m.files[view]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, view)
	}
	out := *info
	return &out, nil
}

func (m *MockStyleStore) List(limit int) ([]*models.StyleFileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var files []*models.StyleFileInfo
	for _, info := range m.files {
		out := *info
		files = append(files, &out)
		if limit > 0 && len(files) >= limit {
			break
		}
	}
	return files, nil
}

func (m *MockStyleStore) Delete(view string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.files[view]; !exists {
		return errors.New("style file not found")
	}
	delete(m.files, view)
	delete(m.data, view)
	return nil
}

// Ensure MockStyleStore implements storage.StyleStore
var _ storage.StyleStore = (*MockStyleStore)(nil)

// Test Helper Methods

// AddFile stores data for view directly.
func (m *MockStyleStore) AddFile(view string, data []byte) *models.StyleFileInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	info, ok := m.files[view]
	if !ok {
		info = &models.StyleFileInfo{ID: generateTestID(), View: view}
		m.files[view] = info
	}
	info.Size = int64(len(data))
	info.SavedAt = time.Now()
	m.data[view] = append([]byte(nil), data...)

	out := *info
	return &out
}

// GetFileData returns the stored content for view.
func (m *MockStyleStore) GetFileData(view string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.data[view]
	return data, ok
}

// GetFileCount returns the number of stored files.
func (m *MockStyleStore) GetFileCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.files)
}

var (
	testIDCounter int
	testIDMutex   sync.Mutex
)

// generateTestID generates a simple test ID
func generateTestID() string {
	testIDMutex.Lock()
	defer testIDMutex.Unlock()
	testIDCounter++
	return fmt.Sprintf("test-id-%d", testIDCounter)
}
