// manager_test.go - Tests for the style store
package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(filepath.Join(t.TempDir(), "styles"))
	require.NoError(t, err)
	return store
}

func TestNewLocalStore(t *testing.T) {
	t.Run("creates directory", func(t *testing.T) {
		store := createTestStore(t)
		assert.DirExists(t, store.Dir())
	})

	t.Run("indexes existing files", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "function_Ref.Command.json"), []byte(`{}`), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(`x`), 0644))

		store, err := NewLocalStore(dir)
		require.NoError(t, err)

		list, err := store.List(0)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "function_Ref.Command", list[0].View)
		assert.NotEmpty(t, list[0].ID)
	})
}

func TestSaveLoad(t *testing.T) {
	store := createTestStore(t)

	first, err := store.Save("function_Ref.Command", strings.NewReader(`{"style":[]}`))
	require.NoError(t, err)
	assert.Equal(t, int64(12), first.Size)
	assert.FileExists(t, filepath.Join(store.Dir(), "function_Ref.Command.json"))

	second, err := store.Save("function_Ref.Command", strings.NewReader(`{"style":[{}]}`))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "id is stable across saves")

	data, info, err := store.Load("function_Ref.Command")
	require.NoError(t, err)
	assert.Equal(t, `{"style":[{}]}`, string(data))
	assert.Equal(t, second.ID, info.ID)

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestLoadMissing(t *testing.T) {
	store := createTestStore(t)
	_, _, err := store.Load("nope")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListOrderAndLimit(t *testing.T) {
	store := createTestStore(t)
	for _, v := range []string{"a", "b", "c"} {
		_, err := store.Save(v, strings.NewReader(v))
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
	}

	list, err := store.List(2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "c", list[0].View)
	assert.Equal(t, "b", list[1].View)
}

func TestDelete(t *testing.T) {
	store := createTestStore(t)
	_, err := store.Save("v", strings.NewReader("x"))
	require.NoError(t, err)

	require.NoError(t, store.Delete("v"))
	assert.NoFileExists(t, filepath.Join(store.Dir(), "v.json"))
	assert.ErrorIs(t, store.Delete("v"), ErrNotFound)
}

func TestFileKey(t *testing.T) {
	assert.Equal(t, "function_Ref.Command", FileKey("function_Ref.Command"))
	assert.Equal(t, "a_b_c", FileKey("a/b\\c"))

	store := createTestStore(t)
	_, err := store.Save("../escape", strings.NewReader("x"))
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(store.Dir(), ".._escape.json"))
}
