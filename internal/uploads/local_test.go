package uploads

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngBytes is a minimal PNG header, enough for content sniffing.
var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestNewLocalCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "uploads")

	store, err := NewLocal(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, store.Dir())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestSave(t *testing.T) {
	store := newTestStore(t)

	name, err := store.Save(bytes.NewReader(pngBytes), "ring-photo.PNG")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(name, "product_"))
	assert.True(t, strings.HasSuffix(name, ".png"))
	assert.NotContains(t, name, "ring-photo")

	data, err := os.ReadFile(filepath.Join(store.Dir(), name))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)
}

func TestSaveGeneratesUniqueNames(t *testing.T) {
	store := newTestStore(t)

	first, err := store.Save(bytes.NewReader(pngBytes), "a.png")
	require.NoError(t, err)
	second, err := store.Save(bytes.NewReader(pngBytes), "a.png")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestSaveRejectsDisallowedExtension(t *testing.T) {
	store := newTestStore(t)

	for _, name := range []string{"shady.exe", "script.php", "noext", "archive.tar.gz"} {
		_, err := store.Save(bytes.NewReader(pngBytes), name)
		assert.ErrorIs(t, err, ErrUnsupportedType, "filename %q", name)
	}

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSaveRejectsNonImageContent(t *testing.T) {
	store := newTestStore(t)

	html := []byte("<!DOCTYPE html><html><body>not an image</body></html>")
	_, err := store.Save(bytes.NewReader(html), "sneaky.jpg")

	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestRemove(t *testing.T) {
	store := newTestStore(t)

	name, err := store.Save(bytes.NewReader(pngBytes), "x.png")
	require.NoError(t, err)

	require.NoError(t, store.Remove(name))

	_, err = os.Stat(filepath.Join(store.Dir(), name))
	assert.True(t, os.IsNotExist(err))
}

func TestRemoveMissingFileIsNotAnError(t *testing.T) {
	store := newTestStore(t)

	assert.NoError(t, store.Remove("product_never_existed.jpg"))
}

func TestRemoveStripsPathComponents(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocal(filepath.Join(root, "uploads"))
	require.NoError(t, err)

	outside := filepath.Join(root, "victim.txt")
	require.NoError(t, os.WriteFile(outside, []byte("keep me"), 0o644))

	require.NoError(t, store.Remove("../victim.txt"))

	_, err = os.Stat(outside)
	assert.NoError(t, err)
}
