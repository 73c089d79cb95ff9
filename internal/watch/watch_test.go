package watch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDebounce = 50 * time.Millisecond

func waitChange(t *testing.T, w *Watcher) Change {
	t.Helper()
	select {
	case c := <-w.Changes():
		return c
	case err := <-w.Errors():
		t.Fatalf("watcher error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a change")
	}
	return Change{}
}

func assertNoChange(t *testing.T, w *Watcher, within time.Duration) {
	t.Helper()
	select {
	case c := <-w.Changes():
		t.Fatalf("unexpected change %v", c.Paths)
	case <-time.After(within):
	}
}

func TestNewWatcher(t *testing.T) {
	root := t.TempDir()
	w, err := New(root, Options{})
	require.NoError(t, err)
	defer w.Close()

	abs, _ := filepath.Abs(root)
	assert.Equal(t, abs, w.Root())
	assert.Equal(t, DefaultDebounce, w.opts.Debounce)
}

func TestBurstIsCoalesced(t *testing.T) {
	root := t.TempDir()
	w, err := New(root, Options{Debounce: testDebounce})
	require.NoError(t, err)
	defer w.Close()

	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte("x"), 0644))
	}

	c := waitChange(t, w)
	assert.Contains(t, c.Paths, filepath.Join(root, "a.txt"))
	assert.Contains(t, c.Paths, filepath.Join(root, "c.txt"))
	assert.True(t, isSortedUnique(c.Paths), "paths should be sorted and unique: %v", c.Paths)

	assertNoChange(t, w, 3*testDebounce)
}

func TestNewSubdirectoryIsWatched(t *testing.T) {
	root := t.TempDir()
	w, err := New(root, Options{Debounce: testDebounce})
	require.NoError(t, err)
	defer w.Close()

	sub := filepath.Join(root, "sub")
	require.NoError(t, os.Mkdir(sub, 0755))
	waitChange(t, w)

	// give the watcher a moment to register the new directory
	time.Sleep(testDebounce)
	require.NoError(t, os.WriteFile(filepath.Join(sub, "deep.txt"), []byte("x"), 0644))

	c := waitChange(t, w)
	assert.Contains(t, c.Paths, filepath.Join(sub, "deep.txt"))
}

func TestExistingSubdirectoryIsWatched(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(sub, 0755))

	w, err := New(root, Options{Debounce: testDebounce})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(sub, "f"), []byte("x"), 0644))
	c := waitChange(t, w)
	assert.Equal(t, []string{filepath.Join(sub, "f")}, c.Paths)
}

func TestIgnoredPathsAreDropped(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "report.json")
	w, err := New(root, Options{
		Debounce: testDebounce,
		Ignore: func(path string) bool {
			return path == out || strings.HasPrefix(path, out+".")
		},
	})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(out, []byte("{}"), 0644))
	assertNoChange(t, w, 4*testDebounce)

	require.NoError(t, os.WriteFile(filepath.Join(root, "real.txt"), []byte("x"), 0644))
	c := waitChange(t, w)
	assert.Equal(t, []string{filepath.Join(root, "real.txt")}, c.Paths)
}

func TestCloseIsIdempotent(t *testing.T) {
	w, err := New(t.TempDir(), Options{Debounce: testDebounce})
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}

func TestCompact(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, compact([]string{"a", "a", "b", "c", "c"}))
	assert.Empty(t, compact(nil))
}

func isSortedUnique(paths []string) bool {
	for i := 1; i < len(paths); i++ {
		if paths[i] <= paths[i-1] {
			return false
		}
	}
	return true
}
