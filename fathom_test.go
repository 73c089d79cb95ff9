package fathom_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/fathom"
)

func TestFind(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "keep.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "skip.tmp"), []byte("x"), 0644))
	require.NoError(t, os.Symlink(filepath.Join(root, "gone"), filepath.Join(root, "broken")))

	res, err := fathom.Find(context.Background(), root, fathom.Options{
		Filter: fathom.Filter{File: fathom.Rules{
			"name": func(v any) bool { return filepath.Ext(v.(string)) == ".tmp" },
		}},
	})
	require.NoError(t, err)

	require.Len(t, res.Files, 1)
	assert.Equal(t, filepath.Join(root, "keep.txt"), res.Files[0].Path)
	assert.Equal(t, []string{filepath.Join(root, "broken")}, res.BrokenSymlinks)
	assert.Empty(t, res.Errors)
}

func TestFindRejectsUnknownAttribute(t *testing.T) {
	_, err := fathom.Find(context.Background(), t.TempDir(), fathom.Options{
		Filter: fathom.Filter{Dir: fathom.Rules{"colour": func(any) bool { return true }}},
	})
	assert.ErrorIs(t, err, fathom.ErrInvalidFilter)
}
