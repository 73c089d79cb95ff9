package walker

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMerge(t *testing.T) {
	base := &Result{Files: []Entry{{Path: "/a"}}}
	boom := errors.New("boom")

	got := merge(base,
		partial{res: &Result{Files: []Entry{{Path: "/b"}}, Dirs: []Entry{{Path: "/d"}}}},
		partial{err: boom},
		partial{res: &Result{BrokenSymlinks: []string{"/l"}, Errors: []error{errors.New("inner")}}},
		partial{},
	)

	assert.Same(t, base, got)
	assert.Equal(t, []string{"/a", "/b"}, paths(got.Files))
	assert.Equal(t, []string{"/d"}, paths(got.Dirs))
	assert.Equal(t, []string{"/l"}, got.BrokenSymlinks)
	assert.Len(t, got.Errors, 2)
	assert.ErrorIs(t, got.Errors[0], boom)
}

func TestMergeIdentity(t *testing.T) {
	base := &Result{Files: []Entry{{Path: "/a"}}, BrokenSymlinks: []string{"/x"}}
	got := merge(base)
	assert.Equal(t, []string{"/a"}, paths(got.Files))
	assert.Equal(t, []string{"/x"}, got.BrokenSymlinks)
	assert.Empty(t, got.Errors)
}

func TestMergeOrderIndependent(t *testing.T) {
	p1 := partial{res: &Result{Files: []Entry{{Path: "/1"}}}}
	p2 := partial{res: &Result{Files: []Entry{{Path: "/2"}}, Dirs: []Entry{{Path: "/d"}}}}

	a := merge(&Result{}, p1, p2)
	b := merge(&Result{}, p2, p1)
	assert.ElementsMatch(t, paths(a.Files), paths(b.Files))
	assert.ElementsMatch(t, paths(a.Dirs), paths(b.Dirs))
}

func TestResultSort(t *testing.T) {
	r := &Result{
		Files:          []Entry{{Path: "/z"}, {Path: "/a"}},
		Dirs:           []Entry{{Path: "/y"}, {Path: "/b"}},
		BrokenSymlinks: []string{"/q", "/c"},
		Errors:         []error{errors.New("b"), errors.New("a")},
	}
	r.Sort()
	assert.Equal(t, "/a", r.Files[0].Path)
	assert.Equal(t, "/b", r.Dirs[0].Path)
	assert.Equal(t, []string{"/c", "/q"}, r.BrokenSymlinks)
	assert.Equal(t, "a", r.Errors[0].Error())
	assert.Equal(t, 4, r.Len())
	assert.True(t, r.HasErrors())
}

func TestResolveTarget(t *testing.T) {
	link := filepath.FromSlash("/srv/links/current")
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "release", want: "/srv/links/release"},
		{raw: "../releases/v2", want: "/srv/releases/v2"},
		{raw: "/opt/app//bin/../lib", want: "/opt/app/lib"},
		{raw: "./current", want: "/srv/links/current"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, filepath.FromSlash(tt.want), resolveTarget(link, filepath.FromSlash(tt.raw)))
		})
	}
}

func TestChainVisit(t *testing.T) {
	c := newChain("/a")
	assert.False(t, c.visit("/a"))
	assert.True(t, c.visit("/b"))
	assert.False(t, c.visit("/b"))

	err := c.fail("/b", ErrSymlinkCycle)
	assert.Equal(t, "/a", err.Path)
	assert.ErrorIs(t, err, ErrSymlinkCycle)
	assert.Contains(t, err.Error(), "at /b")
}

func TestErrorMessages(t *testing.T) {
	inner := errors.New("permission denied")
	assert.Equal(t, "read directory /x: permission denied", (&DirectoryReadError{Path: "/x", Err: inner}).Error())
	assert.Equal(t, "lstat /x/y: permission denied", (&StatError{Path: "/x/y", Err: inner}).Error())
	assert.Equal(t, "resolve symlink /l: permission denied", (&SymlinkResolutionError{Path: "/l", Link: "/l", Err: inner}).Error())
}
