package walker

import (
	"io/fs"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntry() Entry {
	return Entry{
		Path:      "/srv/data/report.csv",
		Size:      2048,
		Mode:      0640,
		UID:       1000,
		GID:       127,
		Nlink:     1,
		ModTime:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		BirthTime: time.Time{},
	}
}

func TestIsIgnored(t *testing.T) {
	tests := []struct {
		name  string
		rules Rules
		want  bool
	}{
		{
			name:  "nil rules never ignore",
			rules: nil,
			want:  false,
		},
		{
			name:  "single matching rule ignores",
			rules: Rules{AttrGID: func(v any) bool { return v.(uint32) == 127 }},
			want:  true,
		},
		{
			name:  "single non-matching rule keeps",
			rules: Rules{AttrGID: func(v any) bool { return v.(uint32) != 127 }},
			want:  false,
		},
		{
			name: "any matching rule is enough",
			rules: Rules{
				AttrSize: func(v any) bool { return v.(int64) > 1<<20 },
				AttrName: func(v any) bool { return v.(string) == "report.csv" },
			},
			want: true,
		},
		{
			name:  "missing birthtime is skipped",
			rules: Rules{AttrBirthtime: func(any) bool { return true }},
			want:  false,
		},
		{
			name:  "missing target is skipped",
			rules: Rules{AttrTarget: func(any) bool { return true }},
			want:  false,
		},
		{
			name:  "unknown attribute is skipped",
			rules: Rules{"colour": func(any) bool { return true }},
			want:  false,
		},
		{
			name:  "mode value is a FileMode",
			rules: Rules{AttrMode: func(v any) bool { return v.(fs.FileMode).Perm()&0004 == 0 }},
			want:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsIgnored(tt.rules, sampleEntry()))
		})
	}
}

func TestIsSymlinkIgnoredUsesLinkPath(t *testing.T) {
	target := sampleEntry()
	link := "/home/me/latest.csv"

	byPath := Rules{AttrPath: func(v any) bool { return v.(string) == link }}
	assert.True(t, IsSymlinkIgnored(byPath, target, link))
	assert.False(t, IsIgnored(byPath, target))

	byName := Rules{AttrName: func(v any) bool { return v.(string) == "latest.csv" }}
	assert.True(t, IsSymlinkIgnored(byName, target, link))

	byGID := Rules{AttrGID: func(v any) bool { return v.(uint32) == 127 }}
	assert.True(t, IsSymlinkIgnored(byGID, target, link))

	byTarget := Rules{AttrTarget: func(v any) bool { return v.(string) == target.Path }}
	assert.True(t, IsSymlinkIgnored(byTarget, target, link))
}

func TestFilterValidate(t *testing.T) {
	ok := Filter{
		File: Rules{AttrSize: func(any) bool { return false }},
		Dir:  Rules{AttrPath: func(any) bool { return false }},
	}
	require.NoError(t, ok.Validate())
	require.NoError(t, Filter{}.Validate())

	err := Filter{File: Rules{"colour": func(any) bool { return false }}}.Validate()
	assert.ErrorIs(t, err, ErrInvalidFilter)
	assert.Contains(t, err.Error(), "colour")

	err = Filter{Dir: Rules{AttrUID: nil}}.Validate()
	assert.ErrorIs(t, err, ErrInvalidFilter)
	assert.Contains(t, err.Error(), "dir")
}

func TestEntryAttr(t *testing.T) {
	e := sampleEntry()

	for _, name := range Attributes() {
		v, ok := e.Attr(name)
		switch name {
		case AttrTarget, AttrBirthtime:
			assert.False(t, ok, name)
		default:
			assert.True(t, ok, name)
			assert.NotNil(t, v, name)
		}
	}

	linked := e.withPath("/tmp/link")
	target, ok := linked.Attr(AttrTarget)
	require.True(t, ok)
	assert.Equal(t, e.Path, target)
	assert.Equal(t, "link", linked.Name())
	assert.True(t, linked.ViaSymlink())

	// Relabelling twice keeps the real location.
	again := linked.withPath("/tmp/other")
	assert.Equal(t, e.Path, again.TargetPath)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindFile, kindOf(0644))
	assert.Equal(t, KindDir, kindOf(fs.ModeDir|0755))
	assert.Equal(t, KindSymlink, kindOf(fs.ModeSymlink|0777))
	assert.Equal(t, KindOther, kindOf(fs.ModeNamedPipe))
	assert.Equal(t, KindOther, kindOf(fs.ModeDevice))
	assert.Equal(t, "symlink", KindSymlink.String())
}
