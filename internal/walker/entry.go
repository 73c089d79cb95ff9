package walker

import (
	"io/fs"
	"path/filepath"
	"time"
)

// Kind classifies a filesystem artifact by type.
type Kind uint8

const (
	// KindOther covers devices, sockets, fifos and anything else the walker
	// does not report.
	KindOther Kind = iota
	// KindFile is a regular file.
	KindFile
	// KindDir is a directory.
	KindDir
	// KindSymlink is a symbolic link.
	KindSymlink
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "dir"
	case KindSymlink:
		return "symlink"
	default:
		return "other"
	}
}

// kindOf derives the Kind from a file mode.
func kindOf(mode fs.FileMode) Kind {
	switch {
	case mode.IsRegular():
		return KindFile
	case mode.IsDir():
		return KindDir
	case mode&fs.ModeSymlink != 0:
		return KindSymlink
	default:
		return KindOther
	}
}

// Entry is one filesystem artifact found by a walk.
//
// Entries are built once and never modified by the walker. For an artifact
// reached through one or more symbolic links, Path is the path of the first
// link in the chain and TargetPath is the real location; all metadata fields
// describe the target.
type Entry struct {
	// Path is the absolute, cleaned path the artifact was found at.
	Path string
	// TargetPath is the resolved path when the artifact was reached through a
	// symbolic link chain. Empty otherwise.
	TargetPath string

	Size  int64
	Mode  fs.FileMode
	UID   uint32
	GID   uint32
	Nlink uint64
	Dev   uint64
	Ino   uint64

	AccessTime time.Time
	ModTime    time.Time
	ChangeTime time.Time
	// BirthTime is zero when the platform or filesystem does not record it.
	BirthTime time.Time

	broken bool
}

// newEntry builds an Entry for path from a completed lookup.
func newEntry(path string, st lookup) Entry {
	meta := sysStat(st.info)
	e := Entry{
		Path:       path,
		Size:       st.info.Size(),
		Mode:       st.info.Mode(),
		UID:        meta.uid,
		GID:        meta.gid,
		Nlink:      meta.nlink,
		Dev:        meta.dev,
		Ino:        meta.ino,
		AccessTime: meta.atime,
		ModTime:    st.info.ModTime(),
		ChangeTime: meta.ctime,
		BirthTime:  meta.birth,
	}
	if e.BirthTime.IsZero() && st.hasBirth {
		e.BirthTime = st.birth
	}
	return e
}

// brokenEntry describes a link chain starting at origin whose final target
// does not exist.
func brokenEntry(origin, target string) Entry {
	return Entry{Path: origin, TargetPath: target, Mode: fs.ModeSymlink, broken: true}
}

// withPath returns a copy of e reported under linkPath. The copy remembers
// the real location in TargetPath.
func (e Entry) withPath(linkPath string) Entry {
	if e.TargetPath == "" {
		e.TargetPath = e.Path
	}
	e.Path = linkPath
	return e
}

// Name returns the base name of Path.
func (e Entry) Name() string { return filepath.Base(e.Path) }

// Kind returns the kind of the (target) artifact.
func (e Entry) Kind() Kind { return kindOf(e.Mode) }

// IsFile reports whether the target is a regular file.
func (e Entry) IsFile() bool { return e.Mode.IsRegular() }

// IsDir reports whether the target is a directory.
func (e Entry) IsDir() bool { return e.Mode.IsDir() }

// IsSymlink reports whether the target itself is a symbolic link. Entries
// reached through a link report the type of what the link points at, so this
// is only true for broken link entries.
func (e Entry) IsSymlink() bool { return e.Mode&fs.ModeSymlink != 0 }

// ViaSymlink reports whether the entry was reached through a link chain.
func (e Entry) ViaSymlink() bool { return e.TargetPath != "" }

// IsBrokenLink reports whether the entry stands for a link chain whose target
// does not exist. Such entries never reach Files or Dirs: the walk reports
// them by origin path in Result.BrokenSymlinks.
func (e Entry) IsBrokenLink() bool { return e.broken }

// realPath is where the artifact actually lives.
func (e Entry) realPath() string {
	if e.TargetPath != "" {
		return e.TargetPath
	}
	return e.Path
}

// Attribute names understood by filters.
const (
	AttrPath      = "path"
	AttrName      = "name"
	AttrTarget    = "target"
	AttrSize      = "size"
	AttrMode      = "mode"
	AttrUID       = "uid"
	AttrGID       = "gid"
	AttrNlink     = "nlink"
	AttrDev       = "dev"
	AttrIno       = "ino"
	AttrAtime     = "atime"
	AttrMtime     = "mtime"
	AttrCtime     = "ctime"
	AttrBirthtime = "birthtime"
)

var attributes = []string{
	AttrPath, AttrName, AttrTarget, AttrSize, AttrMode, AttrUID, AttrGID,
	AttrNlink, AttrDev, AttrIno, AttrAtime, AttrMtime, AttrCtime, AttrBirthtime,
}

// Attributes returns the attribute names a filter may declare.
func Attributes() []string {
	out := make([]string, len(attributes))
	copy(out, attributes)
	return out
}

// IsAttribute reports whether name is a known filter attribute.
func IsAttribute(name string) bool {
	for _, a := range attributes {
		if a == name {
			return true
		}
	}
	return false
}

// Attr returns the value of the named attribute. The boolean is false when
// the entry does not carry the attribute: "target" for entries not reached
// through a link, "birthtime" when it is unknown, and any unknown name.
//
// Value types: path, name and target are string; size is int64; mode is
// fs.FileMode; uid and gid are uint32; nlink, dev and ino are uint64; the
// time attributes are time.Time.
func (e Entry) Attr(name string) (any, bool) {
	switch name {
	case AttrPath:
		return e.Path, true
	case AttrName:
		return e.Name(), true
	case AttrTarget:
		return e.TargetPath, e.TargetPath != ""
	case AttrSize:
		return e.Size, true
	case AttrMode:
		return e.Mode, true
	case AttrUID:
		return e.UID, true
	case AttrGID:
		return e.GID, true
	case AttrNlink:
		return e.Nlink, true
	case AttrDev:
		return e.Dev, true
	case AttrIno:
		return e.Ino, true
	case AttrAtime:
		return e.AccessTime, true
	case AttrMtime:
		return e.ModTime, true
	case AttrCtime:
		return e.ChangeTime, true
	case AttrBirthtime:
		return e.BirthTime, !e.BirthTime.IsZero()
	default:
		return nil, false
	}
}
