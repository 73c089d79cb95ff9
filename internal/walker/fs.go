package walker

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/afero"
)

// FS is the filesystem a walk reads from.
type FS interface {
	// ReadDirNames lists the names of the entries in a directory.
	ReadDirNames(path string) ([]string, error)
	// Lstat returns metadata without following a final symbolic link.
	Lstat(path string) (os.FileInfo, error)
	// Readlink returns the raw target stored in a symbolic link.
	Readlink(path string) (string, error)
}

// birthTimer is implemented by filesystems that can report creation time
// separately from Lstat.
type birthTimer interface {
	BirthTime(path string) (time.Time, bool)
}

var errReadlinkUnsupported = errors.New("readlink not supported by filesystem")

// aferoFS adapts an afero filesystem to FS.
type aferoFS struct {
	fs     afero.Fs
	native bool
}

// NewFS adapts an afero filesystem. Lstat uses afero.Lstater when the
// filesystem provides it and falls back to Stat otherwise; Readlink requires
// afero.LinkReader.
func NewFS(fsys afero.Fs) FS {
	_, native := fsys.(*afero.OsFs)
	return &aferoFS{fs: fsys, native: native}
}

// OSFS returns the operating system filesystem.
func OSFS() FS {
	return NewFS(afero.NewOsFs())
}

func (a *aferoFS) ReadDirNames(path string) ([]string, error) {
	f, err := a.fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return f.Readdirnames(-1)
}

func (a *aferoFS) Lstat(path string) (os.FileInfo, error) {
	if l, ok := a.fs.(afero.Lstater); ok {
		info, _, err := l.LstatIfPossible(path)
		return info, err
	}
	return a.fs.Stat(path)
}

func (a *aferoFS) Readlink(path string) (string, error) {
	if r, ok := a.fs.(afero.LinkReader); ok {
		return r.ReadlinkIfPossible(path)
	}
	return "", &fs.PathError{Op: "readlink", Path: path, Err: errReadlinkUnsupported}
}

func (a *aferoFS) BirthTime(path string) (time.Time, bool) {
	if !a.native {
		return time.Time{}, false
	}
	return birthTime(path)
}

// sysMetadata holds the fields os.FileInfo does not expose portably.
type sysMetadata struct {
	uid   uint32
	gid   uint32
	nlink uint64
	dev   uint64
	ino   uint64
	atime time.Time
	ctime time.Time
	birth time.Time
}

// lookup is the outcome of one successful lstat.
type lookup struct {
	info     os.FileInfo
	birth    time.Time
	hasBirth bool
}
