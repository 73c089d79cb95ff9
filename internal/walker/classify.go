package walker

import "fmt"

// level accumulates one directory's own findings before its children are
// forked.
type level struct {
	res     *Result
	subdirs []Entry
	links   []string
}

// statOutcome is the result of lstat'ing one directory child.
type statOutcome struct {
	path string
	st   lookup
	err  error
}

// classify turns a completed lookup into a path-tagged entry and its kind.
func classify(path string, st lookup) (Entry, Kind) {
	e := newEntry(path, st)
	return e, e.Kind()
}

// dispatch places one child into the level: files and kept directories go
// to their buckets, links wait for resolution, everything else is only
// diagnosed.
func (w *Walker) dispatch(lv *level, out statOutcome) {
	if out.err != nil {
		lv.res.Errors = append(lv.res.Errors, &StatError{Path: out.path, Err: out.err})
		return
	}

	entry, kind := classify(out.path, out.st)
	switch kind {
	case KindFile:
		if !IsIgnored(w.filter.File, entry) {
			lv.res.Files = append(lv.res.Files, entry)
		}
	case KindDir:
		if !IsIgnored(w.filter.Dir, entry) {
			lv.res.Dirs = append(lv.res.Dirs, entry)
			lv.subdirs = append(lv.subdirs, entry)
		}
	case KindSymlink:
		lv.links = append(lv.links, entry.Path)
	default:
		w.logger.LogWarn(fmt.Sprintf("not a file/directory/symlink artifact: %s", entry.Path))
	}
}
