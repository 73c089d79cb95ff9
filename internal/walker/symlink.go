package walker

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"syscall"
)

// chain is the state of one link resolution. It is owned by a single
// goroutine.
type chain struct {
	origin  string
	visited map[string]struct{}
}

func newChain(origin string) *chain {
	return &chain{
		origin:  origin,
		visited: map[string]struct{}{origin: {}},
	}
}

// visit records hop and reports false if the chain has already been there.
func (c *chain) visit(hop string) bool {
	if _, seen := c.visited[hop]; seen {
		return false
	}
	c.visited[hop] = struct{}{}
	return true
}

func (c *chain) fail(hop string, err error) *SymlinkResolutionError {
	return &SymlinkResolutionError{Path: c.origin, Link: hop, Err: err}
}

// resolution is the final outcome of following one link chain.
type resolution struct {
	origin string
	// target is the final artifact, labelled with its real path.
	target Entry
	kind   Kind
	err    error
}

// resolveTarget turns a raw link target into an absolute, cleaned path.
// Relative targets are relative to the directory holding the link.
func resolveTarget(link, raw string) string {
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw)
	}
	return filepath.Join(filepath.Dir(link), raw)
}

// isMissing reports whether a target lookup failed because the target is
// not there. ENOTDIR means a path component is a file, which leaves the
// target just as absent.
func isMissing(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}

// resolve follows the chain starting at link hop by hop until it reaches a
// non-link, a missing target, a failure or a cycle.
func (w *Walker) resolve(ctx context.Context, link string) resolution {
	c := newChain(link)
	hop := link
	for {
		raw, err := w.readlink(ctx, hop)
		if err != nil {
			return resolution{origin: c.origin, err: c.fail(hop, err)}
		}

		target := resolveTarget(hop, raw)
		st, err := w.lstat(ctx, target)
		if err != nil {
			if isMissing(err) {
				return resolution{origin: c.origin, target: brokenEntry(c.origin, target)}
			}
			return resolution{origin: c.origin, err: c.fail(target, err)}
		}

		entry, kind := classify(target, st)
		if kind != KindSymlink {
			return resolution{origin: c.origin, target: entry, kind: kind}
		}
		if !c.visit(target) {
			return resolution{origin: c.origin, err: c.fail(target, ErrSymlinkCycle)}
		}
		w.logger.LogDebug(fmt.Sprintf("following symlink %s -> %s", hop, target))
		hop = target
	}
}

// settle applies filters to resolved links and places them into lv. Kept
// linked directories are returned for traversal, labelled with the link path.
func (w *Walker) settle(lv *level, resolved []resolution) (linkedDirs []Entry, failed []partial) {
	for _, r := range resolved {
		switch {
		case r.err != nil:
			failed = append(failed, partial{err: r.err})
		case r.target.IsBrokenLink():
			lv.res.BrokenSymlinks = append(lv.res.BrokenSymlinks, r.target.Path)
		case r.kind == KindFile:
			if !IsSymlinkIgnored(w.filter.File, r.target, r.origin) {
				lv.res.Files = append(lv.res.Files, r.target.withPath(r.origin))
			}
		case r.kind == KindDir:
			if !IsSymlinkIgnored(w.filter.Dir, r.target, r.origin) {
				linked := r.target.withPath(r.origin)
				lv.res.Dirs = append(lv.res.Dirs, linked)
				linkedDirs = append(linkedDirs, linked)
			}
		default:
			w.logger.LogWarn(fmt.Sprintf("symlink points to a non file/directory/symlink artifact: %s", r.origin))
		}
	}
	return linkedDirs, failed
}
