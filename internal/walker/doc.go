// Package walker implements fathom's concurrent filesystem-tree walker.
//
// A walk classifies every artifact reachable under a root directory into
// files, directories and broken symbolic links. Symbolic links are followed
// to their final target; the target's metadata is reported under the path of
// the link the walk originally found, so a chain A -> B -> C is reported once,
// as A. Per-attribute predicates decide which files and directories are kept.
//
// # Traversal
//
// Each directory level is a fork/join unit: the directory is listed, every
// child is lstat'ed concurrently, kept subdirectories are walked
// concurrently, and symbolic links are resolved concurrently. A level only
// returns after all of its children have reported. Every forked task owns its
// own partial Result and partials are merged only at the join point, so no
// locking is needed around the buckets.
//
// Filesystem I/O is bounded by a walker-wide semaphore (see
// Options.MaxConcurrency). The semaphore is held for one syscall at a time and
// never while a level waits on its children.
//
// # Errors
//
// Filesystem failures never fail a walk. They are collected in Result.Errors
// as *DirectoryReadError, *StatError or *SymlinkResolutionError values, and a
// failure in one subtree does not affect its siblings. A link whose target
// does not exist is not an error; its path is listed in Result.BrokenSymlinks.
// Find itself only returns an error for an invalid Filter, an unusable root
// path, or a cancelled context.
//
// # Usage
//
//	res, err := walker.Find(ctx, "/srv/data", walker.Options{
//	    Filter: walker.Filter{
//	        File: walker.Rules{
//	            "gid": func(v any) bool { return v.(uint32) != 127 },
//	        },
//	    },
//	})
//	if err != nil {
//	    return err
//	}
//	for _, f := range res.Files {
//	    fmt.Println(f.Path, f.Size)
//	}
package walker
