package walker

import (
	"errors"
	"fmt"
)

// ErrSymlinkCycle marks a link chain, or a linked directory, that leads back
// to somewhere the walk has already been.
var ErrSymlinkCycle = errors.New("symlink cycle")

// ErrInvalidFilter is returned by Find before any I/O when the filter
// configuration is malformed.
var ErrInvalidFilter = errors.New("invalid filter")

// DirectoryReadError records a directory that could not be listed. Nothing
// below it is reported.
type DirectoryReadError struct {
	Path string
	Err  error
}

func (e *DirectoryReadError) Error() string {
	return fmt.Sprintf("read directory %s: %v", e.Path, e.Err)
}

func (e *DirectoryReadError) Unwrap() error { return e.Err }

// StatError records a directory child whose metadata lookup failed. The
// child is skipped; its siblings are not affected.
type StatError struct {
	Path string
	Err  error
}

func (e *StatError) Error() string {
	return fmt.Sprintf("lstat %s: %v", e.Path, e.Err)
}

func (e *StatError) Unwrap() error { return e.Err }

// SymlinkResolutionError records a link chain that could not be followed for
// a reason other than a missing target: an unreadable link, a target lookup
// failure, or a cycle.
type SymlinkResolutionError struct {
	// Path is the link the chain started at.
	Path string
	// Link is the hop at which resolution failed.
	Link string
	Err  error
}

func (e *SymlinkResolutionError) Error() string {
	if e.Link == "" || e.Link == e.Path {
		return fmt.Sprintf("resolve symlink %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("resolve symlink %s (at %s): %v", e.Path, e.Link, e.Err)
}

func (e *SymlinkResolutionError) Unwrap() error { return e.Err }
